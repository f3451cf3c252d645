package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"refsync/internal/logging"
)

// Watcher invalidates cached mapping tables when their files change on disk,
// so a committed sync run becomes visible to long-lived resolver processes
// without a restart.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// NewWatcher starts watching the store's mapping directory. The directory
// must exist before the watcher is created.
func NewWatcher(store *Store, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsWatcher.Add(store.Dir()); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("watch mapping directory: %w", err)
	}
	return &Watcher{
		store:   store,
		watcher: fsWatcher,
		logger:  logging.NewComponentLogger(logger, "mapping-watcher"),
	}, nil
}

// Run processes file events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("mapping watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, ".json") {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}
	category := strings.TrimSuffix(name, ".json")
	w.store.Invalidate(category)
	w.logger.Debug("invalidated cached table",
		logging.String(logging.FieldCategory, category),
		logging.String("op", event.Op.String()))
}

// Close stops the watcher; a running event loop drains and exits.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
