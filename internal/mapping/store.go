package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"refsync/internal/fileutil"
	"refsync/internal/logging"
	"refsync/internal/refid"
)

// Entry is one canonical key and its reference id.
type Entry struct {
	Key         string
	ReferenceID string
}

// Table is a point-in-time snapshot of one category's mapping.
type Table struct {
	Category string
	Entries  map[string]string
}

// SortedEntries returns the table content in ascending key order.
func (t Table) SortedEntries() []Entry {
	entries := make([]Entry, 0, len(t.Entries))
	for key, id := range t.Entries {
		entries = append(entries, Entry{Key: key, ReferenceID: id})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

type cachedTable struct {
	entries map[string]string
	modTime time.Time
}

// Store provides thread-safe access to the on-disk mapping tables.
type Store struct {
	dir          string
	cacheEnabled bool
	logger       *slog.Logger

	mu    sync.RWMutex
	cache map[string]cachedTable
}

// NewStore creates a store rooted at dir. When cacheEnabled is set, loaded
// tables are kept in memory and revalidated against file modtimes.
func NewStore(dir string, cacheEnabled bool, logger *slog.Logger) *Store {
	return &Store{
		dir:          dir,
		cacheEnabled: cacheEnabled,
		logger:       logging.NewComponentLogger(logger, "mapping"),
		cache:        make(map[string]cachedTable),
	}
}

// Dir returns the directory holding the mapping table files.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing a category's table.
func (s *Store) Path(category string) string {
	return filepath.Join(s.dir, category+".json")
}

// Load returns the current table for category. A category whose file does not
// exist yet yields an empty table; tables are created lazily on first write.
func (s *Store) Load(category string) (Table, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return Table{}, errors.New("category cannot be empty")
	}

	path := s.Path(category)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Table{Category: category, Entries: map[string]string{}}, nil
		}
		return Table{}, fmt.Errorf("stat table %s: %w", category, err)
	}

	if s.cacheEnabled {
		s.mu.RLock()
		cached, ok := s.cache[category]
		s.mu.RUnlock()
		if ok && cached.modTime.Equal(info.ModTime()) {
			return Table{Category: category, Entries: cloneEntries(cached.entries)}, nil
		}
	}

	entries, err := readTableFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("load table %s: %w", category, err)
	}

	if s.cacheEnabled {
		s.mu.Lock()
		s.cache[category] = cachedTable{entries: cloneEntries(entries), modTime: info.ModTime()}
		s.mu.Unlock()
	}

	s.logger.Debug("loaded mapping table",
		logging.String(logging.FieldCategory, category),
		logging.Int("entry_count", len(entries)))

	return Table{Category: category, Entries: entries}, nil
}

// Write persists entries as category's table, replacing the previous file
// atomically. Keys are written in sorted order for reproducible diffs, and
// every reference id must satisfy the identifier grammar.
func (s *Store) Write(category string, entries map[string]string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return errors.New("category cannot be empty")
	}
	for key, id := range entries {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("table %s: empty canonical key", category)
		}
		if !refid.Valid(id) {
			return fmt.Errorf("table %s: key %q: %w: %q", category, key, refid.ErrInvalid, id)
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create mapping directory: %w", err)
	}

	// encoding/json writes object keys in sorted order, which pins the
	// serialized layout.
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode table %s: %w", category, err)
	}
	data = append(data, '\n')

	if err := fileutil.WriteFileAtomic(s.Path(category), data, 0o644); err != nil {
		return fmt.Errorf("write table %s: %w", category, err)
	}

	s.Invalidate(category)
	s.logger.Debug("wrote mapping table",
		logging.String(logging.FieldCategory, category),
		logging.Int("entry_count", len(entries)))
	return nil
}

// Categories lists the categories that currently have a table file on disk,
// in sorted order.
func (s *Store) Categories() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read mapping directory: %w", err)
	}
	categories := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		categories = append(categories, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(categories)
	return categories, nil
}

// Invalidate drops the cached copy of one category's table.
func (s *Store) Invalidate(category string) {
	s.mu.Lock()
	delete(s.cache, category)
	s.mu.Unlock()
}

// InvalidateAll drops every cached table.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string]cachedTable)
	s.mu.Unlock()
}

func readTableFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries := map[string]string{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse table file: %w", err)
	}
	return entries, nil
}

func cloneEntries(entries map[string]string) map[string]string {
	clone := make(map[string]string, len(entries))
	for key, id := range entries {
		clone[key] = id
	}
	return clone
}
