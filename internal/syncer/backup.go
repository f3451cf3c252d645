package syncer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"refsync/internal/fileutil"
	"refsync/internal/mapping"
)

// backupTimestampLayout names backup set directories. Millisecond precision
// keeps consecutive runs from colliding.
const backupTimestampLayout = "20060102-150405.000"

// BackupSet is a timestamped snapshot of every mapping table taken before a
// run mutates anything. The shared timestamp lets the whole set be restored
// as one unit.
type BackupSet struct {
	Dir        string
	Timestamp  time.Time
	Categories []string
}

func createBackupSet(store *mapping.Store, backupDir string) (BackupSet, error) {
	categories, err := store.Categories()
	if err != nil {
		return BackupSet{}, fmt.Errorf("list tables: %w", err)
	}

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return BackupSet{}, fmt.Errorf("create backup directory: %w", err)
	}

	now := time.Now().UTC()
	name := now.Format(backupTimestampLayout)
	dir := filepath.Join(backupDir, name)
	for i := 2; ; i++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) {
			return BackupSet{}, fmt.Errorf("create backup set directory: %w", err)
		}
		dir = filepath.Join(backupDir, fmt.Sprintf("%s-%d", name, i))
	}

	for _, category := range categories {
		src := store.Path(category)
		dst := filepath.Join(dir, category+".json")
		if err := fileutil.CopyFileVerified(src, dst); err != nil {
			return BackupSet{}, fmt.Errorf("back up table %s: %w", category, err)
		}
	}

	return BackupSet{Dir: dir, Timestamp: now, Categories: categories}, nil
}

// rollback restores every table present in the backup set verbatim and
// removes tables the merge created that have no pre-run counterpart, leaving
// the mapping store byte-for-byte as it was before the run.
func (s *Synchronizer) rollback(backup BackupSet, touched []string) ([]string, error) {
	backedUp := make(map[string]struct{}, len(backup.Categories))
	for _, category := range backup.Categories {
		backedUp[category] = struct{}{}
	}

	var restoreErr error
	restored := make([]string, 0, len(backup.Categories))
	for _, category := range backup.Categories {
		src := filepath.Join(backup.Dir, category+".json")
		if err := fileutil.CopyFileVerified(src, s.store.Path(category)); err != nil {
			restoreErr = errors.Join(restoreErr, fmt.Errorf("restore table %s: %w", category, err))
			continue
		}
		s.store.Invalidate(category)
		restored = append(restored, category)
	}

	for _, category := range touched {
		if _, existed := backedUp[category]; existed {
			continue
		}
		if err := os.Remove(s.store.Path(category)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			restoreErr = errors.Join(restoreErr, fmt.Errorf("remove created table %s: %w", category, err))
			continue
		}
		s.store.Invalidate(category)
		restored = append(restored, category)
	}

	sort.Strings(restored)
	return restored, restoreErr
}

// ListBackups enumerates existing backup sets, newest first.
func ListBackups(backupDir string) ([]BackupSet, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	sets := make([]BackupSet, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) < len(backupTimestampLayout) {
			continue
		}
		// Collision-suffixed sets ("…-2") parse by their timestamp prefix.
		timestamp, err := time.Parse(backupTimestampLayout, name[:len(backupTimestampLayout)])
		if err != nil {
			continue
		}
		dir := filepath.Join(backupDir, entry.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read backup set %s: %w", entry.Name(), err)
		}
		categories := make([]string, 0, len(files))
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			categories = append(categories, strings.TrimSuffix(file.Name(), ".json"))
		}
		sort.Strings(categories)
		sets = append(sets, BackupSet{Dir: dir, Timestamp: timestamp.UTC(), Categories: categories})
	}

	sort.Slice(sets, func(i, j int) bool { return sets[i].Timestamp.After(sets[j].Timestamp) })
	return sets, nil
}
