package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"refsync/internal/logging"
	"refsync/internal/mapping"
	"refsync/internal/refid"
)

// ResolvedComponent is one entry of the external resolution feed: a
// previously missing component string together with its newly created
// canonical record.
type ResolvedComponent struct {
	Category      string `json:"category"`
	RawValue      string `json:"raw_value"`
	ReferenceID   string `json:"reference_id"`
	CanonicalName string `json:"canonical_display_name,omitempty"`
}

// Key returns the canonical key the component is merged under: the curated
// display name when the platform supplied one, otherwise the raw value.
func (c ResolvedComponent) Key() string {
	if key := strings.TrimSpace(c.CanonicalName); key != "" {
		return key
	}
	return strings.TrimSpace(c.RawValue)
}

// Status is the terminal state of a synchronization run.
type Status string

const (
	StatusCommitted  Status = "committed"
	StatusRolledBack Status = "rolled_back"
)

// Counts holds the per-category merge outcome tally.
type Counts struct {
	Merged   int `json:"merged"`
	Skipped  int `json:"skipped"`
	Rejected int `json:"rejected"`
}

// Report describes one synchronization run.
type Report struct {
	RunID      string             `json:"run_id"`
	Status     Status             `json:"status"`
	BackupDir  string             `json:"backup_dir,omitempty"`
	Touched    []string           `json:"touched_categories,omitempty"`
	Restored   []string           `json:"restored_categories,omitempty"`
	Categories map[string]*Counts `json:"categories,omitempty"`
	Failure    string             `json:"failure,omitempty"`
}

// Run failure classification.
var (
	ErrRunLocked        = errors.New("synchronization already running")
	ErrBackupFailed     = errors.New("backup failed")
	ErrMergeFailed      = errors.New("merge failed")
	ErrValidationFailed = errors.New("validation failed")
)

// Synchronizer applies resolved-component feeds to the mapping store.
type Synchronizer struct {
	store      *mapping.Store
	categories map[string]struct{}
	backupDir  string
	lockPath   string
	logger     *slog.Logger
}

// New constructs a synchronizer. categories is the known category set; feed
// entries outside it are rejected without aborting the run.
func New(store *mapping.Store, categories []string, backupDir, lockPath string, logger *slog.Logger) *Synchronizer {
	known := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		known[strings.ToLower(strings.TrimSpace(category))] = struct{}{}
	}
	return &Synchronizer{
		store:      store,
		categories: known,
		backupDir:  backupDir,
		lockPath:   lockPath,
		logger:     logging.NewComponentLogger(logger, "syncer"),
	}
}

// Run executes one synchronization cycle. The returned report always carries
// the terminal status; the error describes why a run rolled back (or could
// not start) and is nil on commit.
func (s *Synchronizer) Run(ctx context.Context, components []ResolvedComponent) (Report, error) {
	report := Report{
		RunID:      uuid.NewString(),
		Categories: make(map[string]*Counts),
	}
	logger := s.logger.With(logging.String(logging.FieldRunID, report.RunID))

	runLock := flock.New(s.lockPath)
	locked, err := runLock.TryLock()
	if err != nil {
		report.Status = StatusRolledBack
		report.Failure = err.Error()
		return report, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		report.Status = StatusRolledBack
		report.Failure = ErrRunLocked.Error()
		return report, ErrRunLocked
	}
	defer func() { _ = runLock.Unlock() }()

	// BackingUp: snapshot every table before any mutation.
	backup, err := createBackupSet(s.store, s.backupDir)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrBackupFailed, err)
		logger.Error("backup failed; run aborted before merge", logging.Error(err))
		report.Status = StatusRolledBack
		report.Failure = wrapped.Error()
		return report, wrapped
	}
	report.BackupDir = backup.Dir
	logger.Info("backup set created",
		logging.String("backup_dir", backup.Dir),
		logging.Int("table_count", len(backup.Categories)))

	// Merging.
	touched, mergeErr := s.merge(ctx, components, &report, logger)
	report.Touched = touched
	if mergeErr == nil {
		// Validating: re-read every touched table from disk; any grammar
		// violation anywhere fails the whole run.
		mergeErr = s.validate(touched)
	}

	if mergeErr != nil {
		restored, restoreErr := s.rollback(backup, touched)
		report.Restored = restored
		report.Status = StatusRolledBack
		report.Failure = mergeErr.Error()
		if restoreErr != nil {
			logger.Error("rollback incomplete; backup set retained",
				logging.String("backup_dir", backup.Dir),
				logging.Error(restoreErr))
			return report, errors.Join(mergeErr, restoreErr)
		}
		logger.Warn("run rolled back",
			logging.Int("restored_tables", len(restored)),
			logging.Error(mergeErr))
		return report, mergeErr
	}

	report.Status = StatusCommitted
	logger.Info("run committed",
		logging.Int("touched_tables", len(touched)))
	return report, nil
}

func (s *Synchronizer) merge(ctx context.Context, components []ResolvedComponent, report *Report, logger *slog.Logger) ([]string, error) {
	// Stage additions per category so each table is rewritten at most once.
	staged := make(map[string]map[string]string)

	for _, component := range components {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMergeFailed, err)
		}

		category := strings.ToLower(strings.TrimSpace(component.Category))
		counts := report.Categories[category]
		if counts == nil {
			counts = &Counts{}
			report.Categories[category] = counts
		}

		if _, known := s.categories[category]; !known {
			counts.Rejected++
			logger.Warn("rejected component with unknown category",
				logging.String(logging.FieldCategory, component.Category),
				logging.String("raw_value", component.RawValue))
			continue
		}

		key := component.Key()
		if key == "" {
			counts.Rejected++
			logger.Warn("rejected component without canonical key",
				logging.String(logging.FieldCategory, category))
			continue
		}

		entries, ok := staged[category]
		if !ok {
			table, err := s.store.Load(category)
			if err != nil {
				return nil, fmt.Errorf("%w: load table %s: %v", ErrMergeFailed, category, err)
			}
			entries = table.Entries
			staged[category] = entries
		}

		// Existing mappings are never silently overwritten: a key already
		// present keeps its id, whether or not the feed agrees with it.
		if _, exists := entries[key]; exists {
			counts.Skipped++
			continue
		}
		entries[key] = strings.TrimSpace(component.ReferenceID)
		counts.Merged++
	}

	touched := make([]string, 0, len(staged))
	for category, counts := range report.Categories {
		if counts.Merged > 0 {
			touched = append(touched, category)
		}
	}
	sort.Strings(touched)

	for _, category := range touched {
		if err := s.store.Write(category, staged[category]); err != nil {
			return touched, fmt.Errorf("%w: %v", ErrMergeFailed, err)
		}
	}
	return touched, nil
}

func (s *Synchronizer) validate(touched []string) error {
	for _, category := range touched {
		s.store.Invalidate(category)
		table, err := s.store.Load(category)
		if err != nil {
			return fmt.Errorf("%w: reload table %s: %v", ErrValidationFailed, category, err)
		}
		for key, id := range table.Entries {
			if !refid.Valid(id) {
				return fmt.Errorf("%w: table %s: key %q has malformed reference id %q",
					ErrValidationFailed, category, key, id)
			}
		}
	}
	return nil
}
