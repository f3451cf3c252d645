package tracker

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"refsync/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current ledger schema version. Bump this when the
// schema changes; existing ledgers with another version are refused.
const schemaVersion = 1

// ErrSchemaMismatch indicates the ledger schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("ledger schema version mismatch")

// timeLayout is fixed-width so stored timestamps order lexicographically;
// RFC3339Nano trims trailing zeros and would break ORDER BY last_seen.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one durable missing-entry record.
type Entry struct {
	Category  string            `json:"category"`
	RawValue  string            `json:"raw_value"`
	Frequency int               `json:"frequency"`
	FirstSeen time.Time         `json:"first_seen"`
	LastSeen  time.Time         `json:"last_seen"`
	Context   map[string]string `json:"context,omitempty"`
}

// Statistics aggregates the ledger for reporting.
type Statistics struct {
	Categories     int     `json:"categories"`
	DistinctValues int     `json:"distinct_values"`
	TotalFrequency int     `json:"total_frequency"`
	Top            []Entry `json:"top"`
}

// Ledger persists missing entries in a single SQLite database file.
type Ledger struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	session []Entry
}

// Open initializes or connects to the ledger database at path.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	// synchronous=FULL so a recorded miss survives power loss; the write rate
	// is low enough that the fsync cost is irrelevant.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	ledger := &Ledger{
		db:     db,
		path:   path,
		logger: logging.NewComponentLogger(logger, "tracker"),
	}
	if err := ledger.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ledger, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Path returns the ledger database file location.
func (l *Ledger) Path() string {
	return l.path
}

func (l *Ledger) initSchema(ctx context.Context) error {
	var tableExists int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := l.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: ledger has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// Record persists a miss before returning. Repeat sightings of the same
// (category, raw value) pair increment the frequency and replace the stored
// context with the most recent one.
func (l *Ledger) Record(ctx context.Context, category, rawValue string, missContext map[string]string) error {
	now := time.Now().UTC()
	timestamp := now.Format(timeLayout)

	var contextJSON sql.NullString
	if len(missContext) > 0 {
		encoded, err := json.Marshal(missContext)
		if err != nil {
			return fmt.Errorf("encode miss context: %w", err)
		}
		contextJSON = sql.NullString{String: string(encoded), Valid: true}
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO missing_entries (category, raw_value, frequency, first_seen, last_seen, context_json)
         VALUES (?, ?, 1, ?, ?, ?)
         ON CONFLICT (category, raw_value) DO UPDATE SET
             frequency = frequency + 1,
             last_seen = excluded.last_seen,
             context_json = excluded.context_json`,
		category, rawValue, timestamp, timestamp, contextJSON,
	)
	if err != nil {
		return fmt.Errorf("record miss: %w", err)
	}

	l.mu.Lock()
	l.session = append(l.session, Entry{
		Category:  category,
		RawValue:  rawValue,
		Frequency: 1,
		FirstSeen: now,
		LastSeen:  now,
		Context:   missContext,
	})
	l.mu.Unlock()

	l.logger.Debug("recorded resolution miss",
		logging.String(logging.FieldCategory, category),
		logging.String("raw_value", rawValue))
	return nil
}

// Summary returns every missing entry grouped by category, each category's
// list ordered by (frequency desc, last seen desc).
func (l *Ledger) Summary(ctx context.Context) (map[string][]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT category, raw_value, frequency, first_seen, last_seen, context_json
         FROM missing_entries
         ORDER BY category ASC, frequency DESC, last_seen DESC`)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[string][]Entry)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		summary[entry.Category] = append(summary[entry.Category], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary: %w", err)
	}
	return summary, nil
}

// Stats aggregates the ledger; top holds the topN entries across all
// categories by (frequency desc, last seen desc).
func (l *Ledger) Stats(ctx context.Context, topN int) (Statistics, error) {
	var stats Statistics
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT category), COUNT(1), COALESCE(SUM(frequency), 0) FROM missing_entries`,
	).Scan(&stats.Categories, &stats.DistinctValues, &stats.TotalFrequency)
	if err != nil {
		return Statistics{}, fmt.Errorf("aggregate ledger: %w", err)
	}

	if topN <= 0 {
		topN = 10
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT category, raw_value, frequency, first_seen, last_seen, context_json
         FROM missing_entries
         ORDER BY frequency DESC, last_seen DESC
         LIMIT ?`, topN)
	if err != nil {
		return Statistics{}, fmt.Errorf("query top entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return Statistics{}, err
		}
		stats.Top = append(stats.Top, entry)
	}
	if err := rows.Err(); err != nil {
		return Statistics{}, fmt.Errorf("iterate top entries: %w", err)
	}
	return stats, nil
}

// Remove deletes one entry. Deletion is an explicit administrative action
// taken after the corresponding canonical record has been created and mapped.
func (l *Ledger) Remove(ctx context.Context, category, rawValue string) error {
	res, err := l.db.ExecContext(ctx,
		"DELETE FROM missing_entries WHERE category = ? AND raw_value = ?",
		category, rawValue)
	if err != nil {
		return fmt.Errorf("remove entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no missing entry for (%s, %s)", category, rawValue)
	}
	return nil
}

// Session returns the misses recorded by this process since the last
// ClearSession call, in recording order.
func (l *Ledger) Session() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.session))
	copy(out, l.session)
	return out
}

// ClearSession resets the in-memory session list only; the durable ledger is
// never touched.
func (l *Ledger) ClearSession() {
	l.mu.Lock()
	l.session = nil
	l.mu.Unlock()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var entry Entry
	var firstSeen, lastSeen string
	var contextJSON sql.NullString
	if err := rows.Scan(&entry.Category, &entry.RawValue, &entry.Frequency, &firstSeen, &lastSeen, &contextJSON); err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	parsedFirst, err := time.Parse(timeLayout, firstSeen)
	if err != nil {
		return Entry{}, fmt.Errorf("parse first_seen: %w", err)
	}
	parsedLast, err := time.Parse(timeLayout, lastSeen)
	if err != nil {
		return Entry{}, fmt.Errorf("parse last_seen: %w", err)
	}
	entry.FirstSeen = parsedFirst
	entry.LastSeen = parsedLast

	if contextJSON.Valid && contextJSON.String != "" {
		if err := json.Unmarshal([]byte(contextJSON.String), &entry.Context); err != nil {
			return Entry{}, fmt.Errorf("parse context: %w", err)
		}
	}
	return entry, nil
}
