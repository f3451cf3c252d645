package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"refsync/internal/logging"
	"refsync/internal/mapping"
)

// Request is one resolution attempt.
type Request struct {
	Category string
	RawValue string
	// Context carries diagnostic metadata (product title, brand, model). It is
	// stored with a recorded miss and never influences matching.
	Context map[string]string
}

// Result is the outcome of a resolution attempt.
type Result struct {
	ReferenceID string `json:"reference_id,omitempty"`
	Found       bool   `json:"found"`
	// MatchedKey is the canonical key that satisfied the lookup, for audit.
	MatchedKey string `json:"matched_key,omitempty"`
	// Strategy names the strategy that produced the match.
	Strategy string `json:"strategy,omitempty"`
}

// MissRecorder receives every resolution miss. Implemented by tracker.Ledger.
type MissRecorder interface {
	Record(ctx context.Context, category, rawValue string, context map[string]string) error
}

type strategy struct {
	name    string
	resolve func(table mapping.Table, raw string) (key string, ok bool)
}

// Resolver resolves component strings against the mapping store.
type Resolver struct {
	store      *mapping.Store
	tracker    MissRecorder
	categories map[string]struct{}
	strategies []strategy
	logger     *slog.Logger
}

// New constructs a resolver over store for the given known categories.
// tracker may be nil in tests that only exercise the lookup path.
func New(store *mapping.Store, tracker MissRecorder, categories []string, logger *slog.Logger) *Resolver {
	known := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		known[strings.ToLower(strings.TrimSpace(category))] = struct{}{}
	}
	r := &Resolver{
		store:      store,
		tracker:    tracker,
		categories: known,
		logger:     logging.NewComponentLogger(logger, "resolver"),
	}
	// Strict precedence order; resolution stops at the first success.
	r.strategies = []strategy{
		{name: "exact_key", resolve: resolveExact},
		{name: "category_heuristic", resolve: r.resolveHeuristic},
		{name: "substring", resolve: resolveSubstring},
	}
	return r
}

// Resolve attempts to produce a canonical reference id for the request. An
// unknown category yields Found=false without touching the tracker. A miss
// for a known category is recorded before returning; the returned error is
// non-nil only when that recording could not be persisted.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	category := strings.ToLower(strings.TrimSpace(req.Category))
	raw := strings.TrimSpace(req.RawValue)
	if raw == "" {
		return Result{}, nil
	}
	if _, ok := r.categories[category]; !ok {
		r.logger.Debug("unknown category",
			logging.String(logging.FieldCategory, req.Category))
		return Result{}, nil
	}

	table, err := r.store.Load(category)
	if err != nil {
		// A table read failure is not a catalog gap; do not pollute the
		// ledger with it.
		r.logger.Warn("mapping table unavailable",
			logging.String(logging.FieldCategory, category),
			logging.Error(err))
		return Result{}, nil
	}

	for _, strat := range r.strategies {
		if key, ok := strat.resolve(table, raw); ok {
			r.logger.Debug("resolved component",
				logging.String(logging.FieldCategory, category),
				logging.String("raw_value", raw),
				logging.String("matched_key", key),
				logging.String("strategy", strat.name))
			return Result{
				ReferenceID: table.Entries[key],
				Found:       true,
				MatchedKey:  key,
				Strategy:    strat.name,
			}, nil
		}
	}

	if r.tracker != nil {
		if err := r.tracker.Record(ctx, category, raw, req.Context); err != nil {
			return Result{}, fmt.Errorf("record miss for (%s, %s): %w", category, raw, err)
		}
	}
	return Result{}, nil
}

func resolveExact(table mapping.Table, raw string) (string, bool) {
	if _, ok := table.Entries[raw]; ok {
		return raw, true
	}
	return "", false
}

func (r *Resolver) resolveHeuristic(table mapping.Table, raw string) (string, bool) {
	for _, candidate := range extractCandidates(table.Category, raw) {
		if _, ok := table.Entries[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

// resolveSubstring is the lowest-priority strategy: a key matches when,
// case-folded, the key is a substring of the input or the input is a
// substring of the key. Because several keys can match the same input, keys
// are scanned in (length desc, lexical asc) order and the first match wins:
// the longest, most specific curated key. The scan order is derived from the
// keys themselves, never from map iteration order, so the result is
// deterministic.
func resolveSubstring(table mapping.Table, raw string) (string, bool) {
	folder := cases.Fold()
	foldedInput := folder.String(raw)
	if foldedInput == "" {
		return "", false
	}

	keys := make([]string, 0, len(table.Entries))
	for key := range table.Entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	for _, key := range keys {
		foldedKey := folder.String(key)
		if foldedKey == "" {
			continue
		}
		if strings.Contains(foldedInput, foldedKey) || strings.Contains(foldedKey, foldedInput) {
			return key, true
		}
	}
	return "", false
}
