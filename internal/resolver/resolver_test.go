package resolver

import (
	"context"
	"errors"
	"testing"

	"refsync/internal/mapping"
	"refsync/internal/testsupport"
)

type recordedMiss struct {
	category string
	rawValue string
	context  map[string]string
}

type spyTracker struct {
	misses []recordedMiss
	err    error
}

func (s *spyTracker) Record(_ context.Context, category, rawValue string, context map[string]string) error {
	if s.err != nil {
		return s.err
	}
	s.misses = append(s.misses, recordedMiss{category: category, rawValue: rawValue, context: context})
	return nil
}

func newTestResolver(t *testing.T, tracker MissRecorder, tables map[string]map[string]string) *Resolver {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	for category, entries := range tables {
		testsupport.SeedTable(t, cfg, category, entries)
	}
	store := mapping.NewStore(cfg.Paths.MappingDir, cfg.Resolver.CacheEnabled, nil)
	return New(store, tracker, cfg.Resolver.Categories, nil)
}

func TestResolveExactMatch(t *testing.T) {
	r := newTestResolver(t, &spyTracker{}, map[string]map[string]string{
		"vga": {"RTX 3070": "gid://catalog/Component/123"},
	})

	result, err := r.Resolve(context.Background(), Request{Category: "vga", RawValue: "RTX 3070"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.Found {
		t.Fatal("Found = false")
	}
	if result.ReferenceID != "gid://catalog/Component/123" {
		t.Errorf("ReferenceID = %q", result.ReferenceID)
	}
	if result.MatchedKey != "RTX 3070" {
		t.Errorf("MatchedKey = %q", result.MatchedKey)
	}
	if result.Strategy != "exact_key" {
		t.Errorf("Strategy = %q", result.Strategy)
	}
}

func TestResolvePrecedenceExactBeatsSubstring(t *testing.T) {
	// "RTX 3070" exactly matches one key and substring-matches the longer
	// one; the exact match must always win.
	r := newTestResolver(t, &spyTracker{}, map[string]map[string]string{
		"vga": {
			"RTX 3070":    "gid://catalog/Component/1",
			"RTX 3070 Ti": "gid://catalog/Component/2",
		},
	})

	result, err := r.Resolve(context.Background(), Request{Category: "vga", RawValue: "RTX 3070"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.MatchedKey != "RTX 3070" || result.Strategy != "exact_key" {
		t.Errorf("got key %q via %q, want exact match", result.MatchedKey, result.Strategy)
	}
}

func TestResolveGraphicsHeuristic(t *testing.T) {
	r := newTestResolver(t, &spyTracker{}, map[string]map[string]string{
		"vga": {"RTX 3070": "gid://catalog/Component/123"},
	})

	result, err := r.Resolve(context.Background(), Request{
		Category: "vga",
		RawValue: "NVIDIA GeForce RTX 3070 8GB",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.Found {
		t.Fatal("Found = false")
	}
	if result.ReferenceID != "gid://catalog/Component/123" {
		t.Errorf("ReferenceID = %q", result.ReferenceID)
	}
	if result.MatchedKey != "RTX 3070" {
		t.Errorf("MatchedKey = %q", result.MatchedKey)
	}
	if result.Strategy != "category_heuristic" {
		t.Errorf("Strategy = %q", result.Strategy)
	}
}

func TestResolveDisplayPhraseHeuristic(t *testing.T) {
	r := newTestResolver(t, &spyTracker{}, map[string]map[string]string{
		"display": {"15 FHD 144Hz": "gid://catalog/Component/456"},
	})

	result, err := r.Resolve(context.Background(), Request{
		Category: "display",
		RawValue: "15-inch FHD (144Hz)",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.Found || result.ReferenceID != "gid://catalog/Component/456" {
		t.Fatalf("result = %+v, want hit on display phrase", result)
	}
}

func TestResolveProcessorHeuristics(t *testing.T) {
	r := newTestResolver(t, &spyTracker{}, map[string]map[string]string{
		"processor": {
			"i7-12700H":      "gid://catalog/Component/10",
			"Ultra 9 285H":   "gid://catalog/Component/11",
			"Ryzen 7 5800H":  "gid://catalog/Component/12",
			"Celeron N4500":  "gid://catalog/Component/13",
			"Ryzen AI 9 365": "gid://catalog/Component/14",
		},
	})

	cases := []struct {
		raw     string
		wantKey string
	}{
		{"Intel Core i7-12700H (24M Cache)", "i7-12700H"},
		{"Intel Core Ultra 9 285H", "Ultra 9 285H"},
		{"AMD Ryzen 7 5800H with Radeon Graphics", "Ryzen 7 5800H"},
		{"Intel Celeron N4500 Processor", "Celeron N4500"},
		{"AMD Ryzen AI 9 365", "Ryzen AI 9 365"},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			result, err := r.Resolve(context.Background(), Request{Category: "processor", RawValue: tc.raw})
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if !result.Found || result.MatchedKey != tc.wantKey {
				t.Errorf("result = %+v, want key %q", result, tc.wantKey)
			}
		})
	}
}

func TestResolveStorageHeuristic(t *testing.T) {
	r := newTestResolver(t, &spyTracker{}, map[string]map[string]string{
		"storage": {"512GB SSD": "gid://catalog/Component/20"},
	})

	result, err := r.Resolve(context.Background(), Request{
		Category: "storage",
		RawValue: "512 GB PCIe NVMe SSD",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.Found || result.MatchedKey != "512GB SSD" {
		t.Errorf("result = %+v, want 512GB SSD", result)
	}
}

func TestResolveColorHeuristic(t *testing.T) {
	r := newTestResolver(t, &spyTracker{}, map[string]map[string]string{
		"color": {"Platinum Silver": "gid://catalog/Component/30"},
	})

	result, err := r.Resolve(context.Background(), Request{
		Category: "color",
		RawValue: "Platinum Silver (backlit keyboard)",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.Found || result.MatchedKey != "Platinum Silver" {
		t.Errorf("result = %+v, want Platinum Silver", result)
	}
}

func TestResolveSubstringFallback(t *testing.T) {
	r := newTestResolver(t, &spyTracker{}, map[string]map[string]string{
		"os": {"Windows 11 Home": "gid://catalog/Component/40"},
	})

	result, err := r.Resolve(context.Background(), Request{
		Category: "os",
		RawValue: "windows 11 home single language",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.Found || result.Strategy != "substring" {
		t.Errorf("result = %+v, want substring hit", result)
	}
}

func TestResolveSubstringLongestKeyWins(t *testing.T) {
	r := newTestResolver(t, &spyTracker{}, map[string]map[string]string{
		"os": {
			"Windows 11":      "gid://catalog/Component/41",
			"Windows 11 Home": "gid://catalog/Component/42",
		},
	})

	result, err := r.Resolve(context.Background(), Request{
		Category: "os",
		RawValue: "Microsoft Windows 11 Home 64-bit",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.MatchedKey != "Windows 11 Home" {
		t.Errorf("MatchedKey = %q, want the longest matching key", result.MatchedKey)
	}
}

func TestResolveMissRecordsTracker(t *testing.T) {
	tracker := &spyTracker{}
	r := newTestResolver(t, tracker, map[string]map[string]string{
		"processor": {"i7-12700H": "gid://catalog/Component/10"},
	})

	ctx := map[string]string{"product": "Gamer Laptop 17"}
	result, err := r.Resolve(context.Background(), Request{
		Category: "processor",
		RawValue: "Quantum Core Q9000",
		Context:  ctx,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Found {
		t.Fatal("Found = true for unknown component")
	}
	if len(tracker.misses) != 1 {
		t.Fatalf("tracker misses = %d, want 1", len(tracker.misses))
	}
	miss := tracker.misses[0]
	if miss.category != "processor" || miss.rawValue != "Quantum Core Q9000" {
		t.Errorf("miss = %+v", miss)
	}
	if miss.context["product"] != "Gamer Laptop 17" {
		t.Errorf("miss context = %v", miss.context)
	}
}

func TestResolveUnknownCategoryNotTracked(t *testing.T) {
	tracker := &spyTracker{}
	r := newTestResolver(t, tracker, nil)

	result, err := r.Resolve(context.Background(), Request{Category: "flux_capacitor", RawValue: "Mk II"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Found {
		t.Error("Found = true for unknown category")
	}
	if len(tracker.misses) != 0 {
		t.Errorf("unknown category recorded %d misses, want 0", len(tracker.misses))
	}
}

func TestResolveSurfacesLedgerFailure(t *testing.T) {
	tracker := &spyTracker{err: errors.New("disk full")}
	r := newTestResolver(t, tracker, nil)

	result, err := r.Resolve(context.Background(), Request{Category: "vga", RawValue: "RTX 9999"})
	if err == nil {
		t.Fatal("Resolve swallowed ledger persistence failure")
	}
	if result.Found {
		t.Error("Found = true despite miss")
	}
}

func TestResolveEmptyValue(t *testing.T) {
	tracker := &spyTracker{}
	r := newTestResolver(t, tracker, nil)

	result, err := r.Resolve(context.Background(), Request{Category: "vga", RawValue: "   "})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Found || len(tracker.misses) != 0 {
		t.Errorf("empty value: result = %+v, misses = %d", result, len(tracker.misses))
	}
}
