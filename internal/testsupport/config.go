// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"refsync/internal/config"
	"refsync/internal/mapping"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.MappingDir = filepath.Join(base, "mappings")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.BackupDir = filepath.Join(base, "backups")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithCategories overrides the known category set on the test config.
func WithCategories(categories ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Resolver.Categories = categories
	}
}

// SeedTable writes one mapping table through the store backing cfg.
func SeedTable(t testing.TB, cfg *config.Config, category string, entries map[string]string) {
	t.Helper()
	store := mapping.NewStore(cfg.Paths.MappingDir, false, nil)
	if err := store.Write(category, entries); err != nil {
		t.Fatalf("seed table %s: %v", category, err)
	}
}
