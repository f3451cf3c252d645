package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Error("exists = true for missing file")
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if !cfg.KnownCategory("processor") {
		t.Error("default categories missing processor")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
mapping_dir = "` + filepath.Join(dir, "maps") + `"
data_dir = "` + filepath.Join(dir, "data") + `"
backup_dir = "` + filepath.Join(dir, "backups") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[resolver]
categories = ["Processor", "VGA", "processor", " ", "display"]

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("exists = false for present file")
	}
	want := []string{"processor", "vga", "display"}
	if len(cfg.Resolver.Categories) != len(want) {
		t.Fatalf("categories = %v, want %v", cfg.Resolver.Categories, want)
	}
	for i, category := range want {
		if cfg.Resolver.Categories[i] != category {
			t.Errorf("categories[%d] = %q, want %q", i, cfg.Resolver.Categories[i], category)
		}
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("format = %q, want json", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty mapping dir", func(c *Config) { c.Paths.MappingDir = "" }},
		{"backup equals mapping", func(c *Config) { c.Paths.BackupDir = c.Paths.MappingDir }},
		{"no categories", func(c *Config) { c.Resolver.Categories = nil }},
		{"category with slash", func(c *Config) { c.Resolver.Categories = []string{"a/b"} }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.normalize(); err != nil {
				t.Fatalf("normalize failed: %v", err)
			}
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate succeeded, want error")
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[resolver]") {
		t.Error("sample config missing [resolver] section")
	}
	if err := WriteSample(path); err == nil {
		t.Error("second WriteSample succeeded, want refusal")
	}
}

func TestMappingTablePath(t *testing.T) {
	cfg := Default()
	cfg.Paths.MappingDir = "/tmp/maps"
	if got := cfg.MappingTablePath("vga"); got != filepath.Join("/tmp/maps", "vga.json") {
		t.Errorf("MappingTablePath = %q", got)
	}
}
