package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for persisted state.
type Paths struct {
	MappingDir string `toml:"mapping_dir"`
	DataDir    string `toml:"data_dir"`
	BackupDir  string `toml:"backup_dir"`
	LogDir     string `toml:"log_dir"`
}

// Resolver contains configuration for the name resolution layer.
type Resolver struct {
	CacheEnabled  bool     `toml:"cache_enabled"`
	WatchMappings bool     `toml:"watch_mappings"`
	Categories    []string `toml:"categories"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root configuration document.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Resolver Resolver `toml:"resolver"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/refsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The bool reports
// whether the file existed; a missing file yields defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("refsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// clobber an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the directories persisted state lives in.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.MappingDir, c.Paths.DataDir, c.Paths.BackupDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MappingTablePath returns the on-disk file backing a category's table.
func (c *Config) MappingTablePath(category string) string {
	return filepath.Join(c.Paths.MappingDir, category+".json")
}

// LedgerPath returns the missing-entry ledger database path.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "missing.db")
}

// SyncLockPath returns the flock target guarding synchronizer runs.
func (c *Config) SyncLockPath() string {
	return filepath.Join(c.Paths.DataDir, "sync.lock")
}

// LogFilePath returns the log file location, or empty when LogDir is unset.
func (c *Config) LogFilePath() string {
	if c.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "refsync.log")
}

// KnownCategory reports whether category is in the configured category set.
func (c *Config) KnownCategory(category string) bool {
	for _, known := range c.Resolver.Categories {
		if known == category {
			return true
		}
	}
	return false
}
