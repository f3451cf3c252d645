package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the normalized configuration for values refsync cannot
// operate with.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.MappingDir) == "" {
		return errors.New("paths.mapping_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.BackupDir) == "" {
		return errors.New("paths.backup_dir must be set")
	}
	if c.Paths.BackupDir == c.Paths.MappingDir {
		return errors.New("paths.backup_dir must differ from paths.mapping_dir")
	}
	return nil
}

func (c *Config) validateResolver() error {
	if len(c.Resolver.Categories) == 0 {
		return errors.New("resolver.categories must name at least one category")
	}
	for _, category := range c.Resolver.Categories {
		if strings.ContainsAny(category, `/\`) {
			return fmt.Errorf("resolver.categories: %q must not contain path separators", category)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
