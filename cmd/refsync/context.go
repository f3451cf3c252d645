package main

import (
	"log/slog"
	"strings"
	"sync"

	"refsync/internal/config"
	"refsync/internal/logging"
	"refsync/internal/mapping"
	"refsync/internal/resolver"
	"refsync/internal/syncer"
	"refsync/internal/tracker"
)

// commandContext lazily constructs shared dependencies so commands that never
// touch a subsystem never pay for it.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	storeOnce sync.Once
	store     *mapping.Store
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			File:   cfg.LogFilePath(),
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) mappingStore() (*mapping.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	c.storeOnce.Do(func() {
		c.store = mapping.NewStore(cfg.Paths.MappingDir, cfg.Resolver.CacheEnabled, logger)
	})
	return c.store, nil
}

// withLedger opens the missing-entry ledger, runs fn, and closes it. The
// ledger holds an open database handle, so commands should not keep it past
// their own execution.
func (c *commandContext) withLedger(fn func(*tracker.Ledger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	ledger, err := tracker.Open(cfg.LedgerPath(), logger)
	if err != nil {
		return err
	}
	defer ledger.Close()
	return fn(ledger)
}

// withResolver builds a resolver backed by the ledger and runs fn.
func (c *commandContext) withResolver(fn func(*resolver.Resolver) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := c.mappingStore()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	return c.withLedger(func(ledger *tracker.Ledger) error {
		return fn(resolver.New(store, ledger, cfg.Resolver.Categories, logger))
	})
}

func (c *commandContext) synchronizer() (*syncer.Synchronizer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := c.mappingStore()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return syncer.New(store, cfg.Resolver.Categories, cfg.Paths.BackupDir, cfg.SyncLockPath(), logger), nil
}
