package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"citadel-sec/citadel/pkg/audit"
	"citadel-sec/citadel/pkg/config"
	"citadel-sec/citadel/pkg/policy"
	"citadel-sec/citadel/pkg/policy/store"
	"citadel-sec/citadel/pkg/telemetry/logging"
	"citadel-sec/citadel/pkg/telemetry/metrics"
)

// app holds the wired components shared by the CLI commands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     policy.Store
	cache     *policy.NameCache
	manager   *policy.Manager
	collector *metrics.Collector
	auditSink audit.Sink
	recorder  *audit.Recorder
}

// newApp loads configuration and wires the store, cache, manager, metrics,
// and audit components. Construction order matters: the store first, then
// the cache (which takes its one full listing), then the manager.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}

	a.store, err = openStore(&cfg.Store)
	if err != nil {
		return nil, err
	}

	a.collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	if cfg.Audit.Enabled {
		if err := ensureParentDir(cfg.Audit.SQLitePath); err != nil {
			a.Close()
			return nil, err
		}
		a.auditSink, err = audit.NewSQLiteSink(audit.SQLiteSinkConfig{
			Path: cfg.Audit.SQLitePath,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open audit sink: %w", err)
		}
		a.recorder = audit.NewRecorder(audit.RecorderConfig{
			AsyncBuffer:  cfg.Audit.AsyncBuffer,
			WriteTimeout: cfg.Audit.WriteTimeout,
		}, a.auditSink, logger)
	}

	a.cache = policy.NewNameCache(ctx, a.store, logger)

	managerCfg := policy.ManagerConfig{
		Store:     a.store,
		Validator: policy.NewValidator(logger),
		Cache:     a.cache,
		Observer:  a.collector,
		Logger:    logger,
	}
	if a.recorder != nil {
		managerCfg.Auditor = a.recorder
	}
	a.manager = policy.NewManager(managerCfg)

	return a, nil
}

// Close releases the app's resources in reverse construction order.
func (a *app) Close() {
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.auditSink != nil {
		a.auditSink.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// openStore builds the configured store backend.
func openStore(cfg *config.StoreConfig) (policy.Store, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		if err := ensureParentDir(cfg.SQLitePath); err != nil {
			return nil, err
		}
		s, err := store.NewSQLiteStoreWithConfig(store.SQLiteStoreConfig{
			DBPath:      cfg.SQLitePath,
			BusyTimeout: cfg.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open policy store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

// ensureParentDir creates the directory holding a database file.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}
	return nil
}
