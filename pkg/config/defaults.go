package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8370"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Store defaults
	DefaultStoreBackend     = "sqlite"
	DefaultStoreSQLitePath  = "data/policies.db"
	DefaultStoreBusyTimeout = 5 * time.Second

	// Audit defaults
	DefaultAuditEnabled       = true
	DefaultAuditSQLitePath    = "data/audit.db"
	DefaultAuditAsyncBuffer   = 1000
	DefaultAuditWriteTimeout  = 5 * time.Second
	DefaultAuditRetentionDays = 90
	DefaultAuditPruneSchedule = "0 3 * * *"

	// Bulk defaults
	DefaultBulkDebounceInterval = 200 * time.Millisecond

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "citadel"
	DefaultMetricsSubsystem = "policy"
)

// ApplyDefaults fills in default values for any unset configuration fields.
// It is called by LoadConfig before validation.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = DefaultStoreSQLitePath
	}
	if cfg.Store.BusyTimeout == 0 {
		cfg.Store.BusyTimeout = DefaultStoreBusyTimeout
	}

	if cfg.Audit.SQLitePath == "" {
		cfg.Audit.SQLitePath = DefaultAuditSQLitePath
	}
	if cfg.Audit.AsyncBuffer == 0 {
		cfg.Audit.AsyncBuffer = DefaultAuditAsyncBuffer
	}
	if cfg.Audit.WriteTimeout == 0 {
		cfg.Audit.WriteTimeout = DefaultAuditWriteTimeout
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = DefaultAuditRetentionDays
	}
	if cfg.Audit.PruneSchedule == "" {
		cfg.Audit.PruneSchedule = DefaultAuditPruneSchedule
	}

	if cfg.Bulk.DebounceInterval == 0 {
		cfg.Bulk.DebounceInterval = DefaultBulkDebounceInterval
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
}

// DefaultConfig returns a fully defaulted configuration, as produced by
// loading an empty file. Audit recording and metrics are enabled.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Audit.Enabled = DefaultAuditEnabled
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}
