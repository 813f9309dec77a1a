package config

import "time"

// Config is the root configuration structure for Citadel. It contains all
// configuration sections for the admin server, the policy store, auditing,
// bulk deletion, and telemetry.
type Config struct {
	// Server contains HTTP admin server configuration including listen
	// address and timeouts.
	Server ServerConfig `yaml:"server"`

	// Store contains configuration for the policy store backend.
	Store StoreConfig `yaml:"store"`

	// Audit contains configuration for the mutation audit trail.
	Audit AuditConfig `yaml:"audit"`

	// Bulk contains configuration for the bulk deletion loader.
	Bulk BulkConfig `yaml:"bulk"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP admin server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8370"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig contains configuration for the policy store backend.
type StoreConfig struct {
	// Backend selects the store implementation: "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/policies.db"
	SQLitePath string `yaml:"sqlite_path"`

	// BusyTimeout is how long the sqlite backend waits for locks.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// AuditConfig contains configuration for the mutation audit trail.
type AuditConfig struct {
	// Enabled enables audit recording.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// SQLitePath is the audit database file path.
	// Default: "data/audit.db"
	SQLitePath string `yaml:"sqlite_path"`

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing one audit record.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// RetentionDays is how long audit records are kept.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for scheduled retention
	// pruning. Empty disables scheduled pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// BulkConfig contains configuration for the bulk deletion loader.
type BulkConfig struct {
	// DropDir is the directory watched for deletion manifests. Empty
	// disables the watcher.
	DropDir string `yaml:"drop_dir"`

	// DebounceInterval is the time to wait after a file event before
	// processing a manifest.
	// Default: 200ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in logs.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled enables metric collection and the /metrics endpoint.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "citadel"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem label.
	// Default: "policy"
	Subsystem string `yaml:"subsystem"`

	// OperationDurationBuckets customizes the histogram buckets for
	// operation durations, in seconds.
	OperationDurationBuckets []float64 `yaml:"operation_duration_buckets"`
}
