package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any rules fail. All validation errors are collected
// and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.Server.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	}
	if cfg.Server.ReadTimeout < 0 {
		errs = append(errs, FieldError{"server.read_timeout", "must not be negative"})
	}
	if cfg.Server.WriteTimeout < 0 {
		errs = append(errs, FieldError{"server.write_timeout", "must not be negative"})
	}

	switch cfg.Store.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{"store.backend",
			fmt.Sprintf("unknown backend %q, must be \"memory\" or \"sqlite\"", cfg.Store.Backend)})
	}
	if cfg.Store.Backend == "sqlite" && cfg.Store.SQLitePath == "" {
		errs = append(errs, FieldError{"store.sqlite_path", "must not be empty for the sqlite backend"})
	}

	if cfg.Audit.Enabled {
		if cfg.Audit.SQLitePath == "" {
			errs = append(errs, FieldError{"audit.sqlite_path", "must not be empty when audit is enabled"})
		}
		if cfg.Audit.AsyncBuffer < 1 {
			errs = append(errs, FieldError{"audit.async_buffer", "must be at least 1"})
		}
		if cfg.Audit.RetentionDays < 1 {
			errs = append(errs, FieldError{"audit.retention_days", "must be at least 1"})
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level",
			fmt.Sprintf("unknown level %q", cfg.Telemetry.Logging.Level)})
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format",
			fmt.Sprintf("unknown format %q", cfg.Telemetry.Logging.Format)})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
