// Package config provides configuration loading and validation for Citadel.
//
// Configuration is read from a YAML file, layered on top of built-in
// defaults, and optionally overridden by CITADEL_* environment variables.
// The final configuration is validated before use; all field errors are
// collected into one ValidationError.
package config
