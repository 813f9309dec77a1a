package policy

import (
	"context"
	"strings"
)

// Bound constants applied during validation. Durations are in seconds.
const (
	// MaxNameLen is the maximum length of a policy name.
	MaxNameLen = 40

	// MaxAgeSeconds is five years in seconds, the ceiling for every
	// duration-valued attribute (maxAge, minAge, failureCountInterval,
	// lockoutDuration, expireWarning).
	MaxAgeSeconds = 157680000

	// MaxMinLength is the ceiling for the minLength attribute.
	MaxMinLength = 20

	// MaxFailureCount is the ceiling for the maxFailure attribute.
	MaxFailureCount = 100

	// MaxHistoryCount is the ceiling for the inHistory attribute.
	MaxHistoryCount = 100

	// MaxGraceCount is the ceiling for the graceLoginLimit attribute.
	MaxGraceCount = 10
)

// PasswordPolicy is a single password policy record. Name is the primary
// key. Every other attribute is optional: a nil pointer means the attribute
// is absent and is skipped by validation and ignored by store updates.
//
// The caller owns the value it passes in; the store owns the durable copy;
// the name cache owns only the record's name.
type PasswordPolicy struct {
	// Name identifies the policy. Required, 1..MaxNameLen characters,
	// matched case-insensitively by the store and the name cache.
	Name string `json:"name" yaml:"name"`

	// CheckQuality controls password quality checking: 0 (off),
	// 1 (accept on failure), or 2 (reject on failure).
	CheckQuality *int `json:"checkQuality,omitempty" yaml:"check_quality,omitempty"`

	// MaxAge is the maximum password age in seconds.
	MaxAge *int `json:"maxAge,omitempty" yaml:"max_age,omitempty"`

	// MinAge is the minimum password age in seconds.
	MinAge *int `json:"minAge,omitempty" yaml:"min_age,omitempty"`

	// MinLength is the minimum password length.
	MinLength *int `json:"minLength,omitempty" yaml:"min_length,omitempty"`

	// FailureCountInterval is the window in seconds after which the
	// failure counter is reset.
	FailureCountInterval *int `json:"failureCountInterval,omitempty" yaml:"failure_count_interval,omitempty"`

	// MaxFailure is the number of consecutive failures before lockout.
	MaxFailure *int `json:"maxFailure,omitempty" yaml:"max_failure,omitempty"`

	// InHistory is the number of previous passwords kept in history.
	InHistory *int `json:"inHistory,omitempty" yaml:"in_history,omitempty"`

	// GraceLoginLimit is the number of logins allowed after expiration.
	GraceLoginLimit *int `json:"graceLoginLimit,omitempty" yaml:"grace_login_limit,omitempty"`

	// LockoutDuration is the lockout duration in seconds.
	LockoutDuration *int `json:"lockoutDuration,omitempty" yaml:"lockout_duration,omitempty"`

	// ExpireWarning is the expiration warning lead time in seconds.
	ExpireWarning *int `json:"expireWarning,omitempty" yaml:"expire_warning,omitempty"`
}

// CanonicalName folds a policy name to the canonical form used for
// case-insensitive matching by the store and the name cache.
func CanonicalName(name string) string {
	return strings.ToLower(name)
}

// Store is the directory-backed store collaborator consumed by the Manager
// and the NameCache. Implementations must be safe for concurrent use and
// must match policy names case-insensitively.
//
// Implementations live in pkg/policy/store; tests typically use the
// in-memory implementation.
type Store interface {
	// PolicyNames returns the full listing of policy names. It is called
	// once, when the name cache is constructed.
	PolicyNames(ctx context.Context) ([]string, error)

	// Get returns the named policy, or *NotFoundError if absent.
	Get(ctx context.Context, name string) (*PasswordPolicy, error)

	// Create adds a new policy, or returns *AlreadyExistsError if the
	// name is already present.
	Create(ctx context.Context, p *PasswordPolicy) error

	// Update replaces the non-nil attributes of an existing policy, or
	// returns *NotFoundError if absent.
	Update(ctx context.Context, p *PasswordPolicy) error

	// Remove deletes an existing policy, or returns *NotFoundError if
	// absent. Only the record's name is consulted.
	Remove(ctx context.Context, p *PasswordPolicy) error

	// FindByPrefix returns every policy whose name starts with the given
	// prefix, case-insensitively. An empty prefix matches all policies.
	// The result is empty, never nil, when nothing matches.
	FindByPrefix(ctx context.Context, prefix string) ([]*PasswordPolicy, error)

	// Close releases any resources held by the store.
	Close() error
}
