package policy

import "log/slog"

// Validator performs bounds validation on password policy records before
// they are written to the store. It holds no state beyond its logger and is
// safe for concurrent use.
//
// Checks are applied in a fixed order and evaluation stops at the first
// violation; violations are never aggregated. Absent (nil) attributes are
// skipped. Every failure is logged with the offending field and value
// before the error is returned.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a new Validator. A nil logger falls back to
// slog.Default.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		logger: logger.With("component", "policy.validator"),
	}
}

// Validate checks a policy record against the bound constants. It returns
// nil when every present attribute is within bounds, or a *ValidationError
// describing the first violation encountered.
//
// The check order is fixed: name length, checkQuality, maxAge, minAge,
// minLength, failureCountInterval, maxFailure, inHistory, graceLoginLimit,
// lockoutDuration, expireWarning.
func (v *Validator) Validate(p *PasswordPolicy) error {
	if n := len(p.Name); n < 1 || n > MaxNameLen {
		return v.fail(p.Name, "name", n, "length must be between 1 and 40")
	}
	if p.CheckQuality != nil {
		if q := *p.CheckQuality; q < 0 || q > 2 {
			return v.fail(p.Name, "checkQuality", q, "must be 0, 1, or 2")
		}
	}
	if p.MaxAge != nil && *p.MaxAge > MaxAgeSeconds {
		return v.fail(p.Name, "maxAge", *p.MaxAge, "exceeds five years in seconds")
	}
	if p.MinAge != nil && *p.MinAge > MaxAgeSeconds {
		return v.fail(p.Name, "minAge", *p.MinAge, "exceeds five years in seconds")
	}
	// Literal contract carried over from the original system: minLength is
	// checked against an upper bound of 20, not a lower bound. See the
	// open-question record in DESIGN.md before changing this.
	if p.MinLength != nil && *p.MinLength > MaxMinLength {
		return v.fail(p.Name, "minLength", *p.MinLength, "exceeds maximum of 20")
	}
	if p.FailureCountInterval != nil && *p.FailureCountInterval > MaxAgeSeconds {
		return v.fail(p.Name, "failureCountInterval", *p.FailureCountInterval, "exceeds five years in seconds")
	}
	if p.MaxFailure != nil && *p.MaxFailure > MaxFailureCount {
		return v.fail(p.Name, "maxFailure", *p.MaxFailure, "exceeds maximum of 100")
	}
	if p.InHistory != nil && *p.InHistory > MaxHistoryCount {
		return v.fail(p.Name, "inHistory", *p.InHistory, "exceeds maximum of 100")
	}
	if p.GraceLoginLimit != nil && *p.GraceLoginLimit > MaxGraceCount {
		return v.fail(p.Name, "graceLoginLimit", *p.GraceLoginLimit, "exceeds maximum of 10")
	}
	if p.LockoutDuration != nil && *p.LockoutDuration > MaxAgeSeconds {
		return v.fail(p.Name, "lockoutDuration", *p.LockoutDuration, "exceeds five years in seconds")
	}
	if p.ExpireWarning != nil && *p.ExpireWarning > MaxAgeSeconds {
		return v.fail(p.Name, "expireWarning", *p.ExpireWarning, "exceeds five years in seconds")
	}
	return nil
}

// fail logs the violation and builds the ValidationError for it.
func (v *Validator) fail(policy, field string, value int, reason string) error {
	v.logger.Error("policy validation failed",
		"policy", policy,
		"field", field,
		"value", value,
		"reason", reason,
	)
	return &ValidationError{
		Policy: policy,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}
