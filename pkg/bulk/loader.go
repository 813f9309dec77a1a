package bulk

import (
	"context"
	"log/slog"

	"citadel-sec/citadel/pkg/policy"
)

// Deleter is the slice of the policy manager the loader needs.
type Deleter interface {
	Delete(ctx context.Context, p *policy.PasswordPolicy) error
}

// Loader drains deletion manifests through a Deleter.
type Loader struct {
	deleter Deleter
	logger  *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(deleter Deleter, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		deleter: deleter,
		logger:  logger.With("component", "bulk.loader"),
	}
}

// Outcome is the result of one manifest entry.
type Outcome struct {
	// Name is the policy name from the manifest entry.
	Name string

	// Err is the deletion error, nil on success.
	Err error
}

// Result collects the outcomes of a manifest run, in manifest order.
type Result struct {
	Outcomes []Outcome
}

// Deleted returns the number of successful deletions.
func (r *Result) Deleted() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of failed deletions.
func (r *Result) Failed() int {
	return len(r.Outcomes) - r.Deleted()
}

// Run executes a manifest, deleting one entry at a time in order. A failed
// entry is recorded and execution continues with the next one; Run itself
// fails only when ctx is cancelled.
func (l *Loader) Run(ctx context.Context, m *Manifest) (*Result, error) {
	result := &Result{Outcomes: make([]Outcome, 0, len(m.DelPolicy))}

	for _, entry := range m.DelPolicy {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		err := l.deleter.Delete(ctx, &policy.PasswordPolicy{Name: entry.Name})
		if err != nil {
			l.logger.Warn("bulk delete entry failed", "policy", entry.Name, "error", err)
		}
		result.Outcomes = append(result.Outcomes, Outcome{Name: entry.Name, Err: err})
	}

	l.logger.Info("bulk deletion finished",
		"entries", len(m.DelPolicy),
		"deleted", result.Deleted(),
		"failed", result.Failed(),
	)
	return result, nil
}

// RunFile loads and executes a manifest file.
func (l *Loader) RunFile(ctx context.Context, path string) (*Result, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return l.Run(ctx, m)
}
