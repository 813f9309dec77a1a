package policy

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Auditor receives a record of every successful mutation performed by the
// Manager. pkg/audit provides the production implementation.
type Auditor interface {
	RecordChange(op, policyName, detail string)
}

// Observer receives operational measurements from the Manager.
// pkg/telemetry/metrics provides the Prometheus-backed implementation.
type Observer interface {
	RecordOperation(op, outcome string, duration time.Duration)
	RecordValidationFailure(field string)
	RecordCacheLookup(hit bool)
	UpdateCacheSize(size int)
}

// Manager is the facade over the validator, the store collaborator, and the
// name cache. Every mutation follows the same strict order: validate, then
// commit to the store, then (for add and delete) reflect the change in the
// cache. No operation is ever left half-applied: a validation failure makes
// no store call, and a failed store call leaves the cache untouched.
//
// The Manager performs no retries and imposes no timeouts; both belong to
// the store collaborator or the caller. It is safe for concurrent use.
type Manager struct {
	store     Store
	validator *Validator
	cache     *NameCache
	auditor   Auditor
	observer  Observer
	logger    *slog.Logger
}

// ManagerConfig contains the collaborators for a Manager. Store, Validator,
// and Cache are required; Auditor and Observer are optional.
type ManagerConfig struct {
	Store     Store
	Validator *Validator
	Cache     *NameCache
	Auditor   Auditor
	Observer  Observer
	Logger    *slog.Logger
}

// NewManager creates a new policy manager.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:     cfg.Store,
		validator: cfg.Validator,
		cache:     cfg.Cache,
		auditor:   cfg.Auditor,
		observer:  cfg.Observer,
		logger:    logger.With("component", "policy.manager"),
	}
}

// Read returns the named policy from the store. Record contents are never
// cached; only names are.
func (m *Manager) Read(ctx context.Context, name string) (*PasswordPolicy, error) {
	start := time.Now()
	p, err := m.store.Get(ctx, name)
	if err != nil {
		m.observe("read", outcomeFor(err), start)
		return nil, wrapStoreErr("read", name, err)
	}
	m.observe("read", "success", start)
	return p, nil
}

// Add validates the record and creates it in the store. The name is added
// to the cache only after the store write succeeds.
func (m *Manager) Add(ctx context.Context, p *PasswordPolicy) error {
	start := time.Now()
	if err := m.validator.Validate(p); err != nil {
		m.recordValidationFailure(err)
		m.observe("add", "validation_error", start)
		return err
	}
	if err := m.store.Create(ctx, p); err != nil {
		m.observe("add", outcomeFor(err), start)
		return wrapStoreErr("create", p.Name, err)
	}
	m.cache.Add(p.Name)
	m.updateCacheSize()
	m.audit("add", p.Name, "policy created")
	m.observe("add", "success", start)
	m.logger.Info("policy added", "policy", p.Name)
	return nil
}

// Update validates the record and updates it in the store. The cache is
// never touched: update semantics assume the name is unchanged.
func (m *Manager) Update(ctx context.Context, p *PasswordPolicy) error {
	start := time.Now()
	if err := m.validator.Validate(p); err != nil {
		m.recordValidationFailure(err)
		m.observe("update", "validation_error", start)
		return err
	}
	if err := m.store.Update(ctx, p); err != nil {
		m.observe("update", outcomeFor(err), start)
		return wrapStoreErr("update", p.Name, err)
	}
	m.audit("update", p.Name, "policy updated")
	m.observe("update", "success", start)
	m.logger.Info("policy updated", "policy", p.Name)
	return nil
}

// Delete removes the record from the store and then forgets its name in
// the cache. The record is deliberately not validated beyond what the
// store requires: only the name is needed to locate the entry.
func (m *Manager) Delete(ctx context.Context, p *PasswordPolicy) error {
	start := time.Now()
	if err := m.store.Remove(ctx, p); err != nil {
		m.observe("delete", outcomeFor(err), start)
		return wrapStoreErr("remove", p.Name, err)
	}
	m.cache.Remove(p.Name)
	m.updateCacheSize()
	m.audit("delete", p.Name, "policy deleted")
	m.observe("delete", "success", start)
	m.logger.Info("policy deleted", "policy", p.Name)
	return nil
}

// Search returns every policy whose name starts with the given prefix,
// case-insensitively. The result is empty, never nil, when nothing
// matches.
func (m *Manager) Search(ctx context.Context, prefix string) ([]*PasswordPolicy, error) {
	start := time.Now()
	matches, err := m.store.FindByPrefix(ctx, prefix)
	if err != nil {
		m.observe("search", outcomeFor(err), start)
		return nil, wrapStoreErr("search", prefix, err)
	}
	if matches == nil {
		matches = []*PasswordPolicy{}
	}
	m.observe("search", "success", start)
	return matches, nil
}

// IsValid reports whether name is a currently valid policy name. The check
// is answered entirely from the name cache; the store is never consulted.
func (m *Manager) IsValid(name string) bool {
	ok := m.cache.Contains(name)
	if m.observer != nil {
		m.observer.RecordCacheLookup(ok)
	}
	return ok
}

func (m *Manager) audit(op, name, detail string) {
	if m.auditor != nil {
		m.auditor.RecordChange(op, name, detail)
	}
}

func (m *Manager) observe(op, outcome string, start time.Time) {
	if m.observer != nil {
		m.observer.RecordOperation(op, outcome, time.Since(start))
	}
}

func (m *Manager) recordValidationFailure(err error) {
	if m.observer == nil {
		return
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		m.observer.RecordValidationFailure(verr.Field)
	}
}

func (m *Manager) updateCacheSize() {
	if m.observer != nil {
		m.observer.UpdateCacheSize(m.cache.Len())
	}
}

// outcomeFor maps an error from the store to a metric outcome label.
func outcomeFor(err error) string {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return "not_found"
	}
	var ae *AlreadyExistsError
	if errors.As(err, &ae) {
		return "already_exists"
	}
	return "store_error"
}

// wrapStoreErr wraps transport and constraint failures from the store with
// the attempted operation and policy name. NotFoundError and
// AlreadyExistsError are part of the caller contract and pass through
// unchanged.
func wrapStoreErr(op, name string, err error) error {
	var nf *NotFoundError
	var ae *AlreadyExistsError
	if errors.As(err, &nf) || errors.As(err, &ae) {
		return err
	}
	return &StoreError{Op: op, Name: name, Err: err}
}
