package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"citadel-sec/citadel/pkg/policy"
)

// MemoryStore implements policy.Store using an in-memory map guarded by a
// sync.RWMutex. It is the default backend and the usual test double.
type MemoryStore struct {
	mu sync.RWMutex

	// policies maps the canonical (lower-cased) name to the record.
	policies map[string]*policy.PasswordPolicy
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		policies: make(map[string]*policy.PasswordPolicy),
	}
}

// PolicyNames returns the names of all stored policies, sorted.
func (s *MemoryStore) PolicyNames(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.policies))
	for _, p := range s.policies {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Get returns the named policy.
func (s *MemoryStore) Get(ctx context.Context, name string) (*policy.PasswordPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.policies[policy.CanonicalName(name)]
	if !ok {
		return nil, &policy.NotFoundError{Name: name}
	}
	return clonePolicy(p), nil
}

// Create adds a new policy.
func (s *MemoryStore) Create(ctx context.Context, p *policy.PasswordPolicy) error {
	key := policy.CanonicalName(p.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[key]; ok {
		return &policy.AlreadyExistsError{Name: p.Name}
	}
	s.policies[key] = clonePolicy(p)
	return nil
}

// Update merges the non-nil attributes of p into the stored record.
func (s *MemoryStore) Update(ctx context.Context, p *policy.PasswordPolicy) error {
	key := policy.CanonicalName(p.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.policies[key]
	if !ok {
		return &policy.NotFoundError{Name: p.Name}
	}
	s.policies[key] = mergePolicy(current, p)
	return nil
}

// Remove deletes the policy named by p.
func (s *MemoryStore) Remove(ctx context.Context, p *policy.PasswordPolicy) error {
	key := policy.CanonicalName(p.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[key]; !ok {
		return &policy.NotFoundError{Name: p.Name}
	}
	delete(s.policies, key)
	return nil
}

// FindByPrefix returns every policy whose name starts with prefix,
// case-insensitively, sorted by name. The result is empty, never nil,
// when nothing matches.
func (s *MemoryStore) FindByPrefix(ctx context.Context, prefix string) ([]*policy.PasswordPolicy, error) {
	key := policy.CanonicalName(prefix)

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []*policy.PasswordPolicy{}
	for canonical, p := range s.policies {
		if strings.HasPrefix(canonical, key) {
			matches = append(matches, clonePolicy(p))
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	return matches, nil
}

// Close releases resources held by the store. It is a no-op for the
// in-memory backend.
func (s *MemoryStore) Close() error {
	return nil
}

// Size returns the current number of stored policies. Useful for tests.
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.policies)
}

// clonePolicy deep-copies a record so callers and the store never alias
// the same attribute pointers.
func clonePolicy(p *policy.PasswordPolicy) *policy.PasswordPolicy {
	out := &policy.PasswordPolicy{Name: p.Name}
	out.CheckQuality = cloneInt(p.CheckQuality)
	out.MaxAge = cloneInt(p.MaxAge)
	out.MinAge = cloneInt(p.MinAge)
	out.MinLength = cloneInt(p.MinLength)
	out.FailureCountInterval = cloneInt(p.FailureCountInterval)
	out.MaxFailure = cloneInt(p.MaxFailure)
	out.InHistory = cloneInt(p.InHistory)
	out.GraceLoginLimit = cloneInt(p.GraceLoginLimit)
	out.LockoutDuration = cloneInt(p.LockoutDuration)
	out.ExpireWarning = cloneInt(p.ExpireWarning)
	return out
}

// mergePolicy applies the non-nil attributes of update on top of current.
// The stored name is kept as originally created.
func mergePolicy(current, update *policy.PasswordPolicy) *policy.PasswordPolicy {
	out := clonePolicy(current)
	if update.CheckQuality != nil {
		out.CheckQuality = cloneInt(update.CheckQuality)
	}
	if update.MaxAge != nil {
		out.MaxAge = cloneInt(update.MaxAge)
	}
	if update.MinAge != nil {
		out.MinAge = cloneInt(update.MinAge)
	}
	if update.MinLength != nil {
		out.MinLength = cloneInt(update.MinLength)
	}
	if update.FailureCountInterval != nil {
		out.FailureCountInterval = cloneInt(update.FailureCountInterval)
	}
	if update.MaxFailure != nil {
		out.MaxFailure = cloneInt(update.MaxFailure)
	}
	if update.InHistory != nil {
		out.InHistory = cloneInt(update.InHistory)
	}
	if update.GraceLoginLimit != nil {
		out.GraceLoginLimit = cloneInt(update.GraceLoginLimit)
	}
	if update.LockoutDuration != nil {
		out.LockoutDuration = cloneInt(update.LockoutDuration)
	}
	if update.ExpireWarning != nil {
		out.ExpireWarning = cloneInt(update.ExpireWarning)
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
