package store

import (
	"context"
	"errors"
	"testing"

	"citadel-sec/citadel/pkg/policy"
)

func intp(v int) *int {
	return &v
}

// testStoreCRUD exercises the policy.Store contract shared by all backends.
func testStoreCRUD(t *testing.T, s policy.Store) {
	t.Helper()
	ctx := context.Background()

	// Empty store.
	names, err := s.PolicyNames(ctx)
	if err != nil {
		t.Fatalf("PolicyNames() error = %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("PolicyNames() on empty store = %v, want empty", names)
	}

	_, err = s.Get(ctx, "ghost")
	var nf *policy.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Get(ghost) error = %v, want *NotFoundError", err)
	}

	// Create and read back, case-insensitively.
	p := &policy.PasswordPolicy{
		Name:       "Safe1",
		MinLength:  intp(8),
		MaxFailure: intp(5),
	}
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.Get(ctx, "SAFE1")
	if err != nil {
		t.Fatalf("Get(SAFE1) error = %v", err)
	}
	if got.Name != "Safe1" {
		t.Errorf("Get().Name = %q, want %q (original casing preserved)", got.Name, "Safe1")
	}
	if got.MinLength == nil || *got.MinLength != 8 {
		t.Errorf("Get().MinLength = %v, want 8", got.MinLength)
	}
	if got.MaxAge != nil {
		t.Errorf("Get().MaxAge = %v, want nil (absent attribute)", got.MaxAge)
	}

	// Duplicate create fails regardless of casing.
	err = s.Create(ctx, &policy.PasswordPolicy{Name: "safe1"})
	var ae *policy.AlreadyExistsError
	if !errors.As(err, &ae) {
		t.Fatalf("Create(duplicate) error = %v, want *AlreadyExistsError", err)
	}

	// Update merges non-nil attributes, keeps the rest.
	if err := s.Update(ctx, &policy.PasswordPolicy{Name: "safe1", MaxFailure: intp(3)}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err = s.Get(ctx, "safe1")
	if err != nil {
		t.Fatalf("Get() after update error = %v", err)
	}
	if got.MaxFailure == nil || *got.MaxFailure != 3 {
		t.Errorf("MaxFailure after update = %v, want 3", got.MaxFailure)
	}
	if got.MinLength == nil || *got.MinLength != 8 {
		t.Errorf("MinLength after partial update = %v, want 8", got.MinLength)
	}

	// Update of an absent policy fails.
	err = s.Update(ctx, &policy.PasswordPolicy{Name: "ghost"})
	if !errors.As(err, &nf) {
		t.Fatalf("Update(ghost) error = %v, want *NotFoundError", err)
	}

	// Names listing.
	if err := s.Create(ctx, &policy.PasswordPolicy{Name: "strict1"}); err != nil {
		t.Fatalf("Create(strict1) error = %v", err)
	}
	names, err = s.PolicyNames(ctx)
	if err != nil {
		t.Fatalf("PolicyNames() error = %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("PolicyNames() = %v, want 2 names", names)
	}

	// Remove, then reads fail.
	if err := s.Remove(ctx, &policy.PasswordPolicy{Name: "SAFE1"}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := s.Get(ctx, "safe1"); !errors.As(err, &nf) {
		t.Errorf("Get() after remove error = %v, want *NotFoundError", err)
	}
	if err := s.Remove(ctx, &policy.PasswordPolicy{Name: "safe1"}); !errors.As(err, &nf) {
		t.Errorf("Remove() of absent policy error = %v, want *NotFoundError", err)
	}
}

// testStoreFindByPrefix exercises prefix search shared by all backends.
func testStoreFindByPrefix(t *testing.T, s policy.Store) {
	t.Helper()
	ctx := context.Background()

	for _, name := range []string{"Safe1", "safe2", "Strict1"} {
		if err := s.Create(ctx, &policy.PasswordPolicy{Name: name}); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}

	tests := []struct {
		prefix string
		want   int
	}{
		{"safe", 2},
		{"SAFE", 2},
		{"s", 3},
		{"", 3},
		{"strict1", 1},
		{"nothing", 0},
		{"%", 0},
	}

	for _, tt := range tests {
		matches, err := s.FindByPrefix(ctx, tt.prefix)
		if err != nil {
			t.Fatalf("FindByPrefix(%q) error = %v", tt.prefix, err)
		}
		if matches == nil {
			t.Fatalf("FindByPrefix(%q) = nil, want non-nil slice", tt.prefix)
		}
		if len(matches) != tt.want {
			t.Errorf("FindByPrefix(%q) returned %d matches, want %d", tt.prefix, len(matches), tt.want)
		}
		for i := 1; i < len(matches); i++ {
			if policy.CanonicalName(matches[i-1].Name) > policy.CanonicalName(matches[i].Name) {
				t.Errorf("FindByPrefix(%q) results not sorted: %q before %q",
					tt.prefix, matches[i-1].Name, matches[i].Name)
			}
		}
	}
}

func TestMemoryStore_CRUD(t *testing.T) {
	testStoreCRUD(t, NewMemoryStore())
}

func TestMemoryStore_FindByPrefix(t *testing.T) {
	testStoreFindByPrefix(t, NewMemoryStore())
}

func TestMemoryStore_NoAliasing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p := &policy.PasswordPolicy{Name: "p1", MinLength: intp(8)}
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Mutating the caller's record must not reach the store.
	*p.MinLength = 99

	got, err := s.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if *got.MinLength != 8 {
		t.Errorf("stored MinLength = %d after caller mutation, want 8", *got.MinLength)
	}

	// Mutating a returned record must not reach the store either.
	*got.MinLength = 42
	again, err := s.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if *again.MinLength != 8 {
		t.Errorf("stored MinLength = %d after result mutation, want 8", *again.MinLength)
	}
}

func TestMemoryStore_Size(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if got := s.Size(); got != 0 {
		t.Errorf("Size() = %d, want 0", got)
	}
	if err := s.Create(ctx, &policy.PasswordPolicy{Name: "p1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := s.Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}
}
