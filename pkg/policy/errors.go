package policy

import "fmt"

// ValidationError reports a single bounds violation found while validating
// a policy record. Validation is fail-fast: the first violation stops
// evaluation, so a ValidationError always describes exactly one field.
type ValidationError struct {
	// Policy is the name of the record that failed validation.
	Policy string

	// Field is the attribute that violated its bound (e.g., "maxAge").
	Field string

	// Value is the offending value.
	Value int

	// Reason describes the violated constraint.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("policy %q: invalid %s [%d]: %s", e.Policy, e.Field, e.Value, e.Reason)
}

// NotFoundError indicates the named policy is absent from the store.
type NotFoundError struct {
	// Name is the policy name that was not found.
	Name string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("policy %q not found", e.Name)
}

// AlreadyExistsError indicates a create collided with an existing policy.
type AlreadyExistsError struct {
	// Name is the policy name that already exists.
	Name string
}

// Error implements the error interface.
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("policy %q already exists", e.Name)
}

// StoreError wraps a failure originating in the store collaborator with the
// attempted operation and policy name for context. NotFoundError and
// AlreadyExistsError are surfaced unchanged, never wrapped.
type StoreError struct {
	// Op is the attempted operation ("read", "create", "update",
	// "remove", "search", "list").
	Op string

	// Name is the policy name involved, if any.
	Name string

	// Err is the underlying store failure.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s failed for policy %q: %v", e.Op, e.Name, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *StoreError) Unwrap() error {
	return e.Err
}
