// Package policy implements the password policy process layer for Citadel.
//
// It sits between callers that administer or enforce password policies and
// the directory-backed store that holds the durable records. The package
// provides three cooperating pieces:
//
//   - Validator: stateless bounds validation for policy records, applied
//     before any write reaches the store.
//   - NameCache: a process-wide, case-insensitive set of the policy names
//     currently believed valid, loaded once at construction and mutated
//     incrementally as policies are added and deleted.
//   - Manager: the facade that orchestrates read/add/update/delete/search
//     against the store and keeps the name cache consistent with the
//     mutations it performs.
//
// The store itself is an external collaborator consumed through the Store
// interface; implementations live in pkg/policy/store.
package policy
