// Package store provides implementations of the policy.Store interface.
//
// Two backends are available:
//
//   - MemoryStore: a mutex-guarded in-memory map. The default backend and
//     the test double. All data is lost when the process exits.
//   - SQLiteStore: durable single-node storage on SQLite (modernc.org/sqlite)
//     with WAL mode and prepared statements.
//
// Both backends match policy names case-insensitively and treat the stored
// record as their own copy: mutations to a record after it has been passed
// to the store are not observed.
package store
