// Package newsletter defines the daily newsletter record, the storage
// contract that persists it, and the error types shared by its backends.
//
// # Records
//
// A Record is keyed by its publish date (YYYY-MM-DD). There is at most one
// record per date: every write for a date goes through Store.Upsert, which
// overwrites content fields in place while keeping the record identifier and
// creation time assigned on first insert.
//
// # Lifecycle
//
// Records move through a small state machine:
//
//	pending → generating → complete
//	                     → failed → generating (retry)
//
// The generation orchestrator owns these transitions. API consumers only read
// records; the retention engine and the admin delete endpoint are the only
// callers that remove them.
//
// # Storage
//
// Backends live in the storage subpackage (SQLite and in-memory). All
// implementations must be safe for concurrent use.
package newsletter
