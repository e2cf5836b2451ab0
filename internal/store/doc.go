// Package store provides SQLite-backed persistence for stage ledgers.
//
// Each ledger is stored as one opaque JSON document keyed by
// (user_id, stage). Writes replace the whole document: there is no version
// counter, so two writers racing on the same key resolve as
// last-write-wins. A write whose ledger fingerprint matches the stored one
// is skipped.
//
// # Access
//
// Every operation takes an Access naming the acting user and the user whose
// data is touched. Self access operates on the caller's own data.
// Impersonated access lets a registered administrator operate on another
// user's data. The distinction lives here only; the engine never sees it.
//
// # Tables
//
//   - ledgers: one row per (user, stage), JSON payload plus fingerprint
//   - negotiation_notes: free-form negotiation notes per (user, debt)
//   - administrators: users allowed to impersonate
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
