// Package engine implements the stage ledger synchronization engine.
//
// The engine derives a stage's working ledger from the ledger of the stage
// before it. It never performs I/O: callers fetch the prior ledger, pass it
// in with whatever the current stage already holds, and persist the result.
//
// # Modes
//
// InitialLoad runs on every first visit to a stage. If the current ledger
// already holds records it is returned untouched, so calling it
// unconditionally can never clobber saved work.
//
// ManualRefresh is an explicit user action. Every inherited record is
// re-derived from upstream, discarding this stage's edits to inherited
// fields.
//
// # Derivation
//
// For each prior record the engine builds an inherited record with the same
// ID: the prior current values become this stage's reference values, the
// current values default to the prior current values, payment is assumed
// to continue and no amortization is confirmed. Records still tagged with
// the mapping origin are stamped with this stage's tag; any other origin is
// carried forward untouched.
//
// The first stage after mapping applies negotiation overrides to the
// prior values before deriving.
//
// Manual records of the current ledger that have no upstream counterpart
// are always preserved unchanged. When the prior ledger is unavailable the
// result is those manual records alone.
//
// Synchronize is a pure function of its inputs and the calculator's clock
// and holds no state between calls.
package engine
