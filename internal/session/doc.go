// Package session runs one user's visit to a stage: it fetches the prior
// stage's ledger and the negotiation notes, synchronizes, applies edits and
// saves the result. All I/O of the workflow lives here; the engine only
// transforms ledgers it is handed.
package session
