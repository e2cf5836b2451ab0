// Package ledger defines the cross-stage debt ledger data model.
//
// A Ledger is the set of DebtRecords visible within one advisory stage for
// one user. Records are unique by ID. Inherited records keep the ID they
// had in the stage that first created them, which is how the engine matches
// records across stages.
//
// # Provenance
//
// Every record carries an origin tag naming the stage that created it or
// first re-derived it from the mapping baseline. The tag is a closed
// enumeration and is write-once: NewRecord sets it, Restamp refuses to change
// it, and JSON decoding rejects unknown tags.
//
// # Money
//
// Installments and interest rates are decimal.Decimal. Terms are whole months.
// ProjectedPayoff is derived data, recomputed by package amortization whenever
// the current term changes.
//
// # Fingerprints
//
// Fingerprint hashes a ledger's canonical JSON (sorted keys, NFC strings,
// no floats) with a domain-separated SHA-256. The store uses it to skip
// writes that would not change the persisted ledger.
package ledger
