// Package harness runs ledger scenarios against the synchronization engine.
//
// # Scenario Format
//
// Scenarios are YAML files. Each one fixes the calendar day, describes the
// prior and current ledgers, optionally a negotiation table, and then runs a
// list of steps against the engine:
//
//	name: negotiated_first_stage
//	description: "Negotiated values replace the upstream basis in stage 2"
//	today: "2026-03-14"
//	stage: stage2
//	prior:
//	  stage: mapping
//	  records:
//	    - id: a
//	      origin: mapping
//	      paying: true
//	      reference: { installment: "100", term: 10 }
//	negotiations:
//	  a: { installment: "80", term: "6x" }
//	steps:
//	  - op: sync
//	    mode: initial_load
//	  - op: remove
//	    id: a
//	    expect_error: INHERITED_RECORD
//	assertions:
//	  - type: record
//	    id: a
//	    expect: { current_installment: "80", negotiated: true, payoff: "2026-09" }
//
// Leaving out prior makes the previous stage unavailable; an empty prior
// (records: []) is a previous stage with no debts.
//
// # Steps
//
//   - sync: Synchronize with mode initial_load or manual_refresh
//   - add: admit a manual debt (name, creditor, installment, term, rate)
//   - remove: delete a record by id
//   - pay, amortize: toggle confirmations (on defaults to true)
//   - edit_term, edit_current: user edits; unreadable numbers become zero
//
// # Assertion Types
//
//   - record: subset match on one record's fields
//   - absent: no record with the id exists
//   - count: the ledger holds exactly count records
//   - sync: subset match on the last synchronization's counters
//
// # Deterministic Testing
//
// Every scenario runs with a frozen clock at noon UTC of its day and
// sequential record ids ("0001", "0002", ...), so Snapshot output is stable
// and can be compared against golden files.
package harness
