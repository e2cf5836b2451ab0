package harness

import (
	"github.com/roach88/stageledger/internal/engine"
	"github.com/roach88/stageledger/internal/ledger"
)

// StepEvent records what one step did.
type StepEvent struct {
	Index   int    `json:"index"`
	Op      string `json:"op"`
	Target  string `json:"target,omitempty"`
	Outcome string `json:"outcome"` // "ok" or an error code
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Trace lists every step in order.
	Trace []StepEvent `json:"trace"`

	// Ledger is the stage ledger after the last step.
	Ledger ledger.Ledger `json:"ledger"`

	// Sync is the result of the last sync step.
	Sync engine.Result `json:"-"`

	// Skipped holds the negotiation entries that could not be parsed.
	Skipped []string `json:"skipped,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step to the trace.
func (r *Result) AddStep(index int, op, target, outcome string) {
	r.Trace = append(r.Trace, StepEvent{Index: index, Op: op, Target: target, Outcome: outcome})
}
