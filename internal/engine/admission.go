package engine

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/stageledger/internal/ledger"
)

// ManualInput describes a debt entered by hand within a stage.
type ManualInput struct {
	Name         string
	Creditor     string
	Installment  decimal.Decimal
	TermMonths   int
	InterestRate decimal.Decimal
}

// AddDebt admits a new record into l and returns the updated ledger and the
// record. In later stages the record is marked manually added and stamped
// with the stage's manual tag; in the mapping stage it becomes part of the
// baseline.
//
// Manual records have no prior counterpart, so their reference installment
// and rate are zero. The reference term is the entered term, which is the
// baseline amortization toggles count down from.
func (e *Engine) AddDebt(l ledger.Ledger, in ManualInput) (ledger.Ledger, ledger.DebtRecord, error) {
	if !l.Stage.Valid() {
		return l, ledger.DebtRecord{}, newStageError(ErrCodeUnknownStage, l.Stage, "stage %d is not part of the workflow", int(l.Stage))
	}
	now := e.calc.Now()
	term := max(0, in.TermMonths)

	r := ledger.NewRecord(recordID(l.Stage, e.ids.Generate()), l.Stage.ManualTag(), now)
	r.Name = in.Name
	r.Creditor = in.Creditor
	r.IsManuallyAdded = l.Stage != ledger.StageMapping
	r.IsPaymentConfirmed = true

	r.ReferenceInstallment = decimal.Zero
	r.ReferenceInterestRate = decimal.Zero
	r.ReferenceTermMonths = term
	if l.Stage == ledger.StageMapping {
		r.ReferenceInstallment = in.Installment
		r.ReferenceInterestRate = in.InterestRate
	}

	r.CurrentInstallment = in.Installment
	r.CurrentTermMonths = term
	r.CurrentInterestRate = in.InterestRate
	r.ProjectedPayoff = e.calc.ProjectedPayoffMonth(term)

	out := l.Clone()
	out.Put(r)
	return out, r, nil
}

// RemoveDebt deletes a manually added record. Inherited records cannot be
// removed: their current values may be edited, but the record persists for
// provenance continuity. Every mapping record is removable since the
// mapping stage is where the baseline is built.
func (e *Engine) RemoveDebt(l ledger.Ledger, id string) (ledger.Ledger, error) {
	r, ok := l.Find(id)
	if !ok {
		return l, newRecordError(ErrCodeRecordNotFound, l.Stage, id, "no such record")
	}
	if l.Stage != ledger.StageMapping && !r.IsManuallyAdded {
		return l, newRecordError(ErrCodeInheritedRecord, l.Stage, id, "inherited records cannot be removed")
	}
	out := l.Clone()
	out.Remove(id)
	return out, nil
}
