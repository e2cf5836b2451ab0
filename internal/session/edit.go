package session

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/stageledger/internal/engine"
	"github.com/roach88/stageledger/internal/ledger"
	"github.com/roach88/stageledger/internal/negotiation"
	"github.com/roach88/stageledger/internal/store"
)

// mutate loads stage, applies fn and saves the result.
func (s *Service) mutate(ctx context.Context, a store.Access, stage ledger.Stage, op string, fn func(ledger.Ledger) (ledger.Ledger, error)) error {
	l, err := s.repo.LoadLedger(ctx, a, stage)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	l.Stage = stage
	out, err := fn(l)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.repo.UpsertLedger(ctx, a, out); err != nil {
		return fmt.Errorf("%s: save: %w", op, err)
	}
	return nil
}

// update applies fn to one record of stage and returns the saved record.
func (s *Service) update(ctx context.Context, a store.Access, stage ledger.Stage, id, op string, fn func(ledger.DebtRecord) (ledger.DebtRecord, error)) (ledger.DebtRecord, error) {
	var updated ledger.DebtRecord
	err := s.mutate(ctx, a, stage, op, func(l ledger.Ledger) (ledger.Ledger, error) {
		err := l.Update(id, func(r *ledger.DebtRecord) error {
			n, err := fn(*r)
			if err != nil {
				return err
			}
			*r = n
			updated = n
			return nil
		})
		return l, err
	})
	if err != nil {
		return ledger.DebtRecord{}, err
	}
	return updated, nil
}

// AddDebt admits a manually entered debt into stage.
func (s *Service) AddDebt(ctx context.Context, a store.Access, stage ledger.Stage, in engine.ManualInput) (ledger.DebtRecord, error) {
	var added ledger.DebtRecord
	err := s.mutate(ctx, a, stage, "add debt", func(l ledger.Ledger) (ledger.Ledger, error) {
		out, r, err := s.engine.AddDebt(l, in)
		added = r
		return out, err
	})
	if err != nil {
		return ledger.DebtRecord{}, err
	}
	s.logger.Info("debt added", "user", a.Subject, "stage", stage.String(), "id", added.ID)
	return added, nil
}

// RemoveDebt deletes a removable record from stage.
func (s *Service) RemoveDebt(ctx context.Context, a store.Access, stage ledger.Stage, id string) error {
	err := s.mutate(ctx, a, stage, "remove debt", func(l ledger.Ledger) (ledger.Ledger, error) {
		return s.engine.RemoveDebt(l, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("debt removed", "user", a.Subject, "stage", stage.String(), "id", id)
	return nil
}

// SetPaymentConfirmed records whether the client keeps paying the debt.
func (s *Service) SetPaymentConfirmed(ctx context.Context, a store.Access, stage ledger.Stage, id string, confirmed bool) (ledger.DebtRecord, error) {
	calc := s.engine.Calculator()
	return s.update(ctx, a, stage, id, "set payment", func(r ledger.DebtRecord) (ledger.DebtRecord, error) {
		return calc.SetPaymentConfirmed(r, confirmed), nil
	})
}

// SetAmortizationConfirmed records whether this stage's payment counts
// toward paying the debt down.
func (s *Service) SetAmortizationConfirmed(ctx context.Context, a store.Access, stage ledger.Stage, id string, confirmed bool) (ledger.DebtRecord, error) {
	calc := s.engine.Calculator()
	return s.update(ctx, a, stage, id, "set amortization", func(r ledger.DebtRecord) (ledger.DebtRecord, error) {
		return calc.SetAmortizationConfirmed(r, confirmed)
	})
}

// RecordEdit is user input for Edit. Nil fields keep their current value;
// input that is not numeric is read as zero.
type RecordEdit struct {
	Installment *string
	Rate        *string
	Term        *string
}

// Edit changes the current values of one record in a single load and save.
func (s *Service) Edit(ctx context.Context, a store.Access, stage ledger.Stage, id string, in RecordEdit) (ledger.DebtRecord, error) {
	calc := s.engine.Calculator()
	now := calc.Now()
	return s.update(ctx, a, stage, id, "edit", func(r ledger.DebtRecord) (ledger.DebtRecord, error) {
		if in.Installment != nil {
			r.CurrentInstallment = CoerceAmount(*in.Installment)
			r.UpdatedAt = now
		}
		if in.Rate != nil {
			r.CurrentInterestRate = CoerceRate(*in.Rate)
			r.UpdatedAt = now
		}
		if in.Term != nil {
			r = calc.SetTerm(r, CoerceTerm(*in.Term))
		}
		return r, nil
	})
}

// EditTerm sets the current term from user input.
func (s *Service) EditTerm(ctx context.Context, a store.Access, stage ledger.Stage, id, term string) (ledger.DebtRecord, error) {
	return s.Edit(ctx, a, stage, id, RecordEdit{Term: &term})
}

// EditCurrent sets the current installment and rate from user input.
func (s *Service) EditCurrent(ctx context.Context, a store.Access, stage ledger.Stage, id, installment, rate string) (ledger.DebtRecord, error) {
	return s.Edit(ctx, a, stage, id, RecordEdit{Installment: &installment, Rate: &rate})
}

// CoerceAmount reads a money amount typed by a user; anything unreadable
// is zero.
func CoerceAmount(s string) decimal.Decimal {
	d, err := negotiation.ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CoerceRate reads an interest rate typed by a user; anything unreadable
// is zero.
func CoerceRate(s string) decimal.Decimal {
	d, err := negotiation.ParseRate(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CoerceTerm reads a term typed by a user; anything unreadable is zero.
func CoerceTerm(s string) int {
	n, err := negotiation.ParseTerm(s)
	if err != nil {
		return 0
	}
	return n
}
