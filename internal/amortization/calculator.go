package amortization

import (
	"errors"
	"time"

	"github.com/roach88/stageledger/internal/ledger"
)

// ErrPaymentNotConfirmed is returned when amortization is toggled on a
// record that is not being paid in the current period.
var ErrPaymentNotConfirmed = errors.New("amortization requires a confirmed payment")

// Calculator derives terms and payoff months. It holds no mutable state and
// is safe for concurrent use.
type Calculator struct {
	clock Clock
}

// New creates a Calculator reading time from clock.
func New(clock Clock) *Calculator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Calculator{clock: clock}
}

// Now returns the calculator's current time.
func (c *Calculator) Now() time.Time {
	return c.clock.Now()
}

// ProjectedPayoffMonth returns the month in which a debt with termMonths
// remaining installments is paid off. Non-positive terms yield the
// indefinite sentinel.
func (c *Calculator) ProjectedPayoffMonth(termMonths int) ledger.PayoffMonth {
	if termMonths <= 0 {
		return ledger.Indefinite()
	}
	now := c.clock.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, termMonths, 0)
	return ledger.PayoffMonth{Year: end.Year(), Month: end.Month()}
}

// SetPaymentConfirmed records whether the debt is being paid this period.
// Confirming also confirms amortization of one installment; withdrawing
// restores the reference term.
func (c *Calculator) SetPaymentConfirmed(r ledger.DebtRecord, confirmed bool) ledger.DebtRecord {
	r.IsPaymentConfirmed = confirmed
	r.IsAmortizationConfirmed = confirmed
	return c.applyAmortization(r)
}

// SetAmortizationConfirmed toggles the one-installment term reduction.
// Only records with a confirmed payment may be toggled.
func (c *Calculator) SetAmortizationConfirmed(r ledger.DebtRecord, confirmed bool) (ledger.DebtRecord, error) {
	if !r.IsPaymentConfirmed {
		return r, ErrPaymentNotConfirmed
	}
	r.IsAmortizationConfirmed = confirmed
	return c.applyAmortization(r), nil
}

// SetTerm applies a direct user edit of the remaining term.
// Negative input is coerced to zero.
func (c *Calculator) SetTerm(r ledger.DebtRecord, termMonths int) ledger.DebtRecord {
	r.CurrentTermMonths = max(0, termMonths)
	r.ProjectedPayoff = c.ProjectedPayoffMonth(r.CurrentTermMonths)
	r.UpdatedAt = c.clock.Now()
	return r
}

func (c *Calculator) applyAmortization(r ledger.DebtRecord) ledger.DebtRecord {
	term := r.ReferenceTermMonths
	if r.IsAmortizationConfirmed {
		term = max(0, r.ReferenceTermMonths-1)
	}
	return c.SetTerm(r, term)
}
