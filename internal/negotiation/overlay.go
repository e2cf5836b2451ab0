package negotiation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/stageledger/internal/ledger"
)

// Entry is one free-form negotiation note for a debt.
type Entry struct {
	Installment string `yaml:"installment,omitempty" json:"installment,omitempty"`
	Term        string `yaml:"term,omitempty" json:"term,omitempty"`
	Rate        string `yaml:"rate,omitempty" json:"rate,omitempty"`
	Comment     string `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// Present reports whether the entry carries a negotiated installment or
// quantity. Notes that only leave a comment or a rate do not count.
func (e Entry) Present() bool {
	return strings.TrimSpace(e.Installment) != "" || strings.TrimSpace(e.Term) != ""
}

// Table maps debt IDs to their negotiation notes.
type Table map[string]Entry

// Override is the normalized form of an entry. Fields the note left blank
// are invalid and keep the record's own value when applied.
type Override struct {
	Installment  decimal.NullDecimal
	TermMonths   int
	HasTerm      bool
	InterestRate decimal.NullDecimal
}

// Overlay holds the normalized overrides, keyed by debt ID.
type Overlay map[string]Override

// ParseError reports a malformed entry.
type ParseError struct {
	DebtID string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("negotiation %s: %s %q: %v", e.DebtID, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Normalize parses every present entry. Malformed entries are left out of
// the overlay and reported; the others are unaffected. Errors are ordered
// by debt ID.
func (t Table) Normalize() (Overlay, []error) {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	overlay := make(Overlay, len(t))
	var errs []error
	for _, id := range ids {
		entry := t[id]
		if !entry.Present() {
			continue
		}
		o, err := normalizeEntry(id, entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		overlay[id] = o
	}
	return overlay, errs
}

func normalizeEntry(id string, e Entry) (Override, error) {
	var o Override

	if amount, err := ParseAmount(e.Installment); err == nil {
		o.Installment = decimal.NullDecimal{Decimal: amount, Valid: true}
	} else if !errors.Is(err, ErrEmpty) {
		return Override{}, &ParseError{DebtID: id, Field: "installment", Value: e.Installment, Err: err}
	}

	if term, err := ParseTerm(e.Term); err == nil {
		o.TermMonths = term
		o.HasTerm = true
	} else if !errors.Is(err, ErrEmpty) {
		return Override{}, &ParseError{DebtID: id, Field: "term", Value: e.Term, Err: err}
	}

	if rate, err := ParseRate(e.Rate); err == nil {
		o.InterestRate = decimal.NullDecimal{Decimal: rate, Valid: true}
	} else if !errors.Is(err, ErrEmpty) {
		return Override{}, &ParseError{DebtID: id, Field: "rate", Value: e.Rate, Err: err}
	}

	return o, nil
}

// Lookup returns the override for a debt, if any.
func (o Overlay) Lookup(id string) (Override, bool) {
	if o == nil {
		return Override{}, false
	}
	ov, ok := o[id]
	return ov, ok
}

// Apply overrides the current values of r and marks it negotiated.
// Reference values are left alone.
func (o Override) Apply(r ledger.DebtRecord) ledger.DebtRecord {
	if o.Installment.Valid {
		r.CurrentInstallment = o.Installment.Decimal
	}
	if o.HasTerm {
		r.CurrentTermMonths = o.TermMonths
	}
	if o.InterestRate.Valid {
		r.CurrentInterestRate = o.InterestRate.Decimal
	}
	r.IsNegotiated = true
	return r
}
