package ledger

import (
	"errors"
	"fmt"
)

// ErrInvalidLedger wraps every validation failure.
var ErrInvalidLedger = errors.New("invalid ledger")

// MaxTermMonths bounds any term a record may carry (100 years).
const MaxTermMonths = 1200

// Validate checks the structural invariants of l and returns every
// violation found, joined.
func (l Ledger) Validate() error {
	var errs []error
	if !l.Stage.Valid() {
		errs = append(errs, fmt.Errorf("%w: stage %d", ErrUnknownStage, int(l.Stage)))
	}

	seen := make(map[string]bool, len(l.Records))
	for i, r := range l.Records {
		if r.ID == "" {
			errs = append(errs, fmt.Errorf("records[%d]: empty id", i))
			continue
		}
		if seen[r.ID] {
			errs = append(errs, fmt.Errorf("records[%d]: duplicate id %q", i, r.ID))
		}
		seen[r.ID] = true

		if !r.origin.Valid() {
			errs = append(errs, fmt.Errorf("record %q: %w: %q", r.ID, ErrUnknownProvenance, string(r.origin)))
		}
		if r.IsManuallyAdded && r.origin != l.Stage.ManualTag() {
			errs = append(errs, fmt.Errorf("record %q: manual record has origin %s in %s", r.ID, r.origin, l.Stage))
		}
		if r.CurrentTermMonths < 0 || r.ReferenceTermMonths < 0 {
			errs = append(errs, fmt.Errorf("record %q: negative term", r.ID))
		}
		if r.CurrentTermMonths > MaxTermMonths || r.ReferenceTermMonths > MaxTermMonths {
			errs = append(errs, fmt.Errorf("record %q: term exceeds %d months", r.ID, MaxTermMonths))
		}
		if r.CurrentInstallment.IsNegative() || r.ReferenceInstallment.IsNegative() {
			errs = append(errs, fmt.Errorf("record %q: negative installment", r.ID))
		}
		if r.CurrentInterestRate.IsNegative() || r.ReferenceInterestRate.IsNegative() {
			errs = append(errs, fmt.Errorf("record %q: negative interest rate", r.ID))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidLedger, errors.Join(errs...))
}
