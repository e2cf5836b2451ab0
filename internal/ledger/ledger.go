package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrRecordNotFound is returned when no record has the requested ID.
var ErrRecordNotFound = errors.New("record not found")

// Ledger is the set of debt records visible within one stage.
// Record order is not significant; IDs are unique.
type Ledger struct {
	Stage   Stage        `json:"stage"`
	Records []DebtRecord `json:"records"`
}

// New returns an empty ledger for stage.
func New(stage Stage) Ledger {
	return Ledger{Stage: stage, Records: []DebtRecord{}}
}

// IsEmpty reports whether the ledger holds no records.
func (l Ledger) IsEmpty() bool {
	return len(l.Records) == 0
}

// Len returns the number of records.
func (l Ledger) Len() int {
	return len(l.Records)
}

func (l Ledger) index(id string) int {
	for i := range l.Records {
		if l.Records[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the record with the given ID.
func (l Ledger) Find(id string) (DebtRecord, bool) {
	if i := l.index(id); i >= 0 {
		return l.Records[i], true
	}
	return DebtRecord{}, false
}

// IDs returns the set of record IDs.
func (l Ledger) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(l.Records))
	for _, r := range l.Records {
		ids[r.ID] = struct{}{}
	}
	return ids
}

// Clone returns a copy that shares no record storage with l.
func (l Ledger) Clone() Ledger {
	out := Ledger{Stage: l.Stage, Records: make([]DebtRecord, len(l.Records))}
	copy(out.Records, l.Records)
	return out
}

// Put inserts r, replacing any record with the same ID.
func (l *Ledger) Put(r DebtRecord) {
	if i := l.index(r.ID); i >= 0 {
		l.Records[i] = r
		return
	}
	l.Records = append(l.Records, r)
}

// Remove deletes the record with the given ID and reports whether it existed.
func (l *Ledger) Remove(id string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.Records = append(l.Records[:i], l.Records[i+1:]...)
	return true
}

// Update applies fn to the record with the given ID in place.
func (l *Ledger) Update(id string, fn func(*DebtRecord) error) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	rec := l.Records[i]
	if err := fn(&rec); err != nil {
		return err
	}
	l.Records[i] = rec
	return nil
}

// EditCurrent sets the current installment and interest rate of a record.
// Term edits go through amortization.SetTerm so the payoff month follows.
func (l *Ledger) EditCurrent(id string, installment, rate decimal.Decimal, now time.Time) error {
	return l.Update(id, func(r *DebtRecord) error {
		r.CurrentInstallment = installment
		r.CurrentInterestRate = rate
		r.UpdatedAt = now
		return nil
	})
}

// Sorted returns the records ordered by ID. The ledger itself is unchanged.
func (l Ledger) Sorted() []DebtRecord {
	out := make([]DebtRecord, len(l.Records))
	copy(out, l.Records)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Manual returns the records added by hand within this stage.
func (l Ledger) Manual() []DebtRecord {
	var out []DebtRecord
	for _, r := range l.Records {
		if r.IsManuallyAdded {
			out = append(out, r)
		}
	}
	return out
}
