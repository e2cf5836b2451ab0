package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrOriginImmutable is returned when a record's origin would be changed.
var ErrOriginImmutable = errors.New("record origin is write-once")

// PayoffMonth is the projected month in which a debt is paid off.
// The zero value is the indefinite sentinel: no remaining term.
type PayoffMonth struct {
	Year  int
	Month time.Month
}

const indefiniteText = "indefinite"

// Indefinite returns the sentinel used when a record has no remaining term.
func Indefinite() PayoffMonth {
	return PayoffMonth{}
}

// IsIndefinite reports whether m is the no-term sentinel.
func (m PayoffMonth) IsIndefinite() bool {
	return m.Year == 0 && m.Month == 0
}

func (m PayoffMonth) String() string {
	if m.IsIndefinite() {
		return indefiniteText
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalText implements encoding.TextMarshaler.
func (m PayoffMonth) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *PayoffMonth) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" || s == indefiniteText {
		*m = Indefinite()
		return nil
	}
	// Years are not limited to four digits, matching String.
	year, month, ok := strings.Cut(s, "-")
	y, errY := strconv.Atoi(year)
	mo, errM := strconv.Atoi(month)
	if !ok || errY != nil || errM != nil || y < 1 || mo < 1 || mo > 12 {
		return fmt.Errorf("invalid payoff month %q", s)
	}
	*m = PayoffMonth{Year: y, Month: time.Month(mo)}
	return nil
}

// DebtRecord is one tracked obligation as it exists within one stage's ledger.
//
// Reference values are the read-only baseline copied from the prior stage's
// current values. Current values are the stage's editable working copy.
type DebtRecord struct {
	ID       string
	Name     string
	Creditor string

	ReferenceInstallment  decimal.Decimal
	ReferenceTermMonths   int
	ReferenceInterestRate decimal.Decimal

	CurrentInstallment  decimal.Decimal
	CurrentTermMonths   int
	CurrentInterestRate decimal.Decimal

	IsNegotiated            bool
	IsManuallyAdded         bool
	IsPaymentConfirmed      bool
	IsAmortizationConfirmed bool

	CreatedAt time.Time
	UpdatedAt time.Time

	// ProjectedPayoff is derived from CurrentTermMonths; never authoritative.
	ProjectedPayoff PayoffMonth

	origin Provenance
}

// NewRecord creates a record with its origin set once and for all.
func NewRecord(id string, origin Provenance, now time.Time) DebtRecord {
	return DebtRecord{
		ID:        id,
		origin:    origin,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Origin returns the record's provenance tag.
func (r DebtRecord) Origin() Provenance {
	return r.origin
}

// Restamp sets the origin of a record that has none yet. Re-applying the
// same tag is a no-op; any other tag returns ErrOriginImmutable.
func (r *DebtRecord) Restamp(p Provenance) error {
	if r.origin == "" {
		r.origin = p
		return nil
	}
	if r.origin != p {
		return fmt.Errorf("%w: %s has origin %s, refusing %s", ErrOriginImmutable, r.ID, r.origin, p)
	}
	return nil
}

type recordJSON struct {
	ID                      string          `json:"id"`
	Name                    string          `json:"name"`
	Creditor                string          `json:"creditor"`
	ReferenceInstallment    decimal.Decimal `json:"reference_installment"`
	ReferenceTermMonths     int             `json:"reference_term_months"`
	ReferenceInterestRate   decimal.Decimal `json:"reference_interest_rate"`
	CurrentInstallment      decimal.Decimal `json:"current_installment"`
	CurrentTermMonths       int             `json:"current_term_months"`
	CurrentInterestRate     decimal.Decimal `json:"current_interest_rate"`
	IsNegotiated            bool            `json:"is_negotiated"`
	IsManuallyAdded         bool            `json:"is_manually_added"`
	IsPaymentConfirmed      bool            `json:"is_payment_confirmed"`
	IsAmortizationConfirmed bool            `json:"is_amortization_confirmed"`
	Origin                  Provenance      `json:"origin"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
	ProjectedPayoff         PayoffMonth     `json:"projected_payoff_month"`
}

// MarshalJSON implements json.Marshaler.
func (r DebtRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:                      r.ID,
		Name:                    r.Name,
		Creditor:                r.Creditor,
		ReferenceInstallment:    r.ReferenceInstallment,
		ReferenceTermMonths:     r.ReferenceTermMonths,
		ReferenceInterestRate:   r.ReferenceInterestRate,
		CurrentInstallment:      r.CurrentInstallment,
		CurrentTermMonths:       r.CurrentTermMonths,
		CurrentInterestRate:     r.CurrentInterestRate,
		IsNegotiated:            r.IsNegotiated,
		IsManuallyAdded:         r.IsManuallyAdded,
		IsPaymentConfirmed:      r.IsPaymentConfirmed,
		IsAmortizationConfirmed: r.IsAmortizationConfirmed,
		Origin:                  r.origin,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
		ProjectedPayoff:         r.ProjectedPayoff,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *DebtRecord) UnmarshalJSON(data []byte) error {
	var w recordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = DebtRecord{
		ID:                      w.ID,
		Name:                    w.Name,
		Creditor:                w.Creditor,
		ReferenceInstallment:    w.ReferenceInstallment,
		ReferenceTermMonths:     w.ReferenceTermMonths,
		ReferenceInterestRate:   w.ReferenceInterestRate,
		CurrentInstallment:      w.CurrentInstallment,
		CurrentTermMonths:       w.CurrentTermMonths,
		CurrentInterestRate:     w.CurrentInterestRate,
		IsNegotiated:            w.IsNegotiated,
		IsManuallyAdded:         w.IsManuallyAdded,
		IsPaymentConfirmed:      w.IsPaymentConfirmed,
		IsAmortizationConfirmed: w.IsAmortizationConfirmed,
		CreatedAt:               w.CreatedAt,
		UpdatedAt:               w.UpdatedAt,
		ProjectedPayoff:         w.ProjectedPayoff,
		origin:                  w.Origin,
	}
	return nil
}
