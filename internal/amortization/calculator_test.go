package amortization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stageledger/internal/ledger"
	"github.com/roach88/stageledger/internal/testutil"
)

var midMarch = time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)

func newTestCalculator() (*Calculator, *testutil.ManualClock) {
	clock := testutil.NewManualClock(midMarch)
	return New(clock), clock
}

func unpaidRecord(referenceTerm int) ledger.DebtRecord {
	r := ledger.NewRecord("d1", ledger.OriginStage2, midMarch.AddDate(0, -1, 0))
	r.ReferenceTermMonths = referenceTerm
	r.CurrentTermMonths = referenceTerm
	return r
}

func TestProjectedPayoffMonth_SnapsToMonthStart(t *testing.T) {
	calc, clock := newTestCalculator()

	assert.Equal(t, ledger.PayoffMonth{Year: 2026, Month: time.April}, calc.ProjectedPayoffMonth(1))
	assert.Equal(t, ledger.PayoffMonth{Year: 2027, Month: time.February}, calc.ProjectedPayoffMonth(11))
	assert.Equal(t, ledger.PayoffMonth{Year: 2028, Month: time.March}, calc.ProjectedPayoffMonth(24))

	// Day 31 must not spill into the following month.
	clock.Set(time.Date(2026, time.January, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, ledger.PayoffMonth{Year: 2026, Month: time.February}, calc.ProjectedPayoffMonth(1))
}

func TestProjectedPayoffMonth_NoTermSentinel(t *testing.T) {
	calc, _ := newTestCalculator()

	assert.True(t, calc.ProjectedPayoffMonth(0).IsIndefinite())
	assert.True(t, calc.ProjectedPayoffMonth(-1).IsIndefinite())
}

func TestSetPaymentConfirmed_ConsumesOneInstallment(t *testing.T) {
	calc, _ := newTestCalculator()
	r := unpaidRecord(12)

	r = calc.SetPaymentConfirmed(r, true)

	assert.True(t, r.IsPaymentConfirmed)
	assert.True(t, r.IsAmortizationConfirmed)
	assert.Equal(t, 11, r.CurrentTermMonths)
	assert.Equal(t, ledger.PayoffMonth{Year: 2027, Month: time.February}, r.ProjectedPayoff)
	assert.Equal(t, midMarch, r.UpdatedAt)
}

func TestSetPaymentConfirmed_ReversalRestoresReference(t *testing.T) {
	calc, _ := newTestCalculator()
	r := calc.SetPaymentConfirmed(unpaidRecord(12), true)

	r = calc.SetPaymentConfirmed(r, false)

	assert.False(t, r.IsPaymentConfirmed)
	assert.False(t, r.IsAmortizationConfirmed)
	assert.Equal(t, 12, r.CurrentTermMonths)
	assert.Equal(t, ledger.PayoffMonth{Year: 2027, Month: time.March}, r.ProjectedPayoff)
}

func TestSetPaymentConfirmed_NeverBelowZero(t *testing.T) {
	calc, _ := newTestCalculator()

	r := calc.SetPaymentConfirmed(unpaidRecord(0), true)
	assert.Equal(t, 0, r.CurrentTermMonths)
	assert.True(t, r.ProjectedPayoff.IsIndefinite())

	r = calc.SetPaymentConfirmed(unpaidRecord(1), true)
	assert.Equal(t, 0, r.CurrentTermMonths)
	assert.True(t, r.ProjectedPayoff.IsIndefinite())
}

func TestSetAmortizationConfirmed_RequiresPayment(t *testing.T) {
	calc, _ := newTestCalculator()
	r := unpaidRecord(12)

	got, err := calc.SetAmortizationConfirmed(r, true)
	assert.ErrorIs(t, err, ErrPaymentNotConfirmed)
	assert.Equal(t, 12, got.CurrentTermMonths)
	assert.False(t, got.IsAmortizationConfirmed)
}

func TestSetAmortizationConfirmed_Toggle(t *testing.T) {
	calc, _ := newTestCalculator()
	r := unpaidRecord(12)
	r.IsPaymentConfirmed = true

	r, err := calc.SetAmortizationConfirmed(r, true)
	require.NoError(t, err)
	assert.Equal(t, 11, r.CurrentTermMonths)
	assert.True(t, r.IsPaymentConfirmed)

	r, err = calc.SetAmortizationConfirmed(r, false)
	require.NoError(t, err)
	assert.Equal(t, 12, r.CurrentTermMonths)
	assert.True(t, r.IsPaymentConfirmed)
	assert.False(t, r.IsAmortizationConfirmed)
}

func TestSetTerm_RecomputesPayoff(t *testing.T) {
	calc, _ := newTestCalculator()
	r := unpaidRecord(12)

	r = calc.SetTerm(r, 3)
	assert.Equal(t, 3, r.CurrentTermMonths)
	assert.Equal(t, ledger.PayoffMonth{Year: 2026, Month: time.June}, r.ProjectedPayoff)
	assert.Equal(t, 12, r.ReferenceTermMonths)

	r = calc.SetTerm(r, -4)
	assert.Equal(t, 0, r.CurrentTermMonths)
	assert.True(t, r.ProjectedPayoff.IsIndefinite())
}

func TestSystemClock_Location(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := SystemClock{Location: loc}.Now()
	assert.Equal(t, loc, now.Location())
}
