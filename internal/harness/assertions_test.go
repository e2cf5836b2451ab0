package harness

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stageledger/internal/engine"
	"github.com/roach88/stageledger/internal/ledger"
)

func testResult() *Result {
	r := ledger.NewRecord("a", ledger.OriginStage2, testNow)
	r.CurrentInstallment = decimal.RequireFromString("80.00")
	r.CurrentTermMonths = 6
	r.IsPaymentConfirmed = true
	r.ProjectedPayoff = ledger.PayoffMonth{Year: 2026, Month: 9}

	l := ledger.New(ledger.Stage2)
	l.Put(r)

	result := NewResult()
	result.Ledger = l
	result.Sync = engine.Result{Inherited: 1, Negotiated: 1}
	result.AddStep(0, OpSync, "", "ok")
	return result
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(testResult(), []Assertion{
		{Type: AssertRecord, ID: "a", Expect: map[string]any{
			"current_installment": 80,
			"current_term":        6,
			"paying":              true,
			"origin":              "stage2",
			"payoff":              "2026-09",
		}},
		{Type: AssertAbsent, ID: "b"},
		{Type: AssertCount, Count: 1},
		{Type: AssertSync, Expect: map[string]any{"inherited": 1, "negotiated": 1, "unchanged": false}},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	errs := EvaluateAssertions(testResult(), []Assertion{
		{Type: AssertRecord, ID: "a", Expect: map[string]any{"current_term": 5, "colour": "red"}},
		{Type: AssertRecord, ID: "zzz", Expect: map[string]any{"paying": true}},
		{Type: AssertAbsent, ID: "a"},
		{Type: AssertCount, Count: 3},
		{Type: AssertSync, Expect: map[string]any{"preserved": 2}},
	})
	require.Len(t, errs, 5)

	var ae *AssertionError
	require.True(t, errors.As(errs[0], &ae))
	assert.Equal(t, AssertRecord, ae.Type)
	assert.Equal(t, "colour: unknown field; current_term: got 6, want 5", ae.Actual)
	assert.Contains(t, ae.Error(), "[0] sync  -> ok")

	assert.Contains(t, errs[1].Error(), "not in ledger")
	assert.Contains(t, errs[2].Error(), "record present")
	assert.Contains(t, errs[3].Error(), "Actual: 1 records")
	assert.Contains(t, errs[4].Error(), "preserved: got 0, want 2")
}

func TestValuesEqual_Decimals(t *testing.T) {
	assert.True(t, valuesEqual("current_installment", "80", "80.00"))
	assert.True(t, valuesEqual("reference_rate", "2.5", 2.5))
	assert.False(t, valuesEqual("current_installment", "80", "abc"))
	assert.False(t, valuesEqual("current_term", 6, "6.0"))
	assert.True(t, valuesEqual("current_term", 6, 6))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "PAYMENT_NOT_CONFIRMED", ErrorCode(errWrap(amortizationErr())))
	assert.Equal(t, "RECORD_NOT_FOUND", ErrorCode(ledger.ErrRecordNotFound))
	assert.Equal(t, "ERROR", ErrorCode(errors.New("boom")))
}
