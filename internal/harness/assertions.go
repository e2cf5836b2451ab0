package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/stageledger/internal/ledger"
)

// AssertionError is returned when an assertion fails.
// It includes the step trace to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Trace    []StepEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nSteps:\n")
	for _, step := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", step.Index, step.Op, step.Target, step.Outcome)
	}

	return buf.String()
}

// decimalFields are compared numerically so "80" matches "80.00".
var decimalFields = map[string]bool{
	"reference_installment": true,
	"reference_rate":        true,
	"current_installment":   true,
	"current_rate":          true,
}

// RecordFields flattens a record into the names record assertions use.
func RecordFields(r ledger.DebtRecord) map[string]any {
	return map[string]any{
		"name":                  r.Name,
		"creditor":              r.Creditor,
		"origin":                r.Origin().String(),
		"reference_installment": r.ReferenceInstallment.String(),
		"reference_term":        r.ReferenceTermMonths,
		"reference_rate":        r.ReferenceInterestRate.String(),
		"current_installment":   r.CurrentInstallment.String(),
		"current_term":          r.CurrentTermMonths,
		"current_rate":          r.CurrentInterestRate.String(),
		"negotiated":            r.IsNegotiated,
		"manual":                r.IsManuallyAdded,
		"paying":                r.IsPaymentConfirmed,
		"amortizing":            r.IsAmortizationConfirmed,
		"payoff":                r.ProjectedPayoff.String(),
	}
}

// SyncFields flattens the last synchronization's counters.
func SyncFields(r *Result) map[string]any {
	return map[string]any{
		"unchanged":            r.Sync.Unchanged,
		"upstream_unavailable": r.Sync.UpstreamUnavailable,
		"inherited":            r.Sync.Inherited,
		"negotiated":           r.Sync.Negotiated,
		"preserved":            r.Sync.Preserved,
		"duplicate_prior":      len(r.Sync.DuplicatePrior),
		"skipped":              len(r.Skipped),
	}
}

// EvaluateAssertions checks every assertion and returns the failures.
func EvaluateAssertions(result *Result, assertions []Assertion) []error {
	var errs []error
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Trace: result.Trace}
	}

	switch a.Type {
	case AssertRecord:
		r, ok := result.Ledger.Find(a.ID)
		if !ok {
			return fail(fmt.Sprintf("record %s", a.ID), "not in ledger")
		}
		if diffs := matchFields(RecordFields(r), a.Expect); len(diffs) > 0 {
			return fail(fmt.Sprintf("record %s with %v", a.ID, a.Expect), strings.Join(diffs, "; "))
		}
	case AssertAbsent:
		if _, ok := result.Ledger.Find(a.ID); ok {
			return fail(fmt.Sprintf("no record %s", a.ID), "record present")
		}
	case AssertCount:
		if n := result.Ledger.Len(); n != a.Count {
			return fail(fmt.Sprintf("%d records", a.Count), fmt.Sprintf("%d records", n))
		}
	case AssertSync:
		if diffs := matchFields(SyncFields(result), a.Expect); len(diffs) > 0 {
			return fail(fmt.Sprintf("sync with %v", a.Expect), strings.Join(diffs, "; "))
		}
	default:
		return fail("known assertion type", a.Type)
	}
	return nil
}

// matchFields compares expected against actual (subset semantics) and
// returns one message per mismatch, sorted by field name.
func matchFields(actual, expected map[string]any) []string {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var diffs []string
	for _, k := range keys {
		want := expected[k]
		got, ok := actual[k]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("%s: unknown field", k))
			continue
		}
		if !valuesEqual(k, got, want) {
			diffs = append(diffs, fmt.Sprintf("%s: got %v, want %v", k, got, want))
		}
	}
	return diffs
}

func valuesEqual(field string, got, want any) bool {
	if decimalFields[field] {
		g, err1 := decimal.NewFromString(fmt.Sprint(got))
		w, err2 := decimal.NewFromString(fmt.Sprint(want))
		return err1 == nil && err2 == nil && g.Equal(w)
	}
	// YAML decodes numbers as int; actual counters are int too.
	return fmt.Sprint(got) == fmt.Sprint(want)
}
