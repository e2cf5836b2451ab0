package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as stable text for golden comparison.
// Records are listed by id; timestamps are left out.
func Snapshot(name string, result *Result) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", name)
	for _, step := range result.Trace {
		if step.Target != "" {
			fmt.Fprintf(&b, "step %d: %s %s -> %s\n", step.Index, step.Op, step.Target, step.Outcome)
		} else {
			fmt.Fprintf(&b, "step %d: %s -> %s\n", step.Index, step.Op, step.Outcome)
		}
	}
	s := result.Sync
	fmt.Fprintf(&b, "sync: inherited=%d negotiated=%d preserved=%d unchanged=%t upstream_unavailable=%t\n",
		s.Inherited, s.Negotiated, s.Preserved, s.Unchanged, s.UpstreamUnavailable)
	for _, id := range s.DuplicatePrior {
		fmt.Fprintf(&b, "duplicate prior: %s\n", id)
	}
	for _, skipped := range result.Skipped {
		fmt.Fprintf(&b, "skipped: %s\n", skipped)
	}

	fmt.Fprintf(&b, "ledger: %s\n", result.Ledger.Stage)
	for _, r := range result.Ledger.Sorted() {
		fmt.Fprintf(&b, "- %s origin=%s negotiated=%t manual=%t paying=%t amortizing=%t\n",
			r.ID, r.Origin(), r.IsNegotiated, r.IsManuallyAdded, r.IsPaymentConfirmed, r.IsAmortizationConfirmed)
		fmt.Fprintf(&b, "  reference: installment=%s term=%d rate=%s\n",
			r.ReferenceInstallment, r.ReferenceTermMonths, r.ReferenceInterestRate)
		fmt.Fprintf(&b, "  current: installment=%s term=%d rate=%s payoff=%s\n",
			r.CurrentInstallment, r.CurrentTermMonths, r.CurrentInterestRate, r.ProjectedPayoff)
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario.Name, result))

	return result, nil
}
