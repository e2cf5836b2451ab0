package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/roach88/stageledger/internal/ledger"
)

// emit writes data as a JSON response, or calls text in text mode.
func (e *env) emit(data any, text func(w io.Writer)) error {
	if e.out.Format == "json" {
		return e.out.Success(data)
	}
	text(e.out.Writer)
	return nil
}

func renderLedger(w io.Writer, l ledger.Ledger) {
	fmt.Fprintf(w, "%s: %d record(s)\n", l.Stage, l.Len())
	if l.IsEmpty() {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREDITOR\tINSTALLMENT\tTERM\tRATE\tPAYING\tAMORTIZING\tPAYOFF\tORIGIN\tFLAGS")
	for _, r := range l.Sorted() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Name,
			r.Creditor,
			pair(r.ReferenceInstallment.StringFixed(2), r.CurrentInstallment.StringFixed(2)),
			pair(fmt.Sprint(r.ReferenceTermMonths), fmt.Sprint(r.CurrentTermMonths)),
			pair(r.ReferenceInterestRate.String(), r.CurrentInterestRate.String()),
			yesNo(r.IsPaymentConfirmed),
			yesNo(r.IsAmortizationConfirmed),
			r.ProjectedPayoff,
			r.Origin(),
			flags(r),
		)
	}
	tw.Flush()
}

func renderRecord(w io.Writer, verb string, r ledger.DebtRecord) {
	fmt.Fprintf(w, "%s %s (%s): installment %s, term %d, rate %s, payoff %s\n",
		verb, r.ID, r.Name,
		r.CurrentInstallment.StringFixed(2), r.CurrentTermMonths, r.CurrentInterestRate, r.ProjectedPayoff)
}

// pair renders "reference -> current", or a single value when they agree.
func pair(ref, cur string) string {
	if ref == cur {
		return cur
	}
	return ref + " -> " + cur
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func flags(r ledger.DebtRecord) string {
	switch {
	case r.IsNegotiated && r.IsManuallyAdded:
		return "negotiated,manual"
	case r.IsNegotiated:
		return "negotiated"
	case r.IsManuallyAdded:
		return "manual"
	}
	return "-"
}
