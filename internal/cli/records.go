package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/stageledger/internal/engine"
	"github.com/roach88/stageledger/internal/ledger"
	"github.com/roach88/stageledger/internal/session"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Name        string
	Creditor    string
	Installment string
	Term        string
	Rate        string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <stage>",
		Short: "Add a debt by hand",
		Long: `Add a debt that did not come from the previous stage.

Debts added after mapping are kept across refreshes and can be removed
again. Numbers are read leniently ("1.234,56", "R$ 250,00", "12x");
anything unreadable becomes zero.

Examples:
  stageledger add stage3 --user client-1 --name "Store card" --installment 120,00 --term 8x
  stageledger add mapping --user client-1 --name Mortgage --creditor Bank --installment 2300 --term 240 --rate 0,79`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := parseStageArg(args[0])
			if err != nil {
				return err
			}
			e, err := openEnv(opts.RootOptions, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			r, err := e.svc.AddDebt(cmd.Context(), e.access, stage, engine.ManualInput{
				Name:         opts.Name,
				Creditor:     opts.Creditor,
				Installment:  session.CoerceAmount(opts.Installment),
				TermMonths:   session.CoerceTerm(opts.Term),
				InterestRate: session.CoerceRate(opts.Rate),
			})
			if err != nil {
				return e.fail("add failed", err)
			}
			return e.emit(r, func(w io.Writer) { renderRecord(w, "added", r) })
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "debt name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.Creditor, "creditor", "", "creditor")
	cmd.Flags().StringVar(&opts.Installment, "installment", "", "monthly installment")
	cmd.Flags().StringVar(&opts.Term, "term", "", "remaining installments")
	cmd.Flags().StringVar(&opts.Rate, "rate", "", "monthly interest rate in percent")

	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <stage> <id>",
		Short: "Remove a debt added by hand",
		Long: `Remove a debt added by hand in the stage.

Inherited debts cannot be removed; edit their current values instead.
In the mapping stage every debt can be removed.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := parseStageArg(args[0])
			if err != nil {
				return err
			}
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.svc.RemoveDebt(cmd.Context(), e.access, stage, args[1]); err != nil {
				return e.fail("remove failed", err)
			}
			return e.emit(map[string]string{"removed": args[1]}, func(w io.Writer) {
				fmt.Fprintf(w, "removed %s from %s\n", args[1], stage)
			})
		},
	}
}

// ToggleOptions holds flags for the pay and amortize commands.
type ToggleOptions struct {
	*RootOptions
	Off bool
}

// NewPayCommand creates the pay command.
func NewPayCommand(rootOpts *RootOptions) *cobra.Command {
	return newToggleCommand(rootOpts, toggleSpec{
		use:   "pay <stage> <id>",
		short: "Confirm or withdraw that a debt is being paid",
		long: `Confirm that the client is paying the debt this period.

Confirming also counts one installment as amortized; --off withdraws both
and restores the reference term.`,
		apply: func(e *env, cmd *cobra.Command, stage ledger.Stage, id string, on bool) (ledger.DebtRecord, error) {
			return e.svc.SetPaymentConfirmed(cmd.Context(), e.access, stage, id, on)
		},
	})
}

// NewAmortizeCommand creates the amortize command.
func NewAmortizeCommand(rootOpts *RootOptions) *cobra.Command {
	return newToggleCommand(rootOpts, toggleSpec{
		use:   "amortize <stage> <id>",
		short: "Count or uncount one installment as amortized",
		long: `Count one installment of a paid debt as amortized, shortening the
remaining term by one month. Only debts being paid can be toggled.`,
		apply: func(e *env, cmd *cobra.Command, stage ledger.Stage, id string, on bool) (ledger.DebtRecord, error) {
			return e.svc.SetAmortizationConfirmed(cmd.Context(), e.access, stage, id, on)
		},
	})
}

type toggleSpec struct {
	use   string
	short string
	long  string
	apply func(e *env, cmd *cobra.Command, stage ledger.Stage, id string, on bool) (ledger.DebtRecord, error)
}

func newToggleCommand(rootOpts *RootOptions, spec toggleSpec) *cobra.Command {
	opts := &ToggleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           spec.use,
		Short:         spec.short,
		Long:          spec.long,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := parseStageArg(args[0])
			if err != nil {
				return err
			}
			e, err := openEnv(opts.RootOptions, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			r, err := spec.apply(e, cmd, stage, args[1], !opts.Off)
			if err != nil {
				return e.fail(cmd.Name()+" failed", err)
			}
			return e.emit(r, func(w io.Writer) { renderRecord(w, "updated", r) })
		},
	}

	cmd.Flags().BoolVar(&opts.Off, "off", false, "withdraw the confirmation")

	return cmd
}

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Installment string
	Term        string
	Rate        string
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <stage> <id>",
		Short: "Change a debt's current installment, term or rate",
		Long: `Change the current values of a debt in the stage.

Only the flags given are changed. Reference values are never edited; they
are what the previous stage handed over. Unreadable numbers become zero.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Installment, "installment", "", "current monthly installment")
	cmd.Flags().StringVar(&opts.Term, "term", "", "current remaining installments")
	cmd.Flags().StringVar(&opts.Rate, "rate", "", "current monthly interest rate in percent")

	return cmd
}

func runEdit(opts *EditOptions, cmd *cobra.Command, stageArg, id string) error {
	stage, err := parseStageArg(stageArg)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("installment") && !flags.Changed("rate") && !flags.Changed("term") {
		return NewExitError(ExitCommandError, "nothing to edit: pass --installment, --term or --rate")
	}

	var edit session.RecordEdit
	if flags.Changed("installment") {
		edit.Installment = &opts.Installment
	}
	if flags.Changed("rate") {
		edit.Rate = &opts.Rate
	}
	if flags.Changed("term") {
		edit.Term = &opts.Term
	}

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	r, err := e.svc.Edit(cmd.Context(), e.access, stage, id, edit)
	if err != nil {
		return e.fail("edit failed", err)
	}

	return e.emit(r, func(w io.Writer) { renderRecord(w, "updated", r) })
}
