package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/stageledger/internal/negotiation"
)

// NewNegotiationsCommand creates the negotiations command group.
func NewNegotiationsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "negotiations",
		Short: "Manage negotiation notes applied in stage 2",
	}
	cmd.AddCommand(newNegotiationsImportCommand(rootOpts))
	cmd.AddCommand(newNegotiationsListCommand(rootOpts))
	return cmd
}

func newNegotiationsImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import negotiation notes from YAML",
		Long: `Import negotiation notes from a YAML file.

The file holds a "negotiations" map from debt id to installment, term,
rate and comment. Without an argument the config's negotiation_file is
used. Entries whose numbers cannot be read are stored but ignored when
stage 2 is synchronized.

Example file:
  negotiations:
    card-1:
      installment: "250,00"
      term: 10x
      rate: 1,99%`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			path := e.cfg.NegotiationFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return NewExitError(ExitCommandError, "no negotiation file: pass a path or set negotiation_file")
			}

			table, err := negotiation.LoadFile(path)
			if err != nil {
				_ = e.out.Error(ErrCodeInvalidInput, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to read negotiations", err)
			}
			malformed, err := e.svc.ImportNegotiations(cmd.Context(), e.access, table)
			if err != nil {
				return e.fail("import failed", err)
			}

			issues := make([]string, 0, len(malformed))
			for _, m := range malformed {
				issues = append(issues, m.Error())
			}
			return e.emit(map[string]any{"imported": len(table), "malformed": issues}, func(w io.Writer) {
				fmt.Fprintf(w, "imported %d negotiation(s) from %s\n", len(table), path)
				for _, issue := range issues {
					fmt.Fprintf(w, "  ignored at sync: %s\n", issue)
				}
			})
		},
	}
}

func newNegotiationsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stored negotiation notes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			table, err := e.store.GetNegotiations(cmd.Context(), e.access)
			if err != nil {
				return e.fail("list failed", err)
			}
			return e.emit(table, func(w io.Writer) {
				ids := make([]string, 0, len(table))
				for id := range table {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					n := table[id]
					fmt.Fprintf(w, "%s: installment=%q term=%q rate=%q", id, n.Installment, n.Term, n.Rate)
					if n.Comment != "" {
						fmt.Fprintf(w, " # %s", n.Comment)
					}
					fmt.Fprintln(w)
				}
			})
		},
	}
}
