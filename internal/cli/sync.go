package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/stageledger/internal/ledger"
	"github.com/roach88/stageledger/internal/session"
	"github.com/roach88/stageledger/internal/store"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Refresh bool
}

// SyncResult is the JSON payload of the sync command.
type SyncResult struct {
	Stage               string        `json:"stage"`
	Unchanged           bool          `json:"unchanged"`
	UpstreamUnavailable bool          `json:"upstream_unavailable"`
	Saved               bool          `json:"saved"`
	Inherited           int           `json:"inherited"`
	Negotiated          int           `json:"negotiated"`
	Preserved           int           `json:"preserved"`
	DuplicatePrior      []string      `json:"duplicate_prior,omitempty"`
	Skipped             []string      `json:"skipped_negotiations,omitempty"`
	Ledger              ledger.Ledger `json:"ledger"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync <stage>",
		Short: "Derive a stage's ledger from the previous stage",
		Long: `Derive a stage's ledger from the previous stage.

Without --refresh this is the first visit: a stage that already holds
records is left as it is. With --refresh every inherited record is reset
to upstream values; debts added by hand in the stage are kept.

If the previous stage cannot be read, nothing is saved and the command
reports the stage as unavailable so it can be retried.

Examples:
  stageledger sync stage2 --user client-1
  stageledger sync 3 --user client-1 --refresh
  stageledger sync stage2 --user advisor --as client-1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-derive inherited records from upstream")

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command, stageArg string) error {
	stage, err := parseStageArg(stageArg)
	if err != nil {
		return err
	}
	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	var out session.Outcome
	if opts.Refresh {
		out, err = e.svc.Refresh(cmd.Context(), e.access, stage)
	} else {
		out, err = e.svc.Open(cmd.Context(), e.access, stage)
	}
	if err != nil {
		return e.fail("sync failed", err)
	}

	result := SyncResult{
		Stage:               stage.String(),
		Unchanged:           out.Unchanged,
		UpstreamUnavailable: out.UpstreamUnavailable,
		Saved:               out.Saved,
		Inherited:           out.Inherited,
		Negotiated:          out.Negotiated,
		Preserved:           out.Preserved,
		DuplicatePrior:      out.DuplicatePrior,
		Ledger:              out.Ledger,
	}
	for _, skipped := range out.Skipped {
		result.Skipped = append(result.Skipped, skipped.Error())
		e.out.VerboseLog("skipped negotiation: %v", skipped)
	}

	return e.emit(result, func(w io.Writer) {
		switch {
		case out.UpstreamUnavailable:
			fmt.Fprintf(w, "%s: previous stage unavailable; showing manual records only. Retry with --refresh.\n", stage)
		case out.Unchanged:
			fmt.Fprintf(w, "%s: already populated, left unchanged\n", stage)
		default:
			fmt.Fprintf(w, "%s: %d inherited, %d negotiated, %d manual kept\n",
				stage, out.Inherited, out.Negotiated, out.Preserved)
		}
		if len(out.Skipped) > 0 {
			fmt.Fprintf(w, "%d negotiation entr(ies) ignored as malformed\n", len(out.Skipped))
		}
		renderLedger(w, out.Ledger)
	})
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <stage>",
		Short: "Print a stage's stored ledger",
		Long: `Print a stage's stored ledger without synchronizing.

Values that differ between reference and current are shown as
"reference -> current".`,
		Args:          cobra.ExactArgs(1),
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

			l, err := e.svc.Show(cmd.Context(), e.access, stage)
			if err != nil {
				return e.fail("show failed", err)
			}
			return e.emit(l, func(w io.Writer) { renderLedger(w, l) })
		},
	}
}

// StageStatus is one entry of the status command's JSON payload.
type StageStatus struct {
	Stage       string `json:"stage"`
	Fingerprint string `json:"fingerprint"`
	UpdatedBy   string `json:"updated_by"`
	UpdatedAt   string `json:"updated_at"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "List the stages saved for a user",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			infos, err := e.store.ListLedgers(cmd.Context(), e.access)
			if err != nil {
				return e.fail("status failed", err)
			}
			return e.emit(stageStatuses(infos), func(w io.Writer) {
				if len(infos) == 0 {
					fmt.Fprintf(w, "no stages saved for %s\n", e.access.Subject)
					return
				}
				for _, info := range infos {
					fmt.Fprintf(w, "%-8s %s  %s by %s\n", info.Stage, info.Fingerprint[:12], info.UpdatedAt, info.UpdatedBy)
				}
			})
		},
	}
}

func stageStatuses(infos []store.LedgerInfo) []StageStatus {
	out := make([]StageStatus, 0, len(infos))
	for _, info := range infos {
		out = append(out, StageStatus{
			Stage:       info.Stage.String(),
			Fingerprint: info.Fingerprint,
			UpdatedBy:   info.UpdatedBy,
			UpdatedAt:   info.UpdatedAt,
		})
	}
	return out
}
