package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewAdminCommand creates the admin command group.
func NewAdminCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrators allowed to use --as",
	}
	cmd.AddCommand(&cobra.Command{
		Use:           "add <user>",
		Short:         "Allow a user to operate on other users' ledgers",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.store.AddAdmin(cmd.Context(), args[0]); err != nil {
				return e.fail("admin add failed", err)
			}
			e.logger.Info("administrator added", "user", args[0], "by", e.access.Actor)
			return e.emit(map[string]string{"admin": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "%s is now an administrator\n", args[0])
			})
		},
	})
	return cmd
}
