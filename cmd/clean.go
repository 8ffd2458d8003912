package cmd

import (
	"github.com/spf13/cobra"

	"qbet/scratch"
)

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Empty the temp/ directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := scratch.Clean(a.layout.TempDir(), a.logger)
			printSuccess(cmd.OutOrStdout(), "Deleted %d item(s) from %s", n, a.layout.TempDir())
			return err
		},
	}
}
