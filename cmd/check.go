package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Create missing workspace directories and verify the OCR engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			created, err := a.layout.Ensure()
			if err != nil {
				return err
			}
			if len(created) > 0 {
				printWarn(out, "Created missing directories: %s", strings.Join(created, ", "))
			} else {
				printInfo(out, "Workspace %s is ready", a.layout.Root())
			}

			runner, err := a.runner()
			if err != nil {
				return err
			}
			if err := runner.CheckBinary(); err != nil {
				printError(out, "OCR engine %s: %s", runner.Engine().Name(), err)
				return err
			}
			printSuccess(out, "OCR engine %s is available", runner.Engine().Name())
			return nil
		},
	}
}
