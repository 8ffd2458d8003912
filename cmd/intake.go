package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"qbet/intake"
)

func newIntakeCmd(a *app) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "intake <path>",
		Short: "Copy images into input/ as 1..N",
		Long: `Copies every recognised image from a folder (or a single image file) into
input/, renamed 1..N in filename order with the original extension kept.
input/ is cleared first, but only once at least one image has been found.`,
		Example: `  qbet intake ~/Pictures/exam
  qbet intake ./photo.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.layout.Ensure(); err != nil {
				return err
			}

			var entries []intake.Entry
			var runErr error
			err := spinner.New().
				Title("Copying images...").
				Context(cmd.Context()).
				Action(func() {
					entries, runErr = intake.Run(args[0], a.layout.InputDir(), intake.Options{
						Extensions: a.cfg.Intake.Extensions,
						Logger:     a.logger,
					})
				}).
				Run()
			if err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}

			out := cmd.OutOrStdout()
			printSuccess(out, "%d images selected.", len(entries))
			if !quiet {
				fmt.Fprintln(out, boxStyle.Render(entryTable(entries)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print the count")
	return cmd
}

func entryTable(entries []intake.Entry) string {
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%-8s <- %s", e.Name(), e.Source))
	}
	return sb.String()
}
