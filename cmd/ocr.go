package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"qbet/ocr"
)

func newOCRCmd(a *app) *cobra.Command {
	var showText bool

	cmd := &cobra.Command{
		Use:   "ocr <n>...",
		Short: "Run OCR over temp/<n>/Q.png",
		Long: `Runs the configured OCR engine over the crop of each numbered image, writing
temp/<n>/Q.txt. Images are processed in order; a failure is reported and the
rest still run.`,
		Example: `  qbet ocr 1
  qbet ocr 1 2 3 --text`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seqs := make([]int, 0, len(args))
			for _, arg := range args {
				n, err := strconv.Atoi(arg)
				if err != nil || n < 1 {
					return fmt.Errorf("invalid image number %q", arg)
				}
				seqs = append(seqs, n)
			}

			runner, err := a.runner()
			if err != nil {
				return err
			}
			if err := runner.CheckBinary(); err != nil {
				return err
			}

			var results []ocr.Result
			err = spinner.New().
				Title(fmt.Sprintf("Recognising %d image(s) with %s...", len(seqs), runner.Engine().Name())).
				Context(cmd.Context()).
				Action(func() {
					results = runner.RunBatch(cmd.Context(), seqs)
				}).
				Run()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					printError(out, "[!] %d: %s", res.Seq, res.Err)
					continue
				}
				printSuccess(out, "[x] %d: %s", res.Seq, a.layout.TextPath(res.Seq))
				if showText {
					text, err := runner.ReadText(res.Seq)
					if err != nil {
						printWarn(out, "    %s", err)
						continue
					}
					fmt.Fprintln(out, boxStyle.Render(text))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d image(s) failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showText, "text", false, "print the recognised text")
	return cmd
}
