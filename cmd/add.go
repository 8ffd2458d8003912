package cmd

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"qbet/qbank"
)

func newAddCmd(a *app) *cobra.Command {
	var entry qbank.Entry

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append one question to the question bank",
		Long: `Appends a question and answer to output/QB.md, creating it with its header if
needed. Missing fields are asked for interactively.`,
		Example: `  qbet add --question "Capital of France?" --answer Paris --correct
  qbet add`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(entry.Question) == "" || strings.TrimSpace(entry.Answer) == "" {
				if err := promptEntry(&entry, cmd.Flags().Changed("correct")); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						printInfo(cmd.OutOrStdout(), "Cancelled.")
						return nil
					}
					return err
				}
			}

			bank := a.bank()
			if err := bank.Append(entry); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Added to %s", bank.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&entry.Question, "question", "", "question text")
	cmd.Flags().StringVar(&entry.Answer, "answer", "", "answer text")
	cmd.Flags().BoolVar(&entry.Correct, "correct", false, "mark the answer as correct")
	return cmd
}

func promptEntry(e *qbank.Entry, correctSet bool) error {
	notBlank := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New("cannot be empty")
		}
		return nil
	}

	fields := []huh.Field{
		huh.NewText().
			Title("Question").
			Lines(4).
			Value(&e.Question).
			Validate(notBlank),
		huh.NewInput().
			Title("Answer").
			Value(&e.Answer).
			Validate(notBlank),
	}
	if !correctSet {
		fields = append(fields, huh.NewConfirm().
			Title("Mark as the correct answer?").
			Value(&e.Correct))
	}

	return huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()
}
