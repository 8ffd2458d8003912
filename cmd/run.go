package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"qbet/tui"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run [path]",
		Short: "Start the interactive session",
		Long: `Starts the terminal UI. With a path (a folder or a single image) the picker is
skipped and intake starts immediately. Log records go to output/qbet.log while
the UI owns the terminal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive(cmd.Context(), firstArg(args))
		},
	}
}

func (a *app) runInteractive(ctx context.Context, path string) error {
	created, err := a.layout.Ensure()
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(a.layout.LogFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	logger := newLogger(logFile, a.cfg.LogLevel)
	slog.SetDefault(logger)
	a.logger = logger
	if len(created) > 0 {
		logger.Info("created workspace directories", slog.String("dirs", strings.Join(created, ", ")))
	}

	runner, err := a.runner()
	if err != nil {
		return err
	}
	if err := runner.CheckBinary(); err != nil {
		return err
	}

	final, err := tui.RunApp(ctx, tui.AppOptions{
		Layout:    a.layout,
		Config:    a.cfg,
		Runner:    runner,
		Bank:      a.bank(),
		Logger:    logger,
		StartPath: path,
	})
	if err != nil {
		return err
	}

	if final.Processed() > 0 {
		printSuccess(os.Stdout, "Saved %d question(s) to %s", final.Processed(), a.layout.QuestionBank())
	}
	return nil
}
