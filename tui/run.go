package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

// RunApp runs the interactive session until the user quits. The question
// bank watcher runs alongside the program and stops with it. A watcher
// failure only disables auto refresh; extra options are appended to the
// program's defaults.
func RunApp(ctx context.Context, opts AppOptions, extra ...tea.ProgramOption) (AppModel, error) {
	model := NewAppModel(opts)

	g, gCtx := errgroup.WithContext(ctx)
	watchCtx, stopWatch := context.WithCancel(gCtx)
	defer stopWatch()

	programOpts := append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(gCtx),
	}, extra...)
	p := tea.NewProgram(model, programOpts...)

	var final AppModel
	g.Go(func() error {
		defer stopWatch()
		finalModel, err := p.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("tui: %w", err)
		}
		if fm, ok := finalModel.(AppModel); ok {
			final = fm
		}
		return nil
	})

	g.Go(func() error {
		watchBank(watchCtx, opts.Layout.QuestionBank(), model.logger, func() {
			p.Send(bankChangedMsg{})
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		return final, err
	}
	return final, nil
}

// watchBank runs WatchFile and logs its failure. The viewer still refreshes
// with r when the watcher is down.
func watchBank(ctx context.Context, path string, logger *slog.Logger, onChange func()) {
	if err := WatchFile(ctx, path, logger, onChange); err != nil {
		logger.Warn("tui: question bank auto refresh disabled", slog.String("error", err.Error()))
	}
}
