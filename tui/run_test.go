package tui

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"qbet/config"
	"qbet/qbank"
	"qbet/workspace"
)

func TestRunAppSurvivesWatcherFailure(t *testing.T) {
	root := t.TempDir()
	layout, err := workspace.New(root)
	if err != nil {
		t.Fatal(err)
	}
	// output/ is a file, so the watcher cannot create or watch it.
	if err := os.WriteFile(filepath.Join(root, "output"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	final, err := RunApp(ctx, AppOptions{
		Layout: layout,
		Config: config.NewDefault(),
		Bank:   qbank.New(layout.QuestionBank()),
	},
		tea.WithInput(strings.NewReader("q")),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
	)
	if err != nil {
		t.Fatalf("RunApp returned %v", err)
	}
	if !final.IsQuitting() {
		t.Error("session ended before the user quit")
	}
}

func TestWatchBankLogsFailure(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "output")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		watchBank(context.Background(), filepath.Join(blocker, "QB.md"), slog.Default(), func() {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watchBank did not return after the watcher failed")
	}
}
