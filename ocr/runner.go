package ocr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"qbet/apperr"
	"qbet/workspace"
)

// Runner runs an Engine over the numbered crops of a workspace.
type Runner struct {
	engine Engine
	layout workspace.Layout
	logger *slog.Logger
}

// Result is the outcome of recognising one image.
type Result struct {
	Seq int
	Err error
}

// NewRunner creates a Runner. A nil logger uses slog.Default().
func NewRunner(engine Engine, layout workspace.Layout, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{engine: engine, layout: layout, logger: logger}
}

// Engine returns the engine the runner uses.
func (r *Runner) Engine() Engine { return r.engine }

// CheckBinary reports whether the engine's external dependency is present.
// Engines without one always pass.
func (r *Runner) CheckBinary() error {
	if c, ok := r.engine.(Checker); ok {
		return c.Check()
	}
	return nil
}

// Run recognises temp/<seq>/Q.png into temp/<seq>/Q.txt.
func (r *Runner) Run(ctx context.Context, seq int) error {
	input := r.layout.CropPath(seq)
	if _, err := os.Stat(input); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("crop for image %d: %w", seq, apperr.ErrNotFound)
		}
		return fmt.Errorf("crop for image %d: %w", seq, err)
	}
	if err := os.MkdirAll(r.layout.ImageDir(seq), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	output := r.layout.TextPath(seq)
	r.logger.Debug("ocr: start", slog.Int("image", seq), slog.String("engine", r.engine.Name()))
	if err := r.engine.Recognize(ctx, input, output); err != nil {
		return fmt.Errorf("image %d: %w", seq, err)
	}
	r.logger.Info("ocr: done", slog.Int("image", seq), slog.String("output", output))
	return nil
}

// RunBatch recognises each image in order. A failure is logged and the batch
// moves on; only cancellation of ctx stops it, and every image not yet run is
// then reported with the context error.
func (r *Runner) RunBatch(ctx context.Context, seqs []int) []Result {
	results := make([]Result, 0, len(seqs))
	for _, seq := range seqs {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Seq: seq, Err: err})
			continue
		}
		err := r.Run(ctx, seq)
		if err != nil {
			r.logger.Warn("ocr: image failed", slog.Int("image", seq), slog.String("error", err.Error()))
		}
		results = append(results, Result{Seq: seq, Err: err})
	}
	return results
}

// ReadText returns the recognised text for seq with line endings normalised
// and surrounding whitespace trimmed.
func (r *Runner) ReadText(seq int) (string, error) {
	data, err := os.ReadFile(r.layout.TextPath(seq))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("text for image %d: %w", seq, apperr.ErrNotFound)
		}
		return "", err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.TrimSpace(text), nil
}
