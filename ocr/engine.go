// Package ocr turns the per-image crop into text.
//
// The default engine runs an external OCR program. An in-process Tesseract
// engine is available when built with -tags gosseract.
package ocr

import (
	"context"
	"fmt"

	"qbet/config"
)

// Engine recognises the text in input and writes it to output.
type Engine interface {
	Recognize(ctx context.Context, input, output string) error
	Name() string
}

// Checker is implemented by engines that depend on something outside the
// process, such as a binary on PATH.
type Checker interface {
	Check() error
}

// NewEngine builds the engine selected by cfg.
func NewEngine(cfg config.OCRConfig) (Engine, error) {
	switch cfg.Engine {
	case config.EngineCommand, "":
		return NewCommand(cfg.Binary, cfg.Args, cfg.Timeout), nil
	case config.EngineTesseract:
		t, err := NewTesseract(cfg.Language)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.Engine)
	}
}
