//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"os"

	"github.com/otiai10/gosseract/v2"

	"qbet/apperr"
)

// Tesseract recognises text in-process through libtesseract.
type Tesseract struct {
	language string
}

// NewTesseract returns an engine for language ("eng" when empty).
func NewTesseract(language string) (*Tesseract, error) {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{language: language}, nil
}

// Name returns the engine name.
func (t *Tesseract) Name() string { return "tesseract" }

// Check reports the linked Tesseract version to confirm the library loads.
func (t *Tesseract) Check() error {
	client := gosseract.NewClient()
	defer client.Close()
	if client.Version() == "" {
		return fmt.Errorf("libtesseract: %w", apperr.ErrToolMissing)
	}
	return nil
}

// Recognize runs Tesseract over input and writes the text to output.
func (t *Tesseract) Recognize(ctx context.Context, input, output string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImage(input); err != nil {
		return fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrOCRFailure, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(output, []byte(text+"\n"), 0o644)
}
