//go:build !gosseract

package ocr

import (
	"context"
	"errors"
)

// ErrTesseractNotAvailable is returned when the tesseract engine is selected
// in a binary built without the gosseract tag.
var ErrTesseractNotAvailable = errors.New("tesseract engine not available: build with -tags gosseract (requires libtesseract)")

// Tesseract recognises text in-process.
// Note: This is a stub. Build with -tags gosseract to enable.
type Tesseract struct{}

// NewTesseract always fails in this build.
func NewTesseract(language string) (*Tesseract, error) {
	return nil, ErrTesseractNotAvailable
}

// Name returns the engine name.
func (t *Tesseract) Name() string { return "tesseract" }

// Recognize always fails in this build.
func (t *Tesseract) Recognize(ctx context.Context, input, output string) error {
	return ErrTesseractNotAvailable
}
