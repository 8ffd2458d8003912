// Package apperr holds the error kinds shared across qbet packages.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoImages     = errors.New("no valid image files found")
	ErrCopyFailure  = errors.New("copy failed")
	ErrOCRFailure   = errors.New("ocr failed")
	ErrToolMissing  = errors.New("external tool missing")
	ErrTimeout      = errors.New("timed out")
	ErrNoSelections = errors.New("no selections")
)
