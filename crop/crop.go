// Package crop prepares images for rectangle selection and cuts the
// selected regions out of the original-resolution image.
package crop

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"qbet/apperr"
)

// DefaultMaxHeight is the display height limit used when none is configured.
const DefaultMaxHeight = 500

// Display is an image scaled for selection together with its source.
type Display struct {
	// Image is the scaled image. Its bounds start at (0,0).
	Image image.Image
	// Original is the decoded source image.
	Original image.Image
	// Scale is display size divided by original size (<= 1).
	Scale float64
}

// LoadDisplay decodes the image at path, honouring EXIF orientation, and
// scales it for display.
func LoadDisplay(path string, maxHeight int) (*Display, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image %s: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	return NewDisplay(img, maxHeight), nil
}

// NewDisplay downscales img so its height does not exceed maxHeight,
// keeping the aspect ratio. Images that already fit are never upscaled.
func NewDisplay(img image.Image, maxHeight int) *Display {
	if maxHeight <= 0 {
		maxHeight = DefaultMaxHeight
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if h <= maxHeight {
		return &Display{
			Image:    imaging.Clone(img),
			Original: img,
			Scale:    1.0,
		}
	}

	scale := float64(maxHeight) / float64(h)
	newWidth := int(float64(w) * scale)
	if newWidth < 1 {
		newWidth = 1
	}

	return &Display{
		Image:    imaging.Resize(img, newWidth, maxHeight, imaging.Lanczos),
		Original: img,
		Scale:    scale,
	}
}

// Width returns the display width in pixels.
func (d *Display) Width() int { return d.Image.Bounds().Dx() }

// Height returns the display height in pixels.
func (d *Display) Height() int { return d.Image.Bounds().Dy() }

// OriginalSize returns the original image dimensions.
func (d *Display) OriginalSize() (int, int) {
	b := d.Original.Bounds()
	return b.Dx(), b.Dy()
}

// Composite returns an image the size of original that is transparent
// everywhere except inside regions, where it holds the original pixels.
// Regions are in original-resolution coordinates relative to (0,0).
func Composite(original image.Image, regions []image.Rectangle) (*image.NRGBA, error) {
	if len(regions) == 0 {
		return nil, apperr.ErrNoSelections
	}

	bounds := original.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	frame := image.Rect(0, 0, w, h)

	dst := imaging.New(w, h, color.NRGBA{0, 0, 0, 0})
	for _, r := range regions {
		if r.Empty() || !r.In(frame) {
			return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (0,0)-(%d,%d)",
				r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, w, h)
		}
		part := imaging.Crop(original, r.Add(bounds.Min))
		dst = imaging.Paste(dst, part, r.Min)
	}
	return dst, nil
}

// SaveComposite writes the Composite of regions as a PNG at path,
// creating parent directories as needed.
func SaveComposite(original image.Image, regions []image.Rectangle, path string) error {
	img, err := Composite(original, regions)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create crop directory: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save crop: %w", err)
	}
	return nil
}
