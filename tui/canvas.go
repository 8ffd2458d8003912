package tui

import (
	"image"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"qbet/selection"
)

// halfBlock draws two vertically stacked pixels in one cell: the foreground
// is the upper pixel and the background the lower one.
const halfBlock = "▀"

// canvas is a terminal rendering of the display image. Each cell holds two
// canvas pixels, so a canvas of cols x rows cells is cols x 2*rows pixels.
type canvas struct {
	img          *image.NRGBA
	cols, rows   int
	dispW, dispH int
}

// newCanvas fits display into at most maxCols x maxRows cells, keeping the
// aspect ratio and never enlarging it.
func newCanvas(display image.Image, maxCols, maxRows int) canvas {
	b := display.Bounds()
	dispW, dispH := b.Dx(), b.Dy()
	if dispW == 0 || dispH == 0 || maxCols < 1 || maxRows < 1 {
		return canvas{dispW: dispW, dispH: dispH}
	}

	scale := min(float64(maxCols)/float64(dispW), float64(maxRows*2)/float64(dispH), 1.0)
	w := max(1, int(math.Round(float64(dispW)*scale)))
	h := max(2, int(math.Round(float64(dispH)*scale)))
	if h%2 == 1 {
		h--
	}

	return canvas{
		img:   imaging.Resize(display, w, h, imaging.Box),
		cols:  w,
		rows:  h / 2,
		dispW: dispW,
		dispH: dispH,
	}
}

// empty reports whether there is nothing to draw.
func (c canvas) empty() bool { return c.img == nil }

// contains reports whether cell (cx, cy) is on the canvas.
func (c canvas) contains(cx, cy int) bool {
	return cx >= 0 && cy >= 0 && cx < c.cols && cy < c.rows
}

// cellCorner maps the top-left corner of cell (cx, cy) to display pixels.
// Cells outside the canvas map outside the display and are clamped by the
// selection tool.
func (c canvas) cellCorner(cx, cy int) image.Point {
	if c.cols == 0 || c.rows == 0 {
		return image.Point{}
	}
	return image.Point{
		X: cx * c.dispW / c.cols,
		Y: cy * c.dispH / c.rows,
	}
}

// pixelCenter maps canvas pixel (px, py) to the display pixel at its centre.
func (c canvas) pixelCenter(px, py int) image.Point {
	h := c.rows * 2
	return image.Point{
		X: (2*px + 1) * c.dispW / (2 * c.cols),
		Y: (2*py + 1) * c.dispH / (2 * h),
	}
}

// render draws the image with committed selections and the drag preview
// tinted on top.
func (c canvas) render(committed []selection.Rect, preview *selection.Rect) string {
	if c.empty() {
		return ""
	}

	selTint, _ := colorful.Hex(selectionTint)
	prevTint, _ := colorful.Hex(previewTint)

	var b strings.Builder
	for cy := 0; cy < c.rows; cy++ {
		for cx := 0; cx < c.cols; cx++ {
			top := c.pixelColor(cx, cy*2, committed, preview, selTint, prevTint)
			bottom := c.pixelColor(cx, cy*2+1, committed, preview, selTint, prevTint)
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom)).
				Render(halfBlock))
		}
		if cy < c.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// pixelColor returns the hex colour for canvas pixel (px, py).
func (c canvas) pixelColor(px, py int, committed []selection.Rect, preview *selection.Rect, selTint, prevTint colorful.Color) string {
	col, ok := colorful.MakeColor(c.img.NRGBAAt(px, py))
	if !ok {
		// Fully transparent pixels show as black.
		col = colorful.Color{}
	}

	p := c.pixelCenter(px, py)
	if preview != nil && preview.Contains(p) {
		return col.BlendRgb(prevTint, 0.45).Clamped().Hex()
	}
	for _, r := range committed {
		if r.Contains(p) {
			return col.BlendRgb(selTint, 0.35).Clamped().Hex()
		}
	}
	return col.Hex()
}
