// Package selection tracks the rectangles a user drags over a displayed image.
package selection

import (
	"image"
	"math"
)

// Rect is a selection in display coordinates.
type Rect struct {
	Left, Top, Right, Bottom int
	// Scale is display size divided by original size.
	Scale float64
}

// Width returns the display width of the rectangle.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the display height of the rectangle.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Contains reports whether the display point p lies inside r.
func (r Rect) Contains(p image.Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Original maps r back to original-resolution pixels, clamped to an image of
// origW by origH.
func (r Rect) Original(origW, origH int) image.Rectangle {
	scale := r.Scale
	if scale <= 0 {
		scale = 1
	}
	out := image.Rect(
		int(math.Floor(float64(r.Left)/scale)),
		int(math.Floor(float64(r.Top)/scale)),
		int(math.Ceil(float64(r.Right)/scale)),
		int(math.Ceil(float64(r.Bottom)/scale)),
	)
	return out.Intersect(image.Rect(0, 0, origW, origH))
}

// State is the drag state of a Tool.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Tool is the per-image selection state machine. Construct a fresh Tool for
// every image.
type Tool struct {
	width, height int
	scale         float64

	state      State
	anchor     image.Point
	preview    Rect
	hasPreview bool
	selections []Rect
}

// NewTool returns an idle tool for a display of width by height pixels shown
// at scale relative to the original.
func NewTool(width, height int, scale float64) *Tool {
	if scale <= 0 {
		scale = 1
	}
	return &Tool{width: width, height: height, scale: scale}
}

// State returns the current drag state.
func (t *Tool) State() State { return t.state }

// Bounds returns the display size the tool clamps to.
func (t *Tool) Bounds() (int, int) { return t.width, t.height }

// Press starts a drag anchored at p.
func (t *Tool) Press(p image.Point) {
	t.anchor = t.clamp(p)
	t.hasPreview = false
	t.preview = Rect{}
	t.state = Dragging
}

// Reanchor moves the anchor of the drag in progress. It is ignored when idle.
func (t *Tool) Reanchor(p image.Point) {
	if t.state != Dragging {
		return
	}
	t.anchor = t.clamp(p)
}

// Move updates the preview while dragging. It is ignored when idle.
func (t *Tool) Move(p image.Point) {
	if t.state != Dragging {
		return
	}
	t.preview = t.rect(t.anchor, t.clamp(p))
	t.hasPreview = true
}

// Release ends the drag and appends the rectangle if it has a non-zero
// area. It reports whether a selection was added.
func (t *Tool) Release(p image.Point) bool {
	if t.state != Dragging {
		return false
	}
	t.state = Idle
	t.hasPreview = false

	r := t.rect(t.anchor, t.clamp(p))
	if r.Empty() {
		return false
	}
	t.selections = append(t.selections, r)
	return true
}

// Preview returns the rectangle being dragged, if any.
func (t *Tool) Preview() (Rect, bool) {
	if t.state != Dragging || !t.hasPreview {
		return Rect{}, false
	}
	return t.preview, true
}

// Undo drops the most recent selection. It is a no-op when there is none.
func (t *Tool) Undo() bool {
	if len(t.selections) == 0 {
		return false
	}
	t.selections = t.selections[:len(t.selections)-1]
	return true
}

// Selections returns the committed selections in order.
func (t *Tool) Selections() []Rect {
	out := make([]Rect, len(t.selections))
	copy(out, t.selections)
	return out
}

// Len returns the number of committed selections.
func (t *Tool) Len() int { return len(t.selections) }

// CanConfirm reports whether at least one selection exists.
func (t *Tool) CanConfirm() bool { return len(t.selections) > 0 }

// Confirm returns a copy of the selections. The tool keeps its list.
func (t *Tool) Confirm() []Rect { return t.Selections() }

// OriginalRegions maps every committed selection to original-resolution
// pixels for an image of origW by origH.
func (t *Tool) OriginalRegions(origW, origH int) []image.Rectangle {
	out := make([]image.Rectangle, 0, len(t.selections))
	for _, r := range t.selections {
		if o := r.Original(origW, origH); !o.Empty() {
			out = append(out, o)
		}
	}
	return out
}

func (t *Tool) clamp(p image.Point) image.Point {
	return image.Point{X: clampInt(p.X, 0, t.width), Y: clampInt(p.Y, 0, t.height)}
}

func (t *Tool) rect(a, b image.Point) Rect {
	return Rect{
		Left:   min(a.X, b.X),
		Top:    min(a.Y, b.Y),
		Right:  max(a.X, b.X),
		Bottom: max(a.Y, b.Y),
		Scale:  t.scale,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
