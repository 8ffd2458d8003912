package tui

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"qbet/apperr"
	"qbet/config"
	"qbet/flow"
	"qbet/intake"
	"qbet/qbank"
	"qbet/selection"
	"qbet/workspace"
)

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(AppModel)
	if !ok {
		t.Fatalf("Update returned %T, want AppModel", next)
	}
	return am, cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newTestOptions(t *testing.T) AppOptions {
	t.Helper()
	layout, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := layout.Ensure(); err != nil {
		t.Fatal(err)
	}
	return AppOptions{
		Layout: layout,
		Config: config.NewDefault(),
		Bank:   qbank.New(layout.QuestionBank()),
	}
}

// selectScreen returns a model showing the selection canvas for one
// 100x60 image.
func selectScreen(t *testing.T) AppModel {
	t.Helper()
	opts := newTestOptions(t)
	stored := filepath.Join(opts.Layout.InputDir(), "1.png")
	writePNG(t, stored, 100, 60)
	opts.StartPath = stored

	m := NewAppModel(opts)
	if cmd := m.Init(); cmd == nil {
		t.Fatal("Init returned nil command")
	}
	m, cmd := update(t, m, intakeDoneMsg{entries: []intake.Entry{{Seq: 1, Ext: ".png", Stored: stored}}})
	if m.Screen() != flow.ScreenSelect {
		t.Fatalf("screen = %v, want select", m.Screen())
	}
	if cmd == nil {
		t.Fatal("expected image load command")
	}
	m, _ = update(t, m, cmd())
	if m.tool == nil {
		t.Fatal("selection tool not created after image load")
	}
	return m
}

func drag(t *testing.T, m AppModel, from, to image.Point) AppModel {
	t.Helper()
	m, _ = update(t, m, tea.MouseMsg{X: from.X, Y: from.Y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m, _ = update(t, m, tea.MouseMsg{X: to.X, Y: to.Y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m, _ = update(t, m, tea.MouseMsg{X: to.X, Y: to.Y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	return m
}

func TestNewAppModel(t *testing.T) {
	m := NewAppModel(newTestOptions(t))

	if m.Screen() != flow.ScreenPath {
		t.Errorf("Expected initial screen to be path, got %v", m.Screen())
	}
	if m.width != 80 || m.height != 24 {
		t.Errorf("Expected default size 80x24, got %dx%d", m.width, m.height)
	}
	if m.IsQuitting() || m.IsComplete() {
		t.Error("Expected a fresh model to be neither quitting nor complete")
	}
	if view := m.View(); !strings.Contains(view, "QBET") {
		t.Error("View is missing the header")
	}
}

func TestAppModelStartPathSkipsPicker(t *testing.T) {
	opts := newTestOptions(t)
	opts.StartPath = "/photos"
	m := NewAppModel(opts)

	if cmd := m.Init(); cmd == nil {
		t.Fatal("Expected Init to return a command")
	}
	if m.Screen() != flow.ScreenIntake {
		t.Errorf("screen = %v, want intake", m.Screen())
	}
}

func TestAppModelIntakeErrorRetry(t *testing.T) {
	opts := newTestOptions(t)
	opts.StartPath = filepath.Join(t.TempDir(), "missing")
	m := NewAppModel(opts)
	m.Init()

	m, _ = update(t, m, intakeDoneMsg{err: apperr.ErrNotFound})
	if m.Screen() != flow.ScreenError {
		t.Fatalf("screen = %v, want error", m.Screen())
	}
	if !strings.Contains(m.View(), "Retry") {
		t.Error("error view should offer retry")
	}

	m, _ = update(t, m, keyMsg("r"))
	if m.Screen() != flow.ScreenPath {
		t.Errorf("screen = %v, want path after retry", m.Screen())
	}
}

func TestAppModelIntakeCommand(t *testing.T) {
	opts := newTestOptions(t)
	src := t.TempDir()
	writePNG(t, filepath.Join(src, "a.png"), 10, 10)
	opts.StartPath = src

	m := NewAppModel(opts)
	msg := m.startIntake(src)()
	done, ok := msg.(intakeDoneMsg)
	if !ok {
		t.Fatalf("got %T, want intakeDoneMsg", msg)
	}
	if done.err != nil || len(done.entries) != 1 {
		t.Fatalf("intake = %+v", done)
	}
	if _, err := os.Stat(filepath.Join(opts.Layout.InputDir(), "1.png")); err != nil {
		t.Errorf("image not copied: %v", err)
	}
}

func TestAppModelDragAndUndo(t *testing.T) {
	m := selectScreen(t)

	m, _ = update(t, m, keyMsg("enter"))
	if m.Screen() != flow.ScreenSelect {
		t.Fatal("enter with no selections should be ignored")
	}

	m = drag(t, m, image.Pt(5, canvasTop+2), image.Pt(20, canvasTop+8))
	if m.tool.Len() != 1 {
		t.Fatalf("selections = %d, want 1", m.tool.Len())
	}
	r := m.tool.Selections()[0]
	if r.Empty() || r.Right > 100 || r.Bottom > 60 {
		t.Errorf("selection %+v outside display", r)
	}

	m, _ = update(t, m, keyMsg("u"))
	if m.tool.Len() != 0 {
		t.Errorf("selections = %d after undo, want 0", m.tool.Len())
	}
}

func TestAppModelClickOutsideCanvasIgnored(t *testing.T) {
	m := selectScreen(t)

	m = drag(t, m, image.Pt(5, 0), image.Pt(20, 1))
	if m.tool.Len() != 0 {
		t.Errorf("press on the header added %d selections", m.tool.Len())
	}
}

func TestAppModelConfirmAndReview(t *testing.T) {
	m := selectScreen(t)
	m = drag(t, m, image.Pt(0, canvasTop), image.Pt(30, canvasTop+10))

	m, cmd := update(t, m, keyMsg("enter"))
	if m.Screen() != flow.ScreenRecognize {
		t.Fatalf("screen = %v, want recognize", m.Screen())
	}
	if cmd == nil {
		t.Fatal("expected recognition command")
	}

	m, _ = update(t, m, ocrDoneMsg{token: m.ocrToken, seq: 1, text: "What is 2+2?"})
	if m.Screen() != flow.ScreenReview {
		t.Fatalf("screen = %v, want review", m.Screen())
	}
	if m.form == nil || m.review.question != "What is 2+2?" {
		t.Fatal("review form not prefilled with recognised text")
	}

	m, _ = update(t, m, keyMsg("esc"))
	if m.Screen() != flow.ScreenSelect {
		t.Errorf("screen = %v, want select after esc", m.Screen())
	}
	if m.tool.Len() != 1 {
		t.Error("selections lost when leaving review")
	}
}

func TestAppModelCancelRecognition(t *testing.T) {
	m := selectScreen(t)
	m = drag(t, m, image.Pt(0, canvasTop), image.Pt(30, canvasTop+10))
	m, _ = update(t, m, keyMsg("enter"))
	staleToken := m.ocrToken

	m, _ = update(t, m, keyMsg("esc"))
	if m.Screen() != flow.ScreenSelect {
		t.Fatalf("screen = %v, want select", m.Screen())
	}

	m, _ = update(t, m, ocrDoneMsg{token: staleToken, seq: 1, text: "late"})
	if m.Screen() != flow.ScreenSelect {
		t.Errorf("stale OCR result changed screen to %v", m.Screen())
	}
}

func TestAppModelOCRFailureShowsError(t *testing.T) {
	m := selectScreen(t)
	m = drag(t, m, image.Pt(0, canvasTop), image.Pt(30, canvasTop+10))
	m, _ = update(t, m, keyMsg("enter"))

	m, _ = update(t, m, ocrDoneMsg{token: m.ocrToken, seq: 1, err: apperr.ErrTimeout})
	if m.Screen() != flow.ScreenError {
		t.Fatalf("screen = %v, want error", m.Screen())
	}
	if !errors.Is(m.Err(), apperr.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", m.Err())
	}
	if !strings.Contains(m.View(), "Skip") {
		t.Error("error view should offer to skip the image")
	}
}

// reviewScreen returns a model showing the review form for image 1.
func reviewScreen(t *testing.T) AppModel {
	t.Helper()
	m := selectScreen(t)
	m = drag(t, m, image.Pt(0, canvasTop), image.Pt(30, canvasTop+10))
	m, _ = update(t, m, keyMsg("enter"))
	m, _ = update(t, m, ocrDoneMsg{token: m.ocrToken, seq: 1, text: "Q"})
	if m.Screen() != flow.ScreenReview {
		t.Fatalf("screen = %v, want review", m.Screen())
	}
	return m
}

// submitReview fills in the review values and completes the form.
func submitReview(t *testing.T, m AppModel, answer string, correct bool) (AppModel, tea.Cmd) {
	t.Helper()
	m.review.answer = answer
	m.review.correct = correct
	m.form.State = huh.StateCompleted
	m, cmd := update(t, m, keyMsg("x"))
	if cmd == nil {
		t.Fatal("expected save command after the form completed")
	}
	return m, cmd
}

func TestAppModelSubmitAppendsOnce(t *testing.T) {
	m := reviewScreen(t)
	m, save := submitReview(t, m, "A", false)

	var extra []tea.Cmd
	for _, msg := range []tea.Msg{keyMsg("y"), keyMsg("enter"), keyMsg("esc")} {
		var cmd tea.Cmd
		m, cmd = update(t, m, msg)
		if cmd != nil {
			extra = append(extra, cmd)
		}
	}
	if m.Screen() != flow.ScreenReview {
		t.Fatalf("input while saving changed screen to %v", m.Screen())
	}
	if len(extra) != 0 {
		t.Fatalf("input while saving returned %d commands", len(extra))
	}

	saved := save()
	m, _ = update(t, m, saved)
	m, _ = update(t, m, saved)
	if m.Screen() != flow.ScreenLog {
		t.Fatalf("screen = %v, want log", m.Screen())
	}
	if m.Processed() != 1 {
		t.Errorf("processed = %d, want 1", m.Processed())
	}

	data, err := os.ReadFile(m.opts.Layout.QuestionBank())
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n## "); n != 1 {
		t.Errorf("question bank has %d entries, want 1:\n%s", n, data)
	}
}

func TestAppModelSaveFailureShowsError(t *testing.T) {
	m := reviewScreen(t)
	m.opts.Bank = nil
	m, save := submitReview(t, m, "A", false)

	m, _ = update(t, m, save())
	if m.Screen() != flow.ScreenError {
		t.Fatalf("screen = %v, want error", m.Screen())
	}
	if m.Processed() != 0 {
		t.Errorf("processed = %d, want 0", m.Processed())
	}

	m, _ = update(t, m, keyMsg("r"))
	if m.Screen() != flow.ScreenReview || m.form == nil {
		t.Fatalf("retry should reopen the review form, screen = %v", m.Screen())
	}
	if m.review.answer != "A" {
		t.Errorf("answer = %q after retry, want it kept", m.review.answer)
	}
}

func TestAppModelSavedShowsBankAndAdvances(t *testing.T) {
	m := reviewScreen(t)
	m, save := submitReview(t, m, "A", true)

	m, cmd := update(t, m, save())
	if m.Screen() != flow.ScreenLog {
		t.Fatalf("screen = %v, want log", m.Screen())
	}
	if m.Processed() != 1 {
		t.Errorf("processed = %d, want 1", m.Processed())
	}
	m, _ = update(t, m, cmd())
	if !strings.Contains(m.viewport.View(), `=="A"==`) {
		t.Errorf("viewport missing saved entry:\n%s", m.viewport.View())
	}

	m, cmd = update(t, m, keyMsg("n"))
	if cmd == nil {
		t.Fatal("expected cleanup command")
	}
	_, again := update(t, m, keyMsg("n"))
	if again != nil {
		t.Error("second next while cleanup is running should be ignored")
	}

	m, _ = update(t, m, cmd())
	if !m.IsComplete() {
		t.Errorf("screen = %v, want done after the only image", m.Screen())
	}
}

func TestAppModelDragDirectionIncludesPressedCell(t *testing.T) {
	a, b := image.Pt(5, canvasTop+2), image.Pt(20, canvasTop+8)
	cases := []struct {
		name     string
		from, to image.Point
	}{
		{"down right", a, b},
		{"up left", b, a},
		{"up right", image.Pt(a.X, b.Y), image.Pt(b.X, a.Y)},
		{"down left", image.Pt(b.X, a.Y), image.Pt(a.X, b.Y)},
	}

	var want selection.Rect
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := drag(t, selectScreen(t), tc.from, tc.to)
			if m.tool.Len() != 1 {
				t.Fatalf("selections = %d, want 1", m.tool.Len())
			}
			got := m.tool.Selections()[0]
			if i == 0 {
				want = got
				return
			}
			if got != want {
				t.Errorf("rect = %+v, want %+v", got, want)
			}
		})
	}
}

func TestAppModelSingleCellClickSelectsCell(t *testing.T) {
	m := selectScreen(t)
	cell := image.Pt(7, canvasTop+3)
	m = drag(t, m, cell, cell)

	if m.tool.Len() != 1 {
		t.Fatalf("selections = %d, want 1", m.tool.Len())
	}
	got := m.tool.Selections()[0]
	wantMin := m.canvas.cellCorner(cell.X-canvasLeft, cell.Y-canvasTop)
	wantMax := m.canvas.cellCorner(cell.X-canvasLeft+1, cell.Y-canvasTop+1)
	if got.Left != wantMin.X || got.Top != wantMin.Y || got.Right != wantMax.X || got.Bottom != wantMax.Y {
		t.Errorf("rect = %+v, want %v-%v", got, wantMin, wantMax)
	}
}

func TestAppModelEmptyBank(t *testing.T) {
	m := NewAppModel(newTestOptions(t))
	m, _ = update(t, m, m.loadBank()())
	if !strings.Contains(m.viewport.View(), "No questions saved yet") {
		t.Error("missing placeholder for empty question bank")
	}
}

func TestAppModelWindowResize(t *testing.T) {
	m := selectScreen(t)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.width, m.height)
	}
	if m.canvas.cols > 120 || m.canvas.rows > 40-canvasTop-footerLines {
		t.Errorf("canvas %dx%d does not fit the window", m.canvas.cols, m.canvas.rows)
	}
}

func TestAppModelQuit(t *testing.T) {
	m := NewAppModel(newTestOptions(t))
	m, cmd := update(t, m, keyMsg("q"))
	if !m.IsQuitting() || cmd == nil {
		t.Error("q on the picker should quit")
	}
}
