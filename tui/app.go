package tui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"qbet/apperr"
	"qbet/config"
	"qbet/crop"
	"qbet/flow"
	"qbet/intake"
	"qbet/ocr"
	"qbet/qbank"
	"qbet/scratch"
	"qbet/selection"
	"qbet/workspace"
)

// Screen geometry. The selection canvas starts below the header and the
// instruction line; mouse coordinates are translated by these offsets.
const (
	headerLines = 3
	canvasTop   = headerLines + 1
	canvasLeft  = 0
	footerLines = 2
)

// AppOptions wires the app to a workspace.
type AppOptions struct {
	Layout workspace.Layout
	Config *config.Config
	Runner *ocr.Runner
	Bank   *qbank.Log
	Logger *slog.Logger
	// StartPath skips the picker when set.
	StartPath string
}

// reviewValues backs the review form. It lives behind a pointer so the
// form's bindings survive model copies.
type reviewValues struct {
	question string
	answer   string
	correct  bool
}

// AppModel is the Bubble Tea model for an interactive extraction session
type AppModel struct {
	opts   AppOptions
	nav    *flow.Navigator
	logger *slog.Logger

	// UI Components
	filepicker filepicker.Model
	spinner    spinner.Model
	viewport   viewport.Model
	form       *huh.Form
	review     *reviewValues

	// Selection state for the current image
	display   *crop.Display
	tool      *selection.Tool
	canvas    canvas
	pressCell image.Point

	// OCR in flight
	ocrCancel context.CancelFunc
	ocrToken  int

	processed int
	status    string
	advancing bool
	// saving is set from review submit until savedMsg arrives.
	saving bool

	// Dimensions
	width  int
	height int

	quitting bool
}

// Messages
type intakeDoneMsg struct {
	entries []intake.Entry
	err     error
}

type imageLoadedMsg struct {
	seq     int
	display *crop.Display
	err     error
}

type ocrDoneMsg struct {
	token int
	seq   int
	text  string
	err   error
}

type savedMsg struct {
	err error
}

type bankLoadedMsg struct {
	content string
	err     error
}

// bankChangedMsg is sent by the question bank watcher.
type bankChangedMsg struct{}

type cleanedMsg struct {
	deleted int
	err     error
}

// NewAppModel creates the session model
func NewAppModel(opts AppOptions) AppModel {
	if opts.Config == nil {
		opts.Config = config.NewDefault()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fp := filepicker.New()
	fp.DirAllowed = true
	fp.FileAllowed = true
	fp.ShowHidden = false
	fp.ShowSize = true
	fp.AllowedTypes = opts.Config.Intake.Extensions
	fp.Height = 12
	if abs, err := filepath.Abs("."); err == nil {
		fp.CurrentDirectory = abs
	}

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"[    ]", "[=   ]", "[==  ]", "[=== ]", "[ ===]", "[  ==]", "[   =]"},
		FPS:    time.Second / 8,
	}
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	vp := viewport.New(76, 14)

	return AppModel{
		opts:       opts,
		nav:        flow.New(),
		logger:     logger,
		filepicker: fp,
		spinner:    sp,
		viewport:   vp,
		width:      80,
		height:     24,
	}
}

// Init initializes the model
func (m AppModel) Init() tea.Cmd {
	if m.opts.StartPath != "" {
		if err := m.nav.PathChosen(m.opts.StartPath); err == nil {
			return tea.Batch(m.spinner.Tick, m.startIntake(m.opts.StartPath))
		}
	}
	return tea.Batch(
		m.spinner.Tick,
		m.filepicker.Init(),
	)
}

// Update handles messages
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filepicker.Height = max(3, m.height-headerLines-6)
		m.viewport.Width = max(20, m.width-4)
		m.viewport.Height = max(3, m.height-headerLines-footerLines-3)
		if m.display != nil {
			m.canvas = m.newCanvas(m.display)
		}
		if m.form != nil {
			m.form = m.form.WithWidth(min(m.width-4, 100))
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case intakeDoneMsg:
		if err := m.nav.IntakeDone(msg.entries, msg.err); err != nil {
			m.logger.Warn("tui: stale intake result", slog.String("error", err.Error()))
			return m, nil
		}
		if m.nav.Screen() == flow.ScreenSelect {
			m.processed = 0
			m.status = fmt.Sprintf("%d images selected.", len(msg.entries))
			return m, m.loadCurrentImage()
		}
		return m, nil

	case imageLoadedMsg:
		cur, ok := m.nav.Current()
		if m.nav.Screen() != flow.ScreenSelect || !ok || cur.Seq != msg.seq {
			return m, nil
		}
		if msg.err != nil {
			_ = m.nav.Fail(fmt.Errorf("image %s: %w", cur.Name(), msg.err))
			return m, nil
		}
		m.display = msg.display
		m.tool = selection.NewTool(msg.display.Width(), msg.display.Height(), msg.display.Scale)
		m.canvas = m.newCanvas(msg.display)
		return m, nil

	case ocrDoneMsg:
		if msg.token != m.ocrToken || m.nav.Screen() != flow.ScreenRecognize {
			return m, nil
		}
		m.ocrCancel = nil
		if err := m.nav.OCRDone(msg.err); err != nil {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Error("tui: ocr failed", slog.Int("image", msg.seq), slog.String("error", msg.err.Error()))
			return m, nil
		}
		m.review = &reviewValues{question: msg.text}
		m.form = m.newReviewForm()
		return m, m.form.Init()

	case savedMsg:
		if !m.saving || m.nav.Screen() != flow.ScreenReview {
			return m, nil
		}
		m.saving = false
		if msg.err != nil {
			_ = m.nav.Fail(msg.err)
			return m, nil
		}
		if err := m.nav.Reviewed(); err != nil {
			return m, nil
		}
		m.processed++
		m.form = nil
		return m, m.loadBank()

	case bankLoadedMsg:
		m.setBankContent(msg.content, msg.err)
		return m, nil

	case bankChangedMsg:
		if m.nav.Screen() == flow.ScreenLog {
			return m, m.loadBank()
		}
		return m, nil

	case cleanedMsg:
		m.advancing = false
		if msg.err != nil {
			m.logger.Warn("tui: temp cleanup incomplete", slog.String("error", msg.err.Error()))
		}
		return m.next()
	}

	return m.updateComponents(msg)
}

// updateComponents forwards messages to the component owning the screen.
func (m AppModel) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.nav.Screen() {
	case flow.ScreenPath:
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)
		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			return m.choosePath(path)
		}
		if didSelect, path := m.filepicker.DidSelectDisabledFile(msg); didSelect {
			// Directories are not in AllowedTypes.
			return m.choosePath(path)
		}
		return m, cmd

	case flow.ScreenReview:
		return m.updateForm(msg)

	case flow.ScreenLog:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey handles keyboard input for the current screen
func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch m.nav.Screen() {
	case flow.ScreenPath:
		if key == "q" {
			return m.quit()
		}

	case flow.ScreenSelect:
		switch key {
		case "q":
			return m.quit()
		case "u", "ctrl+z":
			if m.tool != nil && m.tool.Undo() {
				m.logger.Debug("tui: undo", slog.Int("selections", m.tool.Len()))
			}
			return m, nil
		case "enter":
			return m.confirmSelection()
		case "s":
			return m.advance()
		case "esc":
			_ = m.nav.Back()
			m.resetImage()
			return m, m.filepicker.Init()
		}
		return m, nil

	case flow.ScreenRecognize:
		if key == "esc" {
			if m.ocrCancel != nil {
				m.ocrCancel()
				m.ocrCancel = nil
			}
			m.ocrToken++
			_ = m.nav.Back()
			m.status = "Recognition cancelled."
		}
		return m, nil

	case flow.ScreenReview:
		if m.saving {
			return m, nil
		}
		if key == "esc" {
			m.form = nil
			_ = m.nav.Back()
			return m, nil
		}

	case flow.ScreenLog:
		switch key {
		case "q":
			return m.quit()
		case "r":
			return m, m.loadBank()
		case "n", "enter":
			return m.advance()
		}

	case flow.ScreenDone:
		switch key {
		case "q", "enter", "esc":
			return m.quit()
		}
		return m, nil

	case flow.ScreenError:
		switch key {
		case "q":
			return m.quit()
		case "r", "enter":
			return m.retry()
		case "s":
			if m.nav.RetryScreen() == flow.ScreenSelect {
				_ = m.nav.Retry()
				return m.advance()
			}
		}
		return m, nil
	}

	return m.updateComponents(msg)
}

// handleMouse turns drags on the canvas into selection events
func (m AppModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.nav.Screen() != flow.ScreenSelect || m.tool == nil || m.canvas.empty() {
		return m, nil
	}

	cx, cy := msg.X-canvasLeft, msg.Y-canvasTop
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !m.canvas.contains(cx, cy) {
			return m, nil
		}
		m.pressCell = image.Pt(cx, cy)
		m.tool.Press(m.canvas.cellCorner(cx, cy))

	case tea.MouseActionMotion:
		anchor, p := m.dragCorners(cx, cy)
		m.tool.Reanchor(anchor)
		m.tool.Move(p)

	case tea.MouseActionRelease:
		anchor, p := m.dragCorners(cx, cy)
		m.tool.Reanchor(anchor)
		if m.tool.Release(p) {
			m.logger.Debug("tui: selection added", slog.Int("selections", m.tool.Len()))
		}
	}
	return m, nil
}

// dragCorners returns the anchor and pointer corners, in display pixels, of
// the rectangle covering both the pressed cell and cell (cx, cy) in full.
func (m AppModel) dragCorners(cx, cy int) (anchor, p image.Point) {
	ax, ay := m.pressCell.X, m.pressCell.Y
	if cx >= ax {
		cx++
	} else {
		ax++
	}
	if cy >= ay {
		cy++
	} else {
		ay++
	}
	return m.canvas.cellCorner(ax, ay), m.canvas.cellCorner(cx, cy)
}

func (m AppModel) choosePath(path string) (tea.Model, tea.Cmd) {
	if err := m.nav.PathChosen(path); err != nil {
		m.logger.Warn("tui: path rejected", slog.String("error", err.Error()))
		return m, nil
	}
	m.logger.Info("tui: path chosen", slog.String("path", path))
	return m, m.startIntake(path)
}

func (m AppModel) confirmSelection() (tea.Model, tea.Cmd) {
	if m.tool == nil || m.display == nil || !m.tool.CanConfirm() {
		return m, nil
	}
	cur, ok := m.nav.Current()
	if !ok {
		return m, nil
	}
	regions := m.tool.OriginalRegions(m.display.OriginalSize())
	if err := m.nav.SelectionConfirmed(); err != nil {
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.ocrCancel = cancel
	m.ocrToken++
	m.status = ""
	return m, tea.Batch(m.spinner.Tick, m.recognize(ctx, m.ocrToken, cur.Seq, m.display.Original, regions))
}

func (m AppModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form == nil || m.saving {
		return m, nil
	}
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.saving = true
		entry := qbank.Entry{
			Question: strings.TrimSpace(m.review.question),
			Answer:   strings.TrimSpace(m.review.answer),
			Correct:  m.review.correct,
		}
		return m, m.appendEntry(entry)
	case huh.StateAborted:
		m.form = nil
		_ = m.nav.Back()
		return m, nil
	}
	return m, cmd
}

// advance clears temp before moving to the next image. Repeated requests
// while a cleanup is running are dropped.
func (m AppModel) advance() (tea.Model, tea.Cmd) {
	if m.advancing {
		return m, nil
	}
	m.advancing = true
	return m, m.cleanTemp()
}

// next moves the navigator on once temp is clear.
func (m AppModel) next() (tea.Model, tea.Cmd) {
	if err := m.nav.Next(); err != nil {
		m.logger.Warn("tui: next ignored", slog.String("error", err.Error()))
		return m, nil
	}
	m.resetImage()
	m.status = ""
	if m.nav.Screen() == flow.ScreenSelect {
		return m, m.loadCurrentImage()
	}
	m.logger.Info("tui: all images done", slog.Int("processed", m.processed))
	return m, nil
}

func (m AppModel) retry() (tea.Model, tea.Cmd) {
	if err := m.nav.Retry(); err != nil {
		return m, nil
	}
	switch m.nav.Screen() {
	case flow.ScreenPath:
		m.resetImage()
		return m, m.filepicker.Init()
	case flow.ScreenSelect:
		m.resetImage()
		return m, m.loadCurrentImage()
	case flow.ScreenReview:
		if m.review == nil {
			m.review = &reviewValues{}
		}
		m.form = m.newReviewForm()
		return m, m.form.Init()
	case flow.ScreenLog:
		return m, m.loadBank()
	}
	return m, nil
}

func (m AppModel) quit() (tea.Model, tea.Cmd) {
	if m.ocrCancel != nil {
		m.ocrCancel()
	}
	m.quitting = true
	return m, tea.Quit
}

func (m *AppModel) resetImage() {
	m.display = nil
	m.tool = nil
	m.canvas = canvas{}
}

func (m AppModel) newCanvas(d *crop.Display) canvas {
	return newCanvas(d.Image, max(1, m.width-canvasLeft), max(1, m.height-canvasTop-footerLines))
}

func (m AppModel) newReviewForm() *huh.Form {
	notBlank := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New("cannot be empty")
		}
		return nil
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Question").
				Description("Recognised text, edit as needed").
				Lines(6).
				Value(&m.review.question).
				Validate(notBlank),
			huh.NewInput().
				Title("Answer").
				Value(&m.review.answer).
				Validate(notBlank),
			huh.NewConfirm().
				Title("Mark as the correct answer?").
				Affirmative("Yes").
				Negative("No").
				Value(&m.review.correct),
		),
	).
		WithTheme(huh.ThemeCatppuccin()).
		WithWidth(min(m.width-4, 100)).
		WithShowHelp(true)
}

func (m *AppModel) setBankContent(content string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		m.viewport.SetContent(MutedStyle.Render("No questions saved yet."))
	case err != nil:
		m.viewport.SetContent(ErrorStyle.Render(err.Error()))
	default:
		m.viewport.SetContent(content)
		m.viewport.GotoBottom()
	}
}

// Commands

func (m AppModel) startIntake(path string) tea.Cmd {
	target := m.opts.Layout.InputDir()
	opts := intake.Options{Extensions: m.opts.Config.Intake.Extensions, Logger: m.logger}
	return func() tea.Msg {
		entries, err := intake.Run(path, target, opts)
		return intakeDoneMsg{entries: entries, err: err}
	}
}

func (m AppModel) loadCurrentImage() tea.Cmd {
	cur, ok := m.nav.Current()
	if !ok {
		return nil
	}
	maxHeight := m.opts.Config.Display.MaxHeight
	return func() tea.Msg {
		d, err := crop.LoadDisplay(cur.Stored, maxHeight)
		return imageLoadedMsg{seq: cur.Seq, display: d, err: err}
	}
}

func (m AppModel) recognize(ctx context.Context, token, seq int, original image.Image, regions []image.Rectangle) tea.Cmd {
	runner := m.opts.Runner
	cropPath := m.opts.Layout.CropPath(seq)
	return func() tea.Msg {
		if err := crop.SaveComposite(original, regions, cropPath); err != nil {
			return ocrDoneMsg{token: token, seq: seq, err: err}
		}
		if runner == nil {
			return ocrDoneMsg{token: token, seq: seq, err: fmt.Errorf("no ocr engine configured: %w", apperr.ErrToolMissing)}
		}
		if err := runner.Run(ctx, seq); err != nil {
			return ocrDoneMsg{token: token, seq: seq, err: err}
		}
		text, err := runner.ReadText(seq)
		return ocrDoneMsg{token: token, seq: seq, text: text, err: err}
	}
}

func (m AppModel) appendEntry(e qbank.Entry) tea.Cmd {
	bank := m.opts.Bank
	return func() tea.Msg {
		if bank == nil {
			return savedMsg{err: errors.New("no question bank configured")}
		}
		return savedMsg{err: bank.Append(e)}
	}
}

func (m AppModel) loadBank() tea.Cmd {
	bank := m.opts.Bank
	return func() tea.Msg {
		if bank == nil {
			return bankLoadedMsg{err: apperr.ErrNotFound}
		}
		content, err := bank.Read()
		return bankLoadedMsg{content: content, err: err}
	}
}

func (m AppModel) cleanTemp() tea.Cmd {
	dir := m.opts.Layout.TempDir()
	logger := m.logger
	return func() tea.Msg {
		n, err := scratch.Clean(dir, logger)
		return cleanedMsg{deleted: n, err: err}
	}
}

// View renders the UI
func (m AppModel) View() string {
	if m.quitting {
		return MutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())

	switch m.nav.Screen() {
	case flow.ScreenPath:
		b.WriteString(m.renderPicker())
	case flow.ScreenIntake:
		b.WriteString(m.renderWorking("Copying images from " + m.nav.Path() + "..."))
	case flow.ScreenSelect:
		b.WriteString(m.renderSelect())
	case flow.ScreenRecognize:
		b.WriteString(m.renderWorking("Recognising text with " + m.engineName() + "..."))
	case flow.ScreenReview:
		b.WriteString(m.renderReview())
	case flow.ScreenLog:
		b.WriteString(m.renderBank())
	case flow.ScreenDone:
		b.WriteString(m.renderDone())
	case flow.ScreenError:
		b.WriteString(m.renderError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

// renderHeader renders exactly headerLines lines.
func (m AppModel) renderHeader() string {
	title := HeaderStyle.Render("QBET - Question Bank Extraction")
	if total := len(m.nav.Entries()); total > 0 {
		idx := min(m.nav.Index()+1, total)
		title += "  " + BadgeStyle.Render(fmt.Sprintf("Image %d", idx)) + " " + ProgressBar(m.nav.Index(), total, 20)
	}
	screen, failed := m.nav.Screen(), false
	if screen == flow.ScreenError {
		screen, failed = m.nav.RetryScreen(), true
	}
	return title + "\n" + StepIndicator(screen, failed) + "\n\n"
}

func (m AppModel) renderPicker() string {
	title := TitleStyle.Render("Select a folder or an image")
	desc := MutedStyle.Render("Images: " + strings.Join(m.opts.Config.Intake.Extensions, " "))
	return BoxStyle.Render(title + "\n" + desc + "\n\n" + m.filepicker.View())
}

func (m AppModel) renderWorking(message string) string {
	return BoxStyle.Render(m.spinner.View() + " " + BodyStyle.Render(message))
}

// renderSelect renders the instruction line followed by the canvas.
func (m AppModel) renderSelect() string {
	cur, _ := m.nav.Current()
	if m.tool == nil {
		return BodyStyle.Render(m.spinner.View()+" Loading "+cur.Name()+"...") + "\n"
	}

	info := fmt.Sprintf("Drag over %s to select the question area  (%d selected)", cur.Name(), m.tool.Len())
	if m.status != "" {
		info += "  " + MutedStyle.Render(m.status)
	}

	var preview *selection.Rect
	if p, ok := m.tool.Preview(); ok {
		preview = &p
	}
	return SubtitleStyle.Render(info) + "\n" + m.canvas.render(m.tool.Selections(), preview)
}

func (m AppModel) renderReview() string {
	if m.form == nil {
		return ""
	}
	return m.form.View()
}

func (m AppModel) renderBank() string {
	title := TitleStyle.Render("Question Bank: " + m.opts.Layout.QuestionBank())
	return title + "\n" + lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSecondary).
		Render(m.viewport.View())
}

func (m AppModel) renderDone() string {
	title := SuccessStyle.Render("All images processed!")
	summary := fmt.Sprintf("Images:   %d\nSaved:    %d\nBank:     %s",
		len(m.nav.Entries()), m.processed, m.opts.Layout.QuestionBank())

	summaryBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSuccess).
		Padding(1, 2).
		Render(summary)

	return BoxStyle.Render(title + "\n\n" + summaryBox)
}

// renderError renders the error screen
func (m AppModel) renderError() string {
	title := ErrorStyle.Render("Error")

	msg := "unknown error"
	if err := m.nav.Err(); err != nil {
		msg = err.Error()
	}
	errorBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(1, 2).
		Render(msg)

	hint := "\n[r] Retry  [q] Quit"
	if m.nav.RetryScreen() == flow.ScreenSelect {
		hint = "\n[r] Retry  [s] Skip image  [q] Quit"
	}

	return BoxStyle.Render(title + "\n\n" + errorBox + MutedStyle.Render(hint))
}

// renderHelp renders context-sensitive help
func (m AppModel) renderHelp() string {
	switch m.nav.Screen() {
	case flow.ScreenPath:
		return KeyHelp("enter", "Select", "q", "Quit")
	case flow.ScreenSelect:
		keys := []string{"drag", "Select area", "u", "Undo"}
		if m.tool != nil && m.tool.CanConfirm() {
			keys = append(keys, "enter", "Confirm")
		}
		return KeyHelp(append(keys, "s", "Skip", "esc", "Back", "q", "Quit")...)
	case flow.ScreenRecognize:
		return KeyHelp("esc", "Cancel")
	case flow.ScreenReview:
		return KeyHelp("esc", "Back to selection")
	case flow.ScreenLog:
		return KeyHelp("n", "Next image", "r", "Refresh", "q", "Quit")
	}
	return ""
}

func (m AppModel) engineName() string {
	if m.opts.Runner == nil {
		return "OCR"
	}
	return m.opts.Runner.Engine().Name()
}

// Getter methods for external access
func (m AppModel) IsQuitting() bool    { return m.quitting }
func (m AppModel) Screen() flow.Screen { return m.nav.Screen() }
func (m AppModel) Err() error          { return m.nav.Err() }
func (m AppModel) Processed() int      { return m.processed }
func (m AppModel) IsComplete() bool    { return m.nav.Screen() == flow.ScreenDone }
