// Package flow holds the screen state of an interactive qbet session,
// independent of how the screens are drawn.
package flow

import (
	"errors"
	"fmt"

	"qbet/intake"
)

// Screen identifies what the session is showing.
type Screen int

const (
	ScreenPath Screen = iota
	ScreenIntake
	ScreenSelect
	ScreenRecognize
	ScreenReview
	ScreenLog
	ScreenDone
	ScreenError
)

var screenNames = map[Screen]string{
	ScreenPath:      "path",
	ScreenIntake:    "intake",
	ScreenSelect:    "select",
	ScreenRecognize: "recognize",
	ScreenReview:    "review",
	ScreenLog:       "log",
	ScreenDone:      "done",
	ScreenError:     "error",
}

func (s Screen) String() string {
	if name, ok := screenNames[s]; ok {
		return name
	}
	return fmt.Sprintf("screen(%d)", int(s))
}

// ErrInvalidTransition is returned when an event does not apply to the
// current screen. The navigator state is left unchanged.
var ErrInvalidTransition = errors.New("invalid transition")

// Navigator is the session state machine.
type Navigator struct {
	screen  Screen
	path    string
	entries []intake.Entry
	index   int
	err     error
	retryTo Screen
}

// New returns a navigator on the path screen.
func New() *Navigator {
	return &Navigator{screen: ScreenPath}
}

// Screen returns the current screen.
func (n *Navigator) Screen() Screen { return n.screen }

// Path returns the chosen source path.
func (n *Navigator) Path() string { return n.path }

// Entries returns the images from the last successful intake.
func (n *Navigator) Entries() []intake.Entry { return n.entries }

// Index returns the 0-based position of the current image.
func (n *Navigator) Index() int { return n.index }

// Current returns the image being worked on.
func (n *Navigator) Current() (intake.Entry, bool) {
	if n.index < 0 || n.index >= len(n.entries) {
		return intake.Entry{}, false
	}
	return n.entries[n.index], true
}

// Err returns the error shown on the error screen.
func (n *Navigator) Err() error { return n.err }

// RetryScreen is where Retry leads from the error screen.
func (n *Navigator) RetryScreen() Screen { return n.retryTo }

func (n *Navigator) invalid(event string) error {
	return fmt.Errorf("%s on %s screen: %w", event, n.screen, ErrInvalidTransition)
}

func (n *Navigator) fail(err error, retryTo Screen) {
	n.err = err
	n.retryTo = retryTo
	n.screen = ScreenError
}

// PathChosen starts intake of path.
func (n *Navigator) PathChosen(path string) error {
	if n.screen != ScreenPath {
		return n.invalid("PathChosen")
	}
	if path == "" {
		return fmt.Errorf("PathChosen: empty path: %w", ErrInvalidTransition)
	}
	n.path = path
	n.screen = ScreenIntake
	return nil
}

// IntakeDone records the intake result. Failure, or no images copied, leads
// to the error screen with retry back to the path picker.
func (n *Navigator) IntakeDone(entries []intake.Entry, err error) error {
	if n.screen != ScreenIntake {
		return n.invalid("IntakeDone")
	}
	if err == nil && len(entries) == 0 {
		err = errors.New("no images could be copied")
	}
	if err != nil {
		n.fail(err, ScreenPath)
		return nil
	}
	n.entries = entries
	n.index = 0
	n.screen = ScreenSelect
	return nil
}

// SelectionConfirmed moves from selection to recognition.
func (n *Navigator) SelectionConfirmed() error {
	if n.screen != ScreenSelect {
		return n.invalid("SelectionConfirmed")
	}
	n.screen = ScreenRecognize
	return nil
}

// OCRDone records the recognition result. On failure Retry returns to the
// selection screen for the same image.
func (n *Navigator) OCRDone(err error) error {
	if n.screen != ScreenRecognize {
		return n.invalid("OCRDone")
	}
	if err != nil {
		n.fail(err, ScreenSelect)
		return nil
	}
	n.screen = ScreenReview
	return nil
}

// Reviewed moves from the review form to the question bank view.
func (n *Navigator) Reviewed() error {
	if n.screen != ScreenReview {
		return n.invalid("Reviewed")
	}
	n.screen = ScreenLog
	return nil
}

// Next advances to the next image, or to the done screen after the last one.
// It applies to the question bank view and, to skip an image, the selection
// screen.
func (n *Navigator) Next() error {
	if n.screen != ScreenLog && n.screen != ScreenSelect {
		return n.invalid("Next")
	}
	if n.index+1 >= len(n.entries) {
		n.index = len(n.entries)
		n.screen = ScreenDone
		return nil
	}
	n.index++
	n.screen = ScreenSelect
	return nil
}

// Back returns to the previous step: recognition and review go back to
// selection, and selection goes back to the path picker.
func (n *Navigator) Back() error {
	switch n.screen {
	case ScreenRecognize, ScreenReview:
		n.screen = ScreenSelect
	case ScreenSelect:
		n.screen = ScreenPath
	default:
		return n.invalid("Back")
	}
	return nil
}

// Fail shows err with Retry leading back to the current screen.
func (n *Navigator) Fail(err error) error {
	if n.screen == ScreenError || n.screen == ScreenDone {
		return n.invalid("Fail")
	}
	n.fail(err, n.screen)
	return nil
}

// Retry leaves the error screen for the screen recorded with the error.
func (n *Navigator) Retry() error {
	if n.screen != ScreenError {
		return n.invalid("Retry")
	}
	n.screen = n.retryTo
	n.err = nil
	return nil
}
