// Package qbank appends recognised questions to the markdown question bank.
package qbank

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"qbet/apperr"
)

// Header is written once when the question bank is created.
const Header = "# Question Bank\n\n"

// Entry is one question and its answer.
type Entry struct {
	Question string
	Answer   string
	// Correct highlights the answer.
	Correct bool
}

// Render formats e as markdown:
//
//	## <question>
//
//	* "<answer>"
//
// Both texts are folded onto one line. A correct answer is wrapped in == highlight markers.
func Render(e Entry) string {
	var sb strings.Builder
	sb.WriteString("## ")
	sb.WriteString(oneLine(e.Question))
	sb.WriteString("\n\n")
	answer := `"` + oneLine(e.Answer) + `"`
	if e.Correct {
		answer = "==" + answer + "=="
	}
	sb.WriteString("* ")
	sb.WriteString(answer)
	sb.WriteString("\n\n")
	return sb.String()
}

// oneLine folds multi-line text into a single line so it cannot break the
// heading or the bullet.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Log is an append-only question bank file. Only one writer is assumed.
type Log struct {
	path string
}

// New returns a Log writing to path.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the file the log writes to.
func (l *Log) Path() string { return l.path }

// Append adds e to the end of the file, creating it with Header first if it
// does not exist. Existing bytes are never rewritten.
func (l *Log) Append(e Entry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	switch {
	case err == nil:
		_, werr := f.WriteString(Header)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("failed to write header: %w", werr)
		}
	case !errors.Is(err, fs.ErrExist):
		return fmt.Errorf("failed to create %s: %w", l.path, err)
	}

	f, err = os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", l.path, err)
	}
	if _, err := f.WriteString(Render(e)); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to %s: %w", l.path, err)
	}
	return f.Close()
}

// Read returns the whole file.
func (l *Log) Read() (string, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("question bank %s has no entries yet: %w", l.path, apperr.ErrNotFound)
		}
		return "", err
	}
	return string(data), nil
}
