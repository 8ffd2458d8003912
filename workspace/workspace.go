// Package workspace resolves the on-disk layout qbet works in.
//
// Every path is derived from an explicit root directory:
//
//	<root>/input/<n>.<ext>   numbered copies made by intake
//	<root>/output/QB.md      the question bank
//	<root>/temp/<n>/Q.png    crop handed to the OCR engine
//	<root>/temp/<n>/Q.txt    text written by the OCR engine
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

const (
	InputDirName  = "input"
	OutputDirName = "output"
	TempDirName   = "temp"

	QuestionBankName = "QB.md"
	LogFileName      = "qbet.log"
	CropFileName     = "Q.png"
	TextFileName     = "Q.txt"
)

// Layout maps workspace concepts to paths under a root directory.
type Layout struct {
	root string
}

// New returns a Layout rooted at root. The root is made absolute so the
// layout does not change meaning if the process changes directory.
func New(root string) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("workspace: resolve root: %w", err)
	}
	return Layout{root: abs}, nil
}

// Root returns the absolute root directory.
func (l Layout) Root() string { return l.root }

// InputDir is where intake writes numbered images.
func (l Layout) InputDir() string { return filepath.Join(l.root, InputDirName) }

// OutputDir holds the question bank and the log file.
func (l Layout) OutputDir() string { return filepath.Join(l.root, OutputDirName) }

// TempDir is the scratch directory cleared between questions.
func (l Layout) TempDir() string { return filepath.Join(l.root, TempDirName) }

// QuestionBank is the markdown log path.
func (l Layout) QuestionBank() string { return filepath.Join(l.OutputDir(), QuestionBankName) }

// LogFile is where the interactive shell writes its log records.
func (l Layout) LogFile() string { return filepath.Join(l.OutputDir(), LogFileName) }

// ImageDir is the per-image scratch directory temp/<n>.
func (l Layout) ImageDir(seq int) string {
	return filepath.Join(l.TempDir(), strconv.Itoa(seq))
}

// CropPath is the OCR input for image seq.
func (l Layout) CropPath(seq int) string { return filepath.Join(l.ImageDir(seq), CropFileName) }

// TextPath is the OCR output for image seq.
func (l Layout) TextPath(seq int) string { return filepath.Join(l.ImageDir(seq), TextFileName) }

// Ensure creates the input, output and temp directories if they are
// missing and returns the names of the ones it created.
func (l Layout) Ensure() ([]string, error) {
	var created []string
	for _, name := range []string{OutputDirName, InputDirName, TempDirName} {
		dir := filepath.Join(l.root, name)
		_, err := os.Stat(dir)
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return created, fmt.Errorf("workspace: stat %s: %w", name, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, fmt.Errorf("workspace: create %s: %w", name, err)
		}
		created = append(created, name)
	}
	return created, nil
}
