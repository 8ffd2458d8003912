// Package intake copies source images into the numbered working set.
package intake

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"qbet/apperr"
)

// DefaultExtensions are the image types recognised when Options.Extensions is empty.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".heic", ".gif"}

// Entry is one image copied into the working set.
type Entry struct {
	// Seq is the 1-based sequence number; the stored file is named <Seq><Ext>.
	Seq int
	// Ext is the original extension, case preserved.
	Ext    string
	Source string
	Stored string
}

// Name returns the stored file name, e.g. "3.png".
func (e Entry) Name() string { return strconv.Itoa(e.Seq) + e.Ext }

// Options configures a Run.
type Options struct {
	Extensions []string
	Logger     *slog.Logger
}

// Run copies every recognised image under source into target, renaming them
// 1..N in filename order. source may be a directory or a single file.
//
// The target directory is cleared before copying, but only once at least one
// image has been found: a NotFound or NoImages failure leaves it untouched.
// A file that fails to copy is logged and skipped; numbering stays dense.
func Run(source, target string, opts Options) ([]Entry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	sources, err := resolveSource(source, exts)
	if err != nil {
		return nil, err
	}
	if sameDir(filepath.Dir(sources[0]), target) {
		return nil, fmt.Errorf("intake: source %s is inside the target directory", source)
	}
	logger.Info("intake: found images", slog.String("source", source), slog.Int("count", len(sources)))

	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, fmt.Errorf("intake: create target: %w", err)
	}
	if err := clearDir(target); err != nil {
		return nil, fmt.Errorf("intake: clear target: %w", err)
	}

	entries := make([]Entry, 0, len(sources))
	for _, src := range sources {
		seq := len(entries) + 1
		ext := filepath.Ext(src)
		dst := filepath.Join(target, strconv.Itoa(seq)+ext)

		if err := copyFile(src, dst); err != nil {
			logger.Warn("intake: copy failed, skipping",
				slog.String("source", src),
				slog.String("error", err.Error()))
			_ = os.Remove(dst)
			continue
		}
		logger.Debug("intake: copied", slog.String("source", src), slog.String("stored", dst))

		entries = append(entries, Entry{Seq: seq, Ext: ext, Source: src, Stored: dst})
	}

	logger.Info("intake: complete", slog.String("target", target), slog.Int("processed", len(entries)))
	return entries, nil
}

// resolveSource lists the recognised images for source in numbering order.
func resolveSource(source string, exts []string) ([]string, error) {
	info, err := os.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source path %s: %w", source, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("source path %s: %w", source, err)
	}

	if !info.IsDir() {
		if IsImageFile(source, exts) {
			return []string{source}, nil
		}
		return nil, fmt.Errorf("%s: %w", source, apperr.ErrNoImages)
	}

	dirEntries, err := os.ReadDir(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		if IsImageFile(entry.Name(), exts) {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", source, apperr.ErrNoImages)
	}

	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(source, name)
	}
	return paths, nil
}

// IsImageFile reports whether path has one of exts, ignoring case.
func IsImageFile(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range exts {
		if ext == strings.ToLower(supported) {
			return true
		}
	}
	return false
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// copyFile copies src to dst and carries over the modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrCopyFailure, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrCopyFailure, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()|0o200)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrCopyFailure, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("%w: %w", apperr.ErrCopyFailure, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrCopyFailure, err)
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
