// Package scratch clears the per-question temp directory.
package scratch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Clean removes everything under dir but keeps dir itself. A missing dir is
// not an error. Entries that cannot be removed are logged and skipped; their
// errors are joined into the returned error. The count is the number of
// top-level entries removed.
func Clean(dir string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("scratch: directory does not exist", slog.String("dir", dir))
			return 0, nil
		}
		return 0, fmt.Errorf("scratch: read %s: %w", dir, err)
	}

	var (
		deleted int
		errs    []error
	)
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("scratch: delete failed", slog.String("path", path), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("delete %s: %w", path, err))
			continue
		}
		logger.Debug("scratch: deleted", slog.String("path", path), slog.Bool("dir", entry.IsDir()))
		deleted++
	}
	return deleted, errors.Join(errs...)
}
