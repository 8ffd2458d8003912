package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"qbet/apperr"
	"qbet/config"
)

// DefaultTimeout bounds a single OCR invocation.
const DefaultTimeout = 2 * time.Minute

// Command runs an external OCR program once per image.
type Command struct {
	Binary  string
	Args    []string
	Timeout time.Duration
}

// NewCommand returns a Command for binary. args may reference the
// {input} and {output} placeholders; a zero timeout uses DefaultTimeout.
func NewCommand(binary string, args []string, timeout time.Duration) *Command {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Command{Binary: binary, Args: args, Timeout: timeout}
}

// Name returns the binary name.
func (c *Command) Name() string { return c.Binary }

// Check verifies the binary can be found on PATH.
func (c *Command) Check() error {
	if _, err := exec.LookPath(c.Binary); err != nil {
		return fmt.Errorf("%s not found on PATH, install it or set ocr.binary: %w", c.Binary, apperr.ErrToolMissing)
	}
	return nil
}

// Recognize runs the binary with the placeholders substituted. Arguments are
// passed directly to the process, never through a shell.
func (c *Command) Recognize(ctx context.Context, input, output string) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Binary, c.expand(input, output)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%s after %s: %w", c.Binary, c.Timeout, apperr.ErrTimeout)
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("%s: %w", c.Binary, apperr.ErrToolMissing)
	}

	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		return fmt.Errorf("%s: %w: %w", c.Binary, apperr.ErrOCRFailure, err)
	}
	return fmt.Errorf("%s: %w: %w\nOutput: %s", c.Binary, apperr.ErrOCRFailure, err, msg)
}

func (c *Command) expand(input, output string) []string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		a = strings.ReplaceAll(a, config.InputPlaceholder, input)
		args[i] = strings.ReplaceAll(a, config.OutputPlaceholder, output)
	}
	return args
}
