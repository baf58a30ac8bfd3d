// Package exttool wraps the external tools the pipeline shells out to
// (rasterizer, OCR engine) behind a cancellable runner.
package exttool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrToolUnavailable reports that an external binary could not be resolved
// via its environment override or PATH.
var ErrToolUnavailable = errors.New("external tool unavailable")

// Runner executes one external tool invocation and returns its text output.
type Runner interface {
	Run(ctx context.Context, tool string, args ...string) (string, error)
}

// CommandRunner runs tools as subprocesses with a per-call timeout. The
// binary for tool "pdftoppm" is taken from PDFTOPPM_BIN when set, otherwise
// resolved on PATH.
type CommandRunner struct {
	Timeout time.Duration
}

// NewCommandRunner builds a runner enforcing the given per-call timeout.
func NewCommandRunner(timeout time.Duration) *CommandRunner {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CommandRunner{Timeout: timeout}
}

// Run invokes the tool and returns stdout, falling back to stderr when
// stdout is blank (tesseract reports some recoverable conditions there).
func (r *CommandRunner) Run(ctx context.Context, tool string, args ...string) (string, error) {
	bin, err := Resolve(tool)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run %s: %w (%s)", tool, err, strings.TrimSpace(stderr.String()))
	}

	out := stdout.String()
	if strings.TrimSpace(out) == "" {
		return stderr.String(), nil
	}
	return out, nil
}

// Resolve locates a tool binary: the <TOOL>_BIN environment variable wins,
// then a PATH lookup.
func Resolve(tool string) (string, error) {
	if override := os.Getenv(overrideVar(tool)); override != "" {
		return override, nil
	}
	bin, err := exec.LookPath(tool)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrToolUnavailable, tool)
	}
	return bin, nil
}

func overrideVar(tool string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, tool)
	return sanitized + "_BIN"
}
