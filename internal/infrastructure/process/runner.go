package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/semmidev/sqlbackup/internal/domain"
)

type FailureMode string

const (
	// FailOnStderr treats any stderr output as failure, whatever the exit code.
	FailOnStderr FailureMode = "stderr"
	// FailOnExitCode treats a non-zero exit status as failure.
	FailOnExitCode FailureMode = "exit_code"
)

func ParseFailureMode(s string) (FailureMode, error) {
	switch FailureMode(s) {
	case "", FailOnStderr:
		return FailOnStderr, nil
	case FailOnExitCode:
		return FailOnExitCode, nil
	}
	return "", fmt.Errorf("unknown failure mode %q", s)
}

// Result is what a finished tool left behind.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

type Logger interface {
	Warnw(msg string, keysAndValues ...interface{})
}

type Runner struct {
	mode   FailureMode
	logger Logger
}

// NewRunner builds a Runner. logger may be nil; it receives stderr output
// that did not count as a failure.
func NewRunner(mode FailureMode, logger Logger) *Runner {
	if mode == "" {
		mode = FailOnStderr
	}
	return &Runner{mode: mode, logger: logger}
}

func (r *Runner) Mode() FailureMode {
	return r.mode
}

// Run executes name with args. env entries (KEY=VALUE) are visible to the
// child only; the calling process environment is never modified.
func (r *Runner) Run(ctx context.Context, env []string, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: strings.TrimSpace(stderr.String()),
	}
	wroteStderr := stderr.Len() > 0
	message := stderrMessage(stderr.String())

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return res, &domain.ToolError{Tool: name, Stderr: message, ExitCode: -1, Cause: runErr}
	}
	if exitErr != nil {
		res.ExitCode = exitErr.ExitCode()
	}

	switch r.mode {
	case FailOnExitCode:
		if res.ExitCode != 0 {
			return res, &domain.ToolError{Tool: name, Stderr: message, ExitCode: res.ExitCode, Cause: runErr}
		}
		if wroteStderr && r.logger != nil {
			r.logger.Warnw("Tool wrote to stderr", "tool", name, "stderr", message)
		}
	default:
		// Any byte on stderr counts, whitespace included.
		if wroteStderr {
			return res, &domain.ToolError{Tool: name, Stderr: message, ExitCode: res.ExitCode}
		}
	}

	return res, nil
}

// stderrMessage trims raw for display, quoting it when nothing printable is left.
func stderrMessage(raw string) string {
	if trimmed := strings.TrimSpace(raw); trimmed != "" || raw == "" {
		return trimmed
	}
	return strconv.Quote(raw)
}
