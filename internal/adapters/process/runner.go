package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"patchlink/internal/ports"
)

// DefaultGracePeriod is how long a cancelled child gets between SIGTERM and kill
const DefaultGracePeriod = 5 * time.Second

var _ ports.ProcessRunner = (*Runner)(nil)

// CommandError reports a command that exited unsuccessfully
type CommandError struct {
	Name     string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with status %d: %s", e.Name, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with status %d", e.Name, e.ExitCode)
}

// Runner runs external commands and terminates them on cancellation
type Runner struct {
	output io.Writer
	grace  time.Duration
	logger *slog.Logger
}

// Option configures a Runner
type Option func(*Runner)

// WithOutput tees the child's stdout to w while it runs
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.output = w }
}

// WithGracePeriod sets the delay between SIGTERM and kill on cancellation
func WithGracePeriod(d time.Duration) Option {
	return func(r *Runner) { r.grace = d }
}

// WithLogger sets the logger used to trace commands
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		grace:  DefaultGracePeriod,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes name with args and returns its stdout.
//
// When ctx is cancelled the child receives SIGTERM, then is killed after the
// grace period; the returned error wraps ctx.Err(). A non-zero exit is
// reported as a *CommandError carrying the trimmed stderr.
func (r *Runner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.grace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if r.output != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.output)
	}
	cmd.Stderr = &stderr

	r.logger.Debug("running command", "name", name, "args", args)
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s interrupted: %w", name, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &CommandError{
				Name:     name,
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}

	return stdout.Bytes(), nil
}
