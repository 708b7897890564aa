package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"clipforge/internal/logging"
)

// DefaultTimeout is how long a single transcoder run may take before it is
// killed.
const DefaultTimeout = 600 * time.Second

// Runner executes built argument lists against the transcoder binary. One
// child process per call, full output capture, no internal retry; fallback
// policy belongs to the caller.
type Runner struct {
	bin     string
	timeout time.Duration
	sem     chan struct{}
	log     *logging.Logger
}

// NewRunner wires a runner for the given binary. concurrency bounds how many
// children may run at once across all users.
func NewRunner(bin string, timeout time.Duration, concurrency int, log *logging.Logger) *Runner {
	if bin == "" {
		bin = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		bin:     bin,
		timeout: timeout,
		sem:     make(chan struct{}, concurrency),
		log:     log,
	}
}

// Run spawns one child process for args and waits for it. On deadline the
// child is killed and the error wraps ErrTimeout; a non-zero exit comes back
// as *RunError with both streams captured.
func (r *Runner) Run(ctx context.Context, args []string) error {
	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, r.bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Infof("[FFMPEG] %s %s", r.bin, strings.Join(args, " "))
	start := time.Now()
	err := cmd.Run()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			r.log.Errorf("[FFMPEG] killed after %s: %s %s", r.timeout, r.bin, strings.Join(args, " "))
			return fmt.Errorf("%w after %s: %s %s", ErrTimeout, r.timeout, r.bin, strings.Join(args, " "))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.log.Errorf("[FFMPEG] failed (%v): %s", err, tail(stderr.String(), 500))
		return &RunError{
			Args:   args,
			Stdout: stdout.String(),
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	r.log.Infof("[FFMPEG] done in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// Timeout reports the per-run deadline the runner enforces.
func (r *Runner) Timeout() time.Duration {
	return r.timeout
}

// tail keeps the last n bytes of s for compact error logging.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
