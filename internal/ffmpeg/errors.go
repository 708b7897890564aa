package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy. Every error leaving this package wraps one of these
// sentinels or is a *RunError, so callers can switch on errors.Is/As.
var (
	// ErrInvalidArgument means a caller-supplied parameter violates a
	// precondition. Always detected before any subprocess is spawned.
	ErrInvalidArgument = errors.New("ffmpeg: invalid argument")

	// ErrTimeout means the child process exceeded its deadline and was killed.
	ErrTimeout = errors.New("ffmpeg: command timed out")

	// ErrNotFound means a referenced input file is missing before invocation.
	ErrNotFound = errors.New("ffmpeg: input file not found")
)

// RunError reports a child process that exited non-zero. It carries the full
// argument list and both captured streams so a failure can be diagnosed
// without rerunning anything.
type RunError struct {
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *RunError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Stdout)
	}
	if msg == "" {
		return fmt.Sprintf("ffmpeg %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("ffmpeg %s: %v: %s", strings.Join(e.Args, " "), e.Err, msg)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
