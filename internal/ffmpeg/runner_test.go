package ffmpeg

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/internal/logging"
)

// The runner only cares about spawn/wait/timeout/exit-code semantics, so the
// tests drive it with sh instead of a real transcoder.
func shPath(t *testing.T) string {
	t.Helper()
	p, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return p
}

func newTestLogger(t *testing.T) *logging.Logger {
	t.Helper()
	l, err := logging.New(filepath.Join(t.TempDir(), "errors.log"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRunner_Success(t *testing.T) {
	r := NewRunner(shPath(t), time.Minute, 1, newTestLogger(t))

	err := r.Run(context.Background(), []string{"-c", "exit 0"})
	assert.NoError(t, err)
}

func TestRunner_NonZeroExit(t *testing.T) {
	r := NewRunner(shPath(t), time.Minute, 1, newTestLogger(t))

	args := []string{"-c", "echo captured-out; echo captured-err 1>&2; exit 3"}
	err := r.Run(context.Background(), args)
	require.Error(t, err)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, args, runErr.Args)
	assert.Contains(t, runErr.Stdout, "captured-out")
	assert.Contains(t, runErr.Stderr, "captured-err")
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestRunner_TimeoutIsNotCommandFailed(t *testing.T) {
	r := NewRunner(shPath(t), 100*time.Millisecond, 1, newTestLogger(t))

	start := time.Now()
	err := r.Run(context.Background(), []string{"-c", "sleep 5"})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	var runErr *RunError
	assert.False(t, errors.As(err, &runErr), "timeout must not surface as RunError")
	assert.Less(t, elapsed, 3*time.Second, "child must be killed at the deadline")
}

func TestRunner_CanceledContext(t *testing.T) {
	r := NewRunner(shPath(t), time.Minute, 1, newTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx, []string{"-c", "exit 0"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_SerializesAtConcurrencyOne(t *testing.T) {
	r := NewRunner(shPath(t), time.Minute, 1, newTestLogger(t))

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Run(context.Background(), []string{"-c", "sleep 0.2"}))
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond,
		"two runs must not overlap when concurrency is 1")
}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner("", 0, 0, newTestLogger(t))
	assert.Equal(t, "ffmpeg", r.bin)
	assert.Equal(t, DefaultTimeout, r.Timeout())
	assert.Equal(t, 1, cap(r.sem))
}
