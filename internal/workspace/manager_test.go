package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/internal/logging"
)

func newTestLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log, err := logging.New(filepath.Join(t.TempDir(), "errors.log"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func newTestManager(t *testing.T, delay time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "downloads"), delay, newTestLogger(t))
	require.NoError(t, err)
	return m
}

func TestNewManager_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	m, err := NewManager(root, time.Second, newTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, root, m.Root())
	assert.DirExists(t, root)
}

func TestAllocate_UniqueDirsUnderRoot(t *testing.T) {
	m := newTestManager(t, time.Second)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		dir, err := m.Allocate(42)
		require.NoError(t, err)
		assert.DirExists(t, dir)
		assert.Equal(t, m.Root(), filepath.Dir(dir))
		assert.True(t, strings.HasPrefix(filepath.Base(dir), "42_"))
		assert.False(t, seen[dir], "allocated %s twice", dir)
		seen[dir] = true
	}
}

func TestScheduleCleanup_RemovesAfterDelay(t *testing.T) {
	m := newTestManager(t, 20*time.Millisecond)

	dir, err := m.Allocate(1)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("x"), 0o644))

	m.ScheduleCleanup(dir)
	assert.Eventually(t, func() bool {
		_, err := os.Stat(dir)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduleCleanup_RefusesDirsOutsideRoot(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond)

	foreign := t.TempDir()
	m.ScheduleCleanup(foreign)
	m.ScheduleCleanup("")

	time.Sleep(150 * time.Millisecond)
	assert.DirExists(t, foreign)
}

func TestRemove(t *testing.T) {
	m := newTestManager(t, time.Second)

	dir, err := m.Allocate(7)
	require.NoError(t, err)
	require.NoError(t, m.Remove(dir))
	assert.NoDirExists(t, dir)

	assert.Error(t, m.Remove(t.TempDir()))
	assert.Error(t, m.Remove(m.Root()))
}

func TestSweep_RemovesOnlyStaleDirs(t *testing.T) {
	m := newTestManager(t, time.Second)

	stale, err := m.Allocate(1)
	require.NoError(t, err)
	fresh, err := m.Allocate(2)
	require.NoError(t, err)

	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	assert.Equal(t, 1, m.Sweep(2*time.Hour))
	assert.NoDirExists(t, stale)
	assert.DirExists(t, fresh)
}

type fakeSweeper struct {
	dirs []string
}

func (f *fakeSweeper) Sweep(time.Duration) []string { return f.dirs }

func TestJanitorSweep_ReclaimsSessionAndOrphanDirs(t *testing.T) {
	m := newTestManager(t, time.Second)

	sessionDir, err := m.Allocate(1)
	require.NoError(t, err)
	orphan, err := m.Allocate(2)
	require.NoError(t, err)
	fresh, err := m.Allocate(3)
	require.NoError(t, err)

	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(orphan, old, old))

	j := NewJanitor(m, &fakeSweeper{dirs: []string{sessionDir}}, "@every 1h", 2*time.Hour, 30*time.Minute, newTestLogger(t))
	j.sweep()

	assert.NoDirExists(t, sessionDir)
	assert.NoDirExists(t, orphan)
	assert.DirExists(t, fresh)
}

func TestJanitorRun_RejectsBadSchedule(t *testing.T) {
	m := newTestManager(t, time.Second)
	j := NewJanitor(m, nil, "every hour or so", 2*time.Hour, 30*time.Minute, newTestLogger(t))

	err := j.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "janitor schedule")
}

func TestJanitorRun_StopsOnContextCancel(t *testing.T) {
	m := newTestManager(t, time.Second)
	j := NewJanitor(m, nil, "@every 1h", 2*time.Hour, 30*time.Minute, newTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}
