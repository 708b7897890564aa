// Package workspace owns the per-job temporary directories: allocation,
// delayed best-effort cleanup, and the janitor sweep that catches whatever
// the delayed path missed.
package workspace

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipforge/internal/logging"
)

// Manager allocates job directories under one root and removes them after a
// delay once their job is done.
type Manager struct {
	root  string
	delay time.Duration
	log   *logging.Logger
}

func NewManager(root string, delay time.Duration, log *logging.Logger) (*Manager, error) {
	if root == "" {
		root = "downloads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("workspace root %s: %w", root, err)
	}
	return &Manager{root: root, delay: delay, log: log}, nil
}

// Root reports the directory all workspaces live under.
func (m *Manager) Root() string {
	return m.root
}

// Allocate creates a fresh directory for one job, named from the user ID
// plus a random component so repeat jobs never collide.
func (m *Manager) Allocate(userID int64) (string, error) {
	dir := filepath.Join(m.root, fmt.Sprintf("%d_%s", userID, randomSuffix()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("allocate workspace: %w", err)
	}
	return dir, nil
}

// ScheduleCleanup removes dir after the configured delay, success or failure
// of the owning job notwithstanding. Failures are logged, never escalated.
func (m *Manager) ScheduleCleanup(dir string) {
	if dir == "" {
		return
	}
	if !m.owns(dir) {
		m.log.Warnf("workspace: refusing to clean %s (outside %s)", dir, m.root)
		return
	}
	time.AfterFunc(m.delay, func() {
		if err := os.RemoveAll(dir); err != nil {
			m.log.Errorf("workspace: cleanup %s: %v", dir, err)
			return
		}
		m.log.Infof("workspace: cleaned %s", dir)
	})
}

// ScheduleCleanupAll schedules every dir in the list.
func (m *Manager) ScheduleCleanupAll(dirs []string) {
	for _, dir := range dirs {
		m.ScheduleCleanup(dir)
	}
}

// Remove deletes a workspace immediately.
func (m *Manager) Remove(dir string) error {
	if !m.owns(dir) {
		return fmt.Errorf("workspace: %s is outside %s", dir, m.root)
	}
	return os.RemoveAll(dir)
}

// Sweep removes workspaces whose directories have not been touched for
// maxAge. This is the safety net for dirs orphaned by a crash between job
// completion and the delayed cleanup firing.
func (m *Manager) Sweep(maxAge time.Duration) int {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		m.log.Errorf("workspace: sweep read %s: %v", m.root, err)
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		dir := filepath.Join(m.root, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			m.log.Errorf("workspace: sweep %s: %v", dir, err)
			continue
		}
		removed++
	}
	return removed
}

func (m *Manager) owns(dir string) bool {
	rel, err := filepath.Rel(m.root, dir)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// randomSuffix gives 10 hex chars of entropy for workspace names.
func randomSuffix() string {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%010d", time.Now().UnixNano()%1e10)
	}
	return hex.EncodeToString(b)
}
