package workspace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"clipforge/internal/logging"
)

// sessionSweeper expires idle conversations and hands back the workspace
// dirs they owned.
type sessionSweeper interface {
	Sweep(maxAge time.Duration) []string
}

// Janitor periodically expires idle sessions and removes orphaned
// workspaces that outlived their delayed cleanup, typically after a crash.
type Janitor struct {
	cron     *cron.Cron
	manager  *Manager
	sessions sessionSweeper
	spec     string

	workspaceMaxAge time.Duration
	sessionMaxAge   time.Duration

	log *logging.Logger
}

func NewJanitor(m *Manager, sessions sessionSweeper, spec string, workspaceMaxAge, sessionMaxAge time.Duration, log *logging.Logger) *Janitor {
	return &Janitor{
		cron:            cron.New(),
		manager:         m,
		sessions:        sessions,
		spec:            spec,
		workspaceMaxAge: workspaceMaxAge,
		sessionMaxAge:   sessionMaxAge,
		log:             log,
	}
}

// Run sweeps once immediately to catch leftovers from a previous process,
// then on the cron schedule until ctx is canceled.
func (j *Janitor) Run(ctx context.Context) error {
	if _, err := j.cron.AddFunc(j.spec, j.sweep); err != nil {
		return fmt.Errorf("janitor schedule %q: %w", j.spec, err)
	}

	j.sweep()
	j.cron.Start()
	j.log.Infof("janitor started, schedule %q", j.spec)

	<-ctx.Done()

	ctxStop := j.cron.Stop()
	select {
	case <-ctxStop.Done():
		return nil
	case <-time.After(10 * time.Second):
		return errors.New("janitor stop timeout")
	}
}

func (j *Janitor) sweep() {
	var expired int
	if j.sessions != nil {
		released := j.sessions.Sweep(j.sessionMaxAge)
		expired = len(released)
		for _, dir := range released {
			if err := j.manager.Remove(dir); err != nil {
				j.log.Errorf("janitor: remove %s: %v", dir, err)
			}
		}
	}

	orphaned := j.manager.Sweep(j.workspaceMaxAge)
	if expired > 0 || orphaned > 0 {
		j.log.Infof("janitor: expired %d sessions, removed %d orphaned workspaces", expired, orphaned)
	}
}
