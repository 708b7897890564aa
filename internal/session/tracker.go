// Package session tracks, per user, which operation is selected and what
// intermediate inputs are pending. Pure state behind one mutex; no I/O. The
// tracker hands released workspace dirs back to the caller so their cleanup
// can be scheduled once the session no longer needs them.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Action names one operation a user can select from the menus.
type Action string

const (
	ActionCompress        Action = "compress"
	ActionMerge           Action = "merge"
	ActionWatermark       Action = "watermark"
	ActionMovingWatermark Action = "moving-watermark"
	ActionTrim            Action = "trim"
	ActionResize          Action = "resize"
	ActionSpeed           Action = "speed"
	ActionRotate          Action = "rotate"
	ActionThumbnail       Action = "thumbnail"
	ActionExtractAudio    Action = "extract-audio"
	ActionReplaceAudio    Action = "replace-audio"
)

var (
	// ErrNoSession means the user has not selected an operation.
	ErrNoSession = errors.New("session: no operation selected")
	// ErrWrongAction means the pending operation does not match the request.
	ErrWrongAction = errors.New("session: different operation in progress")
	// ErrNeedMoreInputs means a merge was finalized with fewer than 2 files.
	ErrNeedMoreInputs = errors.New("session: need at least 2 collected videos")
)

// Input is one downloaded file plus the workspace dir holding it.
type Input struct {
	Path string
	Dir  string
}

// Paths projects the file paths out of a collected input list.
func Paths(inputs []Input) []string {
	return lo.Map(inputs, func(in Input, _ int) string { return in.Path })
}

// Dirs projects the workspace dirs out of a collected input list.
func Dirs(inputs []Input) []string {
	return lo.Map(inputs, func(in Input, _ int) string { return in.Dir })
}

type state struct {
	action    Action
	collected []Input
	target    *Input
	touchedAt time.Time
}

func (s *state) ownedDirs() []string {
	dirs := Dirs(s.collected)
	if s.target != nil {
		dirs = append(dirs, s.target.Dir)
	}
	return dirs
}

// Tracker is the per-user session store. Exactly one session per user; a new
// selection overwrites any in-progress one.
type Tracker struct {
	mu       sync.Mutex
	sessions map[int64]*state
}

func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[int64]*state)}
}

// Select starts a session for the action, unconditionally replacing any
// previous one. The replaced session's dirs come back for cleanup.
func (t *Tracker) Select(userID int64, action Action) (released []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.sessions[userID]; ok {
		released = prev.ownedDirs()
	}
	t.sessions[userID] = &state{action: action, touchedAt: time.Now()}
	return released
}

// Active reports the user's selected action, if any.
func (t *Tracker) Active(userID int64) (Action, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok {
		return "", false
	}
	return s.action, true
}

// AppendMergeInput adds one collected file to a pending merge and reports
// the new count.
func (t *Tracker) AppendMergeInput(userID int64, in Input) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok {
		return 0, ErrNoSession
	}
	if s.action != ActionMerge {
		return 0, ErrWrongAction
	}
	s.collected = append(s.collected, in)
	s.touchedAt = time.Now()
	return len(s.collected), nil
}

// CollectedCount reports how many files a pending merge has gathered.
func (t *Tracker) CollectedCount(userID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[userID]; ok {
		return len(s.collected)
	}
	return 0
}

// FinalizeMerge ends the collect phase and hands the inputs to the caller.
// With fewer than 2 files it rejects and leaves the accumulator untouched,
// so the user can keep adding.
func (t *Tracker) FinalizeMerge(userID int64) ([]Input, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	if s.action != ActionMerge {
		return nil, ErrWrongAction
	}
	if len(s.collected) < 2 {
		return nil, ErrNeedMoreInputs
	}

	inputs := s.collected
	delete(t.sessions, userID)
	return inputs, nil
}

// StoreTarget records the replace-audio target video; the session stays
// selected, now waiting for the audio file.
func (t *Tracker) StoreTarget(userID int64, in Input) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok {
		return ErrNoSession
	}
	if s.action != ActionReplaceAudio {
		return ErrWrongAction
	}
	s.target = &in
	s.touchedAt = time.Now()
	return nil
}

// Target peeks at the stored replace-audio target without consuming it.
func (t *Tracker) Target(userID int64) (Input, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok || s.target == nil {
		return Input{}, false
	}
	return *s.target, true
}

// TakeTarget consumes the stored target and ends the session; the caller
// owns the returned input (and its dir) from here on.
func (t *Tracker) TakeTarget(userID int64) (Input, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok || s.target == nil {
		return Input{}, false
	}
	target := *s.target
	delete(t.sessions, userID)
	return target, true
}

// Clear drops the user's session, returning any dirs it still owned.
func (t *Tracker) Clear(userID int64) (released []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[userID]; ok {
		released = s.ownedDirs()
		delete(t.sessions, userID)
	}
	return released
}

// Sweep expires sessions idle longer than maxAge and returns the dirs they
// owned. Abandoned merge collections would otherwise pin their workspaces
// forever.
func (t *Tracker) Sweep(maxAge time.Duration) (released []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for userID, s := range t.sessions {
		if s.touchedAt.Before(cutoff) {
			released = append(released, s.ownedDirs()...)
			delete(t.sessions, userID)
		}
	}
	return released
}

// Len reports how many sessions are live.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
