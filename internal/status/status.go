// Package status implements the Status Model (component F): a plain
// record of {fullscreen, idle, pause_level}, owned by the Lifecycle
// Controller and fed by external collaborators (spec 4.5).
package status

import "sync"

// Snapshot is a value-copy of the current status, safe to read without
// holding any lock.
type Snapshot struct {
	Fullscreen bool
	Idle       bool
	PauseLevel int
}

// Paused reports whether any pause level is active. pause_level == 0
// means running; any higher value blocks transitions out of waiting
// (spec 3, "Status").
func (s Snapshot) Paused() bool {
	return s.PauseLevel > 0
}

// WakeFunc is the coalescing wake signal every setter raises, owned by
// the Lifecycle Controller (spec 4.4). Status never calls it more than
// once per setter invocation.
type WakeFunc func()

// Model is the Status Model. Its setters (SetFullscreen, SetIdle,
// SetPauseLevel, Pause, Resume) mutate it; one getter
// returns a snapshot by value. No other component is permitted to
// mutate it directly (spec 4.5).
type Model struct {
	mu   sync.RWMutex
	snap Snapshot
	wake WakeFunc
}

// New creates a Model with pause_level 0 (running) and the given wake
// callback. A nil wake is allowed for tests that don't care about
// coalescing.
func New(wake WakeFunc) *Model {
	if wake == nil {
		wake = func() {}
	}
	return &Model{wake: wake}
}

// Get returns a snapshot of the current status.
func (m *Model) Get() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// SetFullscreen updates the fullscreen flag, fed by the Renderer/output
// collaborator's "is there a fullscreen window" check.
func (m *Model) SetFullscreen(v bool) {
	m.mu.Lock()
	changed := m.snap.Fullscreen != v
	m.snap.Fullscreen = v
	m.mu.Unlock()
	if changed {
		m.wake()
	}
}

// SetIdle updates the idle flag, fed by the Input Frontend's idle-time
// collaborator.
func (m *Model) SetIdle(v bool) {
	m.mu.Lock()
	changed := m.snap.Idle != v
	m.snap.Idle = v
	m.mu.Unlock()
	if changed {
		m.wake()
	}
}

// SetPauseLevel sets the pause level directly. Negative values clamp to
// zero (spec 3: "pause_level int >= 0").
func (m *Model) SetPauseLevel(level int) {
	if level < 0 {
		level = 0
	}
	m.mu.Lock()
	changed := m.snap.PauseLevel != level
	m.snap.PauseLevel = level
	m.mu.Unlock()
	if changed {
		m.wake()
	}
}

// Pause raises the pause level by one (spec EXPANSION "Supplemented
// features": pause levels as an integer, not a bool, so multiple
// independent pausers can stack without one's Resume clearing
// another's).
func (m *Model) Pause() {
	m.mu.Lock()
	m.snap.PauseLevel++
	m.mu.Unlock()
	m.wake()
}

// Resume lowers the pause level by one, clamped at zero.
func (m *Model) Resume() {
	m.mu.Lock()
	if m.snap.PauseLevel > 0 {
		m.snap.PauseLevel--
	}
	m.mu.Unlock()
	m.wake()
}
