package player

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// HandleState represents the lifecycle state of one embedded player handle.
type HandleState int

const (
	StateUninitialized HandleState = iota // Handle allocated, construction not started
	StateCreating                         // Async construction in progress
	StateReady                            // Instance accepts commands
	StatePlaying                          // Instance is playing
	StatePaused                           // Instance is paused
	StateErrored                          // Instance reported a fault
	StateDestroyed                        // Torn down; handle is invalid
)

// String returns the string representation of the handle state.
func (s HandleState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCreating:
		return "creating"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateErrored:
		return "errored"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Handle is an opaque reference to one live embedded player instance.
// Handles are compared by identity: a destroyed or superseded handle never
// equals the adapter's current one, which is what makes stale-event
// discarding mechanical.
type Handle struct {
	mu      sync.Mutex
	id      string
	videoID string
	state   HandleState
	inst    Instance
	pending []Command // Commands buffered until ready, replayed exactly once
}

func newHandle(videoID string) *Handle {
	return &Handle{
		id:      uuid.New().String(),
		videoID: videoID,
		state:   StateCreating,
	}
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string {
	return h.id
}

// VideoID returns the provider video ID the handle is bound to.
func (h *Handle) VideoID() string {
	return h.videoID
}

// State returns the current lifecycle state.
func (h *Handle) State() HandleState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Position returns the instance's current playback position, or zero when
// the instance is not yet ready or already destroyed.
func (h *Handle) Position() time.Duration {
	inst := h.usableInstance()
	if inst == nil {
		return 0
	}
	return inst.Position()
}

// Duration returns the instance's reported video duration, or zero when
// unknown.
func (h *Handle) Duration() time.Duration {
	inst := h.usableInstance()
	if inst == nil {
		return 0
	}
	return inst.Duration()
}

func (h *Handle) usableInstance() Instance {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case StateReady, StatePlaying, StatePaused:
		return h.inst
	default:
		return nil
	}
}
