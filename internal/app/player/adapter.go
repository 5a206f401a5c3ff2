// Package player owns the asynchronous lifecycle of the embedded
// third-party player: create, await-ready, command, destroy. At most one
// instance is live at any time; provider callbacks are normalized into a
// small event vocabulary consumed by the session controller.
package player

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// ErrFactoryUnavailable signals that the provider runtime has not been
// registered yet. External tracks are unplayable until it is; the session
// treats this as a per-track failure, never as fatal.
var ErrFactoryUnavailable = errors.New("player factory unavailable")

// Action is a transport command forwarded to an embedded player.
type Action int

const (
	ActionPlay Action = iota
	ActionPause
	ActionSetVolume
	ActionMute
	ActionUnmute
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionPlay:
		return "play"
	case ActionPause:
		return "pause"
	case ActionSetVolume:
		return "set_volume"
	case ActionMute:
		return "mute"
	case ActionUnmute:
		return "unmute"
	default:
		return "unknown"
	}
}

// Command is one buffered or immediate instance command.
type Command struct {
	Action Action
	Volume int // Used by ActionSetVolume only
}

// Adapter manages the single live embedded player handle.
type Adapter struct {
	registry *Registry
	events   chan Event

	liveMu sync.Mutex
	live   *Handle
}

// NewAdapter creates an adapter backed by the given factory registry.
// A nil registry falls back to the process-wide default.
func NewAdapter(reg *Registry) *Adapter {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Adapter{
		registry: reg,
		events:   make(chan Event, 16),
	}
}

// Events returns the normalized event channel.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// Live returns the currently live handle, or nil.
func (a *Adapter) Live() *Handle {
	a.liveMu.Lock()
	defer a.liveMu.Unlock()
	return a.live
}

// Create starts asynchronous construction of an embedded player bound to
// videoID and returns its handle in the creating state. Any previously
// live handle is fully destroyed first: at most one instance is ever live.
// A synchronous construction failure is reported as an EventError on the
// returned handle, not as an error return; only a missing factory fails
// the call itself.
func (a *Adapter) Create(ctx context.Context, videoID string) (*Handle, error) {
	a.liveMu.Lock()
	prev := a.live
	a.live = nil
	a.liveMu.Unlock()
	if prev != nil {
		// Teardown completes before the new instance exists.
		a.destroyHandle(prev)
	}

	f := a.registry.Get()
	if f == nil {
		return nil, errors.Wrapf(ErrFactoryUnavailable, "video %s", videoID)
	}

	h := newHandle(videoID)
	a.liveMu.Lock()
	a.live = h
	a.liveMu.Unlock()

	// Holding h.mu across Create closes the window where an early callback
	// could observe the handle before the instance is attached. The factory
	// contract forbids synchronous callback invocation, so this cannot
	// deadlock.
	h.mu.Lock()
	inst, err := f.Create(ctx, videoID, Callbacks{
		OnReady:       func() { a.onReady(h) },
		OnStateChange: func(s InstanceState) { a.onStateChange(h, s) },
		OnError:       func(code int) { a.onError(h, code) },
	})
	if err != nil {
		h.state = StateErrored
		h.mu.Unlock()
		zlog.Warn().Msgf("player: instance creation failed: video_id=%s error=%v", videoID, err)
		a.emit(Event{Type: EventError, Handle: h, Code: CodeCreationFailed})
		return h, nil
	}
	h.inst = inst
	h.mu.Unlock()

	zlog.Debug().Msgf("player: creating instance: handle=%s video_id=%s", h.id, videoID)
	return h, nil
}

// Command forwards an action to the handle's instance. Commands issued
// before the instance is ready are buffered and replayed exactly once when
// ready fires. Commands to destroyed or errored handles are dropped;
// everything here is best-effort.
func (a *Adapter) Command(h *Handle, cmd Command) {
	if h == nil {
		return
	}
	h.mu.Lock()
	switch h.state {
	case StateDestroyed, StateErrored:
		h.mu.Unlock()
		zlog.Debug().Msgf("player: dropping command for dead handle: handle=%s action=%s", h.id, cmd.Action)
	case StateCreating, StateUninitialized:
		h.pending = append(h.pending, cmd)
		h.mu.Unlock()
	default:
		inst := h.inst
		h.mu.Unlock()
		applyCommand(inst, cmd)
	}
}

// Destroy tears down the handle. Destroying an already-destroyed handle is
// a no-op; after Destroy returns, the handle emits no further events.
func (a *Adapter) Destroy(h *Handle) {
	if h == nil {
		return
	}
	a.liveMu.Lock()
	if a.live == h {
		a.live = nil
	}
	a.liveMu.Unlock()
	a.destroyHandle(h)
}

func (a *Adapter) destroyHandle(h *Handle) {
	h.mu.Lock()
	if h.state == StateDestroyed {
		h.mu.Unlock()
		return
	}
	h.state = StateDestroyed
	inst := h.inst
	h.inst = nil
	h.pending = nil
	h.mu.Unlock()

	if inst != nil {
		inst.Destroy()
	}
	zlog.Debug().Msgf("player: destroyed instance: handle=%s video_id=%s", h.id, h.videoID)
}

func (a *Adapter) onReady(h *Handle) {
	h.mu.Lock()
	if h.state != StateCreating {
		h.mu.Unlock()
		zlog.Debug().Msgf("player: discarding ready for handle in state %s: handle=%s", h.state, h.id)
		return
	}
	h.state = StateReady
	pending := h.pending
	h.pending = nil
	inst := h.inst
	h.mu.Unlock()

	a.emit(Event{Type: EventReady, Handle: h})
	for _, cmd := range pending {
		applyCommand(inst, cmd)
	}
}

func (a *Adapter) onStateChange(h *Handle, s InstanceState) {
	h.mu.Lock()
	switch h.state {
	case StateDestroyed, StateErrored, StateCreating, StateUninitialized:
		h.mu.Unlock()
		return
	}
	var ev EventType
	switch s {
	case InstancePlaying:
		h.state = StatePlaying
		ev = EventPlaying
	case InstancePaused:
		h.state = StatePaused
		ev = EventPaused
	case InstanceEnded:
		h.state = StateReady
		ev = EventEnded
	default:
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	a.emit(Event{Type: ev, Handle: h})
}

func (a *Adapter) onError(h *Handle, code int) {
	h.mu.Lock()
	if h.state == StateDestroyed {
		h.mu.Unlock()
		return
	}
	h.state = StateErrored
	h.mu.Unlock()

	zlog.Warn().Msgf("player: instance error: handle=%s video_id=%s code=%d", h.id, h.videoID, code)
	a.emit(Event{Type: EventError, Handle: h, Code: code})
}

// emit sends an event without blocking. The channel is buffered; a full
// buffer means the consumer is gone, so the event is dropped.
func (a *Adapter) emit(e Event) {
	select {
	case a.events <- e:
	default:
		zlog.Warn().Msgf("player: event channel full, dropping event: type=%s handle=%s", e.Type, e.Handle.ID())
	}
}

func applyCommand(inst Instance, cmd Command) {
	if inst == nil {
		return
	}
	switch cmd.Action {
	case ActionPlay:
		inst.Play()
	case ActionPause:
		inst.Pause()
	case ActionSetVolume:
		inst.SetVolume(cmd.Volume)
	case ActionMute:
		inst.Mute()
	case ActionUnmute:
		inst.Unmute()
	}
}
