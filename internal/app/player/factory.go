package player

import (
	"context"
	"sync"
	"time"
)

// InstanceState is the coarse playback state reported by a provider instance.
type InstanceState int

const (
	InstancePlaying InstanceState = iota
	InstancePaused
	InstanceEnded
)

// Callbacks receive provider events for one instance. The factory must
// invoke them asynchronously: never from within Create and never from
// within an Instance method call.
type Callbacks struct {
	OnReady       func()
	OnStateChange func(InstanceState)
	OnError       func(code int)
}

// Instance is one live embedded player bound to a single video.
type Instance interface {
	Play()
	Pause()
	SetVolume(percent int)
	Mute()
	Unmute()
	Position() time.Duration
	Duration() time.Duration
	Destroy()
}

// Factory constructs embedded player instances. Construction is
// asynchronous: Create returns the instance immediately and OnReady fires
// once it can accept commands.
type Factory interface {
	Create(ctx context.Context, videoID string, cb Callbacks) (Instance, error)
}

// Registry holds the process-wide player factory. The provider runtime is
// loaded once for the whole process and may not be available at startup;
// until it is, external tracks are unplayable but nothing is fatal.
type Registry struct {
	mu      sync.Mutex
	factory Factory
	onReady func()
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Set installs the factory, replacing any previous one, and fires the
// readiness callback if one is registered.
func (r *Registry) Set(f Factory) {
	r.mu.Lock()
	r.factory = f
	cb := r.onReady
	r.mu.Unlock()

	if f != nil && cb != nil {
		cb()
	}
}

// Get returns the installed factory, or nil when none is available.
func (r *Registry) Get() Factory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.factory
}

// OnReady registers the readiness callback. Exactly one callback is
// retained process-wide; registering again replaces it. If a factory is
// already installed the callback fires immediately.
func (r *Registry) OnReady(cb func()) {
	r.mu.Lock()
	r.onReady = cb
	ready := r.factory != nil
	r.mu.Unlock()

	if ready && cb != nil {
		cb()
	}
}

var defaultRegistry = NewRegistry()

// SetFactory installs the factory in the default process-wide registry.
func SetFactory(f Factory) {
	defaultRegistry.Set(f)
}

// CurrentFactory returns the factory from the default registry.
func CurrentFactory() Factory {
	return defaultRegistry.Get()
}

// OnFactoryReady registers the readiness callback on the default registry.
func OnFactoryReady(cb func()) {
	defaultRegistry.OnReady(cb)
}

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
