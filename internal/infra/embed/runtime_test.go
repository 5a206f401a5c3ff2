package embed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonearm/tonearm/internal/app/player"
)

func fastSettings() map[string]any {
	return map[string]any{
		"ready_delay_ms":       1,
		"default_duration_sec": 1,
		"tick_ms":              1,
	}
}

type eventRecorder struct {
	mu     sync.Mutex
	ready  bool
	states []player.InstanceState
}

func (r *eventRecorder) callbacks() player.Callbacks {
	return player.Callbacks{
		OnReady: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.ready = true
		},
		OnStateChange: func(s player.InstanceState) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.states = append(r.states, s)
		},
	}
}

func (r *eventRecorder) isReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

func (r *eventRecorder) lastState() (player.InstanceState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return 0, false
	}
	return r.states[len(r.states)-1], true
}

func TestNewRuntime(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		wantErr bool
	}{
		{name: "nil settings use defaults", raw: nil},
		{name: "valid overrides", raw: fastSettings()},
		{name: "zero duration", raw: map[string]any{"default_duration_sec": 0}, wantErr: true},
		{name: "negative ready delay", raw: map[string]any{"ready_delay_ms": -1}, wantErr: true},
		{name: "undecodable settings", raw: map[string]any{"tick_ms": "soon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRuntime(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRuntime_Create_FailList(t *testing.T) {
	runtime, err := NewRuntime(map[string]any{"fail_video_ids": []string{"deadvid0123"}})
	require.NoError(t, err)

	_, err = runtime.Create(context.Background(), "deadvid0123", player.Callbacks{})
	assert.Error(t, err)
}

func TestRuntime_InstanceLifecycle(t *testing.T) {
	runtime, err := NewRuntime(fastSettings())
	require.NoError(t, err)

	rec := &eventRecorder{}
	inst, err := runtime.Create(context.Background(), "nJZcbidTutE", rec.callbacks())
	require.NoError(t, err)
	defer inst.Destroy()

	require.Eventually(t, rec.isReady, time.Second, time.Millisecond)
	assert.Equal(t, time.Second, inst.Duration())

	inst.Play()
	require.Eventually(t, func() bool {
		s, ok := rec.lastState()
		return ok && s == player.InstancePlaying
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		return inst.Position() > 0
	}, time.Second, time.Millisecond)

	inst.Pause()
	require.Eventually(t, func() bool {
		s, ok := rec.lastState()
		return ok && s == player.InstancePaused
	}, time.Second, time.Millisecond)

	frozen := inst.Position()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, frozen, inst.Position())
}

func TestRuntime_InstanceEnds(t *testing.T) {
	runtime, err := NewRuntime(map[string]any{
		"ready_delay_ms":       1,
		"default_duration_sec": 1,
		"tick_ms":              50,
	})
	require.NoError(t, err)

	rec := &eventRecorder{}
	inst, err := runtime.Create(context.Background(), "Y7G-tYRzwYY", rec.callbacks())
	require.NoError(t, err)
	defer inst.Destroy()

	require.Eventually(t, rec.isReady, time.Second, time.Millisecond)
	inst.Play()

	require.Eventually(t, func() bool {
		s, ok := rec.lastState()
		return ok && s == player.InstanceEnded
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, inst.Duration(), inst.Position())
}

func TestRuntime_DestroyIdempotent(t *testing.T) {
	runtime, err := NewRuntime(fastSettings())
	require.NoError(t, err)

	inst, err := runtime.Create(context.Background(), "nJZcbidTutE", player.Callbacks{})
	require.NoError(t, err)

	inst.Destroy()
	inst.Destroy()

	// Commands after destroy return without blocking.
	inst.Play()
	inst.Pause()
}
