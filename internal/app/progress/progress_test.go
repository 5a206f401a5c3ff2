package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalClock_Percent(t *testing.T) {
	tests := []struct {
		name         string
		step         float64
		prev         float64
		wantPct      float64
		wantComplete bool
	}{
		{name: "first step", step: 0.5, prev: 0, wantPct: 0.5},
		{name: "mid track", step: 0.5, prev: 50, wantPct: 50.5},
		{name: "reaches 100 exactly", step: 25, prev: 75, wantPct: 100, wantComplete: true},
		{name: "clamps past 100", step: 30, prev: 90, wantPct: 100, wantComplete: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, complete := NewLocalClock(tt.step).Percent(tt.prev)
			assert.Equal(t, tt.wantPct, pct)
			assert.Equal(t, tt.wantComplete, complete)
		})
	}
}

// fakeReader reports a fixed position and duration.
type fakeReader struct {
	position time.Duration
	duration time.Duration
}

func (f *fakeReader) Position() time.Duration { return f.position }
func (f *fakeReader) Duration() time.Duration { return f.duration }

func TestAdapterPoll_Percent(t *testing.T) {
	tests := []struct {
		name     string
		position time.Duration
		duration time.Duration
		prev     float64
		wantPct  float64
	}{
		{
			name:     "normal poll",
			position: 30 * time.Second,
			duration: 2 * time.Minute,
			wantPct:  25,
		},
		{
			name:    "unknown duration holds last value",
			prev:    42,
			wantPct: 42,
		},
		{
			name:     "clamps at 100",
			position: 3 * time.Minute,
			duration: 2 * time.Minute,
			wantPct:  100,
		},
		{
			name:     "never moves backwards",
			position: 10 * time.Second,
			duration: 2 * time.Minute,
			prev:     50,
			wantPct:  50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewAdapterPoll(&fakeReader{position: tt.position, duration: tt.duration})
			pct, complete := src.Percent(tt.prev)
			assert.Equal(t, tt.wantPct, pct)
			assert.False(t, complete, "poll source must never signal completion; the ended event wins")
		})
	}
}

func recvTick(t *testing.T, ch <-chan Tick) Tick {
	t.Helper()
	select {
	case tk := <-ch:
		return tk
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tick")
		return Tick{}
	}
}

func TestSynchronizer_TicksAndCompletes(t *testing.T) {
	s := New(5 * time.Millisecond)
	epoch := s.Start(NewLocalClock(50))

	tk := recvTick(t, s.Ticks())
	assert.Equal(t, epoch, tk.Epoch)
	assert.Equal(t, 50.0, tk.Percent)
	assert.False(t, tk.Complete)

	tk = recvTick(t, s.Ticks())
	assert.Equal(t, 100.0, tk.Percent)
	assert.True(t, tk.Complete)
}

func TestSynchronizer_ProgressMonotonic(t *testing.T) {
	s := New(2 * time.Millisecond)
	s.Start(NewLocalClock(10))
	defer s.Stop()

	prev := -1.0
	for i := 0; i < 5; i++ {
		tk := recvTick(t, s.Ticks())
		require.Greater(t, tk.Percent, prev)
		prev = tk.Percent
	}
}

func TestSynchronizer_StopRetiresEpoch(t *testing.T) {
	s := New(2 * time.Millisecond)
	first := s.Start(NewLocalClock(1))
	recvTick(t, s.Ticks())

	s.Stop()
	second := s.Start(NewLocalClock(1))
	require.NotEqual(t, first, second)

	// Ticks buffered before Stop still carry the old epoch; once a tick
	// from the new epoch arrives, the old run is gone for good.
	deadline := time.After(time.Second)
	for {
		select {
		case tk := <-s.Ticks():
			if tk.Epoch == second {
				s.Stop()
				return
			}
			assert.Equal(t, first, tk.Epoch, "a tick must carry the epoch it was computed for")
		case <-deadline:
			t.Fatal("no tick from the new epoch arrived")
		}
	}
}

func TestSynchronizer_StartSupersedesPreviousRun(t *testing.T) {
	s := New(2 * time.Millisecond)
	first := s.Start(NewLocalClock(1))
	second := s.Start(NewLocalClock(1))
	defer s.Stop()
	assert.NotEqual(t, first, second)

	for i := 0; i < 5; i++ {
		tk := recvTick(t, s.Ticks())
		assert.NotEqual(t, first, tk.Epoch, "superseded run must not tick after restart")
	}
}

func TestSynchronizer_PauseGatesTicking(t *testing.T) {
	s := New(2 * time.Millisecond)
	s.Start(NewLocalClock(10))
	defer s.Stop()

	recvTick(t, s.Ticks())
	s.Pause()

	// Drain anything computed before the pause landed, then expect silence.
	time.Sleep(10 * time.Millisecond)
	for {
		select {
		case <-s.Ticks():
			continue
		default:
		}
		break
	}
	select {
	case tk := <-s.Ticks():
		t.Fatalf("unexpected tick while paused: %+v", tk)
	case <-time.After(20 * time.Millisecond):
	}

	s.Resume()
	recvTick(t, s.Ticks())
}
