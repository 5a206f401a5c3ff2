// Package progress reconciles track progress from either backing source
// into one 0-100 percent tick stream.
package progress

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the tick interval used when none is configured.
const DefaultInterval = 500 * time.Millisecond

// Tick is one progress update. Epoch identifies the Start call that
// produced it; consumers compare it against the epoch of their current
// track and discard mismatches.
type Tick struct {
	Epoch    uint64
	Percent  float64
	Complete bool
}

// Synchronizer runs one ticker for the current track. Start establishes a
// new epoch and Stop is synchronous: once it returns, no tick for the
// stopped epoch will be produced, and any tick still buffered carries the
// old epoch so it can never be applied to the next track.
type Synchronizer struct {
	mu       sync.Mutex
	interval time.Duration
	ticks    chan Tick
	epoch    uint64
	cancel   context.CancelFunc
	paused   bool
	last     float64
}

// New creates a synchronizer with the given tick interval.
func New(interval time.Duration) *Synchronizer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Synchronizer{
		interval: interval,
		ticks:    make(chan Tick, 4),
	}
}

// Ticks returns the tick channel.
func (s *Synchronizer) Ticks() <-chan Tick {
	return s.ticks
}

// Start begins ticking for a new track using the given source, stopping
// any previous run first. Returns the new epoch.
func (s *Synchronizer) Start(src Source) uint64 {
	s.mu.Lock()
	s.stopLocked()
	s.epoch++
	epoch := s.epoch
	s.paused = false
	s.last = 0
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx, src, epoch)
	return epoch
}

// Stop cancels the current run. Synchronous: the epoch is retired before
// Stop returns, so a stale tick can never pass a consumer's epoch check.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.epoch++
}

func (s *Synchronizer) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Pause gates ticking without retiring the epoch.
func (s *Synchronizer) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume lifts a pause.
func (s *Synchronizer) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

func (s *Synchronizer) run(ctx context.Context, src Source, epoch uint64) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.epoch != epoch {
				s.mu.Unlock()
				return
			}
			if s.paused {
				s.mu.Unlock()
				continue
			}
			pct, complete := src.Percent(s.last)
			s.last = pct
			s.mu.Unlock()

			tick := Tick{Epoch: epoch, Percent: pct, Complete: complete}
			if complete {
				// Completion must reach the consumer; regular ticks may be
				// dropped when nobody is draining.
				select {
				case s.ticks <- tick:
				case <-ctx.Done():
				}
				return
			}
			select {
			case s.ticks <- tick:
			default:
			}
		}
	}
}
