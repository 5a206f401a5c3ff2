package progress

import "time"

// Source produces the next progress percent for the current track. The
// variant is selected per track by its backing source: a simulated clock
// for catalog tracks, an instance poll for externally-backed ones.
type Source interface {
	// Percent computes the next percent from the previous one, and reports
	// whether the track completed on this step.
	Percent(prev float64) (pct float64, complete bool)
}

// LocalClock advances progress by a constant step per tick.
type LocalClock struct {
	step float64
}

// NewLocalClock creates a local clock source with the given percent step.
func NewLocalClock(step float64) *LocalClock {
	return &LocalClock{step: step}
}

// Percent advances by the configured step, clamping at 100 and signaling
// completion there.
func (s *LocalClock) Percent(prev float64) (float64, bool) {
	next := prev + s.step
	if next >= 100 {
		return 100, true
	}
	return next, false
}

// PositionReader reports an embedded player's playback position.
// *player.Handle satisfies it; destroyed handles read zeros.
type PositionReader interface {
	Position() time.Duration
	Duration() time.Duration
}

// AdapterPoll derives progress from an embedded player's reported position
// and duration. Completion is never signaled here: the provider's ended
// event races with polling and the ended event always wins, so the poll
// only clamps at 100.
type AdapterPoll struct {
	reader PositionReader
}

// NewAdapterPoll creates a poll source over the given reader.
func NewAdapterPoll(r PositionReader) *AdapterPoll {
	return &AdapterPoll{reader: r}
}

// Percent computes position/duration. While the duration is unknown the
// previous value is held; progress never moves backwards within a track.
func (s *AdapterPoll) Percent(prev float64) (float64, bool) {
	d := s.reader.Duration()
	if d <= 0 {
		return prev, false
	}
	pct := float64(s.reader.Position()) / float64(d) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < prev {
		pct = prev
	}
	return pct, false
}
