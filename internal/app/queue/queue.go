// Package queue provides the ordered track queue with a single current index.
package queue

import (
	"iter"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tonearm/tonearm/internal/domain/track"
)

// Errors
var (
	ErrEmptySeed     = errors.New("queue requires at least one seed track")
	ErrTrackNotFound = errors.New("track not found in queue")
)

// Queue owns the ordered track list and the current index. The queue is
// never empty and the current index is always valid. Access is serialized
// by the owning controller; the queue itself carries no lock.
type Queue struct {
	tracks  []track.Track
	current int
}

// New creates a queue from seed tracks. At least one track is required.
func New(seed []track.Track) (*Queue, error) {
	if len(seed) == 0 {
		return nil, ErrEmptySeed
	}
	tracks := make([]track.Track, len(seed))
	copy(tracks, seed)
	return &Queue{tracks: tracks}, nil
}

// Current returns the track at the current index.
func (q *Queue) Current() track.Track {
	return q.tracks[q.current]
}

// Next advances the current index by one, wrapping past the end, and
// returns the newly current track. With a single-element queue it returns
// the same track.
func (q *Queue) Next() track.Track {
	q.current = (q.current + 1) % len(q.tracks)
	return q.tracks[q.current]
}

// Previous moves the current index back by one, wrapping before index 0,
// and returns the newly current track.
func (q *Queue) Previous() track.Track {
	q.current = (q.current - 1 + len(q.tracks)) % len(q.tracks)
	return q.tracks[q.current]
}

// JumpTo sets the current index to the track with the given ID.
func (q *Queue) JumpTo(trackID string) (track.Track, error) {
	for i, t := range q.tracks {
		if t.ID == trackID {
			q.current = i
			return t, nil
		}
	}
	return track.Track{}, errors.Wrapf(ErrTrackNotFound, "id %s", trackID)
}

// Append inserts a track at the end. The current index's referenced track
// never changes.
func (q *Queue) Append(t track.Track) {
	q.tracks = append(q.tracks, t)
}

// UpdateDuration records the real duration for a track once the embedded
// player reports it. Unknown IDs are ignored.
func (q *Queue) UpdateDuration(trackID string, d time.Duration) {
	for i := range q.tracks {
		if q.tracks[i].ID == trackID {
			q.tracks[i].Duration = d
			return
		}
	}
}

// Len returns the number of tracks in the queue.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// Tracks returns a copy of the track list in queue order.
func (q *Queue) Tracks() []track.Track {
	result := make([]track.Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// TotalDuration returns the total duration of all tracks in the queue.
func (q *Queue) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range q.tracks {
		total += t.Duration
	}
	return total
}

// Upcoming returns a lazy view of the next n tracks after the current one,
// wrapping around the end and excluding the current track. The view is for
// display only, never mutates the queue, and must be consumed before the
// queue is next mutated.
func (q *Queue) Upcoming(n int) iter.Seq[track.Track] {
	if max := len(q.tracks) - 1; n > max {
		n = max
	}
	start := q.current
	return func(yield func(track.Track) bool) {
		for i := 1; i <= n; i++ {
			if !yield(q.tracks[(start+i)%len(q.tracks)]) {
				return
			}
		}
	}
}
