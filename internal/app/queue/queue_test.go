package queue

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonearm/tonearm/internal/domain/track"
)

func seedTracks(n int) []track.Track {
	tracks := make([]track.Track, n)
	for i := range tracks {
		tracks[i] = track.NewCatalogTrack("Track", "Artist", "Album", "", 3*time.Minute)
	}
	return tracks
}

func TestNew_EmptySeed(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.Is(err, ErrEmptySeed))
}

func TestNext_WrapsAfterFullLap(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{name: "single track", size: 1},
		{name: "two tracks", size: 2},
		{name: "five tracks", size: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New(seedTracks(tt.size))
			require.NoError(t, err)

			origin := q.Current().ID
			for i := 0; i < tt.size; i++ {
				q.Next()
			}
			assert.Equal(t, origin, q.Current().ID, "next() composed length times must return to origin")
		})
	}
}

func TestPrevious_WrapsBeforeStart(t *testing.T) {
	q, err := New(seedTracks(3))
	require.NoError(t, err)

	last := q.Tracks()[2]
	got := q.Previous()
	assert.Equal(t, last.ID, got.ID)
}

func TestNextPrevious_Symmetric(t *testing.T) {
	q, err := New(seedTracks(4))
	require.NoError(t, err)

	origin := q.Current().ID
	q.Next()
	q.Previous()
	assert.Equal(t, origin, q.Current().ID)
}

func TestJumpTo(t *testing.T) {
	q, err := New(seedTracks(3))
	require.NoError(t, err)
	target := q.Tracks()[2]

	got, err := q.JumpTo(target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, got.ID)
	assert.Equal(t, target.ID, q.Current().ID)
}

func TestJumpTo_NotFound(t *testing.T) {
	q, err := New(seedTracks(3))
	require.NoError(t, err)
	before := q.Current().ID

	_, err = q.JumpTo("no-such-id")
	assert.True(t, errors.Is(err, ErrTrackNotFound))
	assert.Equal(t, before, q.Current().ID, "failed jump must not move the current index")
}

func TestAppend_KeepsCurrentTrack(t *testing.T) {
	q, err := New(seedTracks(2))
	require.NoError(t, err)
	q.Next()
	before := q.Current().ID

	q.Append(track.NewCatalogTrack("New", "", "", "", time.Minute))

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, before, q.Current().ID)
}

func TestUpdateDuration(t *testing.T) {
	q, err := New(seedTracks(2))
	require.NoError(t, err)
	id := q.Current().ID

	q.UpdateDuration(id, 4*time.Minute)
	assert.Equal(t, 4*time.Minute, q.Current().Duration)

	// Unknown IDs are ignored.
	q.UpdateDuration("no-such-id", time.Minute)
}

func TestTotalDuration(t *testing.T) {
	q, err := New(seedTracks(3))
	require.NoError(t, err)
	assert.Equal(t, 9*time.Minute, q.TotalDuration())
}

func TestUpcoming(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		advance   int
		n         int
		wantCount int
	}{
		{name: "basic window", size: 5, n: 3, wantCount: 3},
		{name: "wraps around end", size: 3, advance: 2, n: 2, wantCount: 2},
		{name: "capped at length minus current", size: 3, n: 10, wantCount: 2},
		{name: "single track queue yields nothing", size: 1, n: 5, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New(seedTracks(tt.size))
			require.NoError(t, err)
			for i := 0; i < tt.advance; i++ {
				q.Next()
			}

			var got []track.Track
			for trk := range q.Upcoming(tt.n) {
				got = append(got, trk)
			}

			assert.Len(t, got, tt.wantCount)
			for _, trk := range got {
				assert.NotEqual(t, q.Current().ID, trk.ID, "upcoming view must exclude the current track")
			}
		})
	}
}

func TestUpcoming_OrderWraps(t *testing.T) {
	q, err := New(seedTracks(3))
	require.NoError(t, err)
	all := q.Tracks()
	q.Next()
	q.Next() // current is index 2

	var got []string
	for trk := range q.Upcoming(2) {
		got = append(got, trk.ID)
	}
	assert.Equal(t, []string{all[0].ID, all[1].ID}, got)
}
