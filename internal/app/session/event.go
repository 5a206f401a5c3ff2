package session

import "github.com/tonearm/tonearm/internal/domain/track"

// EventType represents a session event type.
type EventType int

const (
	EventTrackChanged       EventType = iota // Current track was replaced
	EventStateChanged                        // Playback state changed
	EventProgress                            // Progress percent updated
	EventTrackUnplayable                     // Current track failed and will be skipped
	EventQueueChanged                        // A track was appended to the queue
	EventPreferencesChanged                  // Like, volume or mute changed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventStateChanged:
		return "state_changed"
	case EventProgress:
		return "progress"
	case EventTrackUnplayable:
		return "track_unplayable"
	case EventQueueChanged:
		return "queue_changed"
	case EventPreferencesChanged:
		return "preferences_changed"
	default:
		return "unknown"
	}
}

// Event represents a session event.
type Event struct {
	Type     EventType
	Track    *track.Track // Current track at emission time
	State    State        // Session state at emission time
	Progress float64      // Progress percent at emission time
}

// Snapshot is the observable session state handed to subscribers.
type Snapshot struct {
	State           State
	ProgressPercent float64
	Current         track.Track
	LikedTrackIDs   []string
	Volume          int
	Muted           bool
}
