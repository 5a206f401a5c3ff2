// Package session provides the playback session controller: the top-level
// state machine behind the unified transport.
package session

// State represents the playback session state.
type State int

const (
	StateIdle    State = iota // Nothing playing, no load in flight
	StateLoading              // Track change in progress, awaiting readiness
	StatePlaying              // Current track is playing
	StatePaused               // Current track is paused
	StateEnded                // Session torn down
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}
