package player

// EventType represents a normalized embedded-player event.
// The adapter is the only place provider callbacks are translated into
// this vocabulary.
type EventType int

const (
	EventReady   EventType = iota // Instance finished async construction
	EventPlaying                  // Instance started or resumed playback
	EventPaused                   // Instance paused playback
	EventEnded                    // Instance reached the end of the video
	EventError                    // Instance reported a fault (see Code)
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventReady:
		return "ready"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// CodeCreationFailed is the error code reported when instance construction
// fails synchronously, before the provider assigns a real code.
const CodeCreationFailed = -1

// Event is a normalized event tagged with its originating handle.
// Consumers must compare Handle against their current live handle and
// discard mismatches; events outlive the handles they were produced for.
type Event struct {
	Type   EventType
	Handle *Handle
	Code   int // Provider error code, set for EventError only
}
