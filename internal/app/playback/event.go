package playback

import "github.com/osa030/mixbox/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackChanged  EventType = iota // Current track or index changed
	EventStateChanged                   // Playing/paused state changed
	EventQueueReplaced                  // Queue replaced wholesale
	EventQueueChanged                   // Queue edited (reorder, remove, clear)
	EventQueueEnded                     // Last entry finished under the stop policy
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventStateChanged:
		return "state_changed"
	case EventQueueReplaced:
		return "queue_replaced"
	case EventQueueChanged:
		return "queue_changed"
	case EventQueueEnded:
		return "queue_ended"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type        EventType
	Track       *track.Track // Current track (nil when none)
	Index       int          // Current index (-1 when none)
	State       State        // Current playback state
	QueueLength int
}
