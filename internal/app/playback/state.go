// Package playback provides the queue and the playback state machine.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No current track
	StatePlaying              // Current track is playing
	StatePaused               // Current track is paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// EndOfQueue selects what happens when the last queue entry finishes.
type EndOfQueue string

const (
	EndOfQueueStop   EndOfQueue = "stop"   // Pause on the last entry
	EndOfQueueLoop   EndOfQueue = "loop"   // Jump back to the first entry
	EndOfQueueRepeat EndOfQueue = "repeat" // Restart the last entry
)

// IsValid reports whether p is a known policy.
func (p EndOfQueue) IsValid() bool {
	switch p {
	case EndOfQueueStop, EndOfQueueLoop, EndOfQueueRepeat:
		return true
	default:
		return false
	}
}
