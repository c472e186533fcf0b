package notification

import (
	"time"

	"github.com/osa030/mixbox/internal/app/playback"
	"github.com/osa030/mixbox/internal/domain/track"
)

// Notification is a playback event as delivered to subscribers.
type Notification struct {
	SequenceNo  uint64
	Type        string
	Track       *track.Track
	Index       int
	State       string
	QueueLength int
	At          time.Time
}

// FromEvent converts a playback event into a notification.
// The sequence number is assigned on broadcast.
func FromEvent(e playback.Event, at time.Time) *Notification {
	return &Notification{
		Type:        e.Type.String(),
		Track:       e.Track,
		Index:       e.Index,
		State:       e.State.String(),
		QueueLength: e.QueueLength,
		At:          at,
	}
}
