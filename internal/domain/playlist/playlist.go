// Package playlist provides the Playlist domain entity used when a generated
// queue is saved back to the catalog.
package playlist

import (
	"time"

	"github.com/osa030/mixbox/internal/domain/track"
)

// Playlist represents a catalog playlist.
type Playlist struct {
	ID          string        // Catalog playlist ID (empty until created)
	Name        string        // Playlist name
	Description string        // Playlist description
	Public      bool          // Visibility
	URL         string        // Catalog URL (empty until created)
	Tracks      []track.Track // Tracks in the playlist
}

// FromQueue builds an unsaved playlist holding a copy of the queue.
func FromQueue(name, description string, public bool, queue []track.Track) *Playlist {
	tracks := make([]track.Track, len(queue))
	copy(tracks, queue)
	return &Playlist{
		Name:        name,
		Description: description,
		Public:      public,
		Tracks:      tracks,
	}
}

// TrackURIs returns the URIs of all tracks, in order.
// Tracks without a URI cannot be added to a playlist and are skipped.
func (p *Playlist) TrackURIs() []string {
	uris := make([]string, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		if t.URI != "" {
			uris = append(uris, t.URI)
		}
	}
	return uris
}

// TotalDuration returns the total duration of all tracks.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}
