// Package source provides the SourceItem domain entity: an album, artist or
// playlist contributing tracks to the staging pool.
package source

import (
	"strings"

	"github.com/osa030/mixbox/internal/domain/track"
)

// Type represents the kind of a source item.
type Type string

const (
	TypeAlbum    Type = "album"
	TypeArtist   Type = "artist"
	TypePlaylist Type = "playlist"
)

// IsValid reports whether the type is one of the known source types.
func (t Type) IsValid() bool {
	_, ok := accessors[t]
	return ok
}

// Item represents an album, artist or playlist.
// Albums and playlists carry their track list in Tracks; artists carry
// their top tracks in TopTracks.
type Item struct {
	ID        string        // Catalog ID
	Type      Type          // Source type
	Name      string        // Display name
	Owner     string        // Playlist owner or album artist (optional)
	ImageURL  string        // Cover image URL (optional)
	Genres    []string      // Genres reported for the source (optional)
	Tracks    []track.Track // Album or playlist tracks
	TopTracks []track.Track // Artist top tracks
}

// accessors maps each source type to the field holding its tracks.
var accessors = map[Type]func(*Item) []track.Track{
	TypeAlbum:    func(i *Item) []track.Track { return i.Tracks },
	TypePlaylist: func(i *Item) []track.Track { return i.Tracks },
	TypeArtist:   func(i *Item) []track.Track { return i.TopTracks },
}

// GetTracks returns the item's tracks in their original order.
// Unknown types have no tracks.
func (i *Item) GetTracks() []track.Track {
	get, ok := accessors[i.Type]
	if !ok {
		return nil
	}
	return get(i)
}

// TrackCount returns the number of tracks the item contributes.
func (i *Item) TrackCount() int {
	return len(i.GetTracks())
}

// Ref identifies a source item at a provider.
type Ref struct {
	Type Type
	ID   string
}

// String returns the canonical "type:id" form.
func (r Ref) String() string {
	return string(r.Type) + ":" + r.ID
}

// ParseRef parses a source reference. Accepted forms:
//   - album:ID, artist:ID, playlist:ID
//   - spotify:album:ID (Spotify URI)
//   - https://open.spotify.com/album/ID?si=... (Spotify URL, optional intl-XX segment)
//
// Returns false when the input does not name a known source type.
func ParseRef(input string) (Ref, bool) {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "spotify:")

	if strings.Contains(input, "open.spotify.com/") {
		path := input[strings.Index(input, "open.spotify.com/")+len("open.spotify.com/"):]
		path = strings.Split(path, "?")[0]
		path = strings.TrimRight(path, "/")
		parts := strings.Split(path, "/")
		if len(parts) >= 2 && strings.HasPrefix(parts[0], "intl-") {
			parts = parts[1:]
		}
		if len(parts) != 2 {
			return Ref{}, false
		}
		return newRef(parts[0], parts[1])
	}

	typ, id, ok := strings.Cut(input, ":")
	if !ok {
		return Ref{}, false
	}
	return newRef(typ, id)
}

func newRef(typ, id string) (Ref, bool) {
	t := Type(strings.ToLower(typ))
	if !t.IsValid() || id == "" {
		return Ref{}, false
	}
	return Ref{Type: t, ID: id}, true
}
