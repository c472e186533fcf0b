package source

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/osa030/mixbox/internal/domain/track"
)

// UnmarshalYAML decodes a source item from catalog data (YAML or JSON).
//
// Nested track collections are decoded leniently: a direct list of tracks,
// a list of wrappers holding a "track" field, or a paging object with an
// "items" list are all accepted. Anything else decodes as an empty
// collection, and malformed entries inside a collection are skipped.
func (i *Item) UnmarshalYAML(value *yaml.Node) error {
	fields := mapping(value)
	if fields == nil {
		return errors.Newf("source item must be a mapping (line %d)", value.Line)
	}

	item := Item{
		ID:   scalarString(fields["id"]),
		Type: Type(strings.ToLower(scalarString(fields["type"]))),
		Name: scalarString(fields["name"]),
	}
	if item.ID == "" {
		return errors.Newf("source item has no id (line %d)", value.Line)
	}

	item.Owner = ownerName(fields["owner"])
	if item.Owner == "" {
		item.Owner = firstArtist(fields)
	}
	item.ImageURL = imageURL(fields)
	item.Genres = stringList(fields["genres"])

	// Album-level release info fills tracks that carry none of their own.
	albumYear := scalarInt(fields["year"])
	albumRelease := scalarString(fields["release_date"])

	item.Tracks = decodeCollection(fields["tracks"])
	item.TopTracks = decodeCollection(first(fields, "topTracks", "top_tracks"))

	if item.Type == TypeAlbum {
		for idx := range item.Tracks {
			t := &item.Tracks[idx]
			if t.Year == 0 && t.ReleaseDate == "" {
				t.Year = albumYear
				t.ReleaseDate = albumRelease
			}
			if t.Album == "" {
				t.Album = item.Name
			}
			if t.Artist == "" {
				t.Artist = item.Owner
			}
			if t.AlbumArtURL == "" {
				t.AlbumArtURL = item.ImageURL
			}
			if t.Genre == "" && len(item.Genres) > 0 {
				t.Genre = item.Genres[0]
			}
		}
	}
	if item.Type == TypeArtist {
		for idx := range item.TopTracks {
			t := &item.TopTracks[idx]
			if t.Artist == "" {
				t.Artist = item.Name
			}
			if t.Genre == "" && len(item.Genres) > 0 {
				t.Genre = item.Genres[0]
			}
		}
	}

	*i = item
	return nil
}

// DecodeTracks decodes a nested track collection with the same lenient rules
// used for source items.
func DecodeTracks(node *yaml.Node) []track.Track {
	return decodeCollection(node)
}

// decodeCollection never fails: unsupported shapes yield an empty slice.
func decodeCollection(node *yaml.Node) []track.Track {
	node = resolve(node)
	if node == nil {
		return []track.Track{}
	}

	switch node.Kind {
	case yaml.SequenceNode:
		tracks := make([]track.Track, 0, len(node.Content))
		for _, entry := range node.Content {
			fields := mapping(entry)
			if fields == nil {
				continue
			}
			// Wrapper shape: {track: {...}, added_at: ...}
			if wrapped := mapping(fields["track"]); wrapped != nil {
				fields = wrapped
			}
			t, ok := decodeTrack(fields)
			if !ok {
				continue
			}
			tracks = append(tracks, t)
		}
		return tracks
	case yaml.MappingNode:
		// Paging shape: {items: [...], total: N}
		if items, ok := mapping(node)["items"]; ok {
			return decodeCollection(items)
		}
	}
	return []track.Track{}
}

func decodeTrack(fields map[string]*yaml.Node) (track.Track, bool) {
	t := track.Track{
		ID:          scalarString(fields["id"]),
		Name:        scalarString(fields["name"]),
		Artist:      scalarString(fields["artist"]),
		Year:        scalarInt(fields["year"]),
		ReleaseDate: scalarString(fields["release_date"]),
		Explicit:    scalarBool(fields["explicit"]),
		Popularity:  clampPopularity(scalarInt(fields["popularity"])),
		URI:         scalarString(fields["uri"]),
		AlbumArtURL: scalarString(first(fields, "albumArt", "album_art", "image")),
	}
	if t.ID == "" && t.Name == "" {
		return track.Track{}, false
	}

	if t.Artist == "" {
		t.Artist = firstArtist(fields)
	}

	ms := scalarInt(first(fields, "duration_ms", "durationMs", "duration"))
	t.Duration = time.Duration(ms) * time.Millisecond

	t.Genre = scalarString(fields["genre"])
	if t.Genre == "" {
		if genres := stringList(fields["genres"]); len(genres) > 0 {
			t.Genre = genres[0]
		}
	}

	// album is either a plain name or a nested album object.
	if album := resolve(fields["album"]); album != nil {
		if album.Kind == yaml.ScalarNode {
			t.Album = album.Value
		} else if af := mapping(album); af != nil {
			t.Album = scalarString(af["name"])
			if t.ReleaseDate == "" {
				t.ReleaseDate = scalarString(af["release_date"])
			}
			if t.AlbumArtURL == "" {
				t.AlbumArtURL = imageURL(af)
			}
		}
	}

	return t, true
}

// resolve follows document and alias nodes.
func resolve(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch node.Kind {
		case yaml.DocumentNode:
			if len(node.Content) == 0 {
				return nil
			}
			node = node.Content[0]
		case yaml.AliasNode:
			node = node.Alias
		default:
			return node
		}
	}
	return nil
}

// mapping returns the key/value pairs of a mapping node, or nil for any other kind.
func mapping(node *yaml.Node) map[string]*yaml.Node {
	node = resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		fields[node.Content[i].Value] = node.Content[i+1]
	}
	return fields
}

func first(fields map[string]*yaml.Node, keys ...string) *yaml.Node {
	for _, k := range keys {
		if n, ok := fields[k]; ok {
			return n
		}
	}
	return nil
}

func scalarString(node *yaml.Node) string {
	node = resolve(node)
	if node == nil || node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return ""
	}
	return node.Value
}

func scalarInt(node *yaml.Node) int {
	s := scalarString(node)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func scalarBool(node *yaml.Node) bool {
	b, err := strconv.ParseBool(scalarString(node))
	return err == nil && b
}

func stringList(node *yaml.Node) []string {
	node = resolve(node)
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(node.Content))
	for _, n := range node.Content {
		if s := scalarString(n); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// firstArtist reads "artist" as a string or "artists" as a list of names or objects.
func firstArtist(fields map[string]*yaml.Node) string {
	if s := scalarString(fields["artist"]); s != "" {
		return s
	}
	artists := resolve(fields["artists"])
	if artists == nil || artists.Kind != yaml.SequenceNode {
		return ""
	}
	for _, a := range artists.Content {
		if s := scalarString(a); s != "" {
			return s
		}
		if af := mapping(a); af != nil {
			if s := scalarString(af["name"]); s != "" {
				return s
			}
		}
	}
	return ""
}

func ownerName(node *yaml.Node) string {
	if s := scalarString(node); s != "" {
		return s
	}
	if of := mapping(node); of != nil {
		if s := scalarString(of["display_name"]); s != "" {
			return s
		}
		return scalarString(of["id"])
	}
	return ""
}

// imageURL reads "image" as a string or the first entry of "images".
func imageURL(fields map[string]*yaml.Node) string {
	if s := scalarString(fields["image"]); s != "" {
		return s
	}
	images := resolve(fields["images"])
	if images == nil || images.Kind != yaml.SequenceNode || len(images.Content) == 0 {
		return ""
	}
	return scalarString(mapping(images.Content[0])["url"])
}

func clampPopularity(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
