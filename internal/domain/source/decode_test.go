package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func decodeItem(t *testing.T, doc string) Item {
	t.Helper()
	var item Item
	require.NoError(t, yaml.Unmarshal([]byte(doc), &item))
	return item
}

func TestItem_UnmarshalYAML_DirectTrackList(t *testing.T) {
	item := decodeItem(t, `
id: album-1
type: album
name: The Dark Side of the Moon
artist: Pink Floyd
year: 1973
image: https://img/album-1.jpg
genres: [progressive rock]
tracks:
  - id: t1
    name: Speak to Me
    duration_ms: 90000
    popularity: 70
  - id: t2
    name: Breathe
    explicit: true
    year: 2011
`)

	assert.Equal(t, "album-1", item.ID)
	assert.Equal(t, TypeAlbum, item.Type)
	assert.Equal(t, "Pink Floyd", item.Owner)
	require.Len(t, item.Tracks, 2)

	first := item.Tracks[0]
	assert.Equal(t, "t1", first.ID)
	assert.Equal(t, 90*time.Second, first.Duration)
	assert.Equal(t, 70, first.Popularity)
	assert.Equal(t, 1973, first.Year, "album year fills tracks without their own")
	assert.Equal(t, "The Dark Side of the Moon", first.Album)
	assert.Equal(t, "https://img/album-1.jpg", first.AlbumArtURL)
	assert.Equal(t, "progressive rock", first.Genre)

	assert.Equal(t, 2011, item.Tracks[1].Year)
	assert.True(t, item.Tracks[1].Explicit)
}

func TestItem_UnmarshalYAML_WrappedTracks(t *testing.T) {
	// Spotify playlist shape, written as JSON.
	item := decodeItem(t, `{
		"id": "pl-1",
		"type": "playlist",
		"name": "Road Trip",
		"owner": {"id": "u1", "display_name": "Alice"},
		"tracks": {
			"total": 3,
			"items": [
				{"added_at": "2024-01-01", "track": {
					"id": "t1", "name": "Song A", "popularity": 85,
					"artists": [{"name": "Artist A"}, {"name": "Guest"}],
					"album": {"name": "Album A", "release_date": "2015-06-01", "images": [{"url": "https://img/a.jpg"}]}
				}},
				{"track": {"id": "t2", "name": "Song B", "artists": ["Artist B"]}},
				"not-a-track"
			]
		}
	}`)

	assert.Equal(t, "Alice", item.Owner)
	require.Len(t, item.Tracks, 2, "malformed entries are skipped")

	a := item.Tracks[0]
	assert.Equal(t, "Artist A", a.Artist)
	assert.Equal(t, "Album A", a.Album)
	assert.Equal(t, "2015-06-01", a.ReleaseDate)
	assert.Equal(t, 2015, a.ResolveYear())
	assert.Equal(t, "https://img/a.jpg", a.AlbumArtURL)
	assert.Equal(t, "Artist B", item.Tracks[1].Artist)
}

func TestItem_UnmarshalYAML_ArtistTopTracks(t *testing.T) {
	item := decodeItem(t, `
id: artist-1
type: artist
name: Daft Punk
genres: [french house, electro]
topTracks:
  - {id: t1, name: One More Time}
  - {id: t2, name: Around the World, genre: house}
`)

	require.Len(t, item.GetTracks(), 2)
	assert.Equal(t, "Daft Punk", item.TopTracks[0].Artist)
	assert.Equal(t, "french house", item.TopTracks[0].Genre)
	assert.Equal(t, "house", item.TopTracks[1].Genre)

	snake := decodeItem(t, `
id: artist-2
type: artist
name: Air
top_tracks: [{id: t3, name: La femme d'argent}]
`)
	assert.Len(t, snake.GetTracks(), 1)
}

func TestItem_UnmarshalYAML_MalformedCollections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing tracks", "id: a\ntype: album\nname: A\n"},
		{"null tracks", "id: a\ntype: album\nname: A\ntracks: null\n"},
		{"scalar tracks", "id: a\ntype: album\nname: A\ntracks: 42\n"},
		{"mapping without items", "id: a\ntype: album\nname: A\ntracks: {total: 3}\n"},
		{"entries without identity", "id: a\ntype: album\nname: A\ntracks: [{popularity: 5}]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := decodeItem(t, tt.doc)
			assert.Empty(t, item.GetTracks())
		})
	}
}

func TestItem_UnmarshalYAML_BadFieldValues(t *testing.T) {
	item := decodeItem(t, `
id: a
type: playlist
name: A
tracks:
  - {id: t1, name: X, year: unknown, popularity: 250, explicit: maybe}
`)

	require.Len(t, item.Tracks, 1)
	assert.Equal(t, 0, item.Tracks[0].Year)
	assert.Equal(t, 100, item.Tracks[0].Popularity)
	assert.False(t, item.Tracks[0].Explicit)
}

func TestItem_UnmarshalYAML_Invalid(t *testing.T) {
	var item Item
	assert.Error(t, yaml.Unmarshal([]byte(`- just a list`), &item))
	assert.Error(t, yaml.Unmarshal([]byte(`{name: no id}`), &item))
}
