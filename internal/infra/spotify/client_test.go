package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"

	"github.com/osa030/mixbox/internal/domain/source"
)

func TestExtractID_Playlist(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Spotify URI format",
			input:    "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Spotify URL format",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Spotify URL with query params",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Plain playlist ID",
			input:    "37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "HTTP URL (not HTTPS)",
			input:    "http://open.spotify.com/playlist/testID",
			expected: "testID",
		},
		{
			name:     "URL with multiple query params",
			input:    "https://open.spotify.com/playlist/abc123?si=xyz&utm_source=copy",
			expected: "abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractID("playlist", tt.input)
			assert.Equal(t, tt.expected, result,
				"extractID(playlist, %s) should return %s", tt.input, tt.expected)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "rate limit error with 429",
			err:      errors.New("Error 429: rate limit exceeded"),
			expected: true,
		},
		{
			name:     "rate limit text",
			err:      errors.New("rate limit exceeded"),
			expected: true,
		},
		{
			name:     "server error 500",
			err:      errors.New("Error 500: internal server error"),
			expected: true,
		},
		{
			name:     "server error 502",
			err:      errors.New("502 Bad Gateway"),
			expected: true,
		},
		{
			name:     "server error 503",
			err:      errors.New("503 Service Unavailable"),
			expected: true,
		},
		{
			name:     "server error 504",
			err:      errors.New("504 Gateway Timeout"),
			expected: true,
		},
		{
			name:     "client error 400",
			err:      errors.New("400 Bad Request"),
			expected: false,
		},
		{
			name:     "not found error",
			err:      errors.New("404 not found"),
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("something went wrong"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isRetryable(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExtractID_OtherKinds(t *testing.T) {
	tests := []struct {
		kind     string
		input    string
		expected string
	}{
		{kind: "track", input: "spotify:track:4uLU6hMCjMI75M1A2tKUQC", expected: "4uLU6hMCjMI75M1A2tKUQC"},
		{kind: "track", input: "https://open.spotify.com/intl-ja/track/abc/?si=1", expected: "abc"},
		{kind: "album", input: "https://open.spotify.com/album/alb1", expected: "alb1"},
		{kind: "artist", input: "spotify:artist:art1", expected: "art1"},
		{kind: "album", input: "spotify:artist:art1", expected: "spotify:artist:art1"},
	}

	for _, tt := range tests {
		t.Run(tt.kind+" "+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractID(tt.kind, tt.input))
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api := spotify.New(server.Client(), spotify.WithBaseURL(server.URL+"/"))
	c := newClient(api, Config{Market: "US"})
	c.retryDelay = time.Millisecond
	return c
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func TestClient_GetSource_Album(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/albums/alb1"), r.URL.Path)
		assert.Equal(t, "US", r.URL.Query().Get("market"))
		writeJSON(w, `{
			"id": "alb1",
			"name": "Blue Train",
			"release_date": "1957-09-15",
			"artists": [{"id": "a1", "name": "John Coltrane"}],
			"images": [{"url": "https://img/1", "height": 640, "width": 640}],
			"genres": ["jazz"],
			"tracks": {
				"total": 2,
				"items": [
					{"id": "t1", "name": "Blue Train", "duration_ms": 643000, "explicit": false,
					 "uri": "spotify:track:t1", "artists": [{"id": "a1", "name": "John Coltrane"}]},
					{"id": "t2", "name": "Moment's Notice", "duration_ms": 550000, "explicit": true,
					 "uri": "spotify:track:t2", "artists": [{"id": "a1", "name": "John Coltrane"}]}
				]
			}
		}`)
	})

	item, err := c.GetSource(context.Background(), source.Ref{Type: source.TypeAlbum, ID: "spotify:album:alb1"})
	require.NoError(t, err)

	assert.Equal(t, "alb1", item.ID)
	assert.Equal(t, source.TypeAlbum, item.Type)
	assert.Equal(t, "John Coltrane", item.Owner)
	require.Len(t, item.Tracks, 2)

	first := item.Tracks[0]
	assert.Equal(t, "t1", first.ID)
	assert.Equal(t, "Blue Train", first.Album)
	assert.Equal(t, 1957, first.Year)
	assert.Equal(t, "jazz", first.Genre)
	assert.Equal(t, "https://img/1", first.AlbumArtURL)
	assert.Equal(t, 643*time.Second, first.Duration)
	assert.Equal(t, "spotify:track:t1", first.URI)
	assert.True(t, item.Tracks[1].Explicit)
}

func TestClient_GetSource_Artist(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/artists/art1/top-tracks"):
			writeJSON(w, `{"tracks": [
				{"id": "t9", "name": "So What", "popularity": 77, "duration_ms": 562000,
				 "uri": "spotify:track:t9", "artists": [{"id": "art1", "name": "Miles Davis"}],
				 "album": {"id": "kob", "name": "Kind of Blue", "release_date": "1959-08-17", "images": []}}
			]}`)
		case strings.HasSuffix(r.URL.Path, "/artists/art1"):
			writeJSON(w, `{"id": "art1", "name": "Miles Davis", "genres": ["cool jazz", "bebop"], "images": []}`)
		default:
			http.NotFound(w, r)
		}
	})

	item, err := c.GetSource(context.Background(), source.Ref{Type: source.TypeArtist, ID: "art1"})
	require.NoError(t, err)

	assert.Equal(t, "Miles Davis", item.Name)
	assert.Empty(t, item.Tracks)
	require.Len(t, item.TopTracks, 1)
	top := item.TopTracks[0]
	assert.Equal(t, "Kind of Blue", top.Album)
	assert.Equal(t, 1959, top.Year)
	assert.Equal(t, 77, top.Popularity)
	assert.Equal(t, "cool jazz", top.Genre)
}

func TestClient_GetSource_NotRetryable(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, `{"error": {"status": 404, "message": "non existing id"}}`)
	})

	_, err := c.GetSource(context.Background(), source.Ref{Type: source.TypeAlbum, ID: "missing"})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_GetSource_UnsupportedType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s", r.URL.Path)
	})

	_, err := c.GetSource(context.Background(), source.Ref{Type: "podcast", ID: "x"})
	assert.Error(t, err)
}
