package lastfm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestGetTopTags(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "track.getTopTags", r.URL.Query().Get("method"))
		assert.Equal(t, "test_artist", r.URL.Query().Get("artist"))
		assert.Equal(t, "test_track", r.URL.Query().Get("track"))
		assert.Equal(t, "test_key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		response := `{
			"toptags": {
				"tag": [
					{"name": "rock", "count": 100, "url": "http://last.fm/tag/rock"},
					{"name": "alternative", "count": 80, "url": "http://last.fm/tag/alternative"},
					{"name": "90s", "count": 20, "url": "http://last.fm/tag/90s"}
				]
			}
		}`
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, response)
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "test_key", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	ctx := context.Background()
	tags, err := client.GetTopTags(ctx, "test_track", "test_artist", 5)
	require.NoError(t, err)
	assert.Len(t, tags, 3)
	assert.Equal(t, "rock", tags[0].Name)
	assert.Equal(t, 100, tags[0].Count)

	// Second lookup is served from the cache, with a smaller limit applied.
	limited, err := client.GetTopTags(ctx, "test_track", "test_artist", 1)
	require.NoError(t, err)
	assert.Equal(t, tags[:1], limited)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetArtistTopTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "artist.getTopTags", r.URL.Query().Get("method"))
		assert.Equal(t, "Miles Davis", r.URL.Query().Get("artist"))
		fmt.Fprint(w, `{"toptags": {"tag": [{"name": "jazz", "count": 100}]}}`)
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "test_key", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	tags, err := client.GetArtistTopTags(context.Background(), "Miles Davis", 3)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "jazz", tags[0].Name)
}

func TestGetArtistTopTags_TagShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []Tag
	}{
		{
			name:     "single tag object",
			body:     `{"toptags": {"tag": {"name": "ambient", "count": 100}, "@attr": {"artist": "Eno"}}}`,
			expected: []Tag{{Name: "ambient", Count: 100}},
		},
		{
			name:     "empty array",
			body:     `{"toptags": {"tag": [], "@attr": {"artist": "Eno"}}}`,
			expected: []Tag{},
		},
		{
			name:     "empty string",
			body:     `{"toptags": {"tag": "", "@attr": {"artist": "Eno"}}}`,
			expected: []Tag{},
		},
		{
			name:     "missing tag",
			body:     `{"toptags": {"@attr": {"artist": "Eno"}}}`,
			expected: []Tag{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client, err := New(Config{APIKey: "test_key", BaseURL: server.URL + "/"})
			require.NoError(t, err)

			tags, err := client.GetArtistTopTags(context.Background(), "Eno", 5)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tags)
		})
	}
}

func TestGetTopTags_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "api error", status: http.StatusOK, body: `{"error": 6, "message": "Track not found"}`},
		{name: "http error", status: http.StatusInternalServerError, body: `oops`},
		{name: "malformed body", status: http.StatusOK, body: `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client, err := New(Config{APIKey: "test_key", BaseURL: server.URL + "/"})
			require.NoError(t, err)

			_, err = client.GetTopTags(context.Background(), "t", "a", 5)
			assert.Error(t, err)
		})
	}
}

func TestGetTopTags_MissingArguments(t *testing.T) {
	client, err := New(Config{APIKey: "test_key"})
	require.NoError(t, err)

	_, err = client.GetTopTags(context.Background(), "", "artist", 5)
	assert.Error(t, err)
	_, err = client.GetArtistTopTags(context.Background(), "", 5)
	assert.Error(t, err)
}

func TestGetTopTags_RateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"toptags": {"tag": [{"name": "jazz", "count": 10}]}}`)
	}))
	defer server.Close()

	// One request per minute: the first call spends the burst.
	client, err := New(Config{APIKey: "test_key", BaseURL: server.URL + "/", RequestsPerSecond: 1.0 / 60})
	require.NoError(t, err)

	_, err = client.GetArtistTopTags(context.Background(), "first", 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.GetArtistTopTags(ctx, "second", 1)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// Cached lookups do not wait.
	tags, err := client.GetArtistTopTags(ctx, "FIRST", 1)
	require.NoError(t, err)
	assert.Equal(t, "jazz", tags[0].Name)
}
