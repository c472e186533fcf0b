// Package lastfm provides a client for the Last.fm API.
package lastfm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

	// DefaultRequestsPerSecond stays within the Last.fm API usage limits.
	DefaultRequestsPerSecond = 5.0
)

// Client is a Last.fm API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	// Cache for tag lookups, keyed by method and arguments
	tagCache map[string][]Tag
	cacheMu  sync.RWMutex
}

// Config represents Last.fm client configuration.
type Config struct {
	APIKey  string
	BaseURL string        // Defaults to the public API endpoint
	Timeout time.Duration // Defaults to 10s

	RequestsPerSecond float64 // Defaults to DefaultRequestsPerSecond
}

// Tag represents a Last.fm tag.
type Tag struct {
	Name  string
	Count int // Tag count/frequency
}

// topTagsResponse is shared by track.getTopTags and artist.getTopTags.
type topTagsResponse struct {
	TopTags struct {
		Tag tagList `json:"tag"`
	} `json:"toptags"`
}

type tagEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// tagList decodes the "tag" field, which Last.fm sends as an object instead
// of an array when there is exactly one tag.
type tagList []tagEntry

func (l *tagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte(`""`)):
		*l = nil
		return nil
	case bytes.HasPrefix(data, []byte("{")):
		var one tagEntry
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = tagList{one}
		return nil
	}

	var many []tagEntry
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// apiError represents an error response from Last.fm API.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		tagCache:   make(map[string][]Tag),
	}, nil
}

// GetTopTags retrieves top tags for a track from Last.fm.
// Reference: https://www.last.fm/api/show/track.getTopTags
func (c *Client) GetTopTags(ctx context.Context, trackName, artistName string, limit int) ([]Tag, error) {
	if trackName == "" || artistName == "" {
		return nil, errors.New("track name and artist name are required")
	}

	params := url.Values{}
	params.Set("method", "track.getTopTags")
	params.Set("artist", artistName)
	params.Set("track", trackName)
	params.Set("autocorrect", "1")

	return c.topTags(ctx, "tracktag:"+artistName+":"+trackName, params, limit)
}

// GetArtistTopTags retrieves top tags for an artist from Last.fm.
// Reference: https://www.last.fm/api/show/artist.getTopTags
func (c *Client) GetArtistTopTags(ctx context.Context, artistName string, limit int) ([]Tag, error) {
	if artistName == "" {
		return nil, errors.New("artist name is required")
	}

	params := url.Values{}
	params.Set("method", "artist.getTopTags")
	params.Set("artist", artistName)
	params.Set("autocorrect", "1")

	return c.topTags(ctx, "artisttag:"+artistName, params, limit)
}

// topTags fetches a tag list, serving repeated lookups from the cache.
// The cache holds the full list; limit is applied on the way out.
func (c *Client) topTags(ctx context.Context, cacheKey string, params url.Values, limit int) ([]Tag, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	cacheKey = strings.ToLower(cacheKey)

	c.cacheMu.RLock()
	tags, ok := c.tagCache[cacheKey]
	c.cacheMu.RUnlock()

	if ok {
		zlog.Debug().Msgf("using cached tags: %s", cacheKey)
	} else {
		var response topTagsResponse
		if err := c.get(ctx, params, &response); err != nil {
			return nil, err
		}

		tags = make([]Tag, 0, len(response.TopTags.Tag))
		for _, t := range response.TopTags.Tag {
			tags = append(tags, Tag{Name: t.Name, Count: t.Count})
		}

		c.cacheMu.Lock()
		c.tagCache[cacheKey] = tags
		c.cacheMu.Unlock()
		zlog.Debug().Msgf("cached tags: %s (count: %d)", cacheKey, len(tags))
	}

	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

// get performs an API call and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limit wait")
	}

	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	// Check for Last.fm API errors
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		return errors.Errorf("last.fm API error %d: %s", apiErr.Error, apiErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("last.fm API returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to parse %s response", params.Get("method")))
	}
	return nil
}
