// Package spotify provides a client for the Spotify API.
package spotify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/mixbox/internal/domain/playlist"
	"github.com/osa030/mixbox/internal/domain/source"
	"github.com/osa030/mixbox/internal/domain/track"
)

// Spotify API page limits.
const (
	playlistPageLimit = 100
	albumPageLimit    = 50
	searchMaxLimit    = 50
	addTracksBatch    = 100
)

// Client is a Spotify API client.
type Client struct {
	client            *spotify.Client
	market            string
	maxPlaylistTracks int
	maxRetries        int
	retryDelay        time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID          string
	ClientSecret      string
	RefreshToken      string
	Market            string
	MaxPlaylistTracks int // Upper bound on tracks read from one playlist (0 = default)
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	// Create authenticator with required scopes
	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistReadPrivate,
		),
	)

	// Create token from refresh token
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	// Get HTTP client with auto-refresh capability
	httpClient := auth.Client(ctx, token)
	return newClient(spotify.New(httpClient), cfg), nil
}

func newClient(api *spotify.Client, cfg Config) *Client {
	market := cfg.Market
	if market == "" {
		market = "JP"
	}
	maxTracks := cfg.MaxPlaylistTracks
	if maxTracks <= 0 {
		maxTracks = 500
	}
	return &Client{
		client:            api,
		market:            market,
		maxPlaylistTracks: maxTracks,
		maxRetries:        3,
		retryDelay:        time.Second,
	}
}

// GetSource retrieves an album, artist or playlist with its tracks.
func (c *Client) GetSource(ctx context.Context, ref source.Ref) (*source.Item, error) {
	switch ref.Type {
	case source.TypeAlbum:
		return c.getAlbum(ctx, ref.ID)
	case source.TypeArtist:
		return c.getArtist(ctx, ref.ID)
	case source.TypePlaylist:
		return c.getPlaylist(ctx, ref.ID)
	default:
		return nil, errors.Newf("unsupported source type: %s", ref.Type)
	}
}

func (c *Client) getAlbum(ctx context.Context, albumID string) (*source.Item, error) {
	id := spotify.ID(extractID("album", albumID))

	var album *spotify.FullAlbum
	err := c.retry(func() error {
		a, err := c.client.GetAlbum(ctx, id, spotify.Market(c.market))
		if err != nil {
			return err
		}
		album = a
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get album")
	}

	simple := album.Tracks.Tracks
	for offset := len(simple); offset < int(album.Tracks.Total); {
		var page *spotify.SimpleTrackPage
		err := c.retry(func() error {
			p, err := c.client.GetAlbumTracks(ctx, id,
				spotify.Limit(albumPageLimit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get album tracks")
		}
		if len(page.Tracks) == 0 {
			break
		}
		simple = append(simple, page.Tracks...)
		offset += len(page.Tracks)
	}

	item := &source.Item{
		ID:       string(album.ID),
		Type:     source.TypeAlbum,
		Name:     album.Name,
		Owner:    artistNames(album.Artists),
		ImageURL: firstImage(album.Images),
		Genres:   album.Genres,
		Tracks:   make([]track.Track, 0, len(simple)),
	}
	for _, st := range simple {
		t := c.convertSimpleTrack(st)
		t.Album = album.Name
		t.AlbumArtURL = item.ImageURL
		t.ReleaseDate = album.ReleaseDate
		t.Year = track.ParseYear(album.ReleaseDate)
		if len(album.Genres) > 0 {
			t.Genre = album.Genres[0]
		}
		item.Tracks = append(item.Tracks, t)
	}
	return item, nil
}

func (c *Client) getArtist(ctx context.Context, artistID string) (*source.Item, error) {
	id := spotify.ID(extractID("artist", artistID))

	var artist *spotify.FullArtist
	err := c.retry(func() error {
		a, err := c.client.GetArtist(ctx, id)
		if err != nil {
			return err
		}
		artist = a
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get artist")
	}

	var top []spotify.FullTrack
	err = c.retry(func() error {
		tt, err := c.client.GetArtistsTopTracks(ctx, id, c.market)
		if err != nil {
			return err
		}
		top = tt
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get artist top tracks")
	}

	item := &source.Item{
		ID:        string(artist.ID),
		Type:      source.TypeArtist,
		Name:      artist.Name,
		ImageURL:  firstImage(artist.Images),
		Genres:    artist.Genres,
		TopTracks: make([]track.Track, 0, len(top)),
	}
	for i := range top {
		t := c.convertTrack(&top[i])
		if t.Genre == "" && len(artist.Genres) > 0 {
			t.Genre = artist.Genres[0]
		}
		item.TopTracks = append(item.TopTracks, t)
	}
	return item, nil
}

func (c *Client) getPlaylist(ctx context.Context, playlistID string) (*source.Item, error) {
	id := spotify.ID(extractID("playlist", playlistID))
	if id == "" {
		return nil, errors.New("invalid playlist URL")
	}

	var pl *spotify.FullPlaylist
	err := c.retry(func() error {
		p, err := c.client.GetPlaylist(ctx, id, spotify.Fields("id,name,owner(id,display_name),images"))
		if err != nil {
			return err
		}
		pl = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playlist")
	}

	tracks, err := c.getPlaylistTracks(ctx, id)
	if err != nil {
		return nil, err
	}

	owner := pl.Owner.DisplayName
	if owner == "" {
		owner = pl.Owner.ID
	}
	return &source.Item{
		ID:       string(pl.ID),
		Type:     source.TypePlaylist,
		Name:     pl.Name,
		Owner:    owner,
		ImageURL: firstImage(pl.Images),
		Tracks:   tracks,
	}, nil
}

// getPlaylistTracks pages through a playlist, up to maxPlaylistTracks.
func (c *Client) getPlaylistTracks(ctx context.Context, id spotify.ID) ([]track.Track, error) {
	tracks := make([]track.Track, 0)
	offset := 0

	for len(tracks) < c.maxPlaylistTracks {
		var page *spotify.PlaylistItemPage
		err := c.retry(func() error {
			p, err := c.client.GetPlaylistItems(ctx, id,
				spotify.Limit(playlistPageLimit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get playlist items")
		}

		for _, item := range page.Items {
			// Only process tracks (exclude episodes)
			if item.Track.Track != nil && item.Track.Track.ID != "" {
				tracks = append(tracks, c.convertTrack(item.Track.Track))
			}
		}

		if len(page.Items) < playlistPageLimit {
			break
		}
		offset += playlistPageLimit
	}

	if len(tracks) > c.maxPlaylistTracks {
		tracks = tracks[:c.maxPlaylistTracks]
	}
	return tracks, nil
}

// Search searches albums, artists or playlists. The returned items carry
// no tracks; fetch them with GetSource. An empty typ searches all three.
func (c *Client) Search(ctx context.Context, query string, typ source.Type, limit int) ([]source.Item, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > searchMaxLimit {
		limit = searchMaxLimit
	}

	var st spotify.SearchType
	switch typ {
	case source.TypeAlbum:
		st = spotify.SearchTypeAlbum
	case source.TypeArtist:
		st = spotify.SearchTypeArtist
	case source.TypePlaylist:
		st = spotify.SearchTypePlaylist
	default:
		st = spotify.SearchTypeAlbum | spotify.SearchTypeArtist | spotify.SearchTypePlaylist
	}

	var result *spotify.SearchResult
	err := c.retry(func() error {
		r, err := c.client.Search(ctx, query, st, spotify.Limit(limit), spotify.Market(c.market))
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search")
	}

	items := make([]source.Item, 0)
	if result.Albums != nil {
		for _, a := range result.Albums.Albums {
			items = append(items, source.Item{
				ID:       string(a.ID),
				Type:     source.TypeAlbum,
				Name:     a.Name,
				Owner:    artistNames(a.Artists),
				ImageURL: firstImage(a.Images),
			})
		}
	}
	if result.Artists != nil {
		for _, a := range result.Artists.Artists {
			items = append(items, source.Item{
				ID:       string(a.ID),
				Type:     source.TypeArtist,
				Name:     a.Name,
				ImageURL: firstImage(a.Images),
				Genres:   a.Genres,
			})
		}
	}
	if result.Playlists != nil {
		for _, p := range result.Playlists.Playlists {
			items = append(items, source.Item{
				ID:       string(p.ID),
				Type:     source.TypePlaylist,
				Name:     p.Name,
				Owner:    p.Owner.DisplayName,
				ImageURL: firstImage(p.Images),
			})
		}
	}
	return items, nil
}

// MyPlaylists lists the current user's playlists (without tracks).
func (c *Client) MyPlaylists(ctx context.Context, limit int) ([]source.Item, error) {
	if limit <= 0 || limit > searchMaxLimit {
		limit = searchMaxLimit
	}

	var page *spotify.SimplePlaylistPage
	err := c.retry(func() error {
		p, err := c.client.CurrentUsersPlaylists(ctx, spotify.Limit(limit))
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get current user's playlists")
	}

	items := make([]source.Item, 0, len(page.Playlists))
	for _, p := range page.Playlists {
		items = append(items, source.Item{
			ID:       string(p.ID),
			Type:     source.TypePlaylist,
			Name:     p.Name,
			Owner:    p.Owner.DisplayName,
			ImageURL: firstImage(p.Images),
		})
	}
	return items, nil
}

// ExportPlaylist creates a playlist for the current user and adds the
// playlist's tracks. Tracks without a URI are skipped.
// Returns the created playlist's ID and URL.
func (c *Client) ExportPlaylist(ctx context.Context, pl *playlist.Playlist) (string, string, error) {
	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to get current user")
	}

	var created *spotify.FullPlaylist
	err = c.retry(func() error {
		p, err := c.client.CreatePlaylistForUser(ctx, user.ID, pl.Name, pl.Description, pl.Public, false)
		if err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return "", "", errors.Wrap(err, "failed to create playlist")
	}

	id := string(created.ID)
	if err := c.AddTracksToPlaylist(ctx, id, pl.TrackURIs()); err != nil {
		return id, c.GetPlaylistURL(id), err
	}
	return id, c.GetPlaylistURL(id), nil
}

// AddTracksToPlaylist adds tracks to a playlist.
// trackIDs can be Spotify IDs, URLs, or URIs.
func (c *Client) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	ids := make([]spotify.ID, 0, len(trackIDs))
	for _, trackID := range trackIDs {
		if id := extractID("track", trackID); id != "" {
			ids = append(ids, spotify.ID(id))
		}
	}

	// Spotify allows max 100 tracks per request
	for i := 0; i < len(ids); i += addTracksBatch {
		end := i + addTracksBatch
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[i:end]

		err := c.retry(func() error {
			_, err := c.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...)
			return err
		})
		if err != nil {
			return errors.Wrap(err, "failed to add tracks to playlist")
		}
	}

	return nil
}

// GetPlaylistURL returns the Spotify URL for a playlist.
func (c *Client) GetPlaylistURL(playlistID string) string {
	return fmt.Sprintf("https://open.spotify.com/playlist/%s", playlistID)
}

// convertTrack converts a Spotify FullTrack to a domain Track.
func (c *Client) convertTrack(t *spotify.FullTrack) track.Track {
	out := c.convertSimpleTrack(t.SimpleTrack)
	out.Album = t.Album.Name
	out.AlbumArtURL = firstImage(t.Album.Images)
	out.ReleaseDate = t.Album.ReleaseDate
	out.Year = track.ParseYear(t.Album.ReleaseDate)
	out.Popularity = int(t.Popularity)
	return out
}

// convertSimpleTrack converts the fields shared by every Spotify track object.
func (c *Client) convertSimpleTrack(t spotify.SimpleTrack) track.Track {
	var artist string
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	return track.Track{
		ID:       string(t.ID),
		Name:     t.Name,
		Artist:   artist,
		Duration: time.Duration(t.Duration) * time.Millisecond,
		Explicit: t.Explicit,
		URI:      string(t.URI),
	}
}

func artistNames(artists []spotify.SimpleArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

func firstImage(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

// retry retries an operation with linear backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractID extracts the ID of the given kind ("track", "album", ...) from a
// Spotify URL or URI. Any other input is assumed to already be an ID.
func extractID(kind, input string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:<kind>:ID
	if prefix := "spotify:" + kind + ":"; strings.HasPrefix(input, prefix) {
		return strings.TrimPrefix(input, prefix)
	}

	// Handle URL format: https://open.spotify.com/<kind>/ID or https://open.spotify.com/intl-XX/<kind>/ID
	segment := "/" + kind + "/"
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, segment) {
		parts := strings.Split(input, segment)
		// Remove query parameters and trailing slashes
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	return input
}
