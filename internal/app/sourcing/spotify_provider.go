package sourcing

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
	spotifyapi "github.com/zmb3/spotify/v2"

	"github.com/osa030/mixbox/internal/domain/source"
)

type SpotifyProviderConfig struct {
	SearchLimit int `yaml:"search_limit" mapstructure:"search_limit" default:"20" validate:"gte=1,lte=50"`
}

// SpotifyProvider resolves sources through the Spotify API.
type SpotifyProvider struct {
	spotify SpotifyClient
	config  *SpotifyProviderConfig
}

// NewSpotifyProvider creates a new SpotifyProvider.
func NewSpotifyProvider(spotify SpotifyClient, settings map[string]any) (*SpotifyProvider, error) {
	if spotify == nil {
		return nil, errors.New("spotify client is required")
	}

	var config SpotifyProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("spotify provider config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &SpotifyProvider{spotify: spotify, config: &config}, nil
}

// Get fetches the source from Spotify.
func (p *SpotifyProvider) Get(ctx context.Context, ref source.Ref) (*source.Item, error) {
	item, err := p.spotify.GetSource(ctx, ref)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Wrapf(ErrNotFound, "%s: %v", ref, err)
		}
		return nil, err
	}
	return item, nil
}

// Search searches Spotify. limit <= 0 uses the configured search limit.
func (p *SpotifyProvider) Search(ctx context.Context, query string, typ source.Type, limit int) ([]source.Item, error) {
	if limit <= 0 {
		limit = p.config.SearchLimit
	}
	return p.spotify.Search(ctx, query, typ, limit)
}

// Name returns the provider name.
func (p *SpotifyProvider) Name() string {
	return "spotify"
}

// isNotFound reports whether err is a Spotify API error for a missing or
// malformed ID. Spotify answers unknown IDs with 404 and malformed ones with
// 400 "invalid id" style messages.
func isNotFound(err error) bool {
	var apiErr spotifyapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusNotFound:
		return true
	case http.StatusBadRequest:
		msg := strings.ToLower(apiErr.Message)
		return strings.Contains(msg, "invalid") || strings.Contains(msg, "non existing id")
	}
	return false
}
