package sourcing

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixbox/internal/infra/config"
)

// NewChainFromConfig creates a provider chain from configuration.
// spotify may be nil when no spotify provider is configured; tags may be nil
// to disable Last.fm lookups.
func NewChainFromConfig(cfg *config.Config, spotify SpotifyClient, tags TagClient) (*Chain, error) {
	if len(cfg.Providers) == 0 {
		return nil, errors.New("no source providers configured")
	}

	var providers []ProviderWithMetadata

	for i, pcfg := range cfg.Providers {
		var provider Provider
		var err error
		zlog.Debug().Msgf("creating source provider: index=%d type=%s settings=%+v", i+1, pcfg.Type, pcfg.Settings)
		switch pcfg.Type {
		case config.ProviderTypeFile:
			provider, err = NewFileProvider(pcfg.Settings)

		case config.ProviderTypeSpotify:
			provider, err = NewSpotifyProvider(spotify, pcfg.Settings)

		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: pcfg.DisplayName,
		})

		zlog.Info().Msgf("registered source provider: index=%d type=%s display_name=%s", i+1, pcfg.Type, pcfg.DisplayName)
	}

	chain := NewChain(providers)
	chain.SetEnricher(NewGenreEnricher(tags, cfg.LastFM.TagLimit, cfg.LastFM.MaxLookups))
	return chain, nil
}
