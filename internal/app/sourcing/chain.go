package sourcing

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixbox/internal/domain/source"
)

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// Chain tries providers in order until one resolves the reference.
type Chain struct {
	providers []ProviderWithMetadata
	enricher  *GenreEnricher
}

// NewChain creates a new provider chain.
func NewChain(providers []ProviderWithMetadata) *Chain {
	return &Chain{
		providers: providers,
	}
}

// SetEnricher sets the genre enricher applied to every resolved item.
func (c *Chain) SetEnricher(e *GenreEnricher) {
	c.enricher = e
}

// Providers returns the configured providers in order.
func (c *Chain) Providers() []ProviderWithMetadata {
	return c.providers
}

// Close releases providers that hold resources.
func (c *Chain) Close() error {
	var errs error
	for _, pm := range c.providers {
		if closer, ok := pm.Provider.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = errors.CombineErrors(errs, errors.Wrapf(err, "failed to close provider %s", pm.DisplayName))
			}
		}
	}
	return errs
}

// Get resolves ref with the first provider that knows it.
// Providers failing with other errors are logged and skipped.
func (c *Chain) Get(ctx context.Context, ref source.Ref) (*source.Item, error) {
	var lastErr error
	for i, pm := range c.providers {
		zlog.Debug().Msgf("trying provider: index=%d total=%d name=%s provider_type=%s ref=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name(), ref)

		item, err := pm.Provider.Get(ctx, ref)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				zlog.Warn().Msgf("provider failed, trying next: provider=%s ref=%s error=%v", pm.DisplayName, ref, err)
				lastErr = err
			}
			continue
		}

		if c.enricher != nil {
			c.enricher.Enrich(ctx, item)
		}

		zlog.Info().Msgf("resolved source: provider=%s ref=%s name=%q tracks=%d",
			pm.DisplayName, ref, item.Name, item.TrackCount())
		return item, nil
	}

	if lastErr != nil {
		return nil, errors.Wrapf(lastErr, "failed to resolve %s", ref)
	}
	return nil, errors.Wrapf(ErrNotFound, "%s", ref)
}

// Search queries every provider that supports search and merges the results.
// Duplicate items (same type and ID) keep the first provider's entry.
func (c *Chain) Search(ctx context.Context, query string, typ source.Type, limit int) ([]source.Item, error) {
	seen := make(map[source.Ref]bool)
	results := make([]source.Item, 0)
	searched := 0

	for _, pm := range c.providers {
		s, ok := pm.Provider.(Searcher)
		if !ok {
			continue
		}
		searched++

		items, err := s.Search(ctx, query, typ, limit)
		if err != nil {
			zlog.Warn().Msgf("search failed: provider=%s error=%v", pm.DisplayName, err)
			continue
		}
		for _, item := range items {
			ref := source.Ref{Type: item.Type, ID: item.ID}
			if seen[ref] {
				continue
			}
			seen[ref] = true
			results = append(results, item)
		}
	}

	if searched == 0 {
		return nil, errors.New("no configured provider supports search")
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
