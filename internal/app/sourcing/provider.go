// Package sourcing resolves source references into source items with their tracks.
package sourcing

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/mixbox/internal/domain/source"
)

// ErrNotFound is returned when no provider knows a source.
var ErrNotFound = errors.New("source not found")

// Provider resolves source references.
type Provider interface {
	// Get returns the item identified by ref, including its tracks.
	// Returns an error wrapping ErrNotFound when the provider does not know ref.
	Get(ctx context.Context, ref source.Ref) (*source.Item, error)

	// Name returns the provider type name (used in config).
	Name() string
}

// Searcher is implemented by providers that can search their catalog.
// Returned items may carry no tracks; resolve them with Get.
type Searcher interface {
	Search(ctx context.Context, query string, typ source.Type, limit int) ([]source.Item, error)
}

// SpotifyClient defines the Spotify operations needed by the spotify provider.
type SpotifyClient interface {
	GetSource(ctx context.Context, ref source.Ref) (*source.Item, error)
	Search(ctx context.Context, query string, typ source.Type, limit int) ([]source.Item, error)
}
