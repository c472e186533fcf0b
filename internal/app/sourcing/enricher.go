package sourcing

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixbox/internal/domain/source"
	"github.com/osa030/mixbox/internal/domain/track"
	"github.com/osa030/mixbox/internal/infra/lastfm"
)

// TagClient defines the Last.fm operations used for genre enrichment.
type TagClient interface {
	GetTopTags(ctx context.Context, trackName, artistName string, limit int) ([]lastfm.Tag, error)
	GetArtistTopTags(ctx context.Context, artistName string, limit int) ([]lastfm.Tag, error)
}

// GenreEnricher fills in missing track genres.
// Source-level genres are used first; remaining tracks get their top Last.fm
// tag, falling back to the artist's top tag.
type GenreEnricher struct {
	tags       TagClient
	tagLimit   int
	maxLookups int // Last.fm lookups per item; negative means unlimited
}

// NewGenreEnricher creates a genre enricher. tags may be nil, in which case
// only source-level genres are applied.
func NewGenreEnricher(tags TagClient, tagLimit, maxLookups int) *GenreEnricher {
	if tagLimit <= 0 {
		tagLimit = 5
	}
	return &GenreEnricher{tags: tags, tagLimit: tagLimit, maxLookups: maxLookups}
}

// Enrich sets the Genre of item's tracks that have none.
// The item's track slice is replaced, never modified in place.
func (e *GenreEnricher) Enrich(ctx context.Context, item *source.Item) {
	tracks := item.GetTracks()
	if len(tracks) == 0 {
		return
	}

	out := make([]track.Track, len(tracks))
	copy(out, tracks)

	lookups := 0
	artistGenres := make(map[string]string)
	for i := range out {
		t := &out[i]
		if t.Genre != "" {
			continue
		}
		if len(item.Genres) > 0 {
			t.Genre = item.Genres[0]
			continue
		}
		if e.tags == nil || t.Artist == "" {
			continue
		}
		if g, ok := artistGenres[t.Artist]; ok && g != "" {
			t.Genre = g
			continue
		}
		if e.maxLookups >= 0 && lookups >= e.maxLookups {
			continue
		}
		lookups++
		t.Genre = e.lookup(ctx, *t, artistGenres)
	}

	switch item.Type {
	case source.TypeArtist:
		item.TopTracks = out
	default:
		item.Tracks = out
	}
	zlog.Debug().Msgf("genre enrichment: source=%s lookups=%d", item.ID, lookups)
}

// lookup returns the track's top tag, else the artist's top tag.
// Artist results are remembered in artistGenres.
func (e *GenreEnricher) lookup(ctx context.Context, t track.Track, artistGenres map[string]string) string {
	if t.Name != "" {
		tags, err := e.tags.GetTopTags(ctx, t.Name, t.Artist, e.tagLimit)
		if err != nil {
			zlog.Debug().Msgf("track tags unavailable: %s - %s: %v", t.Artist, t.Name, err)
		} else if len(tags) > 0 {
			return tags[0].Name
		}
	}

	if g, ok := artistGenres[t.Artist]; ok {
		return g
	}
	tags, err := e.tags.GetArtistTopTags(ctx, t.Artist, e.tagLimit)
	if err != nil {
		zlog.Debug().Msgf("artist tags unavailable: %s: %v", t.Artist, err)
		artistGenres[t.Artist] = ""
		return ""
	}
	var genre string
	if len(tags) > 0 {
		genre = tags[0].Name
	}
	artistGenres[t.Artist] = genre
	return genre
}
