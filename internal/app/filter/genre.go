package filter

import (
	"strings"

	"github.com/osa030/mixbox/internal/domain/track"
)

// GenreFilter keeps tracks whose genre contains any of the selected genres,
// compared case-insensitively. An empty selection keeps everything.
type GenreFilter struct {
	genres []string
}

// NewGenreFilter creates a genre filter. Blank selections are ignored.
func NewGenreFilter(genres []string) *GenreFilter {
	normalized := make([]string, 0, len(genres))
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" {
			normalized = append(normalized, g)
		}
	}
	return &GenreFilter{genres: normalized}
}

func (f *GenreFilter) Name() string {
	return "genre_filter"
}

func (f *GenreFilter) Description() string {
	return "Keeps tracks whose genre contains any selected genre"
}

func (f *GenreFilter) Match(t track.Track) bool {
	if len(f.genres) == 0 {
		return true
	}
	if t.Genre == "" {
		return false
	}
	genre := strings.ToLower(t.Genre)
	for _, g := range f.genres {
		if strings.Contains(genre, g) {
			return true
		}
	}
	return false
}

func init() {
	Register("genre_filter", func(o Options) Filter {
		return NewGenreFilter(o.Genres)
	})
}
