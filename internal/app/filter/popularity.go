package filter

import (
	"github.com/osa030/mixbox/internal/domain/track"
)

// PopularityFilter keeps tracks at or above a popularity floor.
type PopularityFilter struct {
	min int
}

func (f *PopularityFilter) Name() string {
	return "popularity_filter"
}

func (f *PopularityFilter) Description() string {
	return "Keeps tracks with popularity >= min_popularity"
}

func (f *PopularityFilter) Match(t track.Track) bool {
	return t.Popularity >= f.min
}

func init() {
	Register("popularity_filter", func(o Options) Filter {
		return &PopularityFilter{min: o.MinPopularity}
	})
}
