package filter

import (
	"github.com/osa030/mixbox/internal/domain/track"
)

// YearRangeFilter keeps tracks released within [min, max], inclusive.
// A zero range (both bounds 0) keeps everything.
type YearRangeFilter struct {
	min int
	max int
}

// NewYearRangeFilter creates a year range filter with already resolved bounds.
func NewYearRangeFilter(min, max int) *YearRangeFilter {
	return &YearRangeFilter{min: min, max: max}
}

func (f *YearRangeFilter) Name() string {
	return "year_range_filter"
}

func (f *YearRangeFilter) Description() string {
	return "Keeps tracks released within the selected year range"
}

func (f *YearRangeFilter) Match(t track.Track) bool {
	if f.min == 0 && f.max == 0 {
		return true
	}
	year := t.ResolveYear()
	return year >= f.min && year <= f.max
}

func init() {
	Register("year_range_filter", func(o Options) Filter {
		return NewYearRangeFilter(o.MinYear, o.MaxYear)
	})
}
