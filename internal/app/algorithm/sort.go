package algorithm

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/osa030/mixbox/internal/app/extract"
	"github.com/osa030/mixbox/internal/domain/source"
	"github.com/osa030/mixbox/internal/domain/track"
)

// SortByReleaseDate sorts by resolved release year, newest first unless
// ascending is set. Tracks without a year sort as year 0. The sort is stable.
func SortByReleaseDate(tracks []track.Track, ascending bool) []track.Track {
	return sortStable(tracks, ascending, func(a, b *track.Track) int {
		return cmp.Compare(a.ResolveYear(), b.ResolveYear())
	})
}

// SortByPopularity sorts by popularity, most popular first unless ascending
// is set. The sort is stable.
func SortByPopularity(tracks []track.Track, ascending bool) []track.Track {
	return sortStable(tracks, ascending, func(a, b *track.Track) int {
		return cmp.Compare(a.Popularity, b.Popularity)
	})
}

// SortAlphabetically sorts by case-folded track name using the collation
// rules of locale (language.Und for the root order). The sort is stable.
func SortAlphabetically(tracks []track.Track, ascending bool, locale language.Tag) []track.Track {
	col := collate.New(locale, collate.IgnoreCase)
	return sortStable(tracks, ascending, func(a, b *track.Track) int {
		return col.CompareString(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}

func sortStable(tracks []track.Track, ascending bool, compare func(a, b *track.Track) int) []track.Track {
	sorted := make([]track.Track, len(tracks))
	copy(sorted, tracks)
	slices.SortStableFunc(sorted, func(a, b track.Track) int {
		if ascending {
			return compare(&a, &b)
		}
		return compare(&b, &a)
	})
	return sorted
}

type dateAlgorithm struct{}

func (dateAlgorithm) Name() string        { return "date" }
func (dateAlgorithm) Description() string { return "Sorts by release date (newest first)" }
func (dateAlgorithm) MinSources() int     { return 1 }

func (dateAlgorithm) Generate(items []source.Item, opts Options) []track.Track {
	return SortByReleaseDate(extract.Tracks(items), opts.Order.ascending(false))
}

type popularityAlgorithm struct{}

func (popularityAlgorithm) Name() string        { return "popularity" }
func (popularityAlgorithm) Description() string { return "Sorts by popularity (most popular first)" }
func (popularityAlgorithm) MinSources() int     { return 1 }

func (popularityAlgorithm) Generate(items []source.Item, opts Options) []track.Track {
	return SortByPopularity(extract.Tracks(items), opts.Order.ascending(false))
}

type alphabeticalAlgorithm struct{}

func (alphabeticalAlgorithm) Name() string        { return "alphabetical" }
func (alphabeticalAlgorithm) Description() string { return "Sorts by track name (A-Z)" }
func (alphabeticalAlgorithm) MinSources() int     { return 1 }

func (alphabeticalAlgorithm) Generate(items []source.Item, opts Options) []track.Track {
	return SortAlphabetically(extract.Tracks(items), opts.Order.ascending(true), opts.Locale)
}

func init() {
	Register(dateAlgorithm{})
	Register(popularityAlgorithm{})
	Register(alphabeticalAlgorithm{})
}
