package filter

import (
	"sort"
	"time"

	"github.com/osa030/mixbox/internal/domain/track"
)

// UniqueGenres returns the distinct, non-empty genres of tracks, sorted.
func UniqueGenres(tracks []track.Track) []string {
	seen := make(map[string]bool)
	genres := make([]string, 0)
	for _, t := range tracks {
		if t.Genre == "" || seen[t.Genre] {
			continue
		}
		seen[t.Genre] = true
		genres = append(genres, t.Genre)
	}
	sort.Strings(genres)
	return genres
}

// YearRange returns the smallest and largest known release year of tracks.
// Tracks without a year are ignored; with no known years the default range
// (1950 to the current year) is returned.
func YearRange(tracks []track.Track, now time.Time) (min, max int) {
	for _, t := range tracks {
		year := t.ResolveYear()
		if year <= 0 {
			continue
		}
		if min == 0 || year < min {
			min = year
		}
		if year > max {
			max = year
		}
	}
	if min == 0 {
		return DefaultMinYear, now.Year()
	}
	return min, max
}
