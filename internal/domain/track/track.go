// Package track provides the Track domain entity.
package track

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Provenance records which source item a track was extracted from.
type Provenance struct {
	SourceID   string // Source item ID
	SourceType string // "album", "artist" or "playlist"
	SourceName string // Source item display name
}

// Track represents a single playable track.
type Track struct {
	ID          string        // Catalog track ID
	Name        string        // Track name
	Artist      string        // Main artist name
	Album       string        // Album name
	AlbumArtURL string        // Album art URL
	Duration    time.Duration // Track duration
	Year        int           // Release year (0 if unknown)
	ReleaseDate string        // Release date as reported by the catalog ("YYYY-MM-DD", "YYYY-MM" or "YYYY")
	Genre       string        // Genre label
	Explicit    bool          // Explicit content flag
	Popularity  int           // Popularity score (0-100)
	URI         string        // Playable URI (e.g. spotify:track:...)
	Provenance  Provenance    // Source the track was extracted from
}

// ResolveYear returns the release year used for sorting and filtering.
// Year wins when set; otherwise the leading numeric token of ReleaseDate is used.
// Returns 0 when neither yields a year.
func (t *Track) ResolveYear() int {
	if t.Year != 0 {
		return t.Year
	}
	return ParseYear(t.ReleaseDate)
}

// ParseYear extracts the leading year token from a release date string.
func ParseYear(releaseDate string) int {
	s := strings.TrimSpace(releaseDate)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == 0 {
		return 0
	}
	if end > 0 {
		s = s[:end]
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return year
}

// DurationMs returns the duration in milliseconds.
func (t *Track) DurationMs() int64 {
	return t.Duration.Milliseconds()
}

// SameEntry reports whether two tracks are the same queue entry:
// same track ID extracted from the same source.
func (t *Track) SameEntry(other Track) bool {
	return t.ID == other.ID && t.Provenance == other.Provenance
}
