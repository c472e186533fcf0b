package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrack_ResolveYear(t *testing.T) {
	tests := []struct {
		name        string
		year        int
		releaseDate string
		expected    int
	}{
		{
			name:     "year field set",
			year:     1973,
			expected: 1973,
		},
		{
			name:        "year field wins over release date",
			year:        1973,
			releaseDate: "2011-09-26",
			expected:    1973,
		},
		{
			name:        "full release date",
			releaseDate: "2015-06-01",
			expected:    2015,
		},
		{
			name:        "month precision release date",
			releaseDate: "2013-05",
			expected:    2013,
		},
		{
			name:        "year precision release date",
			releaseDate: "1999",
			expected:    1999,
		},
		{
			name:        "unparseable release date",
			releaseDate: "unknown",
			expected:    0,
		},
		{
			name:     "nothing set",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trk := &Track{
				ID:          "test-id",
				Year:        tt.year,
				ReleaseDate: tt.releaseDate,
			}

			assert.Equal(t, tt.expected, trk.ResolveYear())
		})
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"2020-01-01", 2020},
		{" 1984 ", 1984},
		{"1984/07", 1984},
		{"", 0},
		{"-2020", 0},
		{"abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseYear(tt.input))
		})
	}
}

func TestTrack_DurationMs(t *testing.T) {
	trk := &Track{ID: "test-id", Duration: 3*time.Minute + 500*time.Millisecond}
	assert.Equal(t, int64(180500), trk.DurationMs())
}

func TestTrack_SameEntry(t *testing.T) {
	fromAlbum := Track{ID: "t1", Provenance: Provenance{SourceID: "a1", SourceType: "album"}}
	fromPlaylist := Track{ID: "t1", Provenance: Provenance{SourceID: "p1", SourceType: "playlist"}}

	assert.True(t, fromAlbum.SameEntry(fromAlbum))
	assert.False(t, fromAlbum.SameEntry(fromPlaylist), "same track from another source is a distinct entry")
	assert.False(t, fromAlbum.SameEntry(Track{ID: "t2", Provenance: fromAlbum.Provenance}))
}
