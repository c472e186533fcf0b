package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/mixbox/internal/domain/track"
)

var testNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func ids(tracks []track.Track) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.ID)
	}
	return out
}

func TestGenreFilter_Match(t *testing.T) {
	tests := []struct {
		name   string
		genres []string
		genre  string
		want   bool
	}{
		{name: "no selection passes all", genres: nil, genre: "jazz", want: true},
		{name: "no selection passes empty genre", genres: nil, genre: "", want: true},
		{name: "exact match", genres: []string{"rock"}, genre: "rock", want: true},
		{name: "case insensitive", genres: []string{"Rock"}, genre: "ROCK", want: true},
		{name: "substring match", genres: []string{"rock"}, genre: "Indie Rock", want: true},
		{name: "any of several", genres: []string{"pop", "jazz"}, genre: "smooth jazz", want: true},
		{name: "no match", genres: []string{"pop"}, genre: "metal", want: false},
		{name: "track without genre", genres: []string{"pop"}, genre: "", want: false},
		{name: "blank selection ignored", genres: []string{"  "}, genre: "metal", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewGenreFilter(tt.genres)
			assert.Equal(t, tt.want, f.Match(track.Track{Genre: tt.genre}))
		})
	}
}

func TestYearRangeFilter_Match(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		tr       track.Track
		want     bool
	}{
		{name: "open range passes all", tr: track.Track{Year: 1901}, want: true},
		{name: "inside", min: 1990, max: 2000, tr: track.Track{Year: 1995}, want: true},
		{name: "lower bound inclusive", min: 1990, max: 2000, tr: track.Track{Year: 1990}, want: true},
		{name: "upper bound inclusive", min: 1990, max: 2000, tr: track.Track{Year: 2000}, want: true},
		{name: "below", min: 1990, max: 2000, tr: track.Track{Year: 1989}, want: false},
		{name: "above", min: 1990, max: 2000, tr: track.Track{Year: 2001}, want: false},
		{name: "release date fallback", min: 1990, max: 2000, tr: track.Track{ReleaseDate: "1999-04-01"}, want: true},
		{name: "unknown year", min: 1990, max: 2000, tr: track.Track{}, want: false},
		{name: "inverted range", min: 2000, max: 1990, tr: track.Track{Year: 1995}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewYearRangeFilter(tt.min, tt.max)
			assert.Equal(t, tt.want, f.Match(tt.tr))
		})
	}
}

func TestOptions_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantMin int
		wantMax int
	}{
		{name: "both unset stays open", opts: Options{}, wantMin: 0, wantMax: 0},
		{name: "min only", opts: Options{MinYear: 1980}, wantMin: 1980, wantMax: 2024},
		{name: "max only", opts: Options{MaxYear: 1970}, wantMin: DefaultMinYear, wantMax: 1970},
		{name: "both set", opts: Options{MinYear: 1980, MaxYear: 1990}, wantMin: 1980, wantMax: 1990},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.opts.Resolve(testNow)
			assert.Equal(t, tt.wantMin, got.MinYear)
			assert.Equal(t, tt.wantMax, got.MaxYear)
		})
	}
}

func TestApply(t *testing.T) {
	tracks := []track.Track{
		{ID: "a", Genre: "Rock", Year: 1975, Popularity: 85},
		{ID: "b", Genre: "Pop", Year: 1999, Popularity: 88, Explicit: true},
		{ID: "c", Genre: "Hard Rock", Year: 2010, Popularity: 92},
		{ID: "d", Genre: "Jazz", Year: 2020, Popularity: 90, Explicit: true},
	}

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{name: "no options keeps all", opts: Options{}, want: []string{"a", "b", "c", "d"}},
		{name: "popularity floor", opts: Options{MinPopularity: 90}, want: []string{"c", "d"}},
		{name: "genre", opts: Options{Genres: []string{"rock"}}, want: []string{"a", "c"}},
		{name: "exclude explicit", opts: Options{ExcludeExplicit: true}, want: []string{"a", "c"}},
		{name: "min year only", opts: Options{MinYear: 2000}, want: []string{"c", "d"}},
		{name: "max year only", opts: Options{MaxYear: 1990}, want: []string{"a"}},
		{name: "inverted range", opts: Options{MinYear: 2010, MaxYear: 1990}, want: []string{}},
		{
			name: "combined",
			opts: Options{Genres: []string{"rock", "jazz"}, MinYear: 2000, ExcludeExplicit: true},
			want: []string{"c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tracks, tt.opts, testNow)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApply_Idempotent(t *testing.T) {
	tracks := []track.Track{
		{ID: "a", Genre: "Rock", Year: 1975, Popularity: 85},
		{ID: "b", Genre: "Pop", Year: 1999, Popularity: 88},
		{ID: "c", Genre: "Rock", Year: 2010, Popularity: 92},
	}
	opts := Options{Genres: []string{"rock"}, MinPopularity: 80, MinYear: 1970}

	once := Apply(tracks, opts, testNow)
	twice := Apply(once, opts, testNow)
	assert.Equal(t, once, twice)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	tracks := []track.Track{{ID: "a", Popularity: 10}, {ID: "b", Popularity: 95}}
	got := Apply(tracks, Options{MinPopularity: 50}, testNow)

	assert.Equal(t, []string{"b"}, ids(got))
	assert.Equal(t, []string{"a", "b"}, ids(tracks))
}

func TestChain_Order(t *testing.T) {
	chain := NewChainFromOptions(Options{}, testNow)
	names := make([]string, 0)
	for _, f := range chain.Filters() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"genre_filter", "year_range_filter", "explicit_filter", "popularity_filter"}, names)
	assert.Equal(t, names, RegisteredNames())
}

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		want     Options
		wantErr  bool
	}{
		{
			name:     "empty settings",
			settings: map[string]any{},
			want:     Options{},
		},
		{
			name: "all fields",
			settings: map[string]any{
				"genres":           []any{"rock", "jazz"},
				"min_year":         1980,
				"max_year":         "2000",
				"exclude_explicit": true,
				"min_popularity":   50,
			},
			want: Options{
				Genres:          []string{"rock", "jazz"},
				MinYear:         1980,
				MaxYear:         2000,
				ExcludeExplicit: true,
				MinPopularity:   50,
			},
		},
		{
			name:     "inverted range is accepted",
			settings: map[string]any{"min_year": 2000, "max_year": 1990},
			want:     Options{MinYear: 2000, MaxYear: 1990},
		},
		{
			name:     "popularity above 100",
			settings: map[string]any{"min_popularity": 101},
			wantErr:  true,
		},
		{
			name:     "negative year",
			settings: map[string]any{"min_year": -1},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeOptions(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUniqueGenres(t *testing.T) {
	tracks := []track.Track{
		{Genre: "Rock"}, {Genre: ""}, {Genre: "Jazz"}, {Genre: "Rock"}, {Genre: "Ambient"},
	}
	assert.Equal(t, []string{"Ambient", "Jazz", "Rock"}, UniqueGenres(tracks))
	assert.Empty(t, UniqueGenres(nil))
}

func TestYearRange(t *testing.T) {
	min, max := YearRange([]track.Track{
		{Year: 1999}, {ReleaseDate: "1975-01-01"}, {}, {Year: 2012},
	}, testNow)
	assert.Equal(t, 1975, min)
	assert.Equal(t, 2012, max)

	min, max = YearRange(nil, testNow)
	assert.Equal(t, DefaultMinYear, min)
	assert.Equal(t, 2024, max)
}
