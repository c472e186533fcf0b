package filter

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// Default year bounds used when only one side of the range is set.
const DefaultMinYear = 1950

// Options holds the user-selected filter settings.
// Zero values mean "not set".
type Options struct {
	Genres          []string `yaml:"genres" mapstructure:"genres"`
	MinYear         int      `yaml:"min_year" mapstructure:"min_year" validate:"gte=0"`
	MaxYear         int      `yaml:"max_year" mapstructure:"max_year" validate:"gte=0"`
	ExcludeExplicit bool     `yaml:"exclude_explicit" mapstructure:"exclude_explicit"`
	MinPopularity   int      `yaml:"min_popularity" mapstructure:"min_popularity" validate:"gte=0,lte=100"`
}

// HasYearRange reports whether either year bound is set.
func (o Options) HasYearRange() bool {
	return o.MinYear != 0 || o.MaxYear != 0
}

// Resolve fills an unset year bound when the other one is set:
// MinYear defaults to 1950, MaxYear to the calendar year of now.
// When neither bound is set the year range stays disabled.
// An inverted range is kept as is and matches nothing.
func (o Options) Resolve(now time.Time) Options {
	if !o.HasYearRange() {
		return o
	}
	if o.MinYear == 0 {
		o.MinYear = DefaultMinYear
	}
	if o.MaxYear == 0 {
		o.MaxYear = now.Year()
	}
	return o
}

// DecodeOptions decodes and validates filter options from a settings map
// (as found in the config file).
func DecodeOptions(settings map[string]any) (Options, error) {
	var opts Options
	if err := defaults.Set(&opts); err != nil {
		return Options{}, errors.Wrap(err, "failed to set defaults")
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Options{}, errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return Options{}, errors.Wrap(err, "failed to decode settings")
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	zlog.Debug().Msgf("filter options: %+v", opts)
	return opts, nil
}

// Validate checks the option ranges. An inverted year range is valid.
func (o Options) Validate() error {
	if err := validator.New().Struct(o); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
