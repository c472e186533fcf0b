// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Provider types understood by the sourcing factory.
const (
	ProviderTypeFile    = "file"
	ProviderTypeSpotify = "spotify"
)

// Config represents the application configuration.
type Config struct {
	Providers    []ProviderConfig   `yaml:"providers" validate:"required,min=1,dive"`
	Mix          MixConfig          `yaml:"mix"`
	Filters      map[string]any     `yaml:"filters"`
	Playback     PlaybackConfig     `yaml:"playback"`
	Notification NotificationConfig `yaml:"notification"`
	Export       ExportConfig       `yaml:"export"`
	Spotify      SpotifyConfig      `yaml:"spotify"`
	LastFM       LastFMConfig       `yaml:"lastfm"`
}

// ProviderConfig represents a single source provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=file spotify"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// MixConfig represents default queue-generation settings.
type MixConfig struct {
	Algorithm string `yaml:"algorithm" default:"shuffle" validate:"required"`
	Order     string `yaml:"order" default:"default" validate:"oneof=default asc desc"`
	Locale    string `yaml:"locale" default:"en" validate:"bcp47_language_tag"`
	Seed      int64  `yaml:"seed"` // 0 = random
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	TickIntervalMs int     `yaml:"tick_interval_ms" default:"100" validate:"gte=1,lte=60000"`
	ProgressStep   float64 `yaml:"progress_step" default:"0.5" validate:"gt=0,lte=100"`
	EndOfQueue     string  `yaml:"end_of_queue" default:"stop" validate:"oneof=stop loop repeat"`
	ManualClock    bool    `yaml:"manual_clock"` // Disable the background progress clock
}

// TickInterval returns the clock period, or 0 when the clock is driven manually.
func (p PlaybackConfig) TickInterval() time.Duration {
	if p.ManualClock {
		return 0
	}
	return time.Duration(p.TickIntervalMs) * time.Millisecond
}

// NotificationConfig represents subscriber notification configuration.
type NotificationConfig struct {
	SendTimeoutMs int `yaml:"send_timeout_ms" default:"500" validate:"gte=1,lte=30000"`
}

// SendTimeout returns the per-subscriber send timeout.
func (n NotificationConfig) SendTimeout() time.Duration {
	return time.Duration(n.SendTimeoutMs) * time.Millisecond
}

// ExportConfig represents playlist export defaults.
type ExportConfig struct {
	Description string `yaml:"description" default:"Mixed with mixbox"`
	Public      bool   `yaml:"public"`
}

// SpotifyConfig represents Spotify API configuration.
// Credentials are only required when a spotify provider is configured.
type SpotifyConfig struct {
	ClientID          string `yaml:"client_id"`
	ClientSecret      string `yaml:"client_secret"`
	RefreshToken      string `yaml:"refresh_token"`
	Market            string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
	MaxPlaylistTracks int    `yaml:"max_playlist_tracks" default:"500" validate:"gte=1"`
}

// HasCredentials reports whether all Spotify credentials are set.
func (s SpotifyConfig) HasCredentials() bool {
	return s.ClientID != "" && s.ClientSecret != "" && s.RefreshToken != ""
}

// LastFMConfig represents Last.fm configuration. Genre enrichment is enabled
// when an API key is set.
type LastFMConfig struct {
	APIKey            string  `yaml:"api_key"`
	TagLimit          int     `yaml:"tag_limit" default:"5" validate:"gte=1,lte=100"`
	MaxLookups        int     `yaml:"max_lookups" default:"50" validate:"gte=-1"` // -1 = unlimited
	RequestsPerSecond float64 `yaml:"requests_per_second" default:"5" validate:"gt=0"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML data, then applies environment
// overrides, defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFM.APIKey = v
	}
}

// UsesSpotify reports whether any configured provider talks to Spotify.
func (c *Config) UsesSpotify() bool {
	for _, p := range c.Providers {
		if p.Type == ProviderTypeSpotify {
			return true
		}
	}
	return false
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.UsesSpotify() && !c.Spotify.HasCredentials() {
		return errors.New("spotify provider configured but spotify credentials (client_id, client_secret, refresh_token) are missing")
	}

	return nil
}
