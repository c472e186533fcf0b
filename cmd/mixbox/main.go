// Package main provides the mixbox command line entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixbox/internal/app/notification"
	"github.com/osa030/mixbox/internal/app/session"
	"github.com/osa030/mixbox/internal/app/sourcing"
	"github.com/osa030/mixbox/internal/infra/config"
	"github.com/osa030/mixbox/internal/infra/lastfm"
	"github.com/osa030/mixbox/internal/infra/logger"
	"github.com/osa030/mixbox/internal/infra/spotify"
)

var (
	app        = kingpin.New("mixbox", "Combine albums, artists and playlists into one playback queue")
	configPath = app.Flag("config", "Path to config file").Short('c').Default("config/mixbox.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logLevel   = app.Flag("log-level", "Log level").Default("warn").Enum(logger.Levels...)
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()
	noColor    = app.Flag("no-color", "Disable colored log output").Bool()

	// sources commands
	sourcesCmd   = app.Command("sources", "Look up sources")
	searchCmd    = sourcesCmd.Command("search", "Search the configured providers")
	searchQuery  = searchCmd.Arg("query", "Search text").Required().String()
	searchType   = searchCmd.Flag("type", "Restrict to one source type").Enum("album", "artist", "playlist")
	searchLimit  = searchCmd.Flag("limit", "Maximum number of results").Default("20").Int()
	mineCmd      = sourcesCmd.Command("mine", "List the current user's Spotify playlists")
	mineLimit    = mineCmd.Flag("limit", "Maximum number of playlists").Default("50").Int()
	genresCmd    = sourcesCmd.Command("genres", "Show the genres and release years available in the given sources")
	genresSource = genresCmd.Arg("refs", "Source references (album:ID, spotify:artist:ID, URLs)").Required().Strings()

	// mix command
	mixCmd  = app.Command("mix", "Stage sources and print the generated queue")
	mixOpts = newMixFlags(mixCmd)

	// play command
	playCmd      = app.Command("play", "Stage sources, generate a queue and simulate playback")
	playOpts     = newMixFlags(playCmd)
	playDuration = playCmd.Flag("duration", "Stop after this long (0 = until the queue ends)").Default("0s").Duration()

	// export command
	exportCmd    = app.Command("export", "Stage sources, generate a queue and save it as a Spotify playlist")
	exportOpts   = newMixFlags(exportCmd)
	exportName   = exportCmd.Flag("name", "Playlist name").Required().String()
	exportDesc   = exportCmd.Flag("description", "Playlist description (default from config)").String()
	exportPublic = exportCmd.Flag("public", "Make the playlist public (default from config)").Bool()

	// list commands
	listAlgorithmsCmd = app.Command("list-algorithms", "List available algorithms and exit")
	listFiltersCmd    = app.Command("list-filters", "List available filters and exit")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case listAlgorithmsCmd.FullCommand():
		printAlgorithms()
		return
	case listFiltersCmd.FullCommand():
		printFilters()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output:  "stderr",
		Level:   *logLevel,
		NoColor: *noColor,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = run(command, cfg)
	_ = closer.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the selected command. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(command string, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	spotifyClient, err := newSpotifyClient(ctx, cfg)
	if err != nil {
		return err
	}

	if command == mineCmd.FullCommand() {
		if spotifyClient == nil {
			return fmt.Errorf("spotify credentials are required to list your playlists")
		}
		return listMyPlaylists(ctx, spotifyClient, *mineLimit)
	}

	sess, err := newSession(cfg, spotifyClient)
	if err != nil {
		return err
	}
	defer sess.Close()

	switch command {
	case searchCmd.FullCommand():
		return search(ctx, sess, *searchQuery, *searchType, *searchLimit)
	case genresCmd.FullCommand():
		return showGenres(ctx, sess, *genresSource)
	case mixCmd.FullCommand():
		if err := buildQueue(ctx, sess, mixOpts); err != nil {
			return err
		}
		printQueue(sess)
		return nil
	case playCmd.FullCommand():
		// Subscribe first so the opening track change is reported.
		stream := notification.NewChannelStream(64)
		sess.Subscribe(stream)
		if err := buildQueue(ctx, sess, playOpts); err != nil {
			return err
		}
		return play(ctx, sess, cfg, stream, *playDuration)
	case exportCmd.FullCommand():
		if err := buildQueue(ctx, sess, exportOpts); err != nil {
			return err
		}
		public := cfg.Export.Public || *exportPublic
		return export(ctx, sess, *exportName, *exportDesc, public)
	}

	return fmt.Errorf("unknown command: %s", command)
}

// newSpotifyClient returns nil when no credentials are configured.
func newSpotifyClient(ctx context.Context, cfg *config.Config) (*spotify.Client, error) {
	if !cfg.Spotify.HasCredentials() {
		zlog.Info().Msg("Spotify credentials not configured, Spotify features disabled")
		return nil, nil
	}
	client, err := spotify.New(ctx, spotify.Config{
		ClientID:          cfg.Spotify.ClientID,
		ClientSecret:      cfg.Spotify.ClientSecret,
		RefreshToken:      cfg.Spotify.RefreshToken,
		Market:            cfg.Spotify.Market,
		MaxPlaylistTracks: cfg.Spotify.MaxPlaylistTracks,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify client: %w", err)
	}
	return client, nil
}

// newSession wires the provider chain, the optional Last.fm enrichment and
// the optional playlist exporter into a session.
func newSession(cfg *config.Config, spotifyClient *spotify.Client) (*session.Manager, error) {
	var (
		sourceClient sourcing.SpotifyClient
		exporter     session.Exporter
		tags         sourcing.TagClient
	)
	if spotifyClient != nil {
		sourceClient = spotifyClient
		exporter = spotifyClient
	}

	if cfg.LastFM.APIKey != "" {
		lastfmClient, err := lastfm.New(lastfm.Config{
			APIKey:            cfg.LastFM.APIKey,
			RequestsPerSecond: cfg.LastFM.RequestsPerSecond,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Last.fm client: %w", err)
		}
		tags = lastfmClient
		zlog.Info().Msg("Last.fm genre enrichment enabled")
	}

	chain, err := sourcing.NewChainFromConfig(cfg, sourceClient, tags)
	if err != nil {
		return nil, fmt.Errorf("failed to create source providers: %w", err)
	}

	sess, err := session.NewManager(cfg, chain, exporter)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}
