package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixbox/internal/app/algorithm"
	"github.com/osa030/mixbox/internal/app/filter"
	"github.com/osa030/mixbox/internal/app/notification"
	"github.com/osa030/mixbox/internal/app/playback"
	"github.com/osa030/mixbox/internal/app/session"
	"github.com/osa030/mixbox/internal/domain/source"
	"github.com/osa030/mixbox/internal/domain/track"
	"github.com/osa030/mixbox/internal/infra/config"
	"github.com/osa030/mixbox/internal/infra/spotify"
)

// mixFlags are the queue-building flags shared by mix, play and export.
type mixFlags struct {
	refs      *[]string
	algorithm *string
	order     *string
	filter    *bool

	genres          *[]string
	minYear         *int
	maxYear         *int
	excludeExplicit *bool
	minPopularity   *int

	genresSet, minYearSet, maxYearSet, explicitSet, popularitySet bool
}

func newMixFlags(cmd *kingpin.CmdClause) *mixFlags {
	f := &mixFlags{}
	f.refs = cmd.Arg("refs", "Source references (album:ID, spotify:artist:ID, URLs)").Required().Strings()
	f.algorithm = cmd.Flag("algorithm", "Queue algorithm (default from config)").Short('a').String()
	f.order = cmd.Flag("order", "Sort direction for sorting algorithms").Enum("default", "asc", "desc")
	f.filter = cmd.Flag("filter", "Build the queue with the filters instead of an algorithm").Bool()
	f.genres = cmd.Flag("genre", "Keep tracks of this genre (repeatable)").IsSetByUser(&f.genresSet).Strings()
	f.minYear = cmd.Flag("min-year", "Earliest release year").IsSetByUser(&f.minYearSet).Int()
	f.maxYear = cmd.Flag("max-year", "Latest release year").IsSetByUser(&f.maxYearSet).Int()
	f.excludeExplicit = cmd.Flag("exclude-explicit", "Drop explicit tracks").IsSetByUser(&f.explicitSet).Bool()
	f.minPopularity = cmd.Flag("min-popularity", "Popularity floor (0-100)").IsSetByUser(&f.popularitySet).Int()
	return f
}

// filterOptions overlays the flags that were given on base.
func (f *mixFlags) filterOptions(base filter.Options) filter.Options {
	opts := base
	if f.genresSet {
		opts.Genres = *f.genres
	}
	if f.minYearSet {
		opts.MinYear = *f.minYear
	}
	if f.maxYearSet {
		opts.MaxYear = *f.maxYear
	}
	if f.explicitSet {
		opts.ExcludeExplicit = *f.excludeExplicit
	}
	if f.popularitySet {
		opts.MinPopularity = *f.minPopularity
	}
	return opts
}

// stageSources resolves every reference into the pool.
func stageSources(ctx context.Context, sess *session.Manager, refs []string) error {
	for _, ref := range refs {
		item, added, err := sess.AddSource(ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", ref, err)
		}
		if !added {
			zlog.Warn().Msgf("Source already staged, skipping: %s", ref)
			continue
		}
		fmt.Printf("+ %-8s %s (%d tracks)\n", item.Type, item.Name, item.TrackCount())
	}
	return nil
}

// buildQueue stages the sources and replaces the queue, either with an
// algorithm or with the filters.
func buildQueue(ctx context.Context, sess *session.Manager, f *mixFlags) error {
	if err := stageSources(ctx, sess, *f.refs); err != nil {
		return err
	}

	if *f.filter {
		opts := f.filterOptions(sess.FilterOptions())
		n, err := sess.ApplyFilters(opts)
		if err != nil {
			return fmt.Errorf("invalid filters: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("no tracks match the filters")
		}
		return nil
	}

	name := *f.algorithm
	if name == "" {
		name = sess.DefaultAlgorithm()
	}
	order, _ := algorithm.ParseOrder(*f.order)
	ok, err := sess.RunAlgorithm(name, order)
	if err != nil {
		return err
	}
	if !ok {
		a, _ := algorithm.Get(name)
		return fmt.Errorf("%s needs at least %d source(s), got %d", name, a.MinSources(), len(sess.Sources()))
	}
	return nil
}

func search(ctx context.Context, sess *session.Manager, query, typ string, limit int) error {
	items, err := sess.Search(ctx, query, source.Type(typ), limit)
	if err != nil {
		return err
	}
	printItems(items)
	return nil
}

func listMyPlaylists(ctx context.Context, client *spotify.Client, limit int) error {
	items, err := client.MyPlaylists(ctx, limit)
	if err != nil {
		return err
	}
	printItems(items)
	return nil
}

func showGenres(ctx context.Context, sess *session.Manager, refs []string) error {
	if err := stageSources(ctx, sess, refs); err != nil {
		return err
	}
	minYear, maxYear := sess.AvailableYears()
	fmt.Printf("Years:  %d - %d\n", minYear, maxYear)
	fmt.Printf("Genres: %s\n", strings.Join(sess.AvailableGenres(), ", "))
	return nil
}

func play(ctx context.Context, sess *session.Manager, cfg *config.Config, stream *notification.ChannelStream, duration time.Duration) error {
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	// Nothing advances a manual clock but us.
	var ticks <-chan time.Time
	if cfg.Playback.ManualClock {
		ticker := time.NewTicker(time.Duration(cfg.Playback.TickIntervalMs) * time.Millisecond)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Stopped.")
			return nil
		case <-ticks:
			sess.Tick()
		case n, ok := <-stream.C():
			if !ok {
				return nil
			}
			switch n.Type {
			case playback.EventTrackChanged.String():
				if n.Track != nil {
					fmt.Printf("> %3d. %s\n", n.Index+1, formatTrack(*n.Track))
				}
			case playback.EventQueueEnded.String():
				fmt.Println("Queue finished.")
				return nil
			}
		}
	}
}

func export(ctx context.Context, sess *session.Manager, name, description string, public bool) error {
	p, err := sess.ExportQueue(ctx, name, description, public)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d tracks (%s) to %q\n", len(p.Tracks), p.TotalDuration().Round(time.Second), p.Name)
	fmt.Println(p.URL)
	return nil
}

// printAlgorithms prints available algorithms.
func printAlgorithms() {
	fmt.Println("Available Algorithms:")
	for _, a := range algorithm.Registered() {
		fmt.Printf("  %-14s - %s (min sources: %d)\n", a.Name(), a.Description(), a.MinSources())
	}
}

// printFilters prints available filters in evaluation order.
func printFilters() {
	fmt.Println("Available Filters:")
	registry := filter.GetRegistered()
	for _, name := range filter.RegisteredNames() {
		f := registry[name](filter.Options{})
		fmt.Printf("  %-20s - %s\n", f.Name(), f.Description())
	}
}

func printItems(items []source.Item) {
	if len(items) == 0 {
		fmt.Println("No results.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REF\tNAME\tOWNER\tTRACKS")
	for _, it := range items {
		ref := source.Ref{Type: it.Type, ID: it.ID}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", ref, it.Name, it.Owner, it.TrackCount())
	}
	_ = w.Flush()
}

func printQueue(sess *session.Manager) {
	queue := sess.Queue()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTRACK\tYEAR\tGENRE\tPOP\tFROM")
	for i, t := range queue {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%d\t%s\n",
			i+1, formatTrack(t), t.ResolveYear(), t.Genre, t.Popularity, t.Provenance.SourceName)
	}
	_ = w.Flush()
	fmt.Printf("%d tracks\n", len(queue))
}

func formatTrack(t track.Track) string {
	if t.Artist == "" {
		return t.Name
	}
	return t.Artist + " - " + t.Name
}
