// Package session provides the mixbox session: the state container that owns
// the staging pool, the queue and playback controller, and the filter options.
package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"github.com/osa030/mixbox/internal/app/algorithm"
	"github.com/osa030/mixbox/internal/app/extract"
	"github.com/osa030/mixbox/internal/app/filter"
	"github.com/osa030/mixbox/internal/app/notification"
	"github.com/osa030/mixbox/internal/app/playback"
	"github.com/osa030/mixbox/internal/app/pool"
	"github.com/osa030/mixbox/internal/app/sourcing"
	"github.com/osa030/mixbox/internal/domain/playlist"
	"github.com/osa030/mixbox/internal/domain/source"
	"github.com/osa030/mixbox/internal/domain/track"
	"github.com/osa030/mixbox/internal/infra/config"
)

// Errors
var (
	ErrInvalidRef       = errors.New("invalid source reference")
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	ErrNoSourcing       = errors.New("no source providers configured")
	ErrNoExporter       = errors.New("playlist export is not configured")
	ErrEmptyQueue       = errors.New("queue is empty")
)

// Exporter saves a playlist to the catalog.
type Exporter interface {
	ExportPlaylist(ctx context.Context, p *playlist.Playlist) (id string, url string, err error)
}

// Manager manages a mixbox session.
type Manager struct {
	mu sync.RWMutex

	id     string
	config *config.Config

	// Components
	pool         *pool.Pool
	playback     *playback.Controller
	notification *notification.Manager
	sources      *sourcing.Chain
	exporter     Exporter

	// Current options
	filterOpts filter.Options
	mixOpts    algorithm.Options

	// Seeded shuffle source; nil unless mix.seed is set.
	rngMu sync.Mutex
	rng   *rand.Rand

	// Context
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new session manager.
// sources and exporter may be nil; the operations needing them then fail.
func NewManager(cfg *config.Config, sources *sourcing.Chain, exporter Exporter) (*Manager, error) {
	filterOpts, err := filter.DecodeOptions(cfg.Filters)
	if err != nil {
		return nil, errors.Wrap(err, "invalid filter options")
	}

	order, ok := algorithm.ParseOrder(cfg.Mix.Order)
	if !ok {
		return nil, errors.Newf("invalid mix order: %s", cfg.Mix.Order)
	}
	locale, err := language.Parse(cfg.Mix.Locale)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid mix locale: %s", cfg.Mix.Locale)
	}
	var rng *rand.Rand
	if cfg.Mix.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Mix.Seed))
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		id:     uuid.New().String(),
		config: cfg,
		pool:   pool.New(),
		playback: playback.NewController(playback.Config{
			TickInterval: cfg.Playback.TickInterval(),
			ProgressStep: cfg.Playback.ProgressStep,
			EndOfQueue:   playback.EndOfQueue(cfg.Playback.EndOfQueue),
		}),
		notification: notification.NewManager(cfg.Notification.SendTimeout()),
		sources:      sources,
		exporter:     exporter,
		filterOpts:   filterOpts,
		mixOpts:      algorithm.Options{Order: order, Locale: locale},
		rng:          rng,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	go m.playbackLoop()

	zlog.Info().Msgf("session created: id=%s", m.id)
	return m, nil
}

// ID returns the session ID.
func (m *Manager) ID() string {
	return m.id
}

// --- Staging pool ---

// AddSource resolves a source reference and adds it to the pool.
// Returns false when an item with the same ID is already staged.
func (m *Manager) AddSource(ctx context.Context, input string) (*source.Item, bool, error) {
	ref, ok := source.ParseRef(input)
	if !ok {
		return nil, false, errors.Wrapf(ErrInvalidRef, "%q", input)
	}
	if m.sources == nil {
		return nil, false, ErrNoSourcing
	}

	item, err := m.sources.Get(ctx, ref)
	if err != nil {
		return nil, false, err
	}
	return item, m.AddItem(*item), nil
}

// AddItem adds an already resolved item to the pool.
func (m *Manager) AddItem(item source.Item) bool {
	added := m.pool.Add(item)
	if added {
		zlog.Info().Msgf("source staged: id=%s type=%s name=%q", item.ID, item.Type, item.Name)
	} else {
		zlog.Debug().Msgf("source already staged: id=%s", item.ID)
	}
	return added
}

// RemoveSource removes a source from the pool.
func (m *Manager) RemoveSource(id string) bool {
	return m.pool.Remove(id)
}

// ReorderSources moves the listed sources to the front of the pool in the given order.
func (m *Manager) ReorderSources(ids []string) {
	m.pool.ReorderByIDs(ids)
}

// SetSources replaces the pool contents.
func (m *Manager) SetSources(items []source.Item) {
	m.pool.Reorder(items)
}

// ClearSources empties the pool.
func (m *Manager) ClearSources() {
	m.pool.Clear()
}

// Sources returns the staged sources in pool order.
func (m *Manager) Sources() []source.Item {
	return m.pool.Items()
}

// Search searches the configured providers.
func (m *Manager) Search(ctx context.Context, query string, typ source.Type, limit int) ([]source.Item, error) {
	if m.sources == nil {
		return nil, ErrNoSourcing
	}
	return m.sources.Search(ctx, query, typ, limit)
}

// --- Queue generation ---

// DefaultAlgorithm returns the configured algorithm name.
func (m *Manager) DefaultAlgorithm() string {
	return m.config.Mix.Algorithm
}

// MixOptions returns the default algorithm options. The seeded random
// source is not part of them.
func (m *Manager) MixOptions() algorithm.Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mixOpts
}

// RunAlgorithm generates a queue from the pool with the named algorithm.
// On success the queue is replaced and its first track starts playing.
// Returns false, leaving everything unchanged, when the pool does not meet
// the algorithm's precondition.
func (m *Manager) RunAlgorithm(name string, order algorithm.Order) (bool, error) {
	a, ok := algorithm.Get(name)
	if !ok {
		return false, errors.Wrapf(ErrUnknownAlgorithm, "%s", name)
	}

	opts := m.MixOptions()
	if order != algorithm.OrderDefault {
		opts.Order = order
	}

	tracks, ok := m.generate(a, opts)
	if !ok {
		zlog.Info().Msgf("algorithm skipped: name=%s sources=%d min_sources=%d", name, m.pool.Len(), a.MinSources())
		return false, nil
	}

	m.replaceQueue(tracks)
	zlog.Info().Msgf("queue generated: algorithm=%s order=%s tracks=%d", name, opts.Order, len(tracks))
	return true, nil
}

// generate runs a over the pool. Runs sharing the seeded source are serialized.
func (m *Manager) generate(a algorithm.Algorithm, opts algorithm.Options) ([]track.Track, bool) {
	if m.rng == nil {
		return algorithm.Run(a, m.pool.Items(), opts)
	}
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	opts.Rand = m.rng
	return algorithm.Run(a, m.pool.Items(), opts)
}

// FilterOptions returns the current filter options.
func (m *Manager) FilterOptions() filter.Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterOpts
}

// SetFilterOptions stores filter options without applying them.
func (m *Manager) SetFilterOptions(opts filter.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.filterOpts = opts
	m.mu.Unlock()
	return nil
}

// ApplyFilters filters every pooled track and, when anything matches, replaces
// the queue with the result and plays its first track. The options are stored
// either way. Returns the number of matching tracks; 0 means the queue was
// left unchanged.
func (m *Manager) ApplyFilters(opts filter.Options) (int, error) {
	if err := m.SetFilterOptions(opts); err != nil {
		return 0, err
	}

	tracks := extract.Tracks(m.pool.Items())
	filtered := filter.Apply(tracks, opts, time.Now())
	if len(filtered) == 0 {
		zlog.Info().Msgf("filters matched nothing, queue unchanged: candidates=%d", len(tracks))
		return 0, nil
	}

	m.replaceQueue(filtered)
	zlog.Info().Msgf("filters applied: candidates=%d matched=%d", len(tracks), len(filtered))
	return len(filtered), nil
}

// AvailableGenres returns the genres present in the pool.
func (m *Manager) AvailableGenres() []string {
	return filter.UniqueGenres(extract.Tracks(m.pool.Items()))
}

// AvailableYears returns the release year span of the pool.
func (m *Manager) AvailableYears() (int, int) {
	return filter.YearRange(extract.Tracks(m.pool.Items()), time.Now())
}

func (m *Manager) replaceQueue(tracks []track.Track) {
	m.playback.LoadQueue(tracks)
}

// --- Queue & playback ---

// Queue returns a copy of the queue.
func (m *Manager) Queue() []track.Track {
	return m.playback.Queue()
}

// SetQueue replaces the queue without starting playback.
func (m *Manager) SetQueue(tracks []track.Track) {
	m.playback.SetQueue(tracks)
}

// ReorderQueue replaces the queue order, keeping the current entry.
func (m *Manager) ReorderQueue(tracks []track.Track) {
	m.playback.ReorderQueue(tracks)
}

// RemoveFromQueue removes every queue entry with the given track ID.
func (m *Manager) RemoveFromQueue(id string) int {
	return m.playback.RemoveFromQueue(id)
}

// ClearQueue empties the queue.
func (m *Manager) ClearQueue() {
	m.playback.ClearQueue()
}

// PlayTrack plays the queue entry at index.
func (m *Manager) PlayTrack(index int) error {
	queue := m.playback.Queue()
	if index < 0 || index >= len(queue) {
		return errors.Wrapf(playback.ErrIndexOutOfRange, "index=%d len=%d", index, len(queue))
	}
	return m.playback.PlayTrack(queue[index], index)
}

// TogglePlayPause toggles between playing and paused.
func (m *Manager) TogglePlayPause() playback.State {
	return m.playback.TogglePlayPause()
}

// Next advances to the next queue entry.
func (m *Manager) Next() bool {
	return m.playback.Next()
}

// Previous goes back to the previous queue entry.
func (m *Manager) Previous() bool {
	return m.playback.Previous()
}

// Tick advances the progress clock once (manual clock mode).
func (m *Manager) Tick() {
	m.playback.Tick()
}

// Snapshot returns the current playback state.
func (m *Manager) Snapshot() playback.Snapshot {
	return m.playback.Snapshot()
}

// --- Export ---

// ExportQueue saves the queue as a catalog playlist.
// An empty description falls back to the configured one.
func (m *Manager) ExportQueue(ctx context.Context, name, description string, public bool) (*playlist.Playlist, error) {
	if m.exporter == nil {
		return nil, ErrNoExporter
	}
	queue := m.playback.Queue()
	if len(queue) == 0 {
		return nil, ErrEmptyQueue
	}
	if description == "" {
		description = m.config.Export.Description
	}

	p := playlist.FromQueue(name, description, public, queue)
	id, url, err := m.exporter.ExportPlaylist(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to export queue")
	}
	p.ID = id
	p.URL = url

	zlog.Info().Msgf("queue exported: playlist_id=%s name=%q tracks=%d", id, name, len(p.Tracks))
	return p, nil
}

// --- Notifications ---

// Subscribe registers a notification stream and returns its subscription ID.
func (m *Manager) Subscribe(stream notification.Stream) string {
	return m.notification.Subscribe(stream)
}

// Unsubscribe removes a notification stream.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.notification.Unsubscribe(subscriptionID)
}

// playbackLoop forwards playback events to subscribers.
func (m *Manager) playbackLoop() {
	defer close(m.done)

	for {
		select {
		case <-m.ctx.Done():
			return
		case event, ok := <-m.playback.Events():
			if !ok {
				return
			}
			m.handlePlaybackEvent(event)
		}
	}
}

func (m *Manager) handlePlaybackEvent(event playback.Event) {
	zlog.Debug().Msgf("playback event: type=%s index=%d state=%s", event.Type, event.Index, event.State)

	switch event.Type {
	case playback.EventTrackChanged:
		if event.Track != nil {
			zlog.Info().Msgf("now playing: index=%d track_id=%s name=%q artist=%q",
				event.Index, event.Track.ID, event.Track.Name, event.Track.Artist)
		}
	case playback.EventQueueEnded:
		zlog.Info().Msgf("queue ended: policy=%s", m.config.Playback.EndOfQueue)
	}

	m.notification.Broadcast(notification.FromEvent(event, time.Now()))
}

// Close closes the session manager.
func (m *Manager) Close() {
	m.cancel()
	<-m.done
	m.playback.Close()
	m.notification.Close()
	if m.sources != nil {
		if err := m.sources.Close(); err != nil {
			zlog.Warn().Msgf("failed to close source providers: %v", err)
		}
	}
	zlog.Info().Msgf("session closed: id=%s", m.id)
}
