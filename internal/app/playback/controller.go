package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixbox/internal/domain/track"
)

// Errors
var (
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Default clock settings.
const (
	DefaultTickInterval = 100 * time.Millisecond
	DefaultProgressStep = 0.5
)

// Config holds controller configuration.
type Config struct {
	TickInterval time.Duration // Progress clock period; 0 disables the background clock
	ProgressStep float64       // Progress added per tick, in percent
	EndOfQueue   EndOfQueue    // Policy when the last entry finishes
}

// Snapshot is a consistent view of the playback state.
type Snapshot struct {
	CurrentTrack *track.Track
	CurrentIndex int
	IsPlaying    bool
	Progress     float64
	State        State
	QueueLength  int
}

// Controller owns the queue and the playback state.
type Controller struct {
	mu sync.RWMutex

	queue []track.Track

	// Current track state. currentIndex is -1 or a valid index into queue.
	// currentTrack may be set while currentIndex is -1 after the queue was replaced.
	currentTrack *track.Track
	currentIndex int
	state        State
	progress     float64

	// Clock
	clockCancel func()
	clockGen    uint64

	config Config

	// Events
	eventCh chan Event

	// Context
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewController creates a new playback controller.
func NewController(config Config) *Controller {
	if config.ProgressStep <= 0 {
		config.ProgressStep = DefaultProgressStep
	}
	if !config.EndOfQueue.IsValid() {
		config.EndOfQueue = EndOfQueueStop
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		queue:        make([]track.Track, 0),
		currentIndex: -1,
		state:        StateIdle,
		config:       config,
		eventCh:      make(chan Event, 64),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// SetQueue replaces the queue wholesale.
// The current index is invalidated; the current track and play state are left alone.
func (c *Controller) SetQueue(tracks []track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = cloneTracks(tracks)
	c.currentIndex = -1
	c.sendEventLocked(EventQueueReplaced)
}

// LoadQueue replaces the queue and, when it is not empty, plays its first
// entry. Both steps happen under one lock.
func (c *Controller) LoadQueue(tracks []track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = cloneTracks(tracks)
	c.currentIndex = -1
	c.sendEventLocked(EventQueueReplaced)
	if len(c.queue) > 0 {
		c.playLocked(c.queue[0], 0)
	}
}

// Queue returns a copy of the queue.
func (c *Controller) Queue() []track.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneTracks(c.queue)
}

// ReorderQueue replaces the queue with a new ordering of entries.
// The current entry is located again in the new order, or the index becomes -1.
func (c *Controller) ReorderQueue(tracks []track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = cloneTracks(tracks)
	if c.currentIndex >= 0 {
		c.currentIndex = c.locateLocked()
	}
	c.sendEventLocked(EventQueueChanged)
}

// ClearQueue empties the queue. The current track, if any, keeps playing detached.
func (c *Controller) ClearQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = make([]track.Track, 0)
	c.currentIndex = -1
	c.sendEventLocked(EventQueueChanged)
}

// RemoveFromQueue removes every entry whose track ID is id and returns how many were removed.
// The current index shifts to stay on the same entry, or becomes -1 if that entry was removed.
func (c *Controller) RemoveFromQueue(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]track.Track, 0, len(c.queue))
	newIndex := -1
	for i, t := range c.queue {
		if t.ID == id {
			continue
		}
		if i == c.currentIndex {
			newIndex = len(next)
		}
		next = append(next, t)
	}

	removed := len(c.queue) - len(next)
	if removed == 0 {
		return 0
	}
	c.queue = next
	c.currentIndex = newIndex
	c.sendEventLocked(EventQueueChanged)
	return removed
}

// PlayTrack makes t the current track at index and starts playing it from the beginning.
func (c *Controller) PlayTrack(t track.Track, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.queue) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d, queue length %d", index, len(c.queue))
	}
	c.playLocked(t, index)
	return nil
}

// TogglePlayPause switches between playing and paused.
// It does nothing when there is no current track.
func (c *Controller) TogglePlayPause() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePlaying:
		c.state = StatePaused
		c.stopClockLocked()
	case StatePaused:
		c.state = StatePlaying
		c.startClockLocked()
	default:
		return c.state
	}
	c.sendEventLocked(EventStateChanged)
	return c.state
}

// Next moves to the following queue entry. Returns false at the end of the queue.
func (c *Controller) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextLocked()
}

// Previous moves to the preceding queue entry. Returns false at the start of the queue.
func (c *Controller) Previous() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentIndex <= 0 || c.currentIndex > len(c.queue)-1 {
		return false
	}
	i := c.currentIndex - 1
	c.playLocked(c.queue[i], i)
	return true
}

// Tick advances progress by one step. The background clock calls it on every
// interval; callers driving the clock themselves may call it directly.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickLocked()
}

// Snapshot returns the current playback state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var current *track.Track
	if c.currentTrack != nil {
		t := *c.currentTrack
		current = &t
	}
	return Snapshot{
		CurrentTrack: current,
		CurrentIndex: c.currentIndex,
		IsPlaying:    c.state == StatePlaying,
		Progress:     c.progress,
		State:        c.state,
		QueueLength:  len(c.queue),
	}
}

// Close stops the clock and closes the event channel.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.stopClockLocked()
	c.cancel()
	close(c.eventCh)
}

// playLocked sets the current entry, resets progress and forces playing.
// Must be called with lock held.
func (c *Controller) playLocked(t track.Track, index int) {
	wasPlaying := c.state == StatePlaying

	c.currentTrack = &t
	c.currentIndex = index
	c.progress = 0
	c.state = StatePlaying

	zlog.Debug().Msgf("playback: playing index=%d track=%s", index, t.Name)

	// Every track change restarts the clock.
	c.stopClockLocked()
	c.startClockLocked()

	c.sendEventLocked(EventTrackChanged)
	if !wasPlaying {
		c.sendEventLocked(EventStateChanged)
	}
}

// nextLocked must be called with lock held.
func (c *Controller) nextLocked() bool {
	if c.currentIndex >= len(c.queue)-1 {
		return false
	}
	i := c.currentIndex + 1
	c.playLocked(c.queue[i], i)
	return true
}

// tickLocked must be called with lock held.
func (c *Controller) tickLocked() {
	if c.state != StatePlaying || c.currentTrack == nil {
		return
	}
	c.progress += c.config.ProgressStep
	if c.progress < 100 {
		return
	}
	c.progress = 0
	c.onTrackEndLocked()
}

// onTrackEndLocked advances past a finished track, applying the end-of-queue policy
// when there is no following entry.
// Must be called with lock held.
func (c *Controller) onTrackEndLocked() {
	if c.nextLocked() {
		return
	}

	switch c.config.EndOfQueue {
	case EndOfQueueLoop:
		if len(c.queue) > 0 {
			c.playLocked(c.queue[0], 0)
			return
		}
	case EndOfQueueRepeat:
		zlog.Debug().Msgf("playback: repeating track=%s", c.currentTrack.Name)
		return
	}

	zlog.Debug().Msg("playback: queue ended")
	c.state = StatePaused
	c.progress = 0
	c.stopClockLocked()
	c.sendEventLocked(EventStateChanged)
	c.sendEventLocked(EventQueueEnded)
}

// startClockLocked starts the progress clock if playing and enabled.
// Must be called with lock held.
func (c *Controller) startClockLocked() {
	if c.closed || c.config.TickInterval <= 0 || c.state != StatePlaying {
		return
	}
	if c.clockCancel != nil {
		return
	}

	c.clockGen++
	gen := c.clockGen
	ctx, cancel := context.WithCancel(c.ctx)
	c.clockCancel = cancel

	go c.runClock(ctx, gen)
}

// stopClockLocked cancels the progress clock.
// Must be called with lock held.
func (c *Controller) stopClockLocked() {
	if c.clockCancel != nil {
		c.clockCancel()
		c.clockCancel = nil
	}
	// Ticks already in flight from the old clock are dropped.
	c.clockGen++
}

func (c *Controller) runClock(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(c.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if gen == c.clockGen {
				c.tickLocked()
			}
			c.mu.Unlock()
		}
	}
}

// locateLocked finds the current entry in the queue.
// Must be called with lock held.
func (c *Controller) locateLocked() int {
	if c.currentTrack == nil {
		return -1
	}
	for i, t := range c.queue {
		if t.SameEntry(*c.currentTrack) {
			return i
		}
	}
	return -1
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(typ EventType) {
	if c.closed {
		return
	}
	e := Event{
		Type:        typ,
		Index:       c.currentIndex,
		State:       c.state,
		QueueLength: len(c.queue),
	}
	if c.currentTrack != nil {
		t := *c.currentTrack
		e.Track = &t
	}

	select {
	case c.eventCh <- e:
	case <-c.ctx.Done():
	default:
		zlog.Warn().Msgf("playback: event channel full, dropping %s", typ)
	}
}

func cloneTracks(tracks []track.Track) []track.Track {
	out := make([]track.Track, len(tracks))
	copy(out, tracks)
	return out
}
