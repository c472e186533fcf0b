package filter

import (
	"time"

	"github.com/osa030/mixbox/internal/domain/track"
)

// Chain executes filters in sequence. A track is kept only when every filter matches.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// NewChainFromOptions builds the standard chain for opts:
// genre, year range, explicit, popularity floor.
// now supplies the current year for an unset upper year bound.
func NewChainFromOptions(opts Options, now time.Time) *Chain {
	opts = opts.Resolve(now)
	c := NewChain()
	for _, name := range evaluationOrder {
		if factory, ok := registry[name]; ok {
			c.Add(factory(opts))
		}
	}
	return c
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Match runs all filters against a single track.
// Returns false as soon as any filter rejects the track.
func (c *Chain) Match(t track.Track) bool {
	for _, f := range c.filters {
		if !f.Match(t) {
			return false
		}
	}
	return true
}

// Apply returns the tracks that pass every filter, in their original order.
// The input is not modified.
func (c *Chain) Apply(tracks []track.Track) []track.Track {
	out := make([]track.Track, 0, len(tracks))
	for _, t := range tracks {
		if c.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}

// Apply filters tracks with the standard chain for opts.
func Apply(tracks []track.Track, opts Options, now time.Time) []track.Track {
	return NewChainFromOptions(opts, now).Apply(tracks)
}
