// Package filter provides the filter chain used to narrow extracted tracks.
package filter

import (
	"sort"

	"github.com/osa030/mixbox/internal/domain/track"
)

// Filter is the interface for track filters.
type Filter interface {
	// Name returns the filter name (used in config and listings).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// Match returns true if the track passes the filter.
	Match(t track.Track) bool
}

// registry holds registered filter factories, keyed by name.
var registry = make(map[string]func(Options) Filter)

// Register registers a filter factory.
func Register(name string, factory func(Options) Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func(Options) Filter {
	return registry
}

// RegisteredNames returns the registered filter names in evaluation order.
func RegisteredNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return evaluationRank(names[i]) < evaluationRank(names[j])
	})
	return names
}

// evaluationOrder is the fixed order in which Apply composes the filters.
var evaluationOrder = []string{
	"genre_filter",
	"year_range_filter",
	"explicit_filter",
	"popularity_filter",
}

func evaluationRank(name string) int {
	for i, n := range evaluationOrder {
		if n == name {
			return i
		}
	}
	return len(evaluationOrder)
}
