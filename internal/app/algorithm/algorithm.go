// Package algorithm provides the queue generation algorithms.
package algorithm

import (
	"math/rand"
	"sort"

	"golang.org/x/text/language"

	"github.com/osa030/mixbox/internal/domain/source"
	"github.com/osa030/mixbox/internal/domain/track"
)

// Order selects the sort direction. OrderDefault uses the algorithm's own default.
type Order int

const (
	OrderDefault Order = iota
	OrderAscending
	OrderDescending
)

// String returns the string representation of the order.
func (o Order) String() string {
	switch o {
	case OrderAscending:
		return "asc"
	case OrderDescending:
		return "desc"
	default:
		return "default"
	}
}

// ParseOrder parses "default", "asc" or "desc".
func ParseOrder(s string) (Order, bool) {
	switch s {
	case "", "default":
		return OrderDefault, true
	case "asc":
		return OrderAscending, true
	case "desc":
		return OrderDescending, true
	}
	return OrderDefault, false
}

// ascending resolves the order against an algorithm default.
func (o Order) ascending(defaultAscending bool) bool {
	switch o {
	case OrderAscending:
		return true
	case OrderDescending:
		return false
	default:
		return defaultAscending
	}
}

// Options tunes a single algorithm run.
type Options struct {
	Order  Order        // Sort direction (sorting algorithms only)
	Rand   *rand.Rand   // Random source for shuffle (nil = crypto-seeded)
	Locale language.Tag // Collation locale for alphabetical sort (zero = root)
}

// Algorithm is the interface for queue generation algorithms.
type Algorithm interface {
	// Name returns the algorithm name (used on the command line).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// MinSources returns how many pool items the algorithm needs.
	MinSources() int
	// Generate builds a queue from the pool items without mutating them.
	Generate(items []source.Item, opts Options) []track.Track
}

// Run executes an algorithm over the pool. Returns false, and no tracks, when
// the pool does not satisfy the algorithm's precondition.
func Run(a Algorithm, items []source.Item, opts Options) ([]track.Track, bool) {
	if len(items) == 0 || len(items) < a.MinSources() {
		return nil, false
	}
	return a.Generate(items, opts), true
}

// registry holds registered algorithms.
var registry = make(map[string]Algorithm)

// Register registers an algorithm under its name.
func Register(a Algorithm) {
	registry[a.Name()] = a
}

// Get returns the algorithm registered under name.
func Get(name string) (Algorithm, bool) {
	a, ok := registry[name]
	return a, ok
}

// Registered returns all registered algorithms sorted by name.
func Registered() []Algorithm {
	out := make([]Algorithm, 0, len(registry))
	for _, a := range registry {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
