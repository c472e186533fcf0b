package algorithm

import (
	"github.com/osa030/mixbox/internal/app/extract"
	"github.com/osa030/mixbox/internal/domain/source"
	"github.com/osa030/mixbox/internal/domain/track"
)

// Interleave takes one track from each group in turn: position 0 of every
// group, then position 1 of every group that has one, and so on.
// Groups keep their given order; exhausted groups are skipped.
func Interleave(groups [][]track.Track) []track.Track {
	total, longest := 0, 0
	for _, g := range groups {
		total += len(g)
		if len(g) > longest {
			longest = len(g)
		}
	}

	out := make([]track.Track, 0, total)
	for i := 0; i < longest; i++ {
		for _, g := range groups {
			if i < len(g) {
				out = append(out, g[i])
			}
		}
	}
	return out
}

type interleaveAlgorithm struct{}

func (interleaveAlgorithm) Name() string { return "interleave" }
func (interleaveAlgorithm) Description() string {
	return "Alternates tracks between sources (needs at least 2 sources)"
}
func (interleaveAlgorithm) MinSources() int { return 2 }

func (interleaveAlgorithm) Generate(items []source.Item, _ Options) []track.Track {
	return Interleave(extract.Grouped(items))
}

func init() {
	Register(interleaveAlgorithm{})
}
