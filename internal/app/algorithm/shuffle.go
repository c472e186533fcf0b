package algorithm

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"

	"github.com/osa030/mixbox/internal/app/extract"
	"github.com/osa030/mixbox/internal/domain/source"
	"github.com/osa030/mixbox/internal/domain/track"
)

// Shuffle returns a uniformly random permutation of tracks (Fisher-Yates).
// A nil rng uses a crypto-seeded source.
func Shuffle(tracks []track.Track, rng *rand.Rand) []track.Track {
	if rng == nil {
		rng = newRand()
	}
	shuffled := make([]track.Track, len(tracks))
	copy(shuffled, tracks)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// newRand creates a random source seeded from crypto/rand, falling back to the clock.
func newRand() *rand.Rand {
	var seed int64
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(buf[:]))
	} else {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

type shuffleAlgorithm struct{}

func (shuffleAlgorithm) Name() string        { return "shuffle" }
func (shuffleAlgorithm) Description() string { return "Randomizes all tracks from every source" }
func (shuffleAlgorithm) MinSources() int     { return 1 }

func (shuffleAlgorithm) Generate(items []source.Item, opts Options) []track.Track {
	return Shuffle(extract.Tracks(items), opts.Rand)
}

func init() {
	Register(shuffleAlgorithm{})
}
