package seeding

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// Sequence returns the pool in the order the allocator consumes it. The
// caller's slice is never reordered.
//
// Balanced and SnakeDraft trust the upstream ranking and keep the order as
// given; TopHeavy re-sorts by descending strength (stable, so ties keep their
// ranked order); Random shuffles with rng.
func Sequence(strategy Strategy, pool []Player, rng *rand.Rand) []Player {
	sequenced := slices.Clone(pool)
	switch strategy {
	case StrategyTopHeavy:
		slices.SortStableFunc(sequenced, func(a, b Player) int {
			return cmp.Compare(b.Strength, a.Strength)
		})
	case StrategyRandom:
		if rng == nil {
			rng = newRand()
		}
		rng.Shuffle(len(sequenced), func(i, j int) {
			sequenced[i], sequenced[j] = sequenced[j], sequenced[i]
		})
	}
	return sequenced
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
