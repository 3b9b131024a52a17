// Package permute implements the separate (per-subgroup) and joint
// permutation engines of spec.md 4.6, including the early-stopping trick
// that replaces an empirical tail estimate with a bounded uniform draw.
package permute

import "math/rand"

// Trick selects the early-stopping behavior once 11 exceedances have
// been observed.
type Trick int

const (
	TrickNone   Trick = 0
	TrickStop   Trick = 1
	TrickSmooth Trick = 2
)

// ParseTrick parses the CLI spelling of a trick level.
func ParseTrick(v int) (Trick, bool) {
	switch v {
	case 0:
		return TrickNone, true
	case 1:
		return TrickStop, true
	case 2:
		return TrickSmooth, true
	default:
		return 0, false
	}
}

// MilestoneFunc is an optional progress callback the separate and joint
// engines call periodically during a feature's permutation loop, so a
// caller can log progress on long runs without the engine depending on
// any particular logger.
type MilestoneFunc func(ftrName string, perm, nperm int)

// milestoneInterval is how often (in permutations) MilestoneFunc fires.
const milestoneInterval = 1000

// trickMix decorrelates the trick RNG stream's seed from the shuffle
// RNG stream's seed without needing a second user-supplied seed; any
// fixed odd constant works since both streams only need to be
// reproducible, not cryptographically independent. The value is the
// int64 with the bit pattern 0x9e3779b97f4a7c15.
const trickMix int64 = -0x61c8864680b583eb

// seedStreams derives the two independent per-boundary RNG streams
// (shuffle, trick) from a single user seed and a boundary index: 0 for
// the joint run's one-time seeding, subgroup+1 for separate mode's
// once-per-subgroup seeding (spec.md 5's RNG discipline).
func seedStreams(seed int64, boundary int64) (rngPerm, rngTrick *rand.Rand) {
	permSeed := seed + boundary
	trickSeed := (seed ^ trickMix) + boundary
	return rand.New(rand.NewSource(permSeed)), rand.New(rand.NewSource(trickSeed))
}
