// Package engine implements the rules of the mod game.
//
// Every agent of a round picks one of K discrete actions; an agent scores a
// point for each agent that picked the action one step below its own
// (modulo K). The package holds the action type, the rule constants shared by
// a population, round scoring and the exploration primitives the agents use.
// It has no I/O and no hidden state: all randomness flows through an
// explicitly supplied *rand.Rand.
package engine

import "math/rand/v2"

// ---------------------------------------------------------------------------
// Exploration primitives
// ---------------------------------------------------------------------------

// Explore reports whether an ε-greedy decision should act randomly.
// An epsilon of 0 never explores and consumes no randomness.
func Explore(rng *rand.Rand, epsilon float64) bool {
	if epsilon <= 0 {
		return false
	}
	return rng.Float64() < epsilon
}

// RandomAction returns a uniformly random action in [0, k).
func RandomAction(rng *rand.Rand, k uint16) Action {
	return Action(rng.IntN(int(k)))
}

// RandomBranch returns a uniformly random index in [0, n).
func RandomBranch(rng *rand.Rand, n int) int {
	return rng.IntN(n)
}

// NewRand returns a PCG-backed generator for the given seed and stream.
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}
