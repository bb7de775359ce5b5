package disagg

import "math/rand"

// Seed derives the deterministic per-block seed from the operator-supplied
// base seed and the block's stable record index. The index comes from one
// agreed enumeration of the run's future blocks (sorted by cell then block
// start) assigned before any parallel dispatch, so processing order never
// changes which seed a block receives.
func Seed(base, index int64) int64 {
	return base + index
}

// newRNG creates a locally scoped generator for one block. A fresh instance
// per block keeps parallel execution order-independent; no global generator
// state is shared between blocks.
func newRNG(base, index int64) *rand.Rand {
	return rand.New(rand.NewSource(Seed(base, index)))
}
