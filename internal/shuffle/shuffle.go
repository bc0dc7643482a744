// internal/shuffle/shuffle.go
//
// Fisher–Yates shuffling over any element type.
//
// Every game session owns its own *rand.Rand: sources are not shared between
// sessions, so no locking is needed here.

package shuffle

import (
	crand "crypto/rand"
	"math/rand/v2"
)

// NewRand returns a ChaCha8-backed generator seeded from crypto/rand.
func NewRand() *rand.Rand {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return Seeded(seed)
}

// Seeded returns a deterministic generator for the given seed.
// Used by the daily challenge so every player gets the same layout.
func Seeded(seed [32]byte) *rand.Rand {
	return rand.New(rand.NewChaCha8(seed))
}

// Shuffle returns a uniformly permuted copy of in. The input is not modified.
//
// Walks i from len-1 down to 1 and swaps element i with a uniformly chosen
// j in [0, i].
func Shuffle[T any](rng *rand.Rand, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
