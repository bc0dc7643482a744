// internal/cards/deck.go
//
// Deck building.
// Responsibilities:
//   - Pick pairCount distinct identities from a card set.
//   - Emit two cards per identity with fresh ids, shuffled.

package cards

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/robalobadob/memorama/internal/shuffle"
)

// ErrInsufficientIdentities is returned when a card set has fewer distinct
// identities than the requested pair count. Decks are never truncated.
var ErrInsufficientIdentities = errors.New("insufficient identities")

// BuildDeck picks pairCount random identities from set and returns a shuffled
// deck of 2*pairCount cards, two per identity, all unpaired.
func BuildDeck(rng *rand.Rand, set CardSet, pairCount int) ([]Card, error) {
	if pairCount <= 0 {
		return nil, fmt.Errorf("pair count must be positive, got %d", pairCount)
	}
	ids := set.Identities()
	if len(ids) < pairCount {
		return nil, fmt.Errorf("card set %q has %d identities, need %d: %w",
			set.ID, len(ids), pairCount, ErrInsufficientIdentities)
	}

	picked := shuffle.Shuffle(rng, ids)[:pairCount]
	deck := make([]Card, 0, 2*pairCount)
	for _, identity := range picked {
		deck = append(deck,
			Card{ID: newCardID(rng), Identity: identity},
			Card{ID: newCardID(rng), Identity: identity},
		)
	}
	return shuffle.Shuffle(rng, deck), nil
}

// newCardID derives a UUIDv4 from the session RNG so seeded decks are fully
// reproducible, ids included.
func newCardID(rng *rand.Rand) string {
	var b [16]byte
	for i := 0; i < len(b); i += 8 {
		v := rng.Uint64()
		for k := 0; k < 8; k++ {
			b[i+k] = byte(v >> (8 * k))
		}
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return uuid.UUID(b).String()
}
