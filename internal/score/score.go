// internal/score/score.go
//
// Final score calculation.
//
//   base  = BasePoints * Multipliers[difficulty]
//   score = base - moves*MovePenalty - elapsedSeconds*TimePenalty
//   floor at 0
//
// Two tables have been used by past front ends; both are kept as named values
// and selected by configuration.

package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/robalobadob/memorama/internal/cards"
)

const (
	BasePoints  = 1000
	MovePenalty = 10
)

// Table holds the per-difficulty scoring constants.
type Table struct {
	Multipliers map[cards.Difficulty]float64
	MovePenalty int
	TimePenalty int
}

// Standard: multipliers 1 / 1.5 / 2, two points per second.
var Standard = Table{
	Multipliers: map[cards.Difficulty]float64{cards.Easy: 1, cards.Medium: 1.5, cards.Hard: 2},
	MovePenalty: MovePenalty,
	TimePenalty: 2,
}

// Legacy: multipliers 1 / 2 / 3, five points per second.
var Legacy = Table{
	Multipliers: map[cards.Difficulty]float64{cards.Easy: 1, cards.Medium: 2, cards.Hard: 3},
	MovePenalty: MovePenalty,
	TimePenalty: 5,
}

// ByName resolves "standard" or "legacy".
func ByName(name string) (Table, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard":
		return Standard, nil
	case "legacy":
		return Legacy, nil
	}
	return Table{}, fmt.Errorf("unknown scoring table %q", name)
}

// Base is the zero-penalty score for d. Unknown difficulties score as 1x.
func (t Table) Base(d cards.Difficulty) int {
	m, ok := t.Multipliers[d]
	if !ok {
		m = 1
	}
	return int(math.Round(BasePoints * m))
}

// Calculate returns the final, never negative, score.
// Negative inputs are clamped to zero so a penalty can never raise the score.
func (t Table) Calculate(moves, elapsedSeconds int, d cards.Difficulty) int {
	moves = max(moves, 0)
	elapsedSeconds = max(elapsedSeconds, 0)
	s := t.Base(d) - moves*t.MovePenalty - elapsedSeconds*t.TimePenalty
	return max(s, 0)
}

// Calculate scores with the Standard table.
func Calculate(moves, elapsedSeconds int, d cards.Difficulty) int {
	return Standard.Calculate(moves, elapsedSeconds, d)
}
