// internal/cards/types.go
//
// Core type definitions for decks and card sets.
// Defines:
//   - Card: one face-down tile in a deck (two per identity).
//   - Face: presentation data for an identity (icon class, colour or image).
//   - CardSet: a named, ordered collection of faces a deck can be built from.
//   - Difficulty + Layout: pair counts and grid widths per difficulty.

package cards

import (
	"fmt"
	"strings"
)

// Card is a single tile on the board.
// Paired is only ever flipped to true by the match engine.
type Card struct {
	ID       string `json:"id"`       // Unique per deck (UUID).
	Identity string `json:"identity"` // Face key; the two cards of a pair share it.
	Paired   bool   `json:"paired"`
}

// Face describes how an identity is drawn. Key is the identity itself.
type Face struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Color string `json:"color,omitempty"`
	Image string `json:"image,omitempty"`
}

// CardSet is a named collection of faces.
type CardSet struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Faces       []Face `json:"faces"`
	Custom      bool   `json:"custom,omitempty"`
}

// Identities returns the distinct face keys in declaration order.
// Blank and duplicate keys are skipped so a deck can never hold an identity
// more than twice.
func (s CardSet) Identities() []string {
	seen := make(map[string]struct{}, len(s.Faces))
	out := make([]string, 0, len(s.Faces))
	for _, f := range s.Faces {
		k := strings.TrimSpace(f.Key)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Face looks up the face for an identity.
func (s CardSet) Face(identity string) (Face, bool) {
	for _, f := range s.Faces {
		if f.Key == identity {
			return f, true
		}
	}
	return Face{}, false
}

// Difficulty selects the pair count, grid width and score multiplier.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists every difficulty, easiest first.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty maps a case-insensitive name to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	_, err := ParseDifficulty(string(d))
	return err == nil
}

// Board is the per-difficulty board geometry.
type Board struct {
	PairCount   int `json:"pairCount"`
	GridColumns int `json:"gridColumns"`
}

// Layout is an immutable Difficulty → Board lookup table.
type Layout map[Difficulty]Board

// StandardLayout is 8/12/18 pairs on 4/6/6 columns.
var StandardLayout = Layout{
	Easy:   {PairCount: 8, GridColumns: 4},
	Medium: {PairCount: 12, GridColumns: 6},
	Hard:   {PairCount: 18, GridColumns: 6},
}

// CompactLayout is 4/6/9 pairs, sized for small custom card sets.
var CompactLayout = Layout{
	Easy:   {PairCount: 4, GridColumns: 4},
	Medium: {PairCount: 6, GridColumns: 4},
	Hard:   {PairCount: 9, GridColumns: 6},
}

// LayoutByName resolves "standard" or "compact".
func LayoutByName(name string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard":
		return StandardLayout, nil
	case "compact":
		return CompactLayout, nil
	}
	return nil, fmt.Errorf("unknown layout %q", name)
}

// Board returns the geometry for d, falling back to Easy for unknown values.
func (l Layout) Board(d Difficulty) Board {
	if b, ok := l[d]; ok {
		return b
	}
	return l[Easy]
}
