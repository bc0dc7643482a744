// internal/game/types.go
//
// Core type definitions for the match engine.
// Defines:
//   - Status: idle → playing → finished.
//   - Event + Observer: what the engine tells presentation adapters.
//   - State: a point-in-time copy of a session.
//   - Result: the scored outcome of a finished session.

package game

import (
	"github.com/robalobadob/memorama/internal/cards"
)

// Status is the coarse session state.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// EventType names an engine event.
type EventType string

const (
	EventGameStarted    EventType = "game_started"
	EventCardFlipped    EventType = "card_flipped"
	EventPairMatched    EventType = "pair_matched"
	EventPairMismatched EventType = "pair_mismatched"
	EventCardsHidden    EventType = "cards_hidden" // mismatched pair turned back face down
	EventTick           EventType = "tick"
	EventGameComplete   EventType = "game_complete"
	EventGameReset      EventType = "game_reset"
)

// Event is emitted after every state transition. Counters are the values
// right after the transition.
type Event struct {
	Type           EventType `json:"type"`
	GameID         string    `json:"gameId"`
	CardIDs        []string  `json:"cardIds,omitempty"`
	Identity       string    `json:"identity,omitempty"` // revealed face for card_flipped / pair_matched
	Moves          int       `json:"moves"`
	MatchedPairs   int       `json:"matchedPairs"`
	TotalPairs     int       `json:"totalPairs"`
	ElapsedSeconds int       `json:"elapsedSeconds"`
	Score          int       `json:"score,omitempty"` // set on game_complete
}

// Observer receives engine events. Implementations must not block for long;
// they are called synchronously after the engine has released its lock, so
// calling back into the Game is allowed.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// State is a copy of a session; mutating it has no effect on the Game.
type State struct {
	ID             string           `json:"id"`
	Status         Status           `json:"status"`
	Difficulty     cards.Difficulty `json:"difficulty"`
	CardSetID      string           `json:"cardSetId"`
	Columns        int              `json:"columns"`
	Moves          int              `json:"moves"`
	MatchedPairs   int              `json:"matchedPairs"`
	TotalPairs     int              `json:"totalPairs"`
	ElapsedSeconds int              `json:"elapsedSeconds"`
	Score          int              `json:"score"`
	Daily          string           `json:"daily,omitempty"` // date key when dealt from the daily seed
	Deck           []cards.Card     `json:"deck"`
	Flipped        []string         `json:"flipped"` // card ids, at most 2
}

// Result is what a finished session contributes to the leaderboard.
type Result struct {
	GameID         string
	Difficulty     cards.Difficulty
	Moves          int
	ElapsedSeconds int
	Score          int
}
