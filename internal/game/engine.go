// internal/game/engine.go
//
// Match engine for a single Memorama session.
// Responsibilities:
//   - Deal a fresh deck on Start (random or seeded).
//   - Apply flips: at most two face-up cards, pair resolution, move counting.
//   - Run the one-second game timer and the delayed unflip of a mismatch.
//   - Track state transitions: idle → playing → finished, reset → idle.
//   - Emit events to subscribed observers.
//
// Notes:
//   - Illegal flips are ignored, never reported as errors: the UI cannot
//     always stop a stale click from arriving.
//   - Every scheduled callback captures the session generation. Start, Reset
//     and Close bump it and stop the timers, so a callback that slipped
//     through still finds a mismatched generation and does nothing.
//   - Timer callbacks arrive on their own goroutines with the real clock,
//     hence the mutex; observers are notified after it is released.
package game

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorama/internal/cards"
	"github.com/robalobadob/memorama/internal/clock"
	"github.com/robalobadob/memorama/internal/score"
	"github.com/robalobadob/memorama/internal/shuffle"
)

const (
	defaultUnflipDelay = 1000 * time.Millisecond
	tickInterval       = time.Second
)

// ErrClosed is returned by Start on a game that has been closed.
var ErrClosed = errors.New("game closed")

// Options configures a Game. Zero values fall back to the defaults.
type Options struct {
	Layout          cards.Layout
	Scoring         score.Table
	Clock           clock.Clock
	UnflipDelay     time.Duration
	CompletionDelay time.Duration // optional pause before game_complete is emitted
}

func (o Options) withDefaults() Options {
	if o.Layout == nil {
		o.Layout = cards.StandardLayout
	}
	if o.Scoring.Multipliers == nil {
		o.Scoring = score.Standard
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.UnflipDelay <= 0 {
		o.UnflipDelay = defaultUnflipDelay
	}
	if o.CompletionDelay < 0 {
		o.CompletionDelay = 0
	}
	return o
}

// Game is one player's session. It owns its deck, timers and RNG.
type Game struct {
	ID string

	mu        sync.Mutex
	opts      Options
	observers []subscription
	nextSub   int

	status     Status
	difficulty cards.Difficulty
	cardSetID  string
	columns    int
	daily      string
	deck       []cards.Card
	index      map[string]int // card id → position in deck
	flipped    []int          // deck positions, at most 2

	moves, matched, total, elapsed, score int
	claimed                               bool
	closed                                bool

	gen      uint64
	ticker   clock.Timer
	unflip   clock.Timer
	complete clock.Timer
}

// New constructs an idle game.
func New(opts Options) *Game {
	return &Game{
		ID:     uuid.NewString(),
		opts:   opts.withDefaults(),
		status: StatusIdle,
	}
}

type subscription struct {
	id int
	o  Observer
}

// Subscribe registers an observer for all future events and returns a func
// that removes it again.
func (g *Game) Subscribe(o Observer) (cancel func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextSub++
	id := g.nextSub
	g.observers = append(g.observers, subscription{id: id, o: o})
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.observers = slices.DeleteFunc(g.observers, func(s subscription) bool { return s.id == id })
	}
}

// Start deals a new random deck and begins playing. Any previous session
// state, pending unflip and running timer is discarded.
// Returns cards.ErrInsufficientIdentities if set is too small for d.
func (g *Game) Start(d cards.Difficulty, set cards.CardSet) error {
	return g.start(d, set, shuffle.NewRand(), "")
}

// StartSeeded is Start with a deterministic deal; label is reported as
// State.Daily (e.g. the challenge date).
func (g *Game) StartSeeded(d cards.Difficulty, set cards.CardSet, seed [32]byte, label string) error {
	return g.start(d, set, shuffle.Seeded(seed), label)
}

func (g *Game) start(d cards.Difficulty, set cards.CardSet, rng *rand.Rand, label string) error {
	if !d.Valid() {
		d = cards.Easy
	}
	board := g.opts.Layout.Board(d)
	deck, err := cards.BuildDeck(rng, set, board.PairCount)
	if err != nil {
		return err
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	g.teardownLocked()
	g.status = StatusPlaying
	g.difficulty = d
	g.cardSetID = set.ID
	g.columns = board.GridColumns
	g.daily = label
	g.deck = deck
	g.index = make(map[string]int, len(deck))
	for i, c := range deck {
		g.index[c.ID] = i
	}
	g.flipped = nil
	g.moves, g.matched, g.elapsed, g.score = 0, 0, 0, 0
	g.total = board.PairCount
	g.claimed = false

	gen := g.gen
	g.ticker = g.opts.Clock.Every(tickInterval, func() { g.tick(gen) })
	ev := g.eventLocked(EventGameStarted)
	g.mu.Unlock()

	g.emit(ev)
	return nil
}

// Reset returns the game to idle, clearing deck, counters and timers.
// It does nothing once the game is closed.
func (g *Game) Reset() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.teardownLocked()
	g.status = StatusIdle
	g.deck = nil
	g.index = nil
	g.flipped = nil
	g.moves, g.matched, g.total, g.elapsed, g.score = 0, 0, 0, 0, 0
	g.daily = ""
	g.claimed = false
	ev := g.eventLocked(EventGameReset)
	g.mu.Unlock()

	g.emit(ev)
}

// Close stops all timers without emitting anything. The game stays readable
// but accepts no further flips, starts or resets; a playing session keeps
// its elapsed time frozen where it stopped.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.teardownLocked()
	g.closed = true
}

// Flip reveals the card with the given id. It reports whether the flip was
// accepted; rejected flips leave the state untouched.
//
// A flip is ignored when the game is closed or not playing, the id is unknown, the
// card is already paired or already face up, or two cards are face up
// (including a mismatched pair waiting to be turned back).
func (g *Game) Flip(cardID string) bool {
	g.mu.Lock()
	if g.closed || g.status != StatusPlaying || len(g.flipped) >= 2 {
		g.mu.Unlock()
		return false
	}
	pos, ok := g.index[cardID]
	if !ok || g.deck[pos].Paired || slices.Contains(g.flipped, pos) {
		g.mu.Unlock()
		return false
	}

	g.flipped = append(g.flipped, pos)
	flippedEv := g.eventLocked(EventCardFlipped)
	flippedEv.CardIDs = []string{cardID}
	flippedEv.Identity = g.deck[pos].Identity
	events := []Event{flippedEv}

	if len(g.flipped) == 2 {
		events = append(events, g.resolveLocked()...)
	}
	g.mu.Unlock()

	g.emit(events...)
	return true
}

// resolveLocked settles two face-up cards.
func (g *Game) resolveLocked() []Event {
	g.moves++
	a, b := g.flipped[0], g.flipped[1]
	ids := []string{g.deck[a].ID, g.deck[b].ID}

	if g.deck[a].Identity != g.deck[b].Identity {
		ev := g.eventLocked(EventPairMismatched)
		ev.CardIDs = ids
		gen := g.gen
		g.unflip = g.opts.Clock.AfterFunc(g.opts.UnflipDelay, func() { g.hide(gen) })
		return []Event{ev}
	}

	g.deck[a].Paired = true
	g.deck[b].Paired = true
	g.matched++
	g.flipped = nil

	matched := g.eventLocked(EventPairMatched)
	matched.CardIDs = ids
	matched.Identity = g.deck[a].Identity
	out := []Event{matched}

	if g.matched == g.total {
		if ev, now := g.finishLocked(); now {
			out = append(out, ev)
		}
	}
	return out
}

// finishLocked moves to finished, stops the timer and scores the session.
// It reports whether game_complete should be emitted right away.
func (g *Game) finishLocked() (Event, bool) {
	g.status = StatusFinished
	if g.ticker != nil {
		g.ticker.Stop()
		g.ticker = nil
	}
	g.score = g.opts.Scoring.Calculate(g.moves, g.elapsed, g.difficulty)
	ev := g.eventLocked(EventGameComplete)
	ev.Score = g.score

	if g.opts.CompletionDelay > 0 {
		gen := g.gen
		g.complete = g.opts.Clock.AfterFunc(g.opts.CompletionDelay, func() {
			g.mu.Lock()
			if gen != g.gen {
				g.mu.Unlock()
				return
			}
			g.complete = nil
			g.mu.Unlock()
			g.emit(ev)
		})
		return Event{}, false
	}
	return ev, true
}

// hide turns a mismatched pair back face down.
func (g *Game) hide(gen uint64) {
	g.mu.Lock()
	if gen != g.gen || g.status != StatusPlaying {
		g.mu.Unlock()
		log.Debug().Str("gameId", g.ID).Msg("dropping stale unflip")
		return
	}
	ids := make([]string, 0, len(g.flipped))
	for _, pos := range g.flipped {
		ids = append(ids, g.deck[pos].ID)
	}
	g.flipped = nil
	g.unflip = nil
	ev := g.eventLocked(EventCardsHidden)
	ev.CardIDs = ids
	g.mu.Unlock()

	g.emit(ev)
}

// tick advances the elapsed-seconds counter.
func (g *Game) tick(gen uint64) {
	g.mu.Lock()
	if gen != g.gen || g.status != StatusPlaying {
		g.mu.Unlock()
		return
	}
	g.elapsed++
	ev := g.eventLocked(EventTick)
	g.mu.Unlock()

	g.emit(ev)
}

// teardownLocked cancels every pending callback and invalidates the ones
// already in flight.
func (g *Game) teardownLocked() {
	g.gen++
	for _, t := range []clock.Timer{g.ticker, g.unflip, g.complete} {
		if t != nil {
			t.Stop()
		}
	}
	g.ticker, g.unflip, g.complete = nil, nil, nil
}

func (g *Game) eventLocked(t EventType) Event {
	return Event{
		Type:           t,
		GameID:         g.ID,
		Moves:          g.moves,
		MatchedPairs:   g.matched,
		TotalPairs:     g.total,
		ElapsedSeconds: g.elapsed,
	}
}

func (g *Game) emit(events ...Event) {
	g.mu.Lock()
	obs := slices.Clone(g.observers)
	g.mu.Unlock()
	for _, e := range events {
		for _, s := range obs {
			s.o.OnEvent(e)
		}
	}
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	flipped := make([]string, 0, len(g.flipped))
	for _, pos := range g.flipped {
		flipped = append(flipped, g.deck[pos].ID)
	}
	return State{
		ID:             g.ID,
		Status:         g.status,
		Difficulty:     g.difficulty,
		CardSetID:      g.cardSetID,
		Columns:        g.columns,
		Moves:          g.moves,
		MatchedPairs:   g.matched,
		TotalPairs:     g.total,
		ElapsedSeconds: g.elapsed,
		Score:          g.score,
		Daily:          g.daily,
		Deck:           slices.Clone(g.deck),
		Flipped:        flipped,
	}
}

// ClaimScore hands out the result of a finished session exactly once, so a
// single game cannot be entered on the leaderboard twice.
func (g *Game) ClaimScore() (Result, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status != StatusFinished || g.claimed {
		return Result{}, false
	}
	g.claimed = true
	return Result{
		GameID:         g.ID,
		Difficulty:     g.difficulty,
		Moves:          g.moves,
		ElapsedSeconds: g.elapsed,
		Score:          g.score,
	}, true
}
