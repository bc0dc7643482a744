// internal/store/games.go
//
// Registry of live game sessions.
// Sessions are process-local: they own running timers and cannot be
// serialized, so they are never written to the KV.
//
// Characteristics:
//   - Stores *game.Game objects keyed by ID.
//   - Get and Touch refresh a session's last-active time.
//   - Reap closes and drops sessions idle longer than the timeout.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorama/internal/game"
)

type entry struct {
	g          *game.Game
	lastActive time.Time
}

// Games holds the sessions served by this process.
type Games struct {
	mu    sync.Mutex
	games map[string]*entry
	now   func() time.Time
}

// NewGames constructs an empty registry.
func NewGames() *Games {
	return NewGamesWithClock(time.Now)
}

// NewGamesWithClock is NewGames with an injected time source for idle checks.
func NewGamesWithClock(now func() time.Time) *Games {
	return &Games{games: make(map[string]*entry), now: now}
}

// Save adds or replaces a session.
func (s *Games) Save(g *game.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = &entry{g: g, lastActive: s.now()}
}

// Get looks up a session by ID and marks it active.
// Returns ErrNotFound if missing.
func (s *Games) Get(id string) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastActive = s.now()
	return e.g, nil
}

// Touch marks a session active without returning it. It reports whether the
// session is still registered.
func (s *Games) Touch(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.games[id]
	if ok {
		e.lastActive = s.now()
	}
	return ok
}

// Delete stops and removes a session. Missing ids are ignored.
func (s *Games) Delete(id string) {
	s.mu.Lock()
	e, ok := s.games[id]
	delete(s.games, id)
	s.mu.Unlock()
	if ok {
		e.g.Close()
	}
}

// Len reports the number of live sessions.
func (s *Games) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

// Reap removes sessions that have been idle longer than idle and stops their
// timers. It returns how many were removed.
func (s *Games) Reap(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	var stale []*game.Game
	for id, e := range s.games {
		if e.lastActive.Before(cutoff) {
			delete(s.games, id)
			stale = append(stale, e.g)
		}
	}
	s.mu.Unlock()

	for _, g := range stale {
		g.Close()
	}
	return len(stale)
}

// RunReaper calls Reap every idle/2 until ctx is done. A non-positive idle
// disables reaping.
func (s *Games) RunReaper(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Reap(idle); n > 0 {
				log.Info().Int("reaped", n).Int("live", s.Len()).Msg("idle games removed")
			}
		}
	}
}
