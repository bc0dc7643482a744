// internal/leaderboard/leaderboard.go
//
// Top-20 high score table.
// Responsibilities:
//   - Validate and insert scores, keeping the table sorted high to low.
//   - Ties keep insertion order; the table never holds more than Capacity rows.
//   - Persist the whole table under "<app>-high-scores" after every change.
//   - Filter by player name (case-insensitive substring) and difficulty.
//
// Notes:
//   - Persistence failures are logged and swallowed. A failed read starts an
//     empty table, a failed write keeps the in-memory change.

package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"

	"github.com/robalobadob/memorama/internal/cards"
	"github.com/robalobadob/memorama/internal/store"
)

// Capacity is the number of records kept.
const Capacity = 20

// ErrInvalidName is returned by Add for an empty or whitespace-only name.
var ErrInvalidName = errors.New("player name is required")

// Record is one leaderboard row.
type Record struct {
	ID         string           `json:"id"`
	PlayerName string           `json:"playerName"`
	Score      int              `json:"score"`
	Difficulty cards.Difficulty `json:"difficulty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Board is a leaderboard bound to one KV record.
type Board struct {
	mu      sync.Mutex
	kv      store.KV
	key     string
	records []Record
	now     func() time.Time
}

// Key returns the KV key holding app's leaderboard.
func Key(app string) string { return app + "-high-scores" }

// Open loads the leaderboard for app. Missing or unreadable data yields an
// empty board.
func Open(ctx context.Context, kv store.KV, app string) *Board {
	b := &Board{kv: kv, key: Key(app), now: time.Now}
	b.records = b.load(ctx)
	return b
}

func (b *Board) load(ctx context.Context) []Record {
	raw, ok, err := b.kv.Get(ctx, b.key)
	if err != nil {
		log.Warn().Err(err).Str("key", b.key).Msg("leaderboard read failed, starting empty")
		return nil
	}
	if !ok {
		return nil
	}
	var recs []Record
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		log.Warn().Err(err).Str("key", b.key).Msg("leaderboard data malformed, starting empty")
		return nil
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > Capacity {
		recs = recs[:Capacity]
	}
	return recs
}

// Add inserts a score and returns the stored record. The record may fall off
// the table straight away if it does not reach the top 20.
func (b *Board) Add(ctx context.Context, playerName string, score int, d cards.Difficulty) (Record, error) {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return Record{}, ErrInvalidName
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:         id.String(),
		PlayerName: name,
		Score:      score,
		Difficulty: d,
		Timestamp:  b.now().UTC(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, rec)
	sort.SliceStable(b.records, func(i, j int) bool { return b.records[i].Score > b.records[j].Score })
	if len(b.records) > Capacity {
		b.records = b.records[:Capacity]
	}
	b.persistLocked(ctx)
	return rec, nil
}

// Remove deletes the record with id and persists the board either way. It
// reports whether one was found.
func (b *Board) Remove(ctx context.Context, id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.records)
	b.records = slices.DeleteFunc(b.records, func(r Record) bool { return r.ID == id })
	b.persistLocked(ctx)
	return len(b.records) < n
}

// Clear empties the leaderboard. Callers confirm with the user first.
func (b *Board) Clear(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = nil
	b.persistLocked(ctx)
}

// Query returns the records whose player name contains filter, ignoring
// case. An empty filter returns the whole board.
func (b *Board) Query(filter string) []Record {
	return b.Filter(filter, "")
}

// Filter is Query restricted to one difficulty; an empty difficulty matches
// all of them.
func (b *Board) Filter(name string, d cards.Difficulty) []Record {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(name))

	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Record, 0, len(b.records))
	for _, r := range b.records {
		if d != "" && r.Difficulty != d {
			continue
		}
		if needle != "" && !strings.Contains(fold.String(r.PlayerName), needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Top returns up to n best records.
func (b *Board) Top(n int) []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 || n > len(b.records) {
		n = len(b.records)
	}
	return append([]Record(nil), b.records[:n]...)
}

// persistLocked writes the full table.
func (b *Board) persistLocked(ctx context.Context) {
	raw, err := json.Marshal(b.records)
	if err != nil {
		log.Warn().Err(err).Str("key", b.key).Msg("leaderboard encode failed")
		return
	}
	if err := b.kv.Set(ctx, b.key, string(raw)); err != nil {
		log.Warn().Err(err).Str("key", b.key).Msg("leaderboard write failed")
	}
}
