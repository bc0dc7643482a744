// internal/settings/settings.go
//
// Player preferences.
// Responsibilities:
//   - Persist the last chosen difficulty and card set under "<app>-settings".
//   - Treat missing or malformed records as the defaults (easy, icons).

package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorama/internal/cards"
	"github.com/robalobadob/memorama/internal/store"
)

// Settings is the stored preference record.
type Settings struct {
	Difficulty cards.Difficulty `json:"difficulty"`
	CardSet    string           `json:"cardSet"`
}

// Default is used whenever nothing valid is stored.
func Default() Settings {
	return Settings{Difficulty: cards.Easy, CardSet: cards.DefaultSetID}
}

// Key returns the KV key holding app's settings.
func Key(app string) string { return app + "-settings" }

// Repo reads and writes the settings record.
type Repo struct {
	kv  store.KV
	key string
}

// NewRepo returns a Repo storing app's settings in kv.
func NewRepo(kv store.KV, app string) *Repo {
	return &Repo{kv: kv, key: Key(app)}
}

// Load returns the stored settings. Missing, unreadable or malformed data
// yields Default; a stored record with a blank or unknown field has just
// that field defaulted.
func (r *Repo) Load(ctx context.Context) Settings {
	raw, ok, err := r.kv.Get(ctx, r.key)
	if err != nil {
		log.Warn().Err(err).Str("key", r.key).Msg("settings read failed, using defaults")
		return Default()
	}
	if !ok {
		return Default()
	}
	var s Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		log.Warn().Err(err).Str("key", r.key).Msg("settings malformed, using defaults")
		return Default()
	}
	return s.normalized()
}

// Save normalizes and stores s, returning what was stored.
func (r *Repo) Save(ctx context.Context, s Settings) (Settings, error) {
	s = s.normalized()
	raw, err := json.Marshal(s)
	if err != nil {
		return s, err
	}
	if err := r.kv.Set(ctx, r.key, string(raw)); err != nil {
		return s, fmt.Errorf("save settings: %w", err)
	}
	return s, nil
}

func (s Settings) normalized() Settings {
	def := Default()
	if !s.Difficulty.Valid() {
		s.Difficulty = def.Difficulty
	}
	if s.CardSet == "" {
		s.CardSet = def.CardSet
	}
	return s
}
