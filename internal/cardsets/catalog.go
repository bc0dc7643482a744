// internal/cardsets/catalog.go
//
// The set of card sets a game can be dealt from.
//
// Responsibilities:
//   - Load built-in sets from a Provider, falling back to cards.DefaultSets
//     on any failure so a game can always start.
//   - Keep player-made custom sets in the KV under "<app>-custom-sets".
//   - Resolve a set id, falling back to the first set for unknown ids.
//
// Custom sets:
//   • Enough faces to deal an easy board under the configured layout, and
//     never fewer than MinCustomFaces; each face needs a label and an image URL.
//   • Image URLs must end in .png, .jpg, .jpeg, .gif or .webp.
//   • Ids are "custom-<uuid>"; only custom sets can be deleted.

package cardsets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorama/internal/cards"
	"github.com/robalobadob/memorama/internal/store"
)

// MinCustomFaces is the smallest custom set accepted under any layout.
const MinCustomFaces = 4

const customPrefix = "custom-"

var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

var (
	ErrInvalidCustomSet = errors.New("invalid custom card set")
	ErrNotCustom        = errors.New("only custom card sets can be deleted")
)

// Catalog is safe for concurrent use.
type Catalog struct {
	provider Provider
	kv       store.KV
	key      string
	layout   cards.Layout

	mu      sync.RWMutex
	builtin []cards.CardSet
	custom  []cards.CardSet
}

// CustomKey returns the KV key holding app's custom sets.
func CustomKey(app string) string { return app + "-custom-sets" }

// NewCatalog loads the built-in and custom sets. It never fails: provider
// and storage errors are logged and replaced by defaults. layout is the one
// games are dealt with; nil means cards.StandardLayout.
func NewCatalog(ctx context.Context, p Provider, kv store.KV, app string, layout cards.Layout) *Catalog {
	if layout == nil {
		layout = cards.StandardLayout
	}
	c := &Catalog{provider: p, kv: kv, key: CustomKey(app), layout: layout}
	c.Reload(ctx)
	return c
}

// Reload refetches the built-in sets and rereads the custom ones.
func (c *Catalog) Reload(ctx context.Context) {
	builtin := c.loadBuiltin(ctx)
	custom := c.loadCustom(ctx)

	c.mu.Lock()
	c.builtin, c.custom = builtin, custom
	c.mu.Unlock()
}

func (c *Catalog) loadBuiltin(ctx context.Context) []cards.CardSet {
	if c.provider == nil {
		return cards.DefaultSets()
	}
	sets, err := c.provider.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("card set catalog unavailable, using built-in defaults")
		return cards.DefaultSets()
	}
	return sets
}

func (c *Catalog) loadCustom(ctx context.Context) []cards.CardSet {
	raw, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		log.Warn().Err(err).Str("key", c.key).Msg("custom sets read failed")
		return nil
	}
	if !ok {
		return nil
	}
	var sets []cards.CardSet
	if err := json.Unmarshal([]byte(raw), &sets); err != nil {
		log.Warn().Err(err).Str("key", c.key).Msg("custom sets malformed, ignoring")
		return nil
	}
	for i := range sets {
		sets[i].Custom = true
	}
	return sets
}

// All returns built-in sets followed by custom ones.
func (c *Catalog) All() []cards.CardSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]cards.CardSet, 0, len(c.builtin)+len(c.custom))
	out = append(out, c.builtin...)
	return append(out, c.custom...)
}

// Lookup finds a set by id.
func (c *Catalog) Lookup(id string) (cards.CardSet, bool) {
	for _, s := range c.All() {
		if s.ID == id {
			return s, true
		}
	}
	return cards.CardSet{}, false
}

// Get is Lookup with a fallback to the first available set.
func (c *Catalog) Get(id string) cards.CardSet {
	if s, ok := c.Lookup(id); ok {
		return s
	}
	all := c.All()
	if len(all) == 0 {
		return cards.DefaultSet()
	}
	return all[0]
}

// CustomFace is one card of a custom set as submitted by a player.
type CustomFace struct {
	Label string `json:"label"`
	Image string `json:"image"`
}

// MinFaces is the smallest custom set AddCustom accepts: enough faces for an
// easy board.
func (c *Catalog) MinFaces() int {
	return max(MinCustomFaces, c.layout.Board(cards.Easy).PairCount)
}

// AddCustom validates and stores a new custom set. A blank name becomes
// "Custom N".
func (c *Catalog) AddCustom(ctx context.Context, name string, faces []CustomFace) (cards.CardSet, error) {
	if need := c.MinFaces(); len(faces) < need {
		return cards.CardSet{}, fmt.Errorf("%w: need at least %d cards, got %d", ErrInvalidCustomSet, need, len(faces))
	}
	set := cards.CardSet{
		ID:     customPrefix + uuid.NewString(),
		Name:   strings.TrimSpace(name),
		Custom: true,
	}
	for i, f := range faces {
		label, image := strings.TrimSpace(f.Label), strings.TrimSpace(f.Image)
		if label == "" || image == "" {
			return cards.CardSet{}, fmt.Errorf("%w: card %d needs a label and an image", ErrInvalidCustomSet, i+1)
		}
		if !hasImageExt(image) {
			return cards.CardSet{}, fmt.Errorf("%w: unsupported image %q", ErrInvalidCustomSet, image)
		}
		set.Faces = append(set.Faces, cards.Face{Key: uuid.NewString(), Label: label, Image: image})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if set.Name == "" {
		set.Name = fmt.Sprintf("Custom %d", len(c.custom)+1)
	}
	next := append(slices.Clone(c.custom), set)
	if err := c.persistLocked(ctx, next); err != nil {
		return cards.CardSet{}, err
	}
	c.custom = next
	return set, nil
}

// DeleteCustom removes a custom set. Built-in ids return ErrNotCustom and
// unknown custom ids return store.ErrNotFound.
func (c *Catalog) DeleteCustom(ctx context.Context, id string) error {
	if !strings.HasPrefix(id, customPrefix) {
		return ErrNotCustom
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.custom, func(s cards.CardSet) bool { return s.ID == id })
	if i < 0 {
		return store.ErrNotFound
	}
	next := slices.Delete(slices.Clone(c.custom), i, i+1)
	if err := c.persistLocked(ctx, next); err != nil {
		return err
	}
	c.custom = next
	return nil
}

func (c *Catalog) persistLocked(ctx context.Context, sets []cards.CardSet) error {
	raw, err := json.Marshal(sets)
	if err != nil {
		return err
	}
	if err := c.kv.Set(ctx, c.key, string(raw)); err != nil {
		return fmt.Errorf("save custom sets: %w", err)
	}
	return nil
}

func hasImageExt(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range imageExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
