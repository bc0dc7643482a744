// internal/cardsets/provider.go
//
// Sources of the card set catalog.
//
// Responsibilities:
//   - Fetch the catalog over HTTP, read it from a file, or use the copy
//     embedded in the binary.
//   - Decode and validate the JSON list of sets.
//   - Chain sources so the first one that works wins.
//
// Catalog format (JSON):
//
//	[{"id": "icons", "name": "Icons", "faces": [{"key": "mdi-star", "color": "accent"}, ...]}, ...]
//
// Constraints:
//   • Every set needs an id and at least one usable face key.
//   • Sets failing validation are skipped; an empty result is an error.

package cardsets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/robalobadob/memorama/assets"
	"github.com/robalobadob/memorama/internal/cards"
)

// maxCatalogBytes caps what a provider will read.
const maxCatalogBytes = 1 << 20

// ErrEmptyCatalog is returned when a source decodes to no usable sets.
var ErrEmptyCatalog = errors.New("card set catalog is empty")

// Provider loads the built-in card sets.
type Provider interface {
	Load(ctx context.Context) ([]cards.CardSet, error)
}

// HTTPProvider fetches the catalog from URL.
type HTTPProvider struct {
	URL    string
	Client *http.Client
}

func (p HTTPProvider) Load(ctx context.Context) ([]cards.CardSet, error) {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, err
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p.URL, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", p.URL, res.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, maxCatalogBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.URL, err)
	}
	return decode(b)
}

// FileProvider reads the catalog from a local file.
type FileProvider struct {
	Path string
}

func (p FileProvider) Load(ctx context.Context) ([]cards.CardSet, error) {
	b, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, err
	}
	return decode(b)
}

// EmbeddedProvider returns the catalog shipped in the binary.
type EmbeddedProvider struct{}

func (EmbeddedProvider) Load(ctx context.Context) ([]cards.CardSet, error) {
	b, err := assets.CardSets()
	if err != nil {
		return nil, err
	}
	return decode(b)
}

// Chain tries each provider in turn and returns the first successful load.
// If all fail, the errors are joined.
type Chain []Provider

func (c Chain) Load(ctx context.Context) ([]cards.CardSet, error) {
	var errs []error
	for _, p := range c {
		sets, err := p.Load(ctx)
		if err == nil {
			return sets, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrEmptyCatalog
	}
	return nil, errors.Join(errs...)
}

// decode parses a catalog and drops sets without an id or faces.
func decode(b []byte) ([]cards.CardSet, error) {
	var raw []cards.CardSet
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	out := make([]cards.CardSet, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" || len(s.Identities()) == 0 {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		if s.Name == "" {
			s.Name = s.ID
		}
		s.Custom = false
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, ErrEmptyCatalog
	}
	return out, nil
}
