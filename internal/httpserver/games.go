// internal/httpserver/games.go
//
// Game session endpoints.
//   POST /games               {difficulty?, cardSetId?, daily?} -> new session
//   GET  /games/{id}          current view (face-down identities hidden)
//   POST /games/{id}/flip     {cardId} -> {accepted, game}
//   POST /games/{id}/start    {difficulty?, cardSetId?, daily?} -> redeal same session
//   POST /games/{id}/reset    back to idle
//   GET  /games/{id}/qr       PNG QR code linking to the session
//
// Missing difficulty or card set falls back to the stored settings, and the
// choice is saved back as the new settings.

package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/robalobadob/memorama/internal/cards"
	"github.com/robalobadob/memorama/internal/daily"
	"github.com/robalobadob/memorama/internal/game"
	"github.com/robalobadob/memorama/internal/settings"
	"github.com/robalobadob/memorama/internal/store"
)

const qrSize = 320 // mobile-friendly size

func (s *Server) mountGames(r chi.Router) {
	r.Post("/games", s.handleNewGame)
	r.Get("/games/{id}", s.handleGetGame)
	r.Post("/games/{id}/flip", s.handleFlip)
	r.Post("/games/{id}/start", s.handleRestart)
	r.Post("/games/{id}/reset", s.handleReset)
	r.Get("/games/{id}/qr", s.handleQR)
}

// startReq is the payload for POST /games and POST /games/{id}/start.
type startReq struct {
	Difficulty string `json:"difficulty"`
	CardSetID  string `json:"cardSetId"`
	Daily      bool   `json:"daily"`
}

type flipReq struct {
	CardID string `json:"cardId"`
}

type flipRes struct {
	Accepted bool      `json:"accepted"`
	Game     game.View `json:"game"`
}

// handleNewGame creates a session, deals it and registers it.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	g := game.New(s.GameOptions)
	if s.Publisher != nil {
		g.Subscribe(s.Publisher)
	}
	if !s.deal(w, r, g, req) {
		g.Close()
		return
	}
	s.Games.Save(g)
	log.Info().Str("gameId", g.ID).Str("difficulty", string(g.Snapshot().Difficulty)).Msg("game created")
	writeJSON(w, http.StatusCreated, g.Snapshot().Public())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, g.Snapshot().Public())
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req flipReq
	if err := decodeBody(w, r, &req); err != nil || req.CardID == "" {
		writeError(w, http.StatusBadRequest, "card_id_required")
		return
	}
	accepted := g.Flip(req.CardID)
	writeJSON(w, http.StatusOK, flipRes{Accepted: accepted, Game: g.Snapshot().Public()})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req startReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if !s.deal(w, r, g, req) {
		return
	}
	writeJSON(w, http.StatusOK, g.Snapshot().Public())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	g.Reset()
	writeJSON(w, http.StatusOK, g.Snapshot().Public())
}

// handleQR generates a PNG QR code for the game URL using go-qrcode.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.lookup(w, r); !ok {
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "qr_failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// deal resolves the request against stored settings and starts g. It writes
// the error response and returns false on failure.
func (s *Server) deal(w http.ResponseWriter, r *http.Request, g *game.Game, req startReq) bool {
	prefs := s.Settings.Load(r.Context())

	d := prefs.Difficulty
	if req.Difficulty != "" {
		parsed, err := cards.ParseDifficulty(req.Difficulty)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_difficulty", err.Error())
			return false
		}
		d = parsed
	}
	setID := prefs.CardSet
	if req.CardSetID != "" {
		setID = req.CardSetID
	}
	set := s.Catalog.Get(setID)

	var err error
	if req.Daily {
		now := s.Now()
		err = g.StartSeeded(d, set, daily.Seed(now, s.DailySalt), daily.DateKey(now))
	} else {
		err = g.Start(d, set)
	}
	if errors.Is(err, game.ErrClosed) {
		writeError(w, http.StatusNotFound, "game_not_found")
		return false
	}
	if errors.Is(err, cards.ErrInsufficientIdentities) {
		writeError(w, http.StatusUnprocessableEntity, "insufficient_identities", err.Error())
		return false
	}
	if err != nil {
		log.Error().Err(err).Str("gameId", g.ID).Msg("start game")
		writeError(w, http.StatusInternalServerError, "start_failed")
		return false
	}

	if _, err := s.Settings.Save(r.Context(), settings.Settings{Difficulty: d, CardSet: set.ID}); err != nil {
		log.Warn().Err(err).Msg("save settings")
	}
	return true
}

// lookup finds the {id} session or writes a 404.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	g, err := s.Games.Get(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "game_not_found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup_failed")
		return nil, false
	}
	return g, true
}
