// internal/httpserver/scores.go
//
// Leaderboard endpoints.
//   GET    /scores?q=&difficulty=   filtered leaderboard
//   POST   /scores                  {gameId, playerName}; once per finished game
//   DELETE /scores/{id}             admin
//   DELETE /scores?confirm=true     admin; clears everything

package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/memorama/internal/cards"
	"github.com/robalobadob/memorama/internal/leaderboard"
)

func (s *Server) mountScores(r chi.Router) {
	r.Get("/scores", s.handleListScores)
	r.Post("/scores", s.handleSubmitScore)
	r.With(s.requireAdmin).Delete("/scores/{id}", s.handleDeleteScore)
	r.With(s.requireAdmin).Delete("/scores", s.handleClearScores)
}

type submitScoreReq struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	var d cards.Difficulty
	if v := r.URL.Query().Get("difficulty"); v != "" {
		parsed, err := cards.ParseDifficulty(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_difficulty", err.Error())
			return
		}
		d = parsed
	}
	writeJSON(w, http.StatusOK, s.Board.Filter(r.URL.Query().Get("q"), d))
}

// handleSubmitScore enters the engine-computed score of a finished game.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	// Validate before claiming; a claim cannot be undone.
	if strings.TrimSpace(req.PlayerName) == "" {
		writeError(w, http.StatusBadRequest, "invalid_name", leaderboard.ErrInvalidName.Error())
		return
	}
	g, err := s.Games.Get(req.GameID)
	if err != nil {
		writeError(w, http.StatusNotFound, "game_not_found")
		return
	}
	res, ok := g.ClaimScore()
	if !ok {
		writeError(w, http.StatusConflict, "score_unavailable", "game is not finished or its score was already submitted")
		return
	}
	rec, err := s.Board.Add(r.Context(), req.PlayerName, res.Score, res.Difficulty)
	if errors.Is(err, leaderboard.ErrInvalidName) {
		writeError(w, http.StatusBadRequest, "invalid_name", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "add_failed")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleDeleteScore(w http.ResponseWriter, r *http.Request) {
	if !s.Board.Remove(r.Context(), chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "score_not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleClearScores(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "confirmation_required", "pass confirm=true to clear the leaderboard")
		return
	}
	s.Board.Clear(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
