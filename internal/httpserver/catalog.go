// internal/httpserver/catalog.go
//
// Card set and settings endpoints.
//   GET    /cardsets          built-in sets then custom ones
//   POST   /cardsets          {name, faces:[{label, image}]} -> custom set
//   DELETE /cardsets/{id}     custom sets only
//   GET    /settings          stored {difficulty, cardSet}
//   PUT    /settings          replace them

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorama/internal/cardsets"
	"github.com/robalobadob/memorama/internal/settings"
	"github.com/robalobadob/memorama/internal/store"
)

func (s *Server) mountCatalog(r chi.Router) {
	r.Get("/cardsets", s.handleListSets)
	r.Post("/cardsets", s.handleCreateSet)
	r.Delete("/cardsets/{id}", s.handleDeleteSet)
	r.Get("/settings", s.handleGetSettings)
	r.Put("/settings", s.handlePutSettings)
}

type createSetReq struct {
	Name  string                `json:"name"`
	Faces []cardsets.CustomFace `json:"faces"`
}

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog.All())
}

func (s *Server) handleCreateSet(w http.ResponseWriter, r *http.Request) {
	var req createSetReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	set, err := s.Catalog.AddCustom(r.Context(), req.Name, req.Faces)
	if errors.Is(err, cardsets.ErrInvalidCustomSet) {
		writeError(w, http.StatusBadRequest, "invalid_card_set", err.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("add custom set")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	err := s.Catalog.DeleteCustom(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, cardsets.ErrNotCustom):
		writeError(w, http.StatusForbidden, "not_custom", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "card_set_not_found")
	case err != nil:
		log.Error().Err(err).Msg("delete custom set")
		writeError(w, http.StatusInternalServerError, "save_failed")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Settings.Load(r.Context()))
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settings.Settings
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	saved, err := s.Settings.Save(r.Context(), req)
	if err != nil {
		log.Warn().Err(err).Msg("save settings")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
