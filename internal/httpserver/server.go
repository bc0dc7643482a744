// internal/httpserver/server.go
//
// HTTP server wiring for the Memorama backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints: create, read, flip, restart, reset, QR link, websocket.
//   - Card set catalog + custom sets, player settings.
//   - Leaderboard: list/filter, submit a finished game, admin-only deletes.
//   - Admin login via bcrypt password hash and a JWT cookie.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - The websocket route is mounted outside the timeout group; it lives as
//     long as the connection.
//   - Scores are computed by the engine, never taken from the client.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorama/internal/cardsets"
	"github.com/robalobadob/memorama/internal/game"
	"github.com/robalobadob/memorama/internal/leaderboard"
	"github.com/robalobadob/memorama/internal/settings"
	"github.com/robalobadob/memorama/internal/store"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Games    *store.Games
	Catalog  *cardsets.Catalog
	Board    *leaderboard.Board
	Settings *settings.Repo

	// Publisher, when set, is subscribed to every game the server creates.
	Publisher game.Observer

	GameOptions  game.Options
	Auth         AuthConfig
	ClientOrigin string
	DailySalt    string
	Now          func() time.Time
}

// Server bundles router and dependencies.
type Server struct {
	r chi.Router
	Deps
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.ClientOrigin == "" {
		d.ClientOrigin = "http://localhost:5173"
	}
	d.Auth = d.Auth.withDefaults()

	s := &Server{r: chi.NewRouter(), Deps: d}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(cors(d.ClientOrigin))

	// Long-lived: no timeout, no JSON content type.
	s.r.Get("/games/{id}/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"memorama","endpoints":["/health","/cardsets","/settings","/games","/scores","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "games": s.Games.Len()})
		})

		s.mountCatalog(r)
		s.mountGames(r)
		s.mountScores(r)
		s.mountAuth(r)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not_found")
		})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() http.Handler { return s.r }

// Serve listens on addr until ctx is cancelled, then drains in-flight
// requests for up to five seconds.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// writeError sends {"error": code, "message": detail}. detail is optional.
func writeError(w http.ResponseWriter, status int, code string, detail ...string) {
	body := map[string]string{"error": code}
	if len(detail) > 0 && detail[0] != "" {
		body["message"] = detail[0]
	}
	writeJSON(w, status, body)
}

// decodeBody reads a JSON request body. An empty body decodes to the zero
// value so optional payloads can be omitted.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
