// internal/httpserver/auth.go
//
// Admin authentication.
// There are no player accounts: a single admin password (stored only as a
// bcrypt hash) unlocks the destructive leaderboard endpoints.
//
// Flow:
//   - POST /auth/login {password} checks the hash, signs a JWT and sets it
//     as an HttpOnly cookie (also returned in the body for bearer use).
//   - requireAdmin accepts "Authorization: Bearer <token>" or the cookie.
//   - POST /auth/logout clears the cookie.

package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const adminSubject = "admin"

// AuthConfig configures admin login. With an empty PasswordHash or Secret,
// login is disabled and admin routes always answer 401.
type AuthConfig struct {
	Secret        string
	PasswordHash  string
	CookieName    string
	SecureCookies bool
	TTL           time.Duration
}

func (a AuthConfig) withDefaults() AuthConfig {
	if a.CookieName == "" {
		a.CookieName = "memorama_admin"
	}
	if a.TTL <= 0 {
		a.TTL = 12 * time.Hour
	}
	return a
}

func (a AuthConfig) enabled() bool { return a.Secret != "" && a.PasswordHash != "" }

func (s *Server) mountAuth(r chi.Router) {
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)
}

type loginReq struct {
	Password string `json:"password"`
}

// handleLogin verifies the admin password and issues a token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.Auth.enabled() {
		writeError(w, http.StatusServiceUnavailable, "admin_disabled")
		return
	}
	var body loginReq
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if !checkPassword(s.Auth.PasswordHash, body.Password) {
		writeError(w, http.StatusUnauthorized, "invalid_password")
		return
	}
	tok, exp, err := s.signJWT()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setAuthCookie(w, tok, exp)
	writeJSON(w, http.StatusOK, map[string]any{"token": tok, "expiresAt": exp})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// requireAdmin enforces a valid admin JWT.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Auth.enabled() {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		tok := s.bearerOrCookie(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if err := s.verifyJWT(tok); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// signJWT creates a signed HS256 admin token.
func (s *Server) signJWT() (string, time.Time, error) {
	now := s.Now()
	exp := now.Add(s.Auth.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := token.SignedString([]byte(s.Auth.Secret))
	return ss, exp, err
}

func (s *Server) verifyJWT(tok string) error {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.Auth.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
	if err != nil {
		return err
	}
	if !t.Valid || claims.Subject != adminSubject {
		return errors.New("not an admin token")
	}
	return nil
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.Auth.SecureCookies {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.Auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Auth.SecureCookies,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearAuthCookie deletes the auth token cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	sameSite := http.SameSiteLaxMode
	if s.Auth.SecureCookies {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.Auth.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Auth.SecureCookies,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.Auth.CookieName); err == nil {
		return c.Value
	}
	return ""
}
