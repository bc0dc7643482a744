package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/memorama/internal/cards"
	"github.com/robalobadob/memorama/internal/cardsets"
	"github.com/robalobadob/memorama/internal/clock"
	"github.com/robalobadob/memorama/internal/game"
	"github.com/robalobadob/memorama/internal/leaderboard"
	"github.com/robalobadob/memorama/internal/settings"
	"github.com/robalobadob/memorama/internal/store"
)

const adminPassword = "correct horse"

func newTestServer(t *testing.T) (*Server, *clock.Manual) {
	t.Helper()
	ctx := context.Background()
	kv := store.NewMemoryKV()
	clk := clock.NewManual(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	s := New(Deps{
		Games:       store.NewGames(),
		Catalog:     cardsets.NewCatalog(ctx, cardsets.EmbeddedProvider{}, kv, "memorama", nil),
		Board:       leaderboard.Open(ctx, kv, "memorama"),
		Settings:    settings.NewRepo(kv, "memorama"),
		GameOptions: game.Options{Clock: clk},
		Auth:        AuthConfig{Secret: "test-secret", PasswordHash: string(hash)},
		DailySalt:   "salt",
		Now:         clk.Now,
	})
	return s, clk
}

func do(t *testing.T, h http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func createGame(t *testing.T, s *Server, body any) game.View {
	t.Helper()
	rec := do(t, s.Router(), http.MethodPost, "/games", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create game: %d %s", rec.Code, rec.Body.String())
	}
	return decode[game.View](t, rec)
}

// solve flips every pair through the API.
func solve(t *testing.T, s *Server, id string) {
	t.Helper()
	g, err := s.Games.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	byIdentity := map[string][]string{}
	for _, c := range g.Snapshot().Deck {
		byIdentity[c.Identity] = append(byIdentity[c.Identity], c.ID)
	}
	for _, ids := range byIdentity {
		for _, cardID := range ids {
			rec := do(t, s.Router(), http.MethodPost, "/games/"+id+"/flip", flipReq{CardID: cardID})
			if res := decode[flipRes](t, rec); !res.Accepted {
				t.Fatalf("flip %s rejected", cardID)
			}
		}
	}
}

func login(t *testing.T, s *Server) string {
	t.Helper()
	rec := do(t, s.Router(), http.MethodPost, "/auth/login", loginReq{Password: adminPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	return decode[map[string]any](t, rec)["token"].(string)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected health: %d %s", rec.Code, rec.Body.String())
	}
}

func TestCreateGameHidesFaces(t *testing.T) {
	s, _ := newTestServer(t)
	v := createGame(t, s, startReq{Difficulty: "easy", CardSetID: "icons"})

	if v.Status != game.StatusPlaying || len(v.Deck) != 16 || v.TotalPairs != 8 {
		t.Fatalf("unexpected view: %+v", v.State)
	}
	for _, c := range v.Deck {
		if c.Identity != "" {
			t.Fatalf("face-down card leaked identity %q", c.Identity)
		}
	}

	// The choice becomes the stored settings.
	got := decode[settings.Settings](t, do(t, s.Router(), http.MethodGet, "/settings", nil))
	if got.Difficulty != cards.Easy || got.CardSet != "icons" {
		t.Fatalf("settings not saved: %+v", got)
	}
}

func TestCreateGameUsesStoredSettings(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodPut, "/settings", settings.Settings{Difficulty: cards.Medium, CardSet: "animals"})
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Body.String())
	}
	v := createGame(t, s, nil)
	if v.Difficulty != cards.Medium || v.CardSetID != "animals" || len(v.Deck) != 24 {
		t.Fatalf("settings not applied: %+v", v.State)
	}
}

func TestCreateGameRejectsBadDifficulty(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodPost, "/games", startReq{Difficulty: "impossible"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func customFaces(n int) []cardsets.CustomFace {
	faces := make([]cardsets.CustomFace, n)
	for i := range faces {
		faces[i] = cardsets.CustomFace{Label: "pic", Image: "https://img.test/p.png"}
	}
	return faces
}

func TestMinimumCustomSetCanBeDealt(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := do(t, s.Router(), http.MethodPost, "/cardsets", createSetReq{Name: "Tiny", Faces: customFaces(4)}); rec.Code != http.StatusBadRequest {
		t.Fatalf("set too small for an easy board accepted: %d", rec.Code)
	}

	rec := do(t, s.Router(), http.MethodPost, "/cardsets", createSetReq{Name: "Mine", Faces: customFaces(s.Catalog.MinFaces())})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create set: %d %s", rec.Code, rec.Body.String())
	}
	set := decode[cards.CardSet](t, rec)

	v := createGame(t, s, startReq{Difficulty: "easy", CardSetID: set.ID})
	if v.CardSetID != set.ID || len(v.Deck) != 16 {
		t.Fatalf("unexpected deal: %+v", v.State)
	}
}

func TestCompactLayoutDealsFourFaceSet(t *testing.T) {
	s, _ := newTestServer(t)
	s.Catalog = cardsets.NewCatalog(context.Background(), cardsets.EmbeddedProvider{}, store.NewMemoryKV(), "memorama", cards.CompactLayout)
	s.GameOptions.Layout = cards.CompactLayout

	rec := do(t, s.Router(), http.MethodPost, "/cardsets", createSetReq{Name: "Mine", Faces: customFaces(cardsets.MinCustomFaces)})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create set: %d %s", rec.Code, rec.Body.String())
	}
	set := decode[cards.CardSet](t, rec)

	v := createGame(t, s, startReq{Difficulty: "easy", CardSetID: set.ID})
	if len(v.Deck) != 8 {
		t.Fatalf("expected 8 cards, got %d", len(v.Deck))
	}
}

func TestInsufficientIdentitiesIs422(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodPost, "/cardsets", createSetReq{Name: "Mine", Faces: customFaces(s.Catalog.MinFaces())})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create set: %d %s", rec.Code, rec.Body.String())
	}
	set := decode[cards.CardSet](t, rec)

	rec = do(t, s.Router(), http.MethodPost, "/games", startReq{Difficulty: "medium", CardSetID: set.ID})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %s", rec.Code, rec.Body.String())
	}
	if s.Games.Len() != 0 {
		t.Fatal("failed game was registered")
	}
}

func TestFlipMatchAndMismatchOverHTTP(t *testing.T) {
	s, clk := newTestServer(t)
	v := createGame(t, s, startReq{Difficulty: "easy"})
	g, _ := s.Games.Get(v.ID)
	deck := g.Snapshot().Deck

	var a, c string
	for _, card := range deck[1:] {
		if card.Identity != deck[0].Identity {
			a, c = deck[0].ID, card.ID
			break
		}
	}
	do(t, s.Router(), http.MethodPost, "/games/"+v.ID+"/flip", flipReq{CardID: a})
	res := decode[flipRes](t, do(t, s.Router(), http.MethodPost, "/games/"+v.ID+"/flip", flipReq{CardID: c}))
	if !res.Accepted || res.Game.Moves != 1 || res.Game.MatchedPairs != 0 || len(res.Game.Flipped) != 2 {
		t.Fatalf("unexpected mismatch state: %+v", res.Game.State)
	}

	clk.Advance(time.Second)
	after := decode[game.View](t, do(t, s.Router(), http.MethodGet, "/games/"+v.ID, nil))
	if len(after.Flipped) != 0 {
		t.Fatalf("mismatch not hidden: %v", after.Flipped)
	}

	rec := do(t, s.Router(), http.MethodPost, "/games/"+v.ID+"/flip", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without cardId, got %d", rec.Code)
	}
	if rec := do(t, s.Router(), http.MethodGet, "/games/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestResetAndRestart(t *testing.T) {
	s, _ := newTestServer(t)
	v := createGame(t, s, startReq{Difficulty: "easy"})

	reset := decode[game.View](t, do(t, s.Router(), http.MethodPost, "/games/"+v.ID+"/reset", nil))
	if reset.Status != game.StatusIdle || len(reset.Deck) != 0 {
		t.Fatalf("unexpected reset view: %+v", reset.State)
	}
	restarted := decode[game.View](t, do(t, s.Router(), http.MethodPost, "/games/"+v.ID+"/start", startReq{Difficulty: "hard"}))
	if restarted.ID != v.ID || restarted.Status != game.StatusPlaying || len(restarted.Deck) != 36 {
		t.Fatalf("unexpected restart view: %+v", restarted.State)
	}
}

func TestDailyDealIsSharedAcrossGames(t *testing.T) {
	s, _ := newTestServer(t)
	a := createGame(t, s, startReq{Difficulty: "easy", Daily: true})
	b := createGame(t, s, startReq{Difficulty: "easy", Daily: true})
	if a.Daily != "2026-05-01" {
		t.Fatalf("unexpected daily key %q", a.Daily)
	}

	ga, _ := s.Games.Get(a.ID)
	gb, _ := s.Games.Get(b.ID)
	da, db := ga.Snapshot().Deck, gb.Snapshot().Deck
	for i := range da {
		if da[i].Identity != db[i].Identity {
			t.Fatalf("daily layouts differ at %d", i)
		}
	}
}

func TestSubmitScoreOncePerGame(t *testing.T) {
	s, clk := newTestServer(t)
	v := createGame(t, s, startReq{Difficulty: "easy"})

	rec := do(t, s.Router(), http.MethodPost, "/scores", submitScoreReq{GameID: v.ID, PlayerName: "Ana"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("unfinished game accepted: %d", rec.Code)
	}

	clk.Advance(10 * time.Second)
	solve(t, s, v.ID)

	rec = do(t, s.Router(), http.MethodPost, "/scores", submitScoreReq{GameID: v.ID, PlayerName: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank name accepted: %d", rec.Code)
	}
	rec = do(t, s.Router(), http.MethodPost, "/scores", submitScoreReq{GameID: v.ID, PlayerName: "Ana"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	got := decode[leaderboard.Record](t, rec)
	g, _ := s.Games.Get(v.ID)
	if got.Score != g.Snapshot().Score || got.Difficulty != cards.Easy {
		t.Fatalf("unexpected record %+v", got)
	}

	rec = do(t, s.Router(), http.MethodPost, "/scores", submitScoreReq{GameID: v.ID, PlayerName: "Ana"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("second submit accepted: %d", rec.Code)
	}

	list := decode[[]leaderboard.Record](t, do(t, s.Router(), http.MethodGet, "/scores?q=AN&difficulty=easy", nil))
	if len(list) != 1 || list[0].ID != got.ID {
		t.Fatalf("unexpected list %+v", list)
	}
	list = decode[[]leaderboard.Record](t, do(t, s.Router(), http.MethodGet, "/scores?difficulty=hard", nil))
	if len(list) != 0 {
		t.Fatalf("difficulty filter ignored: %+v", list)
	}
}

func TestAdminOnlyDeletes(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := s.Board.Add(context.Background(), "Ana", 900, cards.Easy)
	s.Board.Add(context.Background(), "Bob", 800, cards.Easy)

	if r := do(t, s.Router(), http.MethodDelete, "/scores/"+rec.ID, nil); r.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous delete allowed: %d", r.Code)
	}
	if r := do(t, s.Router(), http.MethodPost, "/auth/login", loginReq{Password: "wrong"}); r.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password accepted: %d", r.Code)
	}

	bearer := "Bearer " + login(t, s)
	if r := do(t, s.Router(), http.MethodDelete, "/scores/"+rec.ID, nil, "Authorization", bearer); r.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", r.Code, r.Body.String())
	}
	if r := do(t, s.Router(), http.MethodDelete, "/scores/"+rec.ID, nil, "Authorization", bearer); r.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", r.Code)
	}
	if r := do(t, s.Router(), http.MethodDelete, "/scores", nil, "Authorization", bearer); r.Code != http.StatusBadRequest {
		t.Fatalf("clear without confirm allowed: %d", r.Code)
	}
	if r := do(t, s.Router(), http.MethodDelete, "/scores?confirm=true", nil, "Authorization", bearer); r.Code != http.StatusOK {
		t.Fatalf("clear: %d", r.Code)
	}
	if len(s.Board.Query("")) != 0 {
		t.Fatal("leaderboard not cleared")
	}
	if r := do(t, s.Router(), http.MethodDelete, "/scores?confirm=true", nil, "Authorization", "Bearer forged"); r.Code != http.StatusUnauthorized {
		t.Fatalf("forged token accepted: %d", r.Code)
	}
}

func TestCustomSetRoutes(t *testing.T) {
	s, _ := newTestServer(t)
	if r := do(t, s.Router(), http.MethodPost, "/cardsets", createSetReq{Name: "few"}); r.Code != http.StatusBadRequest {
		t.Fatalf("invalid set accepted: %d", r.Code)
	}
	if r := do(t, s.Router(), http.MethodDelete, "/cardsets/icons", nil); r.Code != http.StatusForbidden {
		t.Fatalf("built-in delete allowed: %d", r.Code)
	}
	sets := decode[[]cards.CardSet](t, do(t, s.Router(), http.MethodGet, "/cardsets", nil))
	if len(sets) == 0 || sets[0].ID != "icons" {
		t.Fatalf("unexpected catalog %+v", sets)
	}
}

func TestQRCode(t *testing.T) {
	s, _ := newTestServer(t)
	v := createGame(t, s, nil)
	rec := do(t, s.Router(), http.MethodGet, "/games/"+v.ID+"/qr", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected qr response: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("body is not a PNG")
	}
}

func TestWebsocketStreamsEvents(t *testing.T) {
	s, _ := newTestServer(t)
	v := createGame(t, s, startReq{Difficulty: "easy"})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/games/" + v.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello stateMessage
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != "state" || hello.Game.ID != v.ID {
		t.Fatalf("unexpected hello %+v: %v", hello, err)
	}

	cardID := hello.Game.Deck[0].ID
	if err := conn.WriteJSON(ClientMessage{Type: "flip", CardID: cardID}); err != nil {
		t.Fatal(err)
	}
	var ev game.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != game.EventCardFlipped || len(ev.CardIDs) != 1 || ev.CardIDs[0] != cardID || ev.Identity == "" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func wsURL(srv *httptest.Server, id string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/games/" + id + "/ws"
}

// readUntil reads events until one of type want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want game.EventType) game.Event {
	t.Helper()
	for {
		var ev game.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		if ev.Type == want {
			return ev
		}
	}
}

func TestWebsocketPlayKeepsGameAlive(t *testing.T) {
	s, _ := newTestServer(t)
	var now atomic.Int64
	now.Store(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC).UnixNano())
	s.Games = store.NewGamesWithClock(func() time.Time { return time.Unix(0, now.Load()) })
	advance := func(d time.Duration) { now.Add(int64(d)) }

	v := createGame(t, s, startReq{Difficulty: "easy"})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, v.ID), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	readUntil(t, conn, "state")

	g, err := s.Games.Get(v.ID)
	if err != nil {
		t.Fatal(err)
	}
	deck := g.Snapshot().Deck
	var pair []string
	for _, c := range deck {
		if c.Identity == deck[0].Identity {
			pair = append(pair, c.ID)
		}
	}

	// Two flips spread over more than the idle timeout, sent only over the socket.
	for _, cardID := range pair {
		advance(40 * time.Minute)
		if err := conn.WriteJSON(ClientMessage{Type: "flip", CardID: cardID}); err != nil {
			t.Fatal(err)
		}
		readUntil(t, conn, game.EventCardFlipped)
	}
	readUntil(t, conn, game.EventPairMatched)

	if n := s.Games.Reap(time.Hour); n != 0 {
		t.Fatal("game reaped while being played over the websocket")
	}

	advance(2 * time.Hour)
	if n := s.Games.Reap(time.Hour); n != 1 {
		t.Fatalf("expected the abandoned game to be reaped, got %d", n)
	}
	if rec := do(t, s.Router(), http.MethodGet, "/games/"+v.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("reaped game still served: %d", rec.Code)
	}
	var other string
	for _, c := range deck {
		if c.Identity != deck[0].Identity {
			other = c.ID
			break
		}
	}
	if g.Flip(other) {
		t.Fatal("reaped game accepted a flip")
	}
	if got := g.Snapshot(); got.Moves != 1 || got.MatchedPairs != 1 {
		t.Fatalf("reaped game changed: %+v", got)
	}
}

func TestWebsocketChecksOrigin(t *testing.T) {
	s, _ := newTestServer(t)
	v := createGame(t, s, startReq{Difficulty: "easy"})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	tests := []struct {
		origin string
		ok     bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{srv.URL, true},
		{"https://elsewhere.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, v.ID), header)
			if tt.ok {
				if err != nil {
					t.Fatalf("dial: %v", err)
				}
				conn.Close()
				return
			}
			if err == nil {
				conn.Close()
				t.Fatal("foreign origin was upgraded")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Fatalf("expected 403, got %v", resp)
			}
		})
	}
}
