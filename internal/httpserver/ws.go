// internal/httpserver/ws.go
//
// Live event stream for one game.
// Responsibilities:
//   - Upgrade GET /games/{id}/ws and subscribe the connection to the game.
//   - Push the current view on connect, then every engine event.
//   - Accept {"type":"flip","cardId":...}, {"type":"reset"} and
//     {"type":"state"} from the client.
//
// Notes:
//   - Engine callbacks must not block, so events go through a buffered
//     channel; a client that falls that far behind is disconnected.

package httpserver

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorama/internal/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// checkOrigin admits the configured client origin and same-host pages.
// Requests without an Origin header come from non-browser clients.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || strings.EqualFold(origin, s.ClientOrigin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ClientMessage is a command sent by the browser.
type ClientMessage struct {
	Type   string `json:"type"`
	CardID string `json:"cardId,omitempty"`
}

// stateMessage carries a full view; sent on connect and on request.
type stateMessage struct {
	Type string    `json:"type"`
	Game game.View `json:"game"`
}

// Client is one websocket connection watching a game.
type Client struct {
	conn *websocket.Conn
	send chan any

	mu     sync.Mutex
	closed bool
}

// OnEvent queues an engine event. It never blocks.
func (c *Client) OnEvent(e game.Event) {
	c.enqueue(e)
}

func (c *Client) enqueue(msg any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		log.Warn().Msg("websocket client too slow, disconnecting")
		c.closed = true
		close(c.send)
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	client := &Client{conn: conn, send: make(chan any, sendBuffer)}
	cancel := g.Subscribe(client)
	client.enqueue(stateMessage{Type: "state", Game: g.Snapshot().Public()})

	go client.writePump()
	client.readPump(g, func() { s.Games.Touch(g.ID) })

	cancel()
	client.close()
}

// readPump applies client commands until the connection drops. touch is
// called for every command so an active socket keeps the session alive.
func (c *Client) readPump(g *game.Game, touch func()) {
	defer c.conn.Close()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		touch()

		switch msg.Type {
		case "flip":
			g.Flip(msg.CardID)
		case "reset":
			g.Reset()
		case "state":
			c.enqueue(stateMessage{Type: "state", Game: g.Snapshot().Public()})
		default:
			// ignore unknown types
		}
	}
}

// writePump sends queued messages and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
