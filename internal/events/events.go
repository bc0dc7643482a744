// internal/events/events.go
//
// NATS adapter for engine events.
// Responsibilities:
//   - Connect to the broker with bounded reconnects.
//   - Publish each game event as JSON on "<app>.games.<gameId>.<type>".
//
// Notes:
//   - Tick events are not published; subscribers derive the clock from
//     elapsedSeconds on the other events.
//   - Publish failures are logged and never reach the engine.

package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorama/internal/game"
)

// Connect dials the broker at url.
func Connect(url, name string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}
	return nats.Connect(url, opts...)
}

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher is a game.Observer that forwards events to NATS.
type Publisher struct {
	conn Conn
	app  string
}

// NewPublisher returns a Publisher sending on conn under the app prefix.
func NewPublisher(conn Conn, app string) *Publisher {
	return &Publisher{conn: conn, app: app}
}

// Subject returns the subject an event is published on.
func (p *Publisher) Subject(e game.Event) string {
	return p.app + ".games." + e.GameID + "." + string(e.Type)
}

// OnEvent publishes e as JSON on Subject(e). Ticks are skipped and publish
// errors are logged, never returned to the engine.
func (p *Publisher) OnEvent(e game.Event) {
	if e.Type == game.EventTick {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		log.Warn().Err(err).Str("gameId", e.GameID).Msg("encode event")
		return
	}
	if err := p.conn.Publish(p.Subject(e), data); err != nil {
		log.Warn().Err(err).Str("gameId", e.GameID).Str("event", string(e.Type)).Msg("publish event")
	}
}
