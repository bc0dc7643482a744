// serve.go
//
// Server assembly.
// Responsibilities:
//   - Open the KV (SQLite file, or memory when --db is empty).
//   - Build the card set catalog from URL → file → embedded, with the
//     built-in default as last resort.
//   - Optionally connect the NATS event publisher.
//   - Run the idle game reaper and the HTTP server until shutdown.

package main

import (
	"context"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorama/internal/cards"
	"github.com/robalobadob/memorama/internal/cardsets"
	"github.com/robalobadob/memorama/internal/events"
	"github.com/robalobadob/memorama/internal/game"
	"github.com/robalobadob/memorama/internal/httpserver"
	"github.com/robalobadob/memorama/internal/leaderboard"
	"github.com/robalobadob/memorama/internal/score"
	"github.com/robalobadob/memorama/internal/settings"
	"github.com/robalobadob/memorama/internal/store"
)

func serve(ctx context.Context, cfg *Config) error {
	kv, closeKV, err := openKV(cfg)
	if err != nil {
		return err
	}
	defer closeKV.Close()

	scoring, _ := score.ByName(cfg.scoring)
	layout, _ := cards.LayoutByName(cfg.layout)

	deps := httpserver.Deps{
		Games:    store.NewGames(),
		Catalog:  cardsets.NewCatalog(ctx, providers(cfg), kv, cfg.app, layout),
		Board:    leaderboard.Open(ctx, kv, cfg.app),
		Settings: settings.NewRepo(kv, cfg.app),
		GameOptions: game.Options{
			Layout:          layout,
			Scoring:         scoring,
			CompletionDelay: cfg.completionDelay,
		},
		Auth: httpserver.AuthConfig{
			Secret:        cfg.jwtSecret,
			PasswordHash:  cfg.adminPasswordHash,
			SecureCookies: cfg.secureCookies,
		},
		ClientOrigin: cfg.clientOrigin,
		DailySalt:    cfg.dailySalt,
	}

	if cfg.natsURL != "" {
		nc, err := events.Connect(cfg.natsURL, cfg.app)
		if err != nil {
			// Events are optional; the game runs without them.
			log.Warn().Err(err).Str("url", cfg.natsURL).Msg("nats unavailable, events disabled")
		} else {
			defer nc.Drain()
			deps.Publisher = events.NewPublisher(nc, cfg.app)
			log.Info().Str("url", cfg.natsURL).Msg("publishing game events")
		}
	}
	if cfg.adminPasswordHash == "" {
		log.Warn().Msg("no admin password configured, leaderboard deletes disabled")
	}

	go deps.Games.RunReaper(ctx, cfg.sessionTimeout)

	srv := httpserver.New(deps)
	log.Info().Str("addr", cfg.addr()).Str("db", cfg.db).Msg("starting memorama")
	return srv.Serve(ctx, cfg.addr())
}

// openKV returns the configured store and a closer for it.
func openKV(cfg *Config) (store.KV, io.Closer, error) {
	if cfg.db == "" {
		return store.NewMemoryKV(), io.NopCloser(nil), nil
	}
	db, err := store.OpenSQLite(cfg.db)
	if err != nil {
		return nil, nil, err
	}
	return db, db, nil
}

// providers orders the configured catalog sources; the embedded catalog is
// always the last one tried.
func providers(cfg *Config) cardsets.Provider {
	var chain cardsets.Chain
	if cfg.cardSetsURL != "" {
		chain = append(chain, cardsets.HTTPProvider{URL: cfg.cardSetsURL})
	}
	if cfg.cardSetsFile != "" {
		chain = append(chain, cardsets.FileProvider{Path: cfg.cardSetsFile})
	}
	return append(chain, cardsets.EmbeddedProvider{})
}
