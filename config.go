// config.go
//
// Command-line and environment configuration.
// Every flag can also be set as MEMORAMA_<FLAG> (dashes become underscores);
// a .env file in the working directory is loaded first.

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/robalobadob/memorama/internal/cards"
	"github.com/robalobadob/memorama/internal/score"
)

type Config struct {
	app               string
	bind              string
	port              int
	db                string
	cardSetsURL       string
	cardSetsFile      string
	natsURL           string
	jwtSecret         string
	adminPasswordHash string
	clientOrigin      string
	secureCookies     bool
	logLevel          string
	scoring           string
	layout            string
	completionDelay   time.Duration
	sessionTimeout    time.Duration
	dailySalt         string
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if strings.TrimSpace(c.app) == "" {
		return errors.New("--app must not be empty")
	}
	if _, err := score.ByName(c.scoring); err != nil {
		return fmt.Errorf("--scoring: %w", err)
	}
	if _, err := cards.LayoutByName(c.layout); err != nil {
		return fmt.Errorf("--layout: %w", err)
	}
	if c.adminPasswordHash != "" && c.jwtSecret == "" {
		return errors.New("--admin-password-hash requires --jwt-secret")
	}
	if c.completionDelay < 0 || c.sessionTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.logLevel); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	return nil
}

func (c *Config) addr() string { return fmt.Sprintf("%s:%d", c.bind, c.port) }

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MEMORAMA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "memorama",
		Short:         "Memory card game server: deals decks, runs matches, keeps the leaderboard.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			lvl, _ := zerolog.ParseLevel(cfg.logLevel)
			zerolog.SetGlobalLevel(lvl)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.app, "app", "memorama", "prefix for stored record keys and event subjects (env: MEMORAMA_APP)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: MEMORAMA_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 5175, "port to listen on (env: MEMORAMA_PORT)")
	fs.StringVar(&cfg.db, "db", "./data/memorama.db", "SQLite file for scores and settings, empty for in-memory (env: MEMORAMA_DB)")
	fs.StringVar(&cfg.cardSetsURL, "cardsets-url", "", "URL of a card set catalog JSON (env: MEMORAMA_CARDSETS_URL)")
	fs.StringVar(&cfg.cardSetsFile, "cardsets-file", "", "path to a card set catalog JSON (env: MEMORAMA_CARDSETS_FILE)")
	fs.StringVar(&cfg.natsURL, "nats-url", "", "publish game events to this NATS server (env: MEMORAMA_NATS_URL)")
	fs.StringVar(&cfg.jwtSecret, "jwt-secret", "", "HMAC secret for admin tokens (env: MEMORAMA_JWT_SECRET)")
	fs.StringVar(&cfg.adminPasswordHash, "admin-password-hash", "", "bcrypt hash of the admin password, see hash-password (env: MEMORAMA_ADMIN_PASSWORD_HASH)")
	fs.StringVar(&cfg.clientOrigin, "client-origin", "http://localhost:5173", "origin allowed by CORS (env: MEMORAMA_CLIENT_ORIGIN)")
	fs.BoolVar(&cfg.secureCookies, "secure-cookies", false, "mark auth cookies Secure and SameSite=None (env: MEMORAMA_SECURE_COOKIES)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "trace|debug|info|warn|error (env: MEMORAMA_LOG_LEVEL)")
	fs.StringVar(&cfg.scoring, "scoring", "standard", "score table: standard|legacy (env: MEMORAMA_SCORING)")
	fs.StringVar(&cfg.layout, "layout", "standard", "pairs per difficulty: standard (8/12/18) | compact (4/6/9) (env: MEMORAMA_LAYOUT)")
	fs.DurationVar(&cfg.completionDelay, "completion-delay", 0, "pause before game_complete is announced (env: MEMORAMA_COMPLETION_DELAY)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle games are ended, 0 to keep forever (env: MEMORAMA_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.dailySalt, "daily-salt", "memorama", "secret mixed into the daily challenge seed (env: MEMORAMA_DAILY_SALT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newScoresCmd(cfg), newHashPasswordCmd())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("memorama v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
