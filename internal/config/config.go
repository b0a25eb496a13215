package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"aulaquiz"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres Postgres
	Redis    Redis
	Security Security
	Game     Game
	Bots     Bots
	OAuth    OAuth
}

// Postgres captures connection info for the quiz catalog database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds document store configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing and admin access.
type Security struct {
	JWTSecret         string        `env:"JWT_SECRET,notEmpty"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH,notEmpty"`
	TokenTTL          time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"12h"`
}

// Game groups gameplay defaults.
type Game struct {
	BasePoints    int           `env:"GAME_BASE_POINTS" envDefault:"1000"`
	MaxHearts     int           `env:"GAME_MAX_HEARTS" envDefault:"24"`
	ResetHearts   int           `env:"GAME_RESET_HEARTS" envDefault:"3"`
	TierBonusStep int           `env:"GAME_TIER_BONUS_STEP" envDefault:"10"`
	QuizCacheTTL  time.Duration `env:"GAME_QUIZ_CACHE_TTL" envDefault:"10m"`
}

// Bots governs the admin-side player simulator.
type Bots struct {
	TickInterval time.Duration `env:"BOT_TICK_INTERVAL" envDefault:"6s"`
	ActChance    float64       `env:"BOT_ACT_CHANCE" envDefault:"0.5"`
	CorrectBias  float64       `env:"BOT_CORRECT_BIAS" envDefault:"0.75"`
}

// OAuth holds federated identity provider configuration.
type OAuth struct {
	GoogleClientID     string `env:"GOOGLE_OAUTH_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_OAUTH_REDIRECT_URL"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
