package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"aulaquiz/internal/auth"
	"aulaquiz/internal/catalog"
	"aulaquiz/internal/config"
	"aulaquiz/internal/game"
	"aulaquiz/internal/game/scoring"
	"aulaquiz/internal/logging"
	"aulaquiz/internal/server"
	"aulaquiz/internal/store"
	ws "aulaquiz/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server) and
// the game services built on top.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	broadcaster *game.Broadcaster
	bots        *game.Bots
	bgCancels   []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis and all game services.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	// Quiz catalog: Postgres behind a Redis read-through cache.
	quizRepo := catalog.NewRepository(pool)
	quizCache := catalog.NewCache(redisClient, cfg.Game.QuizCacheTTL)
	catalogSvc := catalog.NewService(quizRepo, quizCache, logger)

	// Game state document store.
	docStore := store.New(redisClient, logger)

	engine := scoring.NewEngine(scoring.Config{
		BasePoints:    cfg.Game.BasePoints,
		MaxHearts:     cfg.Game.MaxHearts,
		ResetHearts:   cfg.Game.ResetHearts,
		TierSize:      3,
		TierBonusStep: cfg.Game.TierBonusStep,
	})

	metrics := game.NewMetrics(prometheus.DefaultRegisterer)
	coordinator := game.NewCoordinator(docStore, catalogSvc, engine, metrics, logger)
	anticheat := game.NewAntiCheat(coordinator, logger)
	medals := game.NewMedals(docStore, logger)
	admin := game.NewAdmin(docStore, catalogSvc, metrics, logger)
	bots := game.NewBots(docStore, game.BotConfig{
		TickInterval: cfg.Bots.TickInterval,
		ActChance:    cfg.Bots.ActChance,
		CorrectBias:  cfg.Bots.CorrectBias,
	}, metrics, logger)

	// Auth: guests, Google sign-in and the admin password.
	oauthSvc := auth.NewOAuthService(
		cfg.OAuth.GoogleClientID,
		cfg.OAuth.GoogleClientSecret,
		cfg.OAuth.GoogleRedirectURL,
		logger,
	)
	if !oauthSvc.Configured() {
		logger.Warn().Msg("google oauth not configured; only guest login available")
	}
	authSvc := auth.NewService(cfg.Security.JWTSecret, cfg.Security.TokenTTL, cfg.Security.AdminPasswordHash, oauthSvc, logger)
	authHandlers := auth.NewHandlers(authSvc, logger)

	wsHub := ws.NewHub(logger)
	playWS := game.NewWSHandler(wsHub, coordinator, anticheat, medals, logger)
	broadcaster := game.NewBroadcaster(docStore, coordinator, wsHub, logger)
	gameHandlers := game.NewHTTPHandlers(catalogSvc, admin, coordinator, bots, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, authSvc, authHandlers, gameHandlers, playWS)

	return &Application{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		redis:       redisClient,
		http:        apiServer,
		broadcaster: broadcaster,
		bots:        bots,
		bgCancels:   make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.bots.Stop()
	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		if err := a.broadcaster.Run(bgCtx); err != nil && err != context.Canceled {
			a.logger.Warn().Err(err).Msg("ranking broadcaster stopped")
		}
	}()
}
