package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"aulaquiz/internal/auth"
	"aulaquiz/internal/config"
	"aulaquiz/internal/game"
)

// NewHTTPServer wires the public routes (health, auth, game state, play
// WebSocket) and the admin surface behind the auth middleware.
func NewHTTPServer(
	cfg *config.App,
	logger zerolog.Logger,
	pool *pgxpool.Pool,
	rdb *redis.Client,
	authSvc *auth.Service,
	authHandlers *auth.Handlers,
	gameHandlers *game.HTTPHandlers,
	playWS http.Handler,
) *http.Server {
	mux := http.NewServeMux()
	authMW := auth.Middleware(authSvc, logger)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, rdb); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	// Login endpoints
	mux.HandleFunc("POST /v1/auth/guest", authHandlers.GuestLogin)
	mux.HandleFunc("POST /v1/auth/admin", authHandlers.AdminLogin)
	mux.HandleFunc("GET /v1/oauth/google/start", authHandlers.GoogleRedirect)
	mux.HandleFunc("GET /v1/oauth/google/callback", authHandlers.GoogleCallback)

	// Students poll the game state before joining.
	mux.HandleFunc("GET /v1/game/state", gameHandlers.GameState)

	// The play socket authenticates via ?token=.
	mux.Handle("GET /ws/play", authMW(playWS))

	adminOnly := func(h http.HandlerFunc) http.Handler {
		return authMW(auth.RequireAdmin(h))
	}

	mux.Handle("POST /v1/admin/quizzes", adminOnly(gameHandlers.CreateQuiz))
	mux.Handle("GET /v1/admin/quizzes", adminOnly(gameHandlers.ListQuizzes))
	mux.Handle("DELETE /v1/admin/quizzes/{id}", adminOnly(gameHandlers.DeleteQuiz))
	mux.Handle("POST /v1/admin/game/start", adminOnly(gameHandlers.StartGame))
	mux.Handle("POST /v1/admin/game/stop", adminOnly(gameHandlers.StopGame))
	mux.Handle("GET /v1/admin/ranking", adminOnly(gameHandlers.Ranking))
	mux.Handle("DELETE /v1/admin/students/{id}", adminOnly(gameHandlers.RemoveStudent))
	mux.Handle("POST /v1/admin/bots", adminOnly(gameHandlers.StartBots))
	mux.Handle("DELETE /v1/admin/bots", adminOnly(gameHandlers.StopBots))

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	return rdb.Ping(ctx).Err()
}
