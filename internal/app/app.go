package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizforge/quizforge/internal/answer"
	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/auth/jwt"
	"github.com/quizforge/quizforge/internal/config"
	"github.com/quizforge/quizforge/internal/db/repository"
	"github.com/quizforge/quizforge/internal/logging"
	"github.com/quizforge/quizforge/internal/question"
	"github.com/quizforge/quizforge/internal/quiz"
	"github.com/quizforge/quizforge/internal/ratelimit"
	"github.com/quizforge/quizforge/internal/server"
	"github.com/quizforge/quizforge/internal/session"
	"github.com/quizforge/quizforge/internal/storage"
	ws "github.com/quizforge/quizforge/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
}

// New bootstraps configs, logger, Postgres, Redis and the HTTP server.
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

	if cfg.Security.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be configured")
	}
	verifier := jwt.NewVerifier(jwt.VerifierConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Security.JWTIssuer,
	})

	quizRepo := repository.NewQuizRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)

	images := storage.NewBlobClient(cfg.Blob.BaseURL, cfg.Blob.APIKey, cfg.Blob.HTTPTimeout, logger)

	quizSvc := quiz.NewService(quizRepo, images, logger)
	questionSvc := question.NewService(questionRepo, answerRepo, quizRepo, images, logger)
	answerSvc := answer.NewService(questionRepo, answerRepo, logger)

	wsHub := ws.NewHub(logger)
	sessionHandler := session.NewHandler(wsHub, verifier, logger)

	middleware := []func(http.Handler) http.Handler{
		auth.Middleware(verifier, logger),
	}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
		middleware = append(middleware, limiter.Middleware)
	}

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, server.Handlers{
		Quiz:       quiz.NewHTTPHandler(quizSvc, cfg.Library, logger),
		Question:   question.NewHTTPHandler(questionSvc, logger),
		Answer:     answer.NewHTTPHandler(answerSvc, logger),
		SessionWS:  sessionHandler.HandleWebSocket,
		Middleware: middleware,
	})

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

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

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
