package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizforge/quizforge/internal/answer"
	"github.com/quizforge/quizforge/internal/config"
	"github.com/quizforge/quizforge/internal/question"
	"github.com/quizforge/quizforge/internal/quiz"
)

// Handlers groups the route handlers the server wires up.
type Handlers struct {
	Quiz      *quiz.HTTPHandler
	Question  *question.HTTPHandler
	Answer    *answer.HTTPHandler
	SessionWS http.HandlerFunc

	// Middleware applied to the API surface, outermost first.
	Middleware []func(http.Handler) http.Handler
}

// NewHTTPServer wires routes (health, metrics, authoring API, session
// channel) for the API service.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redisClient *redis.Client, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, redisClient); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if h.Quiz != nil {
		mux.HandleFunc("GET /v1/quizzes", h.Quiz.List)
		mux.HandleFunc("POST /v1/quizzes", h.Quiz.Create)
		mux.HandleFunc("GET /v1/quizzes/{quizID}", h.Quiz.Get)
		mux.HandleFunc("PUT /v1/quizzes/{quizID}", h.Quiz.Update)
		mux.HandleFunc("DELETE /v1/quizzes/{quizID}", h.Quiz.Delete)
	}

	if h.Question != nil {
		mux.HandleFunc("GET /v1/quizzes/{quizID}/questions", h.Question.ListByQuiz)
		mux.HandleFunc("POST /v1/quizzes/{quizID}/questions", h.Question.Create)
		mux.HandleFunc("PUT /v1/questions/{questionID}", h.Question.Update)
		mux.HandleFunc("DELETE /v1/questions/{questionID}", h.Question.Delete)
	}

	if h.Answer != nil {
		mux.HandleFunc("GET /v1/questions/{questionID}/answers", h.Answer.List)
		mux.HandleFunc("POST /v1/questions/{questionID}/answers", h.Answer.Create)
		mux.HandleFunc("PUT /v1/questions/{questionID}/answers", h.Answer.Replace)
		mux.HandleFunc("PUT /v1/answers/{answerID}", h.Answer.Update)
		mux.HandleFunc("DELETE /v1/answers/{answerID}", h.Answer.Delete)
	}

	if h.SessionWS != nil {
		mux.HandleFunc("GET /ws/sessions", h.SessionWS)
	}

	var handler http.Handler = mux
	for i := len(h.Middleware) - 1; i >= 0; i-- {
		handler = h.Middleware[i](handler)
	}
	handler = corsMiddleware(cfg.CORS, handler)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redisClient *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}

func corsMiddleware(cfg config.CORS, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
