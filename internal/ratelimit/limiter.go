package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizforge/quizforge/internal/auth"
	httperrors "github.com/quizforge/quizforge/pkg/http/errors"
)

// Limiter is a fixed-window per-caller request limiter backed by Redis.
// Limiting sits in front of the authoring surface as ordinary middleware; it
// is not part of the constraint engine.
type Limiter struct {
	redis    *redis.Client
	requests int
	window   time.Duration
	logger   zerolog.Logger
}

// NewLimiter creates a limiter allowing requests per window for each caller.
func NewLimiter(redisClient *redis.Client, requests int, window time.Duration, logger zerolog.Logger) *Limiter {
	return &Limiter{
		redis:    redisClient,
		requests: requests,
		window:   window,
		logger:   logger,
	}
}

// Allow records one request for the caller and reports whether it fits the
// current window.
func (l *Limiter) Allow(ctx context.Context, caller string) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s:%d", caller, time.Now().Unix()/int64(l.window.Seconds()))

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("increment window: %w", err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("expire window: %w", err)
		}
	}
	return count <= int64(l.requests), nil
}

// Middleware rejects callers over their window with 429. Redis outages fail
// open: limiting is a safeguard, not a dependency the API should die on.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := callerKey(r)
		ok, err := l.Allow(r.Context(), caller)
		if err != nil {
			l.logger.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			httperrors.RespondTooManyRequests(w, "Too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerKey(r *http.Request) string {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return "user:" + claims.UserID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "addr:" + r.RemoteAddr
	}
	return "addr:" + host
}
