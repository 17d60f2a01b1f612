package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, requests int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLimiter(client, requests, time.Minute, zerolog.Nop()), mr
}

func TestAllowWithinWindow(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(context.Background(), "user:alpha")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := limiter.Allow(context.Background(), "user:alpha")
	require.NoError(t, err)
	assert.False(t, ok, "fourth request in the window must be rejected")
}

func TestAllowTracksCallersSeparately(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1)

	ok, err := limiter.Allow(context.Background(), "user:alpha")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(context.Background(), "user:beta")
	require.NoError(t, err)
	assert.True(t, ok, "another caller has its own window")
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/quizzes", nil)
	req.RemoteAddr = "10.0.0.1:52000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestMiddlewareFailsOpenOnRedisOutage(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1)
	mr.Close()

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/quizzes", nil)
	req.RemoteAddr = "10.0.0.1:52000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code, "limiter outage must not block traffic")
}
