package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         3,
		CleanupInterval:   time.Minute,
		MaxAge:            time.Minute,
	})
	defer rl.Stop()
	h := rl.Middleware(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/telegram", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/telegram", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
		MaxAge:            time.Minute,
	})
	defer rl.Stop()
	h := rl.Middleware(okHandler())

	first := httptest.NewRequest("POST", "/telegram", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest("POST", "/telegram", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIPHeaders(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Real-IP", "20.0.0.2")
	assert.Equal(t, "20.0.0.2", clientIP(req))

	req.Header.Set("X-Forwarded-For", "30.0.0.3, 40.0.0.4")
	assert.Equal(t, "30.0.0.3", clientIP(req))
}
