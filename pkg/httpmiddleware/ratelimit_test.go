package httpmiddleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, configure func(r *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	if configure != nil {
		configure(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func fromAddr(addr string) func(*http.Request) {
	return func(r *http.Request) { r.RemoteAddr = addr }
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 3, Window: time.Minute})(okHandler())

	for i := range 3 {
		w := serve(handler, nil)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, []string{"2", "1", "0"}[i], w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}

	w := serve(handler, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body.Code)
	assert.Equal(t, "Too many requests, please try again later", body.Message)
}

func TestRateLimit_CustomMessage(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		Max:     1,
		Window:  time.Hour,
		Message: "Too many coupon creation attempts",
	})(okHandler())

	serve(handler, nil)
	w := serve(handler, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many coupon creation attempts")
}

func TestRateLimit_Keys(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RateLimitConfig
		first   func(*http.Request)
		second  func(*http.Request)
		limited bool
	}{
		{
			name:    "same ip different port",
			first:   fromAddr("10.0.0.1:1234"),
			second:  fromAddr("10.0.0.1:5678"),
			limited: true,
		},
		{
			name:   "different ips",
			first:  fromAddr("10.0.0.1:1234"),
			second: fromAddr("10.0.0.2:1234"),
		},
		{
			name: "x-forwarded-for first hop",
			first: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")
			},
			second: func(r *http.Request) {
				r.RemoteAddr = "192.168.1.2:5555"
				r.Header.Set("X-Forwarded-For", "203.0.113.50")
			},
			limited: true,
		},
		{
			name:    "x-real-ip",
			first:   func(r *http.Request) { r.Header.Set("X-Real-IP", "198.51.100.7") },
			second:  func(r *http.Request) { r.Header.Set("X-Real-IP", "198.51.100.8") },
			limited: false,
		},
		{
			name: "custom key func",
			cfg: RateLimitConfig{KeyFunc: func(r *http.Request) string {
				return r.Header.Get("X-API-Key")
			}},
			first: func(r *http.Request) { r.Header.Set("X-API-Key", "key-a") },
			second: func(r *http.Request) {
				r.RemoteAddr = "10.9.9.9:1"
				r.Header.Set("X-API-Key", "key-a")
			},
			limited: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Max = 1
			cfg.Window = time.Minute
			handler := RateLimit(cfg)(okHandler())

			require.Equal(t, http.StatusOK, serve(handler, tt.first).Code)
			want := http.StatusOK
			if tt.limited {
				want = http.StatusTooManyRequests
			}
			assert.Equal(t, want, serve(handler, tt.second).Code)
		})
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, _, _, ok := rl.allow("k", now)
	require.True(t, ok)
	_, _, _, ok = rl.allow("k", now)
	require.True(t, ok)

	remaining, resetAt, retryAfter, ok := rl.allow("k", now)
	require.False(t, ok)
	assert.Zero(t, remaining)
	assert.InDelta(t, 30*time.Second, retryAfter, float64(time.Second))
	assert.WithinDuration(t, now.Add(time.Minute), resetAt, time.Second)

	// One token refills every 30s.
	_, _, _, ok = rl.allow("k", now.Add(31*time.Second))
	assert.True(t, ok)
	_, _, _, ok = rl.allow("k", now.Add(32*time.Second))
	assert.False(t, ok)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Now()

	rl.allow("stale", now.Add(-2*time.Minute))
	rl.allow("fresh", now)
	rl.cleanup(now)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "stale")
	assert.Contains(t, rl.visitors, "fresh")
}

func TestRateLimitWithCleanup_Serves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := RateLimitWithCleanup(ctx, RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())
	assert.Equal(t, http.StatusOK, serve(handler, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, nil).Code)
}
