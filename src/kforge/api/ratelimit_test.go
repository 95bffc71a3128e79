package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Enabled: true})
	defer rl.Stop()

	key := "plan:ip:127.0.0.1"
	for i := 0; i < 3; i++ {
		require.True(t, rl.Allow(key, 3), "request %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow(key, 3), "4th request should be denied")
	assert.True(t, rl.Allow("plan:ip:10.0.0.2", 3), "other clients keep their quota")
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Enabled: true})
	defer rl.Stop()

	now := time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	require.True(t, rl.Allow("k", 1))
	require.False(t, rl.Allow("k", 1))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("k", 1), "a new window starts after a minute")

	now = now.Add(2 * time.Minute)
	rl.prune()
	assert.Empty(t, rl.windows)
}

func TestRateLimiter_DisabledOrUnlimited(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Enabled: false})
	defer rl.Stop()
	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow("k", 1))
	}

	on := NewRateLimiter(RateLimitConfig{Enabled: true})
	defer on.Stop()
	for i := 0; i < 10; i++ {
		assert.True(t, on.Allow("k", 0))
	}
}

func TestRateLimiter_StopEndsCleanup(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rl := NewRateLimiter(DefaultRateLimitConfig())
	rl.Stop()
	rl.Stop()
}

func TestCreatePlan_RateLimited(t *testing.T) {
	f := newFixture(t, false)
	f.api.Close()
	f.api.limits = RateLimitConfig{Enabled: true, PlanRequestsPerMin: 1, APIRequestsPerMin: 100}
	f.api.rateLimiter = NewRateLimiter(f.api.limits)
	t.Cleanup(f.api.Close)
	f.rebuildRouter()

	body := map[string]any{"version": "6.17", "toolchain": "clang"}
	w := f.do(t, http.MethodPost, "/v1/plans", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/v1/plans", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "internal.rate_limited")

	w = f.do(t, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code, "other routes have their own quota")
}
