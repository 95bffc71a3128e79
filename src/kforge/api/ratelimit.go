package api

import (
	"sync"
	"time"
)

// RateLimitConfig holds configuration for the rate limiter.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active.
	Enabled bool
	// PlanRequestsPerMin is the max plan creations per minute per client.
	// Each one may probe compilers and upload artifacts.
	PlanRequestsPerMin int
	// APIRequestsPerMin is the max requests per minute for the other routes.
	APIRequestsPerMin int
}

// DefaultRateLimitConfig returns the server's default quotas.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:            true,
		PlanRequestsPerMin: 30,
		APIRequestsPerMin:  300,
	}
}

// window tracks request count within a time window.
type window struct {
	count     int
	expiresAt time.Time
}

// RateLimiter implements a fixed one-minute window rate limiter keyed by
// arbitrary string.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	config  RateLimitConfig
	now     func() time.Time
	stopCh  chan struct{}
	stop    sync.Once
}

// NewRateLimiter creates a new rate limiter and starts the background cleanup goroutine.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*window),
		config:  cfg,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go rl.cleanup(5 * time.Minute)
	return rl
}

// Allow checks whether a request for the given key should be allowed under the specified limit.
// Returns true if allowed (and increments the counter), false if rate limit exceeded.
func (rl *RateLimiter) Allow(key string, limit int) bool {
	if !rl.config.Enabled || limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, exists := rl.windows[key]
	if !exists || now.After(w.expiresAt) {
		rl.windows[key] = &window{
			count:     1,
			expiresAt: now.Add(time.Minute),
		}
		return true
	}

	if w.count >= limit {
		return false
	}

	w.count++
	return true
}

// prune drops expired windows
func (rl *RateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, w := range rl.windows {
		if now.After(w.expiresAt) {
			delete(rl.windows, key)
		}
	}
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.prune()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop terminates the background cleanup goroutine. It is safe to call
// more than once.
func (rl *RateLimiter) Stop() {
	rl.stop.Do(func() { close(rl.stopCh) })
}
