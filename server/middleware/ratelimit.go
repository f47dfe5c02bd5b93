package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plan3/commonauth/auth/authctx"
	apperrors "github.com/plan3/commonauth/errors"
)

const (
	rateWindow   = time.Minute
	sweepEvery   = 5 * time.Minute
	defaultQuota = 60
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// RequestsPerMinute is the quota per key. Zero disables the limiter.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	// Credential names the credentials field used as key for authenticated
	// requests (e.g. "newsroom"). Unauthenticated requests are keyed by IP.
	Credential string `yaml:"credential" mapstructure:"credential"`
	// KeyFunc overrides the key derivation.
	KeyFunc func(*gin.Context) string `yaml:"-" mapstructure:"-"`
}

// RateLimit applies per-key sliding-window rate limiting. Place it after
// Authenticate so credential keys are available.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultQuota
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPBasedKey
		if cfg.Credential != "" {
			cfg.KeyFunc = CredentialKey(cfg.Credential)
		}
	}

	rl := newRateLimiter(cfg.RequestsPerMinute)
	return func(c *gin.Context) {
		if !rl.allow(cfg.KeyFunc(c), time.Now()) {
			abort(c, apperrors.RateLimited())
			return
		}
		c.Next()
	}
}

// IPBasedKey keys requests by client IP.
func IPBasedKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// CredentialKey keys authenticated requests by a credentials field, falling
// back to the client IP.
func CredentialKey(field string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		if creds, ok := authctx.Credentials(c.Request.Context()); ok {
			if v, ok := creds[field]; ok && v != nil && v != "" {
				return fmt.Sprintf("%s:%v", field, v)
			}
		}
		return IPBasedKey(c)
	}
}

type rateLimiter struct {
	mu        sync.Mutex
	requests  map[string][]time.Time
	limit     int
	lastSweep time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		lastSweep: time.Now(),
	}
}

func (rl *rateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rateWindow)
	if now.Sub(rl.lastSweep) >= sweepEvery {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	valid := filterByTime(rl.requests[key], cutoff)
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}

// sweep drops keys without requests in the current window. Callers hold mu.
func (rl *rateLimiter) sweep(cutoff time.Time) {
	for key, times := range rl.requests {
		valid := filterByTime(times, cutoff)
		if len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

func filterByTime(times []time.Time, cutoff time.Time) []time.Time {
	var result []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}
