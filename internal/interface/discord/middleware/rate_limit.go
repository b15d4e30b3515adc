package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/afk-bro/discord-bot/internal/interface/discord/handler"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// Per-user token bucket. A user may burst a few commands, then is limited to
// RequestsPerMinute.
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitConfig holds configuration for the rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int

	// IdleTTL drops buckets of users that have been quiet this long.
	IdleTTL time.Duration

	// Message is the reply sent to limited users.
	Message string

	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

// RateLimiter implements per-user rate limiting.
type RateLimiter struct {
	config  RateLimitConfig
	every   rate.Limit
	mu      sync.Mutex
	buckets map[string]*userBucket
}

type userBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 20
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 5
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RateLimiter{
		config:  config,
		every:   rate.Every(time.Minute / time.Duration(config.RequestsPerMinute)),
		buckets: make(map[string]*userBucket),
	}
}

// Allow consumes a token for userID. When none is left it returns false and
// the wait until the next token.
func (rl *RateLimiter) Allow(userID string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.config.Now()
	b, ok := rl.buckets[userID]
	if !ok {
		b = &userBucket{limiter: rate.NewLimiter(rl.every, rl.config.BurstSize)}
		rl.buckets[userID] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// Sweep drops buckets idle since before now-IdleTTL and returns how many
// were removed.
func (rl *RateLimiter) Sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for id, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.config.IdleTTL {
			delete(rl.buckets, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked users.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware() Middleware {
	return func(next handler.Func) handler.Func {
		return func(ctx context.Context, c *handler.Context) (*handler.Response, error) {
			if ok, _ := rl.Allow(c.UserID); !ok {
				return handler.Ephemeral(rl.config.Message), nil
			}
			return next(ctx, c)
		}
	}
}
