package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a tool call exceeds the rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitConfig holds the configurable rate limit. A runaway model
// can emit tool calls far faster than a human can vet the damage, so
// even YOLO mode keeps this ceiling.
type RateLimitConfig struct {
	ToolCallsPerMin int `yaml:"tool_calls_per_min"`
}

// defaultToolCallsPerMin bounds tool calls when no limit is configured.
const defaultToolCallsPerMin = 500

// RateLimiter implements sliding-window rate limiting for tool calls.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	events []time.Time
	now    func() time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
// A zero or negative limit is replaced with the default.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	limit := cfg.ToolCallsPerMin
	if limit <= 0 {
		limit = defaultToolCallsPerMin
	}
	return &RateLimiter{
		limit:  limit,
		window: time.Minute,
		now:    time.Now,
	}
}

// Allow records one tool call and reports whether it is within the
// limit. Returns nil if allowed, ErrRateLimited otherwise.
func (rl *RateLimiter) Allow() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	kept := rl.events[:0]
	for _, t := range rl.events {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	rl.events = kept

	if len(rl.events) >= rl.limit {
		return ErrRateLimited
	}

	rl.events = append(rl.events, now)
	return nil
}
