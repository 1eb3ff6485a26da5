package security

import (
	"errors"
	"testing"
	"time"
)

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{ToolCallsPerMin: 5})
	for i := 0; i < 5; i++ {
		if err := rl.Allow(); err != nil {
			t.Fatalf("call %d rejected: %v", i, err)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{ToolCallsPerMin: 3})
	for i := 0; i < 3; i++ {
		if err := rl.Allow(); err != nil {
			t.Fatalf("call %d rejected: %v", i, err)
		}
	}
	if err := rl.Allow(); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{ToolCallsPerMin: 2})
	rl.now = func() time.Time { return now }

	if err := rl.Allow(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := rl.Allow(); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if err := rl.Allow(); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// Old events age out of the window.
	now = now.Add(61 * time.Second)
	if err := rl.Allow(); err != nil {
		t.Fatalf("call after window slide: %v", err)
	}
}

func TestRateLimiterDefaultLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{})
	if rl.limit != defaultToolCallsPerMin {
		t.Errorf("default limit = %d, want %d", rl.limit, defaultToolCallsPerMin)
	}
}
