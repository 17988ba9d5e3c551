package papersources

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterAllowConsumesTokens(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 2)
	if !rl.Allow() {
		t.Error("first request within burst should be allowed")
	}
	if !rl.Allow() {
		t.Error("second request within burst should be allowed")
	}
	if rl.Allow() {
		t.Error("third immediate request should exceed the burst")
	}
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0.001, 1)
	rl.Allow() // drain the single token

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err == nil {
		t.Error("Wait returned nil despite an exhausted limiter and expiring context")
	}
}

func TestRateLimiterSetRate(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 1)
	rl.SetRate(100)
	rl.Allow()

	time.Sleep(50 * time.Millisecond)
	if !rl.Allow() {
		t.Error("token did not refill at the raised rate")
	}
}
