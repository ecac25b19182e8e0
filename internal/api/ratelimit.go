package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// rateLimiter is a token bucket that refills continuously, holding at most
// one minute's worth of requests.
type rateLimiter struct {
	clock      clockwork.Clock
	lastRefill time.Time
	tokens     float64
	capacity   float64
	perSecond  float64
	mu         sync.Mutex
}

func newRateLimiter(requestsPerMinute int, clock clockwork.Clock) *rateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	capacity := float64(requestsPerMinute)
	return &rateLimiter{
		clock:      clock,
		lastRefill: clock.Now(),
		tokens:     capacity,
		capacity:   capacity,
		perSecond:  capacity / 60,
	}
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		delay, ok := rl.reserve()
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-rl.clock.After(delay):
		}
	}
}

// reserve takes a token when one is available, otherwise it reports how
// long until the next one.
func (rl *rateLimiter) reserve() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	rl.tokens = min(rl.capacity, rl.tokens+now.Sub(rl.lastRefill).Seconds()*rl.perSecond)
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return 0, true
	}
	return time.Duration((1 - rl.tokens) / rl.perSecond * float64(time.Second)), false
}
