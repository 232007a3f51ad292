package utils

import (
	"context"
	"time"

	"github.com/coder/quartz"
)

// RateLimiter lets at most n sends through per window. Each send holds a
// slot until the window after it has passed.
type RateLimiter struct {
	slots  chan struct{}
	window time.Duration
	clock  quartz.Clock
}

// NewRateLimiter creates a limiter for n sends per window
func NewRateLimiter(clock quartz.Clock, n int, window time.Duration) *RateLimiter {
	if n < 1 {
		n = 1
	}
	return &RateLimiter{
		slots:  make(chan struct{}, n),
		window: window,
		clock:  clock,
	}
}

// Wait blocks until a send slot is free
func (rl *RateLimiter) Wait(ctx context.Context) error {
	select {
	case rl.slots <- struct{}{}:
		rl.clock.AfterFunc(rl.window, func() {
			<-rl.slots
		}, "ratelimit", "release")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight returns how many slots are taken
func (rl *RateLimiter) InFlight() int {
	return len(rl.slots)
}
