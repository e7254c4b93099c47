package data

import (
	"context"
	"sync"
	"time"
)

// Bybit public market endpoints allow bursts; keep well under the limit
const (
	bybitBurst          = 5
	bybitRequestsPerSec = 5
)

// RequestLimiter is a token bucket shared by the pages of one fetch
type RequestLimiter struct {
	capacity   int
	tokens     int
	refillRate int // tokens per second
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// NewRequestLimiter creates a limiter that starts full
func NewRequestLimiter(capacity, refillRate int) *RequestLimiter {
	if capacity < 1 {
		capacity = 1
	}
	if refillRate < 1 {
		refillRate = 1
	}
	return &RequestLimiter{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Allow takes a token if one is available
func (rl *RequestLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done
func (rl *RequestLimiter) Wait(ctx context.Context) error {
	for {
		if rl.Allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.waitTime()):
		}
	}
}

// Tokens reports the tokens currently available
func (rl *RequestLimiter) Tokens() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

func (rl *RequestLimiter) refill() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill)
	add := int(elapsed.Seconds() * float64(rl.refillRate))
	if add <= 0 {
		return
	}
	rl.tokens += add
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
	rl.lastRefill = now
}

func (rl *RequestLimiter) waitTime() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.tokens > 0 {
		return 0
	}
	return time.Second/time.Duration(rl.refillRate) + 10*time.Millisecond
}
