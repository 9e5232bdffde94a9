// Package api provides the shared outbound HTTP machinery: rate limiters,
// retry policies, a JSON client and the FIFO request scheduler.
package api

import (
	"sync"
	"time"
)

// RateLimiter gates outbound API calls.
type RateLimiter interface {
	// Wait blocks until it's safe to make another call.
	Wait()
	// CanProceed returns true if a call can be made without waiting.
	CanProceed() bool
}

// SimpleRateLimiter enforces a minimum delay between consecutive calls.
type SimpleRateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration
}

// NewSimpleRateLimiter creates a rate limiter with the given minimum delay.
func NewSimpleRateLimiter(minDelay time.Duration) *SimpleRateLimiter {
	return &SimpleRateLimiter{minDelay: minDelay}
}

// Wait blocks until the minimum delay since the previous call has elapsed.
func (rl *SimpleRateLimiter) Wait() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if elapsed := time.Since(rl.lastCall); elapsed < rl.minDelay {
		time.Sleep(rl.minDelay - elapsed)
	}
	rl.lastCall = time.Now()
}

// CanProceed returns true if a call can be made without waiting.
func (rl *SimpleRateLimiter) CanProceed() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return time.Since(rl.lastCall) >= rl.minDelay
}

// TokenBucketRateLimiter allows short bursts while bounding sustained rate.
// The generic scraper uses it so a handful of inbox links can be enriched
// quickly without hammering any one site for long.
type TokenBucketRateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewTokenBucketRateLimiter creates a bucket holding maxTokens tokens that
// refills one token per refillRate.
func NewTokenBucketRateLimiter(maxTokens int, refillRate time.Duration) *TokenBucketRateLimiter {
	return &TokenBucketRateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available, then consumes it.
func (rl *TokenBucketRateLimiter) Wait() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	for rl.tokens <= 0 {
		rl.mu.Unlock()
		time.Sleep(rl.refillRate)
		rl.mu.Lock()
		rl.refill()
	}
	rl.tokens--
}

// CanProceed returns true if a token is available.
func (rl *TokenBucketRateLimiter) CanProceed() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	return rl.tokens > 0
}

func (rl *TokenBucketRateLimiter) refill() {
	now := time.Now()
	add := int(now.Sub(rl.lastRefill) / rl.refillRate)
	if add > 0 {
		rl.tokens = min(rl.tokens+add, rl.maxTokens)
		rl.lastRefill = now
	}
}

// NoOpRateLimiter performs no limiting. Used where the scheduler already
// serializes and delays calls, so a second limiter would double the wait.
type NoOpRateLimiter struct{}

// NewNoOpRateLimiter creates a rate limiter that never blocks.
func NewNoOpRateLimiter() *NoOpRateLimiter { return &NoOpRateLimiter{} }

// Wait returns immediately.
func (rl *NoOpRateLimiter) Wait() {}

// CanProceed always returns true.
func (rl *NoOpRateLimiter) CanProceed() bool { return true }
