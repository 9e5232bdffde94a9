package api

import (
	"testing"
	"time"
)

func TestSimpleRateLimiter(t *testing.T) {
	rl := NewSimpleRateLimiter(50 * time.Millisecond)

	// First call should not block.
	start := time.Now()
	rl.Wait()
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("first Wait() blocked for %v, expected no delay", elapsed)
	}

	// Second call should wait out the minimum delay.
	start = time.Now()
	rl.Wait()
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("second Wait() returned after %v, expected at least ~50ms", elapsed)
	}
}

func TestSimpleRateLimiterCanProceed(t *testing.T) {
	rl := NewSimpleRateLimiter(50 * time.Millisecond)

	if !rl.CanProceed() {
		t.Error("CanProceed() should be true before any call")
	}

	rl.Wait()
	if rl.CanProceed() {
		t.Error("CanProceed() should be false immediately after a call")
	}

	time.Sleep(60 * time.Millisecond)
	if !rl.CanProceed() {
		t.Error("CanProceed() should be true after the delay has elapsed")
	}
}

func TestTokenBucketRateLimiterBurst(t *testing.T) {
	rl := NewTokenBucketRateLimiter(3, 50*time.Millisecond)

	// Burst through the whole bucket without blocking.
	start := time.Now()
	for i := 0; i < 3; i++ {
		rl.Wait()
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("burst of 3 took %v, expected no blocking", elapsed)
	}

	if rl.CanProceed() {
		t.Error("CanProceed() should be false with an empty bucket")
	}

	// Fourth call waits for a refill.
	start = time.Now()
	rl.Wait()
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Wait() on empty bucket returned after %v, expected a refill wait", elapsed)
	}
}

func TestTokenBucketRefillCap(t *testing.T) {
	rl := NewTokenBucketRateLimiter(2, 10*time.Millisecond)

	rl.Wait()
	rl.Wait()

	// A long sleep refills at most maxTokens.
	time.Sleep(100 * time.Millisecond)

	rl.Wait()
	rl.Wait()
	if rl.CanProceed() {
		t.Error("bucket should be capped at maxTokens after a long idle period")
	}
}

func TestNoOpRateLimiter(t *testing.T) {
	rl := NewNoOpRateLimiter()

	start := time.Now()
	for i := 0; i < 100; i++ {
		rl.Wait()
	}
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("NoOp Wait() x100 took %v, expected no delay", elapsed)
	}

	if !rl.CanProceed() {
		t.Error("NoOp CanProceed() should always be true")
	}
}
