package api

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// RetryPolicy configures retry behavior for outbound calls. It is injected
// into adapters so retry timing can be unit tested without real delays.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	RetryableErrors   []int // HTTP status codes that trigger retries

	// Sleep is swapped for a fake in tests. Nil means time.Sleep.
	Sleep func(time.Duration)
}

// DefaultRetryPolicy returns a sensible default retry policy.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableErrors:   []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
	}
}

// ConservativeRetryPolicy retries at most once, for scraping targets where
// repeated hits invite blocks.
func ConservativeRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       2,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableErrors:   []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable},
	}
}

// CalculateBackoff returns the backoff duration for a given attempt.
func (rp *RetryPolicy) CalculateBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	backoff := float64(rp.InitialBackoff) * math.Pow(rp.BackoffMultiplier, float64(attempt-1))
	if backoff > float64(rp.MaxBackoff) {
		backoff = float64(rp.MaxBackoff)
	}
	return time.Duration(backoff)
}

// IsRetryableError checks if an error should trigger a retry.
func (rp *RetryPolicy) IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if httpErr, ok := err.(*HTTPError); ok {
		return rp.isRetryableStatusCode(httpErr.StatusCode)
	}
	if oauthErr, ok := err.(*oauth2.RetrieveError); ok {
		return rp.isRetryableStatusCode(oauthErr.Response.StatusCode)
	}
	return false
}

// IsRateLimitError checks if an error is specifically due to rate limiting.
func (rp *RetryPolicy) IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr.StatusCode == http.StatusTooManyRequests
	}
	if oauthErr, ok := err.(*oauth2.RetrieveError); ok {
		return oauthErr.Response.StatusCode == http.StatusTooManyRequests
	}
	return false
}

func (rp *RetryPolicy) isRetryableStatusCode(statusCode int) bool {
	for _, code := range rp.RetryableErrors {
		if statusCode == code {
			return true
		}
	}
	return false
}

func (rp *RetryPolicy) sleep(d time.Duration) {
	if rp.Sleep != nil {
		rp.Sleep(d)
		return
	}
	time.Sleep(d)
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// FetchReason maps a transport-level error onto the adapter failure
// taxonomy so every adapter classifies errors the same way.
func FetchReason(err error) metadata.FailReason {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests:
			return metadata.ReasonRateLimited
		case http.StatusNotFound, http.StatusGone:
			return metadata.ReasonNotFound
		}
	}
	return metadata.ReasonNetwork
}

// RetryableOperation is an operation that can be retried.
type RetryableOperation func() error

// ExecuteWithRetry executes an operation under the policy, backing off
// between attempts and doubling the backoff on explicit rate limiting.
func ExecuteWithRetry(operation RetryableOperation, policy *RetryPolicy, operationName string) error {
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := policy.CalculateBackoff(attempt - 1)
			slog.Warn("Retrying operation",
				"operation", operationName,
				"attempt", attempt,
				"maxAttempts", policy.MaxAttempts,
				"backoff", backoff,
				"lastError", lastErr)
			policy.sleep(backoff)
		}

		err := operation()
		if err == nil {
			if attempt > 1 {
				slog.Info("Operation succeeded after retry", "operation", operationName, "attempt", attempt)
			}
			return nil
		}

		lastErr = err

		if !policy.IsRetryableError(err) {
			slog.Debug("Error is not retryable, stopping", "operation", operationName, "attempt", attempt, "error", err)
			break
		}

		if policy.IsRateLimitError(err) {
			rateLimitBackoff := policy.CalculateBackoff(attempt) * 2
			slog.Warn("Rate limited, using longer backoff", "operation", operationName, "attempt", attempt, "backoff", rateLimitBackoff)
			policy.sleep(rateLimitBackoff)
		}
	}

	return fmt.Errorf("operation %s failed after %d attempts: %w", operationName, policy.MaxAttempts, lastErr)
}
