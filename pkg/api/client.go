package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	httputil "github.com/jimmystridh/obsidian-inbox-browser/pkg/http"
)

const defaultUserAgent = "InboxBrowser/1.0"

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseClient     *http.Client
	RateLimiter    RateLimiter
	RetryPolicy    *RetryPolicy
	UserAgent      string
	DefaultHeaders map[string]string
}

// Client wraps http.Client with rate limiting, retries and standard
// headers. One instance per external service.
type Client struct {
	client         *http.Client
	rateLimiter    RateLimiter
	retryPolicy    *RetryPolicy
	userAgent      string
	defaultHeaders map[string]string
}

// NewClient creates a client with the provided configuration, filling in
// defaults for anything unset. The default per-request timeout is 10s.
func NewClient(config *ClientConfig) *Client {
	if config.BaseClient == nil {
		config.BaseClient = &http.Client{Timeout: 10 * time.Second}
	}
	if config.RateLimiter == nil {
		config.RateLimiter = NewNoOpRateLimiter()
	}
	if config.RetryPolicy == nil {
		config.RetryPolicy = DefaultRetryPolicy()
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	if config.DefaultHeaders == nil {
		config.DefaultHeaders = make(map[string]string)
	}

	return &Client{
		client:         config.BaseClient,
		rateLimiter:    config.RateLimiter,
		retryPolicy:    config.RetryPolicy,
		userAgent:      config.UserAgent,
		defaultHeaders: config.DefaultHeaders,
	}
}

// GetAndDecode performs a GET with rate limiting and retries and decodes
// the JSON response into target.
func (c *Client) GetAndDecode(ctx context.Context, url string, target any, additionalHeaders map[string]string) error {
	operation := func() error {
		res, err := c.doGet(ctx, url, additionalHeaders)
		if err != nil {
			return err
		}
		defer func() { _ = res.Body.Close() }()

		if err := json.NewDecoder(res.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode json response: %w", err)
		}
		return nil
	}

	return ExecuteWithRetry(operation, c.retryPolicy, fmt.Sprintf("GET %s", url))
}

// PostJSONAndDecode performs a POST with a JSON payload and decodes the
// JSON response into target. Used by session-style endpoints; no retries
// beyond the client's policy and no rate limiter bypass.
func (c *Client) PostJSONAndDecode(ctx context.Context, url string, payload any, target any, additionalHeaders map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request payload: %w", err)
	}

	operation := func() error {
		c.rateLimiter.Wait()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Content-Type", "application/json")
		for key, value := range c.defaultHeaders {
			req.Header.Set(key, value)
		}
		for key, value := range additionalHeaders {
			req.Header.Set(key, value)
		}

		start := time.Now()
		res, err := c.client.Do(req)
		duration := time.Since(start)

		if err != nil {
			logAPICall(url, duration, false, err)
			return fmt.Errorf("failed to perform POST request: %w", err)
		}

		if err := httputil.EnsureStatusOK(res); err != nil {
			logAPICall(url, duration, false, err)
			_ = res.Body.Close()
			return &HTTPError{StatusCode: res.StatusCode, Message: err.Error()}
		}
		logAPICall(url, duration, true, nil)

		resBody, err := httputil.ReadResponseBody(res)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if err := json.Unmarshal(resBody, target); err != nil {
			return fmt.Errorf("failed to decode json response: %w", err)
		}
		return nil
	}

	return ExecuteWithRetry(operation, c.retryPolicy, fmt.Sprintf("POST %s", url))
}

// GetBody performs a GET and returns the response body bytes, capped at
// maxBytes (<=0 means 1MB). Used by the scraping paths.
func (c *Client) GetBody(ctx context.Context, url string, maxBytes int64, additionalHeaders map[string]string) ([]byte, string, error) {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}

	var body []byte
	var contentType string

	operation := func() error {
		res, err := c.doGet(ctx, url, additionalHeaders)
		if err != nil {
			return err
		}
		defer func() { _ = res.Body.Close() }()

		contentType = httputil.GetContentType(res)
		body, err = io.ReadAll(io.LimitReader(res.Body, maxBytes))
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		return nil
	}

	err := ExecuteWithRetry(operation, c.retryPolicy, fmt.Sprintf("GET %s", url))
	return body, contentType, err
}

func (c *Client) doGet(ctx context.Context, url string, additionalHeaders map[string]string) (*http.Response, error) {
	c.rateLimiter.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	for key, value := range c.defaultHeaders {
		req.Header.Set(key, value)
	}
	for key, value := range additionalHeaders {
		req.Header.Set(key, value)
	}

	start := time.Now()
	res, err := c.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		logAPICall(url, duration, false, err)
		return nil, fmt.Errorf("failed to perform GET request: %w", err)
	}

	if err := httputil.EnsureStatusOK(res); err != nil {
		logAPICall(url, duration, false, err)
		_ = res.Body.Close()
		return nil, &HTTPError{StatusCode: res.StatusCode, Message: err.Error()}
	}

	logAPICall(url, duration, true, nil)
	return res, nil
}

// CanProceed reports whether a request can be made without waiting.
func (c *Client) CanProceed() bool {
	return c.rateLimiter.CanProceed()
}

// NewMeteredClient creates a client for a paid, strictly rate limited API.
// Delivery pacing comes from the scheduler, so the client itself does not
// double-limit.
func NewMeteredClient(apiKey string) *Client {
	return NewClient(&ClientConfig{
		RetryPolicy: DefaultRetryPolicy(),
		DefaultHeaders: map[string]string{
			"X-API-Key": apiKey,
			"Accept":    "application/json",
		},
	})
}

// NewJSONClient creates a client for public JSON read APIs.
func NewJSONClient() *Client {
	return NewClient(&ClientConfig{
		RetryPolicy: DefaultRetryPolicy(),
		DefaultHeaders: map[string]string{
			"Accept": "application/json",
		},
	})
}

// NewOAuthClient creates a JSON client whose requests carry the given
// static token. Used by the repo adapter when a token is configured.
func NewOAuthClient(ctx context.Context, token string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	base := oauth2.NewClient(ctx, src)
	base.Timeout = 10 * time.Second

	return NewClient(&ClientConfig{
		BaseClient:  base,
		RetryPolicy: DefaultRetryPolicy(),
		DefaultHeaders: map[string]string{
			"Accept": "application/json",
		},
	})
}

// NewScraperClient creates a client for HTML scraping: browser-like
// headers, conservative retries, and burst-limited via a token bucket.
func NewScraperClient() *Client {
	return NewClient(&ClientConfig{
		RateLimiter: NewTokenBucketRateLimiter(5, time.Second),
		RetryPolicy: ConservativeRetryPolicy(),
		UserAgent:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		DefaultHeaders: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
		},
	})
}

func logAPICall(url string, duration time.Duration, success bool, err error) {
	fields := []any{"url", url, "duration", duration}
	if err != nil {
		fields = append(fields, "error", err)
	}

	if success {
		slog.Debug("API call completed", fields...)
	} else {
		slog.Warn("API call failed", fields...)
	}
}
