package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

func TestClientGetAndDecode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("User-Agent = %q, expected test-agent", ua)
		}
		if got := r.Header.Get("X-Custom"); got != "value" {
			t.Errorf("X-Custom header = %q, expected value", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message": "hello", "count": 3}`))
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{
		UserAgent:      "test-agent",
		DefaultHeaders: map[string]string{"X-Custom": "value"},
	})

	var result struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}
	if err := client.GetAndDecode(context.Background(), server.URL, &result, nil); err != nil {
		t.Fatalf("GetAndDecode() error = %v", err)
	}
	if result.Message != "hello" || result.Count != 3 {
		t.Errorf("decoded %+v", result)
	}
}

func TestClientAdditionalHeadersOverrideDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept = %q, expected per-call override", got)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewJSONClient()

	var out map[string]any
	err := client.GetAndDecode(context.Background(), server.URL, &out,
		map[string]string{"Accept": "application/vnd.github+json"})
	if err != nil {
		t.Fatalf("GetAndDecode() error = %v", err)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	policy := DefaultRetryPolicy()
	policy.Sleep = func(d time.Duration) {}
	client := NewClient(&ClientConfig{RetryPolicy: policy})

	var out map[string]any
	if err := client.GetAndDecode(context.Background(), server.URL, &out, nil); err != nil {
		t.Fatalf("GetAndDecode() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("server saw %d calls, expected 3", calls)
	}
}

func TestClientDoesNotRetryNotFound(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	policy := DefaultRetryPolicy()
	policy.Sleep = func(d time.Duration) {}
	client := NewClient(&ClientConfig{RetryPolicy: policy})

	var out map[string]any
	err := client.GetAndDecode(context.Background(), server.URL, &out, nil)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if calls != 1 {
		t.Errorf("server saw %d calls, expected 1", calls)
	}
	if FetchReason(err) != metadata.ReasonNotFound {
		t.Errorf("FetchReason() = %v, expected not-found", FetchReason(err))
	}
}

func TestClientGetBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>hi</title></head></html>"))
	}))
	defer server.Close()

	client := NewScraperClient()

	body, contentType, err := client.GetBody(context.Background(), server.URL, 0, nil)
	if err != nil {
		t.Fatalf("GetBody() error = %v", err)
	}
	if contentType != "text/html; charset=utf-8" {
		t.Errorf("contentType = %q", contentType)
	}
	if string(body) != "<html><head><title>hi</title></head></html>" {
		t.Errorf("body = %q", string(body))
	}
}

func TestClientGetBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 4096))
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{})

	body, _, err := client.GetBody(context.Background(), server.URL, 1024, nil)
	if err != nil {
		t.Fatalf("GetBody() error = %v", err)
	}
	if len(body) != 1024 {
		t.Errorf("body length = %d, expected capped at 1024", len(body))
	}
}

func TestMeteredClientSendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-Key"); got != "secret" {
			t.Errorf("X-API-Key = %q, expected secret", got)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewMeteredClient("secret")

	var out map[string]any
	if err := client.GetAndDecode(context.Background(), server.URL, &out, nil); err != nil {
		t.Fatalf("GetAndDecode() error = %v", err)
	}
}
