package htmlmeta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/api"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

func TestFetcherFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head>
			<meta property="og:title" content="Fetched Page">
			<meta property="og:description" content="A page fetched in a test">
		</head></html>`))
	}))
	defer server.Close()

	f := NewFetcher(api.NewClient(&api.ClientConfig{}))

	meta, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if meta.Title != "Fetched Page" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.Description != "A page fetched in a test" {
		t.Errorf("Description = %q", meta.Description)
	}
}

func TestFetcherRejectsNonHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"not": "html"}`))
	}))
	defer server.Close()

	f := NewFetcher(api.NewClient(&api.ClientConfig{}))

	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for JSON response")
	}

	var fetchErr *metadata.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fetchErr.Reason != metadata.ReasonParseFailure {
		t.Errorf("Reason = %v, expected parse-failure", fetchErr.Reason)
	}
}

func TestFetcherClassifiesNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	policy := api.ConservativeRetryPolicy()
	policy.Sleep = func(d time.Duration) {}
	f := NewFetcher(api.NewClient(&api.ClientConfig{RetryPolicy: policy}))

	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var fetchErr *metadata.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fetchErr.Reason != metadata.ReasonNotFound {
		t.Errorf("Reason = %v, expected not-found", fetchErr.Reason)
	}
}
