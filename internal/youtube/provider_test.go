package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/api"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/htmlmeta"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

func TestCanHandle(t *testing.T) {
	p := &Provider{}

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"https://m.youtube.com/watch?v=abc", true},
		{"https://www.youtube.com/shorts/xyz", true},
		{"https://vimeo.com/12345", false},
		{"https://example.com/youtube.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := p.CanHandle(tt.url); got != tt.expected {
				t.Errorf("CanHandle(%q) = %v, expected %v", tt.url, got, tt.expected)
			}
		})
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?list=PL1&v=abc123", "abc123"},
		{"https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/xyz789", "xyz789"},
		{"https://www.youtube.com/shorts/short1", "short1"},
		{"https://www.youtube.com/feed/subscriptions", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := ExtractVideoID(tt.url); got != tt.expected {
				t.Errorf("ExtractVideoID(%q) = %q, expected %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestFetchUsesDerivedThumbnail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		// No og:image in the page.
		_, _ = w.Write([]byte(`<html><head>
			<meta property="og:title" content="A Video">
			<meta property="og:description" content="About the video">
		</head></html>`))
	}))
	defer server.Close()

	scheduler := api.NewScheduler(api.SchedulerConfig{
		Delays: map[string]time.Duration{api.DestYouTube: time.Millisecond},
	})
	defer scheduler.Stop()

	p := New(scheduler, htmlmeta.NewFetcher(api.NewClient(&api.ClientConfig{})))

	rec, err := p.Fetch(context.Background(), server.URL+"/watch?v=abc123")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if rec.Title != "A Video" {
		t.Errorf("Title = %q", rec.Title)
	}
	if rec.ContentType != metadata.TypeYouTube {
		t.Errorf("ContentType = %v", rec.ContentType)
	}
	if rec.Image != ThumbnailURL("abc123") {
		t.Errorf("Image = %q, expected derived thumbnail", rec.Image)
	}
	if rec.SourceID != "abc123" {
		t.Errorf("SourceID = %q", rec.SourceID)
	}
}

func TestFetchPrefersPageImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
			<meta property="og:title" content="A Video">
			<meta property="og:image" content="https://i.ytimg.com/vi/abc123/hq720.jpg">
		</head></html>`))
	}))
	defer server.Close()

	scheduler := api.NewScheduler(api.SchedulerConfig{
		Delays: map[string]time.Duration{api.DestYouTube: time.Millisecond},
	})
	defer scheduler.Stop()

	p := New(scheduler, htmlmeta.NewFetcher(api.NewClient(&api.ClientConfig{})))

	rec, err := p.Fetch(context.Background(), server.URL+"/watch?v=abc123")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if rec.Image != "https://i.ytimg.com/vi/abc123/hq720.jpg" {
		t.Errorf("Image = %q, expected the page's own image", rec.Image)
	}
}
