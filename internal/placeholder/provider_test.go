package placeholder

import (
	"context"
	"testing"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

func TestLinkedInCanHandle(t *testing.T) {
	p := LinkedIn{}

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://www.linkedin.com/posts/someone_activity-123", true},
		{"https://linkedin.com/in/someone", true},
		{"https://se.linkedin.com/in/someone", true},
		{"https://example.com/linkedin.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := p.CanHandle(tt.url); got != tt.expected {
				t.Errorf("CanHandle(%q) = %v, expected %v", tt.url, got, tt.expected)
			}
		})
	}
}

func TestLinkedInFetch(t *testing.T) {
	rec, err := LinkedIn{}.Fetch(context.Background(), "https://www.linkedin.com/posts/x")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if rec.ContentType != metadata.TypeLinkedIn || rec.Source != metadata.SourceFallback {
		t.Errorf("type/source = %v/%v", rec.ContentType, rec.Source)
	}
	if rec.Title == "" || rec.Error != "" {
		t.Errorf("record = %+v, placeholder should have a title and no error", rec)
	}
}

func TestExtractSpotifyID(t *testing.T) {
	tests := []struct {
		url  string
		kind string
		id   string
		ok   bool
	}{
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "track", "4uLU6hMCjMI75M1A2tKUQC", true},
		{"https://open.spotify.com/episode/abc123?si=xyz", "episode", "abc123", true},
		{"https://open.spotify.com/show/showid", "show", "showid", true},
		{"https://open.spotify.com/user/someone", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			kind, id, ok := ExtractSpotifyID(tt.url)
			if ok != tt.ok || kind != tt.kind || id != tt.id {
				t.Errorf("ExtractSpotifyID(%q) = (%q, %q, %v)", tt.url, kind, id, ok)
			}
		})
	}
}

func TestSpotifyFetch(t *testing.T) {
	rec, err := Spotify{}.Fetch(context.Background(), "https://open.spotify.com/episode/abc123")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if rec.Title != "Spotify Podcast Episode" {
		t.Errorf("Title = %q", rec.Title)
	}
	if rec.SourceID != "abc123" {
		t.Errorf("SourceID = %q", rec.SourceID)
	}
	if rec.Source != metadata.SourceFallback {
		t.Errorf("Source = %v", rec.Source)
	}
}
