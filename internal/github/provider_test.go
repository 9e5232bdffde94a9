package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/api"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/htmlmeta"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

func testProvider(t *testing.T, handler http.Handler, withScraper bool) *Provider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	oldBase := APIBase
	APIBase = server.URL
	t.Cleanup(func() { APIBase = oldBase })

	scheduler := api.NewScheduler(api.SchedulerConfig{
		Delays: map[string]time.Duration{api.DestGitHub: time.Millisecond},
	})
	t.Cleanup(scheduler.Stop)

	policy := api.DefaultRetryPolicy()
	policy.Sleep = func(time.Duration) {}
	client := api.NewClient(&api.ClientConfig{RetryPolicy: policy})

	var scraper *htmlmeta.Fetcher
	if withScraper {
		scraper = htmlmeta.NewFetcher(client)
	}
	return New(client, scheduler, scraper)
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		url   string
		owner string
		repo  string
		ok    bool
	}{
		{"https://github.com/golang/go", "golang", "go", true},
		{"https://github.com/golang/go/issues/123", "golang", "go", true},
		{"https://github.com/user/repo.git", "user", "repo", true},
		{"https://github.com/topics/golang", "", "", false},
		{"https://github.com/features/actions", "", "", false},
		{"https://example.com/not-github", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			owner, repo, ok := ParseRepoURL(tt.url)
			if ok != tt.ok || owner != tt.owner || repo != tt.repo {
				t.Errorf("ParseRepoURL(%q) = (%q, %q, %v), expected (%q, %q, %v)",
					tt.url, owner, repo, ok, tt.owner, tt.repo, tt.ok)
			}
		})
	}
}

func TestFetchViaAPI(t *testing.T) {
	p := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/golang/go" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept = %q", got)
		}
		_, _ = w.Write([]byte(`{
			"full_name": "golang/go",
			"description": "The Go programming language",
			"language": "Go",
			"stargazers_count": 120000,
			"owner": {"avatar_url": "https://avatars.example/golang.png"}
		}`))
	}), false)

	rec, err := p.Fetch(context.Background(), "https://github.com/golang/go")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if rec.Title != "golang/go" {
		t.Errorf("Title = %q", rec.Title)
	}
	if !strings.Contains(rec.Description, "The Go programming language") || !strings.Contains(rec.Description, "(Go)") {
		t.Errorf("Description = %q", rec.Description)
	}
	if rec.Metrics == nil || rec.Metrics.Stars != 120000 {
		t.Errorf("Metrics = %+v", rec.Metrics)
	}
	if rec.Image != "https://avatars.example/golang.png" {
		t.Errorf("Image = %q", rec.Image)
	}
	if rec.Source != metadata.SourceAPI || rec.ContentType != metadata.TypeGitHub {
		t.Errorf("source/type = %v/%v", rec.Source, rec.ContentType)
	}
}

func TestFetchFallsBackToScrape(t *testing.T) {
	p := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/repos/") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><meta property="og:title" content="user/repo: scraped"></head></html>`))
	}), true)

	// The scrape target must be the test server, so resolve a URL on it.
	// ParseRepoURL fails for it, which routes straight to scraping.
	rec, err := p.Fetch(context.Background(), APIBase+"/user/repo")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if rec.Title != "user/repo: scraped" || rec.Source != metadata.SourceScraping {
		t.Errorf("record = %+v", rec)
	}
}
