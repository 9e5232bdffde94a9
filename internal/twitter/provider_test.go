package twitter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/api"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

func testProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	oldBase := BaseURL
	BaseURL = server.URL
	t.Cleanup(func() { BaseURL = oldBase })

	scheduler := api.NewScheduler(api.SchedulerConfig{
		Delays: map[string]time.Duration{api.DestTwitterAPI: time.Millisecond},
	})
	t.Cleanup(scheduler.Stop)

	policy := api.DefaultRetryPolicy()
	policy.Sleep = func(time.Duration) {}
	client := api.NewClient(&api.ClientConfig{RetryPolicy: policy})

	return New(client, scheduler)
}

func TestCanHandle(t *testing.T) {
	p := &Provider{}

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://twitter.com/user/status/123", true},
		{"https://x.com/user/status/123", true},
		{"https://www.twitter.com/user", true},
		{"https://mobile.twitter.com/user/status/9", true},
		{"http://x.com/someone", true},
		{"https://example.com/x.com", false},
		{"https://bsky.app/profile/a/post/b", false},
		{"https://nitter.net/user/status/123", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := p.CanHandle(tt.url); got != tt.expected {
				t.Errorf("CanHandle(%q) = %v, expected %v", tt.url, got, tt.expected)
			}
		})
	}
}

func TestExtractTweetID(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://twitter.com/user/status/1234567890", "1234567890"},
		{"https://x.com/user/status/99?s=20", "99"},
		{"https://twitter.com/user", ""},
		{"https://x.com/i/lists/123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := ExtractTweetID(tt.url); got != tt.expected {
				t.Errorf("ExtractTweetID(%q) = %q, expected %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestExtractUsername(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://twitter.com/someuser/status/123", "someuser"},
		{"https://x.com/another", "another"},
		{"https://x.com/i/web/status/123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := ExtractUsername(tt.url); got != tt.expected {
				t.Errorf("ExtractUsername(%q) = %q, expected %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestSnowflakeTime(t *testing.T) {
	// A 2023-era tweet ID should decode into a plausible timestamp.
	got := SnowflakeTime("1640000000000000000")
	if got.IsZero() {
		t.Fatal("SnowflakeTime() returned zero time for a valid ID")
	}
	if got.Year() < 2006 || got.Year() > 2030 {
		t.Errorf("SnowflakeTime() = %v, outside plausible range", got)
	}

	if !SnowflakeTime("not-a-number").IsZero() {
		t.Error("SnowflakeTime() should return zero time for garbage input")
	}
}

func TestFetchNormalizesTweet(t *testing.T) {
	p := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tweet_ids"); got != "123" {
			t.Errorf("tweet_ids = %q, expected 123", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tweets": [{
			"id": "123",
			"text": "hello world",
			"createdAt": "Mon Jan 02 15:04:05 +0000 2023",
			"author": {"userName": "someone", "name": "Some One", "isBlueVerified": true, "profilePicture": "https://pbs.example/pic.jpg"},
			"likeCount": 10, "retweetCount": 2, "replyCount": 1, "quoteCount": 0, "viewCount": 500
		}]}`))
	}))

	rec, err := p.Fetch(context.Background(), "https://x.com/someone/status/123")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if rec.URL != "https://x.com/someone/status/123" {
		t.Errorf("URL = %q, expected the requested URL preserved", rec.URL)
	}
	if rec.ContentType != metadata.TypeTwitter || rec.Source != metadata.SourceAPI {
		t.Errorf("type/source = %v/%v", rec.ContentType, rec.Source)
	}
	if rec.SourceID != "123" {
		t.Errorf("SourceID = %q", rec.SourceID)
	}
	if rec.FullText != "hello world" {
		t.Errorf("FullText = %q", rec.FullText)
	}
	if rec.Author == nil || rec.Author.Handle != "someone" || !rec.Author.Verified {
		t.Errorf("Author = %+v", rec.Author)
	}
	if rec.Metrics == nil || rec.Metrics.Likes != 10 || rec.Metrics.Views != 500 {
		t.Errorf("Metrics = %+v", rec.Metrics)
	}
	if rec.CreatedAt == nil || rec.CreatedAt.Year() != 2023 {
		t.Errorf("CreatedAt = %v", rec.CreatedAt)
	}
	if !strings.Contains(rec.Title, "Some One") {
		t.Errorf("Title = %q", rec.Title)
	}
}

func TestFetchByIDsChunksBatches(t *testing.T) {
	var batchSizes []int
	p := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("tweet_ids"), ",")
		batchSizes = append(batchSizes, len(ids))

		var b strings.Builder
		b.WriteString(`{"tweets": [`)
		for i, id := range ids {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(`{"id": "` + id + `", "text": "t", "author": {"userName": "u"}}`)
		}
		b.WriteString(`]}`)
		_, _ = w.Write([]byte(b.String()))
	}))

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = strconv.Itoa(i)
	}

	records, failed, err := p.FetchByIDs(context.Background(), ids)
	if err != nil {
		t.Fatalf("FetchByIDs() error = %v", err)
	}

	if len(records) != 150 {
		t.Errorf("got %d records, expected 150", len(records))
	}
	if len(failed) != 0 {
		t.Errorf("failed = %v, expected none", failed)
	}
	if len(batchSizes) != 2 || batchSizes[0] != 100 || batchSizes[1] != 50 {
		t.Errorf("batch sizes = %v, expected [100 50]", batchSizes)
	}
}

func TestFetchByIDsKeepsEarlierChunksOnFailure(t *testing.T) {
	p := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("tweet_ids"), ",")
		if ids[0] != "0" {
			// Second chunk (IDs 100..149) always fails.
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		var b strings.Builder
		b.WriteString(`{"tweets": [`)
		for i, id := range ids {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(`{"id": "` + id + `", "text": "t", "author": {"userName": "u"}}`)
		}
		b.WriteString(`]}`)
		_, _ = w.Write([]byte(b.String()))
	}))

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = strconv.Itoa(i)
	}

	records, failed, err := p.FetchByIDs(context.Background(), ids)
	if err == nil {
		t.Fatal("expected the failed chunk's error to be reported")
	}

	if len(records) != 100 {
		t.Errorf("got %d records, expected the 100 from the successful chunk", len(records))
	}
	if _, ok := records["42"]; !ok {
		t.Error("record 42 from the successful chunk is missing")
	}
	if len(failed) != 50 {
		t.Fatalf("failed = %d IDs, expected the 50 from the bad chunk", len(failed))
	}
	if failed[0] != "100" || failed[49] != "149" {
		t.Errorf("failed = [%s..%s], expected [100..149]", failed[0], failed[len(failed)-1])
	}

	var fetchErr *metadata.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T", err)
	}
}

func TestFetchClassifiesRateLimit(t *testing.T) {
	p := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := p.Fetch(context.Background(), "https://x.com/u/status/5")
	if err == nil {
		t.Fatal("expected error")
	}

	var fetchErr *metadata.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fetchErr.Reason != metadata.ReasonRateLimited {
		t.Errorf("Reason = %v, expected rate-limited", fetchErr.Reason)
	}
}

func TestFetchRejectsNonStatusURL(t *testing.T) {
	p := &Provider{}

	_, err := p.Fetch(context.Background(), "https://twitter.com/just-a-profile")
	var fetchErr *metadata.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Reason != metadata.ReasonUnsupported {
		t.Errorf("expected unsupported fetch error, got %v", err)
	}
}

