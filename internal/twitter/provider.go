// Package twitter resolves tweet URLs through the TwitterAPI.io batch
// endpoint. There is no scraping path: twitter blocks unauthenticated
// access, so a failed API call degrades straight to a fallback record.
package twitter

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/adapters"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/api"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

var (
	urlPattern      = regexp.MustCompile(`^https?://(?:www\.|mobile\.)?(?:twitter\.com|x\.com)/`)
	tweetIDPattern  = regexp.MustCompile(`status/(\d+)`)
	usernamePattern = regexp.MustCompile(`(?:twitter\.com|x\.com)/([^/?#]+)`)
)

// snowflakeEpoch is the millisecond epoch tweet IDs count from.
const snowflakeEpoch = 1142974214000

// Provider is the tweet adapter.
type Provider struct {
	client    *api.Client
	scheduler *api.Scheduler
}

var _ adapters.Adapter = (*Provider)(nil)

// New creates a tweet provider over the given metered API client.
func New(client *api.Client, scheduler *api.Scheduler) *Provider {
	return &Provider{client: client, scheduler: scheduler}
}

func (p *Provider) Name() string { return "twitter" }

func (p *Provider) ContentType() metadata.ContentType { return metadata.TypeTwitter }

// CanHandle matches twitter.com and x.com URLs, including mobile links.
func (p *Provider) CanHandle(rawURL string) bool {
	return urlPattern.MatchString(rawURL)
}

// Fetch resolves a single tweet URL. Profile and other non-status URLs
// are unsupported; batch work should go through FetchByIDs instead.
func (p *Provider) Fetch(ctx context.Context, rawURL string) (*metadata.Record, error) {
	id := ExtractTweetID(rawURL)
	if id == "" {
		return nil, metadata.NewFetchError(metadata.ReasonUnsupported, rawURL,
			fmt.Errorf("no tweet id in URL"))
	}

	records, _, err := p.FetchByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}

	rec, ok := records[id]
	if !ok {
		return nil, metadata.NewFetchError(metadata.ReasonNotFound, rawURL,
			fmt.Errorf("tweet %s not in API response", id))
	}

	rec.URL = rawURL
	return rec, nil
}

// ExtractTweetID returns the numeric status ID from a tweet URL, or ""
// when the URL is not a status link.
func ExtractTweetID(rawURL string) string {
	m := tweetIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractUsername returns the handle portion of a twitter/x URL.
func ExtractUsername(rawURL string) string {
	m := usernamePattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	switch m[1] {
	case "i", "intent", "home", "search", "hashtag", "explore":
		// Reserved paths, not usernames.
		return ""
	}
	return m[1]
}

// SnowflakeTime derives the creation time embedded in a tweet ID.
// Returns the zero time when the ID does not parse.
func SnowflakeTime(tweetID string) time.Time {
	id, err := strconv.ParseUint(tweetID, 10, 64)
	if err != nil {
		return time.Time{}
	}
	millis := int64(id>>22) + snowflakeEpoch
	return time.UnixMilli(millis).UTC()
}
