// Package bluesky resolves bsky.app post URLs through the public AT
// Protocol endpoints, with an HTML scrape as the fallback strategy.
package bluesky

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/adapters"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/api"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/htmlmeta"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// PublicAPIBase is the unauthenticated AT Protocol AppView endpoint.
// Overridable for tests.
var PublicAPIBase = "https://public.api.bsky.app"

var postURLPattern = regexp.MustCompile(`^https?://(?:www\.|staging\.)?bsky\.app/profile/([^/]+)/post/([^/?#]+)`)

// PostRef identifies one post: the author handle (or DID) from the URL
// and the record key.
type PostRef struct {
	Handle string
	RKey   string
}

// Provider is the Bluesky post adapter.
type Provider struct {
	client    *api.Client
	scheduler *api.Scheduler
	scraper   *htmlmeta.Fetcher
	creds     *Credentials

	sessionMu     sync.Mutex
	accessJWT     string
	sessionFailed bool
}

var _ adapters.Adapter = (*Provider)(nil)

// New creates a Bluesky provider. scraper may be nil to disable the
// scraping fallback; creds may be nil to stay on the anonymous public
// endpoints.
func New(client *api.Client, scheduler *api.Scheduler, scraper *htmlmeta.Fetcher, creds *Credentials) *Provider {
	return &Provider{client: client, scheduler: scheduler, scraper: scraper, creds: creds}
}

func (p *Provider) Name() string { return "bluesky" }

func (p *Provider) ContentType() metadata.ContentType { return metadata.TypeBluesky }

func (p *Provider) CanHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch u.Host {
	case "bsky.app", "www.bsky.app", "staging.bsky.app":
		return true
	}
	return false
}

// ParsePostURL extracts the handle and record key from a post URL.
func ParsePostURL(rawURL string) (*PostRef, bool) {
	m := postURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return nil, false
	}
	return &PostRef{Handle: m[1], RKey: m[2]}, true
}

// Fetch resolves a post URL: API first, scrape second.
func (p *Provider) Fetch(ctx context.Context, rawURL string) (*metadata.Record, error) {
	ref, ok := ParsePostURL(rawURL)
	if !ok {
		// Profile and feed URLs fall through to scraping only.
		return p.scrape(ctx, rawURL)
	}

	chain := []adapters.Strategy{
		{Name: "bluesky-api", Fetch: func(ctx context.Context, rawURL string) (*metadata.Record, error) {
			return p.fetchViaAPI(ctx, rawURL, ref)
		}},
	}
	if p.scraper != nil {
		chain = append(chain, adapters.Strategy{Name: "bluesky-scrape", Fetch: p.scrape})
	}

	return adapters.RunChain(ctx, rawURL, chain)
}

func (p *Provider) fetchViaAPI(ctx context.Context, rawURL string, ref *PostRef) (*metadata.Record, error) {
	var rec *metadata.Record
	err := p.scheduler.Do(ctx, api.DestBluesky, func() error {
		headers := p.authHeaders(ctx)

		did, err := p.resolveHandle(ctx, ref.Handle, headers)
		if err != nil {
			return err
		}

		atURI := fmt.Sprintf("at://%s/app.bsky.feed.post/%s", did, ref.RKey)
		post, err := p.getPost(ctx, atURI, headers)
		if err != nil {
			return err
		}

		rec = normalizePost(post, rawURL)
		return nil
	})
	if err != nil {
		if _, ok := err.(*metadata.FetchError); ok {
			return nil, err
		}
		return nil, metadata.NewFetchError(api.FetchReason(err), rawURL, err)
	}
	return rec, nil
}

func (p *Provider) scrape(ctx context.Context, rawURL string) (*metadata.Record, error) {
	if p.scraper == nil {
		return nil, metadata.NewFetchError(metadata.ReasonUnsupported, rawURL,
			fmt.Errorf("scraping disabled"))
	}

	var meta *htmlmeta.PageMeta
	err := p.scheduler.Do(ctx, api.DestBluesky, func() error {
		var fetchErr error
		meta, fetchErr = p.scraper.Fetch(ctx, rawURL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	return &metadata.Record{
		URL:         rawURL,
		ContentType: metadata.TypeBluesky,
		Title:       meta.Title,
		Description: meta.Description,
		Image:       meta.Image,
		Source:      metadata.SourceScraping,
	}, nil
}

func normalizePost(post *feedPost, rawURL string) *metadata.Record {
	rec := &metadata.Record{
		URL:         rawURL,
		ContentType: metadata.TypeBluesky,
		Description: metadata.Truncate(post.Record.Text, 300),
		FullText:    post.Record.Text,
		SourceID:    post.CID,
		Source:      metadata.SourceAPI,
		Author: &metadata.Author{
			Handle:      post.Author.Handle,
			DisplayName: post.Author.DisplayName,
			Avatar:      post.Author.Avatar,
		},
		Metrics: &metadata.Metrics{
			Likes:   int64(post.LikeCount),
			Shares:  int64(post.RepostCount),
			Replies: int64(post.ReplyCount),
			Quotes:  int64(post.QuoteCount),
		},
	}

	name := post.Author.DisplayName
	if name == "" {
		name = "@" + post.Author.Handle
	}
	rec.Title = fmt.Sprintf("%s on Bluesky: %s", name, metadata.Truncate(post.Record.Text, 80))

	if post.Author.Avatar != "" {
		rec.Image = post.Author.Avatar
	}
	if created, err := time.Parse(time.RFC3339, post.Record.CreatedAt); err == nil {
		utc := created.UTC()
		rec.CreatedAt = &utc
	}
	return rec
}
