// Package webpage is the catch-all adapter for URLs no specific adapter
// claims. It scrapes OpenGraph and twitter-card tags from the page.
package webpage

import (
	"context"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/adapters"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/api"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/htmlmeta"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// Provider is the generic website adapter.
type Provider struct {
	scheduler *api.Scheduler
	scraper   *htmlmeta.Fetcher
}

var _ adapters.Adapter = (*Provider)(nil)

// New creates the fallback website provider.
func New(scheduler *api.Scheduler, scraper *htmlmeta.Fetcher) *Provider {
	return &Provider{scheduler: scheduler, scraper: scraper}
}

func (p *Provider) Name() string { return "webpage" }

func (p *Provider) ContentType() metadata.ContentType { return metadata.TypeWebsite }

// CanHandle accepts everything; the provider is registered as the
// registry fallback rather than matched in order.
func (p *Provider) CanHandle(string) bool { return true }

// Fetch scrapes the page. The pacing key is the page's own domain, so
// distinct sites do not queue behind each other longer than needed.
func (p *Provider) Fetch(ctx context.Context, rawURL string) (*metadata.Record, error) {
	var meta *htmlmeta.PageMeta
	err := p.scheduler.Do(ctx, metadata.DomainName(rawURL), func() error {
		var fetchErr error
		meta, fetchErr = p.scraper.Fetch(ctx, rawURL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	rec := &metadata.Record{
		URL:         rawURL,
		ContentType: metadata.TypeWebsite,
		Title:       meta.Title,
		Description: meta.Description,
		Image:       meta.Image,
		Source:      metadata.SourceScraping,
	}
	if rec.Title == "" {
		rec.Title = metadata.DomainName(rawURL)
	}
	return rec, nil
}
