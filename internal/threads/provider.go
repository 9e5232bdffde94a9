package threads

import (
	"context"
	"fmt"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/adapters"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/api"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/htmlmeta"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// Provider is the threads.net adapter. Strategy order: rendered page
// (when a renderer is configured), raw HTTP page, then plain meta-tag
// scraping.
type Provider struct {
	client    *api.Client
	scheduler *api.Scheduler
	scraper   *htmlmeta.Fetcher
	renderer  Renderer
}

var _ adapters.Adapter = (*Provider)(nil)

// New creates a threads provider. renderer may be nil to skip headless
// rendering; scraper may be nil to disable the final fallback.
func New(client *api.Client, scheduler *api.Scheduler, scraper *htmlmeta.Fetcher, renderer Renderer) *Provider {
	return &Provider{client: client, scheduler: scheduler, scraper: scraper, renderer: renderer}
}

func (p *Provider) Name() string { return "threads" }

func (p *Provider) ContentType() metadata.ContentType { return metadata.TypeThreads }

func (p *Provider) CanHandle(rawURL string) bool {
	return ClassifyURL(rawURL) != URLTypeNone
}

// Fetch resolves a threads URL through the strategy chain.
func (p *Provider) Fetch(ctx context.Context, rawURL string) (*metadata.Record, error) {
	var chain []adapters.Strategy

	if p.renderer != nil {
		chain = append(chain, adapters.Strategy{Name: "threads-render", Fetch: p.fetchRendered})
	}
	chain = append(chain, adapters.Strategy{Name: "threads-islands", Fetch: p.fetchRaw})
	if p.scraper != nil {
		chain = append(chain, adapters.Strategy{Name: "threads-scrape", Fetch: p.scrape})
	}

	return adapters.RunChain(ctx, rawURL, chain)
}

func (p *Provider) fetchRendered(ctx context.Context, rawURL string) (*metadata.Record, error) {
	var content string
	err := p.scheduler.Do(ctx, api.DestThreads, func() error {
		var renderErr error
		content, renderErr = p.renderer.Render(ctx, rawURL)
		return renderErr
	})
	if err != nil {
		return nil, metadata.NewFetchError(metadata.ReasonNetwork, rawURL, err)
	}
	return p.recordFromHTML(rawURL, content)
}

func (p *Provider) fetchRaw(ctx context.Context, rawURL string) (*metadata.Record, error) {
	var body []byte
	err := p.scheduler.Do(ctx, api.DestThreads, func() error {
		var fetchErr error
		body, _, fetchErr = p.client.GetBody(ctx, rawURL, 4<<20, nil)
		return fetchErr
	})
	if err != nil {
		return nil, metadata.NewFetchError(api.FetchReason(err), rawURL, err)
	}
	return p.recordFromHTML(rawURL, string(body))
}

func (p *Provider) recordFromHTML(rawURL, htmlContent string) (*metadata.Record, error) {
	posts, err := ExtractPosts(htmlContent)
	if err != nil {
		return nil, metadata.NewFetchError(metadata.ReasonParseFailure, rawURL, err)
	}

	main := posts[0]
	rec := &metadata.Record{
		URL:         rawURL,
		ContentType: metadata.TypeThreads,
		Description: metadata.Truncate(main.Text, 300),
		FullText:    main.Text,
		SourceID:    main.ID,
		Source:      metadata.SourceScraping,
		Author: &metadata.Author{
			Handle:   main.Username,
			Verified: main.Verified,
			Avatar:   main.UserPic,
		},
		Metrics: &metadata.Metrics{
			Likes:   main.LikeCount,
			Replies: main.ReplyCount,
		},
	}

	rec.Title = fmt.Sprintf("@%s on Threads: %s", main.Username, metadata.Truncate(main.Text, 80))
	if len(main.Images) > 0 {
		rec.Image = main.Images[0]
	} else if main.UserPic != "" {
		rec.Image = main.UserPic
	}
	if main.TakenAt > 0 {
		created := time.Unix(main.TakenAt, 0).UTC()
		rec.CreatedAt = &created
	}
	return rec, nil
}

func (p *Provider) scrape(ctx context.Context, rawURL string) (*metadata.Record, error) {
	var meta *htmlmeta.PageMeta
	err := p.scheduler.Do(ctx, api.DestThreads, func() error {
		var fetchErr error
		meta, fetchErr = p.scraper.Fetch(ctx, rawURL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	return &metadata.Record{
		URL:         rawURL,
		ContentType: metadata.TypeThreads,
		Title:       meta.Title,
		Description: meta.Description,
		Image:       meta.Image,
		Source:      metadata.SourceScraping,
	}, nil
}
