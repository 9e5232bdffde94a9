// Package youtube resolves video URLs by scraping the watch page. The
// thumbnail is derived from the video ID, so even a failed scrape keeps
// a usable image.
package youtube

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/adapters"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/api"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/htmlmeta"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

var urlPattern = regexp.MustCompile(`^https?://(?:www\.|m\.|music\.)?(?:youtube\.com|youtu\.be)/`)

// Provider is the YouTube adapter.
type Provider struct {
	scheduler *api.Scheduler
	scraper   *htmlmeta.Fetcher
}

var _ adapters.Adapter = (*Provider)(nil)

// New creates a YouTube provider over the scraping fetcher.
func New(scheduler *api.Scheduler, scraper *htmlmeta.Fetcher) *Provider {
	return &Provider{scheduler: scheduler, scraper: scraper}
}

func (p *Provider) Name() string { return "youtube" }

func (p *Provider) ContentType() metadata.ContentType { return metadata.TypeYouTube }

func (p *Provider) CanHandle(rawURL string) bool {
	return urlPattern.MatchString(rawURL)
}

// ExtractVideoID returns the video ID from watch, short-link, embed and
// shorts URL forms.
func ExtractVideoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	if u.Host == "youtu.be" || u.Host == "www.youtu.be" {
		return strings.TrimPrefix(u.Path, "/")
	}

	switch {
	case u.Path == "/watch":
		return u.Query().Get("v")
	case strings.HasPrefix(u.Path, "/embed/"):
		return firstSegment(strings.TrimPrefix(u.Path, "/embed/"))
	case strings.HasPrefix(u.Path, "/shorts/"):
		return firstSegment(strings.TrimPrefix(u.Path, "/shorts/"))
	}
	return ""
}

func firstSegment(p string) string {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}

// ThumbnailURL returns the predictable max-resolution thumbnail for a
// video ID.
func ThumbnailURL(videoID string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID)
}

// Fetch scrapes the video page. The derived thumbnail wins over whatever
// og:image offers only when scraping returned no image at all.
func (p *Provider) Fetch(ctx context.Context, rawURL string) (*metadata.Record, error) {
	videoID := ExtractVideoID(rawURL)

	var meta *htmlmeta.PageMeta
	err := p.scheduler.Do(ctx, api.DestYouTube, func() error {
		var fetchErr error
		meta, fetchErr = p.scraper.Fetch(ctx, rawURL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	rec := &metadata.Record{
		URL:         rawURL,
		ContentType: metadata.TypeYouTube,
		Title:       meta.Title,
		Description: meta.Description,
		Image:       meta.Image,
		SourceID:    videoID,
		Source:      metadata.SourceScraping,
	}
	if rec.Title == "" {
		rec.Title = "YouTube Video"
	}
	if rec.Image == "" && videoID != "" {
		rec.Image = ThumbnailURL(videoID)
	}
	return rec, nil
}
