// Package github resolves repository URLs through the REST API, with an
// HTML scrape as the fallback strategy. A token raises the rate limit
// but is not required.
package github

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

// APIBase is the REST API root. Overridable for tests.
var APIBase = "https://api.github.com"

var repoPattern = regexp.MustCompile(`github\.com/([^/?#]+)/([^/?#]+)`)

type repoResponse struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stargazers  int    `json:"stargazers_count"`
	Owner       struct {
		AvatarURL string `json:"avatar_url"`
	} `json:"owner"`
	PushedAt string `json:"pushed_at"`
}

// Provider is the GitHub repository adapter.
type Provider struct {
	client    *api.Client
	scheduler *api.Scheduler
	scraper   *htmlmeta.Fetcher
}

var _ adapters.Adapter = (*Provider)(nil)

// New creates a GitHub provider. scraper may be nil to disable the
// scraping fallback.
func New(client *api.Client, scheduler *api.Scheduler, scraper *htmlmeta.Fetcher) *Provider {
	return &Provider{client: client, scheduler: scheduler, scraper: scraper}
}

func (p *Provider) Name() string { return "github" }

func (p *Provider) ContentType() metadata.ContentType { return metadata.TypeGitHub }

func (p *Provider) CanHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host == "github.com" || u.Host == "www.github.com"
}

// ParseRepoURL returns the owner and repository from a github.com URL.
// Non-repository URLs (gists, user profiles, marketing pages) return
// ok=false.
func ParseRepoURL(rawURL string) (owner, repo string, ok bool) {
	m := repoPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", "", false
	}
	owner, repo = m[1], strings.TrimSuffix(m[2], ".git")

	switch owner {
	case "features", "topics", "collections", "sponsors", "about", "pricing", "settings", "orgs", "marketplace":
		return "", "", false
	}
	return owner, repo, true
}

// Fetch resolves a repository URL: API first, scrape second.
func (p *Provider) Fetch(ctx context.Context, rawURL string) (*metadata.Record, error) {
	owner, repo, ok := ParseRepoURL(rawURL)
	if !ok {
		return p.scrape(ctx, rawURL)
	}

	chain := []adapters.Strategy{
		{Name: "github-api", Fetch: func(ctx context.Context, rawURL string) (*metadata.Record, error) {
			return p.fetchViaAPI(ctx, rawURL, owner, repo)
		}},
	}
	if p.scraper != nil {
		chain = append(chain, adapters.Strategy{Name: "github-scrape", Fetch: p.scrape})
	}
	return adapters.RunChain(ctx, rawURL, chain)
}

func (p *Provider) fetchViaAPI(ctx context.Context, rawURL, owner, repo string) (*metadata.Record, error) {
	var resp repoResponse
	err := p.scheduler.Do(ctx, api.DestGitHub, func() error {
		endpoint := fmt.Sprintf("%s/repos/%s/%s", APIBase, owner, repo)
		return p.client.GetAndDecode(ctx, endpoint, &resp, map[string]string{
			"Accept": "application/vnd.github+json",
		})
	})
	if err != nil {
		return nil, metadata.NewFetchError(api.FetchReason(err), rawURL, err)
	}

	description := resp.Description
	if description == "" {
		description = "GitHub repository"
	}

	rec := &metadata.Record{
		URL:         rawURL,
		ContentType: metadata.TypeGitHub,
		Title:       fmt.Sprintf("%s/%s", owner, repo),
		Description: description,
		Image:       resp.Owner.AvatarURL,
		SourceID:    fmt.Sprintf("%s/%s", owner, repo),
		Source:      metadata.SourceAPI,
		Metrics:     &metadata.Metrics{Stars: int64(resp.Stargazers)},
	}
	if resp.Language != "" {
		rec.Description = fmt.Sprintf("%s (%s)", description, resp.Language)
	}
	return rec, nil
}

func (p *Provider) scrape(ctx context.Context, rawURL string) (*metadata.Record, error) {
	if p.scraper == nil {
		return nil, metadata.NewFetchError(metadata.ReasonUnsupported, rawURL,
			fmt.Errorf("scraping disabled"))
	}

	var meta *htmlmeta.PageMeta
	err := p.scheduler.Do(ctx, api.DestGitHub, func() error {
		var fetchErr error
		meta, fetchErr = p.scraper.Fetch(ctx, rawURL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	return &metadata.Record{
		URL:         rawURL,
		ContentType: metadata.TypeGitHub,
		Title:       meta.Title,
		Description: meta.Description,
		Image:       meta.Image,
		Source:      metadata.SourceScraping,
	}, nil
}
