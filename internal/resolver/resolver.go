// Package resolver orchestrates metadata resolution: cache lookup,
// adapter dispatch, in-flight deduplication and fallback degradation.
// It is the only entry point the rest of the application uses to turn
// a URL into a preview record.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/internal/bluesky"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/cache"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/config"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/github"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/placeholder"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/threads"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/twitter"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/webpage"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/youtube"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/adapters"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/api"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/htmlmeta"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// renderTimeout bounds a single headless-browser page load.
const renderTimeout = 30 * time.Second

// purgeInterval is how often expired rows are reclaimed in the background.
const purgeInterval = time.Hour

// Resolver turns URLs into preview records, consulting the two cache
// tiers before dispatching to a source adapter.
type Resolver struct {
	registry  *adapters.Registry
	memory    *cache.Memory
	store     *cache.Store
	ttl       *cache.TTLPolicy
	scheduler *api.Scheduler
	inflight  *inflight

	// twitter is kept aside from the registry because batch resolution
	// talks to its ID-based API directly.
	twitter *twitter.Provider

	purgeStop chan struct{}
}

// New wires up a resolver from configuration: one scheduler shared by
// every adapter, a scraper for the HTML paths, and per-source API
// clients built from the configured credentials.
func New(ctx context.Context, cfg *config.Config) (*Resolver, error) {
	store, err := cache.NewStore(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata cache: %w", err)
	}

	scheduler := api.NewScheduler(api.SchedulerConfig{
		Delays:       cfg.DelayOverrides(),
		DefaultDelay: time.Duration(cfg.Resolver.DefaultDelayMS) * time.Millisecond,
	})

	scraper := htmlmeta.NewFetcher(api.NewScraperClient())

	githubClient := api.NewJSONClient()
	if cfg.Credentials.GitHubToken != "" {
		githubClient = api.NewOAuthClient(ctx, cfg.Credentials.GitHubToken)
	}

	var bskyCreds *bluesky.Credentials
	if cfg.Credentials.BskyIdentifier != "" && cfg.Credentials.BskyAppPassword != "" {
		bskyCreds = &bluesky.Credentials{
			Identifier:  cfg.Credentials.BskyIdentifier,
			AppPassword: cfg.Credentials.BskyAppPassword,
		}
	}

	var renderer threads.Renderer
	if cfg.Resolver.RenderThreads {
		renderer = threads.NewChromeRenderer(renderTimeout)
	}

	twitterProvider := twitter.New(api.NewMeteredClient(cfg.Credentials.TwitterAPIKey), scheduler)

	registry := adapters.NewRegistry()
	ordered := []adapters.Adapter{
		twitterProvider,
		bluesky.New(api.NewJSONClient(), scheduler, scraper, bskyCreds),
		threads.New(api.NewScraperClient(), scheduler, scraper, renderer),
		youtube.New(scheduler, scraper),
		github.New(githubClient, scheduler, scraper),
		placeholder.LinkedIn{},
		placeholder.Spotify{},
	}
	for _, a := range ordered {
		if err := registry.Register(a); err != nil {
			store.Close()
			return nil, err
		}
	}
	registry.SetFallback(webpage.New(scheduler, scraper))

	r := newResolver(registry, store, cache.NewTTLPolicy(ttlOverrides(cfg)), scheduler)
	r.twitter = twitterProvider
	r.purgeStop = make(chan struct{})
	go r.purgeLoop()
	return r, nil
}

// purgeLoop reclaims expired cache rows until the resolver is closed.
func (r *Resolver) purgeLoop() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed, err := r.store.PurgeExpired(); err != nil {
				slog.Warn("Cache purge failed", "error", err)
			} else if removed > 0 {
				slog.Debug("Purged expired cache entries", "count", removed)
			}
		case <-r.purgeStop:
			return
		}
	}
}

func newResolver(registry *adapters.Registry, store *cache.Store, ttl *cache.TTLPolicy, scheduler *api.Scheduler) *Resolver {
	return &Resolver{
		registry:  registry,
		memory:    cache.NewMemory(),
		store:     store,
		ttl:       ttl,
		scheduler: scheduler,
		inflight:  newInflight(),
	}
}

func ttlOverrides(cfg *config.Config) map[metadata.ContentType]time.Duration {
	configured := cfg.TTLOverrides()
	if len(configured) == 0 {
		return nil
	}
	overrides := make(map[metadata.ContentType]time.Duration, len(configured))
	for name, d := range configured {
		overrides[metadata.ContentType(name)] = d
	}
	return overrides
}

// Close stops the scheduler and closes the persistent cache.
func (r *Resolver) Close() error {
	if r.purgeStop != nil {
		close(r.purgeStop)
		r.purgeStop = nil
	}
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

// Resolve returns the preview record for a URL. Cache hits are served
// as copies tagged with the cached provenance; misses dispatch to the
// matching adapter. A failed fetch degrades into a fallback record
// rather than an error, so the only errors callers see are context
// cancellation and cache corruption.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*metadata.Record, error) {
	if !validURL(rawURL) {
		// Not cached: a malformed entry costs nothing to rebuild.
		return fallbackRecord(metadata.TypeWebsite, rawURL,
			fmt.Errorf("not a resolvable http(s) URL")), nil
	}

	if rec := r.memory.Get(rawURL); rec != nil {
		return cachedCopy(rec), nil
	}

	if rec, err := r.store.Get(rawURL); err != nil {
		return nil, err
	} else if rec != nil {
		r.memory.Set(rec, r.ttl.For(rec))
		return cachedCopy(rec), nil
	}

	call, leader := r.inflight.join(rawURL)
	if !leader {
		select {
		case <-call.done:
			if call.err != nil {
				return nil, call.err
			}
			return call.rec.Clone(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	rec, err := r.fetch(ctx, rawURL)
	r.inflight.settle(rawURL, call, rec, err)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// fetch dispatches to the matching adapter and stores the outcome in
// both cache tiers. Fetch failures become fallback records; only a
// cancelled context propagates as an error.
func (r *Resolver) fetch(ctx context.Context, rawURL string) (*metadata.Record, error) {
	adapter := r.registry.Match(rawURL)

	rec, err := adapter.Fetch(ctx, rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("Fetch failed, serving fallback",
			"url", rawURL, "adapter", adapter.Name(), "error", err)
		rec = fallbackRecord(adapter.ContentType(), rawURL, err)
	}

	r.cache(rec)
	return rec, nil
}

// cache stores a record in both tiers with its policy window. Store
// failures are logged, not fatal: a record that cannot be persisted is
// still good for this session.
func (r *Resolver) cache(rec *metadata.Record) {
	ttl := r.ttl.For(rec)
	r.memory.Set(rec, ttl)
	if err := r.store.Set(rec, ttl); err != nil {
		slog.Warn("Failed to persist record", "url", rec.URL, "error", err)
	}
}

func validURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// cachedCopy clones a cached record and tags the copy so callers can
// tell a cache hit from a fresh fetch. The stored row keeps its
// original provenance.
func cachedCopy(rec *metadata.Record) *metadata.Record {
	cp := rec.Clone()
	cp.Source = metadata.SourceCached
	return cp
}

// Classify reports the content type a URL would resolve as, without
// fetching anything.
func (r *Resolver) Classify(rawURL string) metadata.ContentType {
	return r.registry.Classify(rawURL)
}

// Adapters returns the registered adapter names in match order, the
// catch-all last.
func (r *Resolver) Adapters() []string {
	return r.registry.List()
}

// Bust removes a URL from both cache tiers. Returns whether the
// persistent tier held a row.
func (r *Resolver) Bust(rawURL string) (bool, error) {
	r.memory.Delete(rawURL)
	return r.store.Delete(rawURL)
}

// PurgeExpired removes lapsed rows from the persistent tier.
func (r *Resolver) PurgeExpired() (int, error) {
	return r.store.PurgeExpired()
}

// CacheStats returns persistent-tier counters.
func (r *Resolver) CacheStats() (*cache.Stats, error) {
	return r.store.Stats()
}
