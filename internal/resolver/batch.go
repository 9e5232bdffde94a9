package resolver

import (
	"context"
	"log/slog"

	"github.com/jimmystridh/obsidian-inbox-browser/internal/twitter"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// ResolveMany resolves a list of URLs and returns their records in
// input order. Tweet URLs are pulled out and resolved together through
// the batch API, one metered call per hundred IDs instead of one per
// tweet; everything else goes through Resolve one at a time, paced by
// the scheduler.
func (r *Resolver) ResolveMany(ctx context.Context, urls []string) ([]*metadata.Record, error) {
	records := make([]*metadata.Record, len(urls))

	tweetIndexes := make(map[string][]int)
	var tweetOrder []string

	for i, rawURL := range urls {
		if r.twitter != nil && r.twitter.CanHandle(rawURL) {
			if id := twitter.ExtractTweetID(rawURL); id != "" {
				if _, seen := tweetIndexes[id]; !seen {
					tweetOrder = append(tweetOrder, id)
				}
				tweetIndexes[id] = append(tweetIndexes[id], i)
				continue
			}
		}

		rec, err := r.Resolve(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}

	if len(tweetOrder) > 0 {
		if err := r.resolveTweets(ctx, urls, tweetOrder, tweetIndexes, records); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// resolveTweets fills in the tweet slots of records. Cached tweets are
// matched by ID so twitter.com and x.com variants of the same status
// share one entry; the rest go to the API in batches.
func (r *Resolver) resolveTweets(ctx context.Context, urls []string, order []string, indexes map[string][]int, records []*metadata.Record) error {
	var uncached []string

	for _, id := range order {
		cached, err := r.store.GetBySourceID(metadata.TypeTwitter, id)
		if err != nil {
			return err
		}
		if cached != nil {
			r.assignTweet(cached, true, urls, indexes[id], records)
			continue
		}
		uncached = append(uncached, id)
	}
	if len(uncached) == 0 {
		return nil
	}

	slog.Debug("Resolving tweet batch", "total", len(order), "uncached", len(uncached))

	fetched, failed, err := r.twitter.FetchByIDs(ctx, uncached)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	failedSet := make(map[string]bool, len(failed))
	for _, id := range failed {
		failedSet[id] = true
	}

	for _, id := range uncached {
		if failedSet[id] {
			continue
		}
		rec, ok := fetched[id]
		if !ok {
			rec = fallbackRecord(metadata.TypeTwitter, urls[indexes[id][0]],
				metadata.NewFetchError(metadata.ReasonNotFound, urls[indexes[id][0]], nil))
		}
		r.assignTweet(rec, false, urls, indexes[id], records)
	}

	// IDs from failed chunks retry one at a time. Resolve degrades each
	// to its own cached fallback when the retry fails too, so a bad
	// chunk never taints the tweets fetched before it.
	if len(failed) > 0 {
		slog.Warn("Tweet batch partially failed, retrying individually", "failed", len(failed), "error", err)
	}
	for _, id := range failed {
		slots := indexes[id]
		rec, err := r.Resolve(ctx, urls[slots[0]])
		if err != nil {
			return err
		}
		r.assignTweet(rec, rec.Source == metadata.SourceCached, urls, slots, records)
	}
	return nil
}

// assignTweet writes one tweet record into every slot whose URL mapped
// to its ID. Fresh records are cached per URL variant.
func (r *Resolver) assignTweet(rec *metadata.Record, fromCache bool, urls []string, slots []int, records []*metadata.Record) {
	for _, i := range slots {
		cp := rec.Clone()
		cp.URL = urls[i]
		if fromCache {
			cp.Source = metadata.SourceCached
			records[i] = cp
			continue
		}
		r.cache(cp)
		records[i] = cp.Clone()
	}
}
