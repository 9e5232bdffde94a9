// Package cache implements the two-tier metadata cache: an in-process map
// for the current session and a SQLite store that persists across runs.
package cache

import (
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// Default freshness windows per content type. API-backed results for
// stable content keep long windows; social posts whose engagement counts
// move get short ones.
var defaultTTLs = map[metadata.ContentType]time.Duration{
	metadata.TypeTwitter:  6 * time.Hour,
	metadata.TypeBluesky:  6 * time.Hour,
	metadata.TypeThreads:  6 * time.Hour,
	metadata.TypeYouTube:  7 * 24 * time.Hour,
	metadata.TypeSpotify:  7 * 24 * time.Hour,
	metadata.TypeGitHub:   24 * time.Hour,
	metadata.TypeLinkedIn: 4 * time.Hour,
	metadata.TypeWebsite:  12 * time.Hour,
}

// TwitterAPITTL applies to records that came from the paid tweet API.
// Longer than the scrape window because each hit costs money.
const TwitterAPITTL = 24 * time.Hour

// ErrorTTL applies to degraded records holding an error message, so a
// transient failure is retried soon.
const ErrorTTL = 30 * time.Minute

// TTLPolicy computes expiry windows. Overrides replace the default window
// for a content type.
type TTLPolicy struct {
	overrides map[metadata.ContentType]time.Duration
}

// NewTTLPolicy creates a policy with the given per-type overrides.
func NewTTLPolicy(overrides map[metadata.ContentType]time.Duration) *TTLPolicy {
	return &TTLPolicy{overrides: overrides}
}

// For returns the freshness window for a record. Error-bearing records
// always get the short retry window regardless of type or source; a
// placeholder without an error keeps its content-type window, since
// static placeholders do not improve by refetching sooner.
func (p *TTLPolicy) For(rec *metadata.Record) time.Duration {
	if rec.Error != "" {
		return ErrorTTL
	}
	if rec.ContentType == metadata.TypeTwitter && rec.Source == metadata.SourceAPI {
		return TwitterAPITTL
	}

	if p != nil && p.overrides != nil {
		if d, ok := p.overrides[rec.ContentType]; ok {
			return d
		}
	}
	if d, ok := defaultTTLs[rec.ContentType]; ok {
		return d
	}
	return ErrorTTL
}
