// Package metadata defines the normalized preview-metadata model shared by
// all source adapters, the resolver and the cache.
package metadata

import (
	"net/url"
	"strings"
	"time"
)

// ContentType classifies a URL into a content family. It drives adapter
// selection and the cache TTL policy.
type ContentType string

// Known content types.
const (
	TypeTwitter  ContentType = "twitter"
	TypeBluesky  ContentType = "bluesky"
	TypeThreads  ContentType = "threads"
	TypeYouTube  ContentType = "youtube"
	TypeGitHub   ContentType = "github"
	TypeLinkedIn ContentType = "linkedin"
	TypeSpotify  ContentType = "spotify"
	TypeWebsite  ContentType = "website"
)

// SourceTag records how a record was produced.
type SourceTag string

// Provenance tags, in decreasing order of confidence.
const (
	SourceAPI      SourceTag = "api"
	SourceScraping SourceTag = "scraping"
	SourceFallback SourceTag = "fallback"
	SourceCached   SourceTag = "cached"
)

// Author describes the creator of a social post.
type Author struct {
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// Metrics holds engagement counters. Each source populates its own subset.
type Metrics struct {
	Likes   int64 `json:"likes,omitempty"`
	Shares  int64 `json:"shares,omitempty"`
	Replies int64 `json:"replies,omitempty"`
	Quotes  int64 `json:"quotes,omitempty"`
	Views   int64 `json:"views,omitempty"`
	Stars   int64 `json:"stars,omitempty"`
}

// Record is the normalized output of metadata resolution for one URL.
type Record struct {
	URL         string      `json:"url"`
	ContentType ContentType `json:"content_type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	FullText    string      `json:"full_text,omitempty"`
	Image       string      `json:"image,omitempty"`
	Author      *Author     `json:"author,omitempty"`
	CreatedAt   *time.Time  `json:"created_at,omitempty"`
	Metrics     *Metrics    `json:"metrics,omitempty"`

	// SourceID is the content family's native identifier (tweet ID, video
	// ID, owner/repo). It dedupes the same post reached via URL variants.
	SourceID string    `json:"source_id,omitempty"`
	Source   SourceTag `json:"source"`
	Error    string    `json:"error,omitempty"`
}

// Clone returns a shallow copy of the record with its own Author and
// Metrics. Callers may mutate the copy without affecting cached state.
func (r *Record) Clone() *Record {
	cp := *r
	if r.Author != nil {
		author := *r.Author
		cp.Author = &author
	}
	if r.Metrics != nil {
		metrics := *r.Metrics
		cp.Metrics = &metrics
	}
	if r.CreatedAt != nil {
		created := *r.CreatedAt
		cp.CreatedAt = &created
	}
	return &cp
}

// Degraded reports whether the record is a fallback or carries an error.
func (r *Record) Degraded() bool {
	return r.Source == SourceFallback || r.Error != ""
}

// Truncate shortens s to max runes, appending an ellipsis when trimmed.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}

// DomainName extracts the bare host name from a URL, without the www prefix.
// Returns the input unchanged when it does not parse.
func DomainName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Host, "www.")
}
