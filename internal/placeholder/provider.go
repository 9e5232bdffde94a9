// Package placeholder serves static records for sites that block
// unauthenticated access entirely. LinkedIn rejects scrapers and Spotify
// pages are useless without the web player, so both get deterministic
// placeholder previews instead of doomed fetch attempts.
package placeholder

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/adapters"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

var spotifyIDPattern = regexp.MustCompile(`spotify\.com/(track|episode|show|album|playlist)/([^?/#]+)`)

// LinkedIn is the linkedin.com placeholder adapter.
type LinkedIn struct{}

var _ adapters.Adapter = (*LinkedIn)(nil)

func (LinkedIn) Name() string { return "linkedin" }

func (LinkedIn) ContentType() metadata.ContentType { return metadata.TypeLinkedIn }

func (LinkedIn) CanHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host == "linkedin.com" || u.Host == "www.linkedin.com" ||
		strings.HasSuffix(u.Host, ".linkedin.com")
}

func (LinkedIn) Fetch(_ context.Context, rawURL string) (*metadata.Record, error) {
	return &metadata.Record{
		URL:         rawURL,
		ContentType: metadata.TypeLinkedIn,
		Title:       "LinkedIn Post",
		Description: "LinkedIn professional network post",
		Source:      metadata.SourceFallback,
	}, nil
}

// Spotify is the spotify.com placeholder adapter. It extracts the item
// ID so the record stays identifiable, but fetches nothing.
type Spotify struct{}

var _ adapters.Adapter = (*Spotify)(nil)

func (Spotify) Name() string { return "spotify" }

func (Spotify) ContentType() metadata.ContentType { return metadata.TypeSpotify }

func (Spotify) CanHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host == "open.spotify.com" || u.Host == "spotify.com" || u.Host == "www.spotify.com"
}

func (Spotify) Fetch(_ context.Context, rawURL string) (*metadata.Record, error) {
	rec := &metadata.Record{
		URL:         rawURL,
		ContentType: metadata.TypeSpotify,
		Title:       "Spotify Content",
		Description: "Spotify music or podcast content",
		Source:      metadata.SourceFallback,
	}
	if kind, id, ok := ExtractSpotifyID(rawURL); ok {
		rec.SourceID = id
		switch kind {
		case "track":
			rec.Title = "Spotify Track"
		case "episode":
			rec.Title = "Spotify Podcast Episode"
		case "show":
			rec.Title = "Spotify Podcast"
		case "album":
			rec.Title = "Spotify Album"
		case "playlist":
			rec.Title = "Spotify Playlist"
		}
	}
	return rec, nil
}

// ExtractSpotifyID returns the item kind and ID from a Spotify URL.
func ExtractSpotifyID(rawURL string) (kind, id string, ok bool) {
	m := spotifyIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
