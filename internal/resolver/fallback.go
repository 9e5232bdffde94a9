package resolver

import (
	"fmt"

	"github.com/jimmystridh/obsidian-inbox-browser/internal/bluesky"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/github"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/threads"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/twitter"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/youtube"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// fallbackRecord builds a degraded record for a URL whose fetch failed.
// Whatever can be read from the URL itself still makes it into the
// preview: tweet author and date, video thumbnail, repo name. The error
// message is preserved so the cache applies the short retry window.
func fallbackRecord(contentType metadata.ContentType, rawURL string, fetchErr error) *metadata.Record {
	rec := &metadata.Record{
		URL:         rawURL,
		ContentType: contentType,
		Title:       metadata.DomainName(rawURL),
		Description: "Failed to load metadata",
		Source:      metadata.SourceFallback,
	}
	if fetchErr != nil {
		rec.Error = fetchErr.Error()
	}

	switch contentType {
	case metadata.TypeTwitter:
		applyTwitterHints(rec, rawURL)
	case metadata.TypeBluesky:
		if ref, ok := bluesky.ParsePostURL(rawURL); ok {
			rec.Title = fmt.Sprintf("Bluesky post by @%s", ref.Handle)
			rec.Author = &metadata.Author{Handle: ref.Handle}
		} else {
			rec.Title = "Bluesky Post"
		}
	case metadata.TypeThreads:
		if user := threads.Username(rawURL); user != "" {
			rec.Title = fmt.Sprintf("@%s on Threads", user)
			rec.Author = &metadata.Author{Handle: user}
		} else {
			rec.Title = "Threads Post"
		}
	case metadata.TypeYouTube:
		rec.Title = "YouTube Video"
		if id := youtube.ExtractVideoID(rawURL); id != "" {
			rec.SourceID = id
			rec.Image = youtube.ThumbnailURL(id)
		}
	case metadata.TypeGitHub:
		if owner, repo, ok := github.ParseRepoURL(rawURL); ok {
			rec.Title = owner + "/" + repo
			rec.SourceID = owner + "/" + repo
		} else {
			rec.Title = "GitHub"
		}
	}

	return rec
}

// applyTwitterHints fills in what a tweet URL alone reveals: the author
// handle, an avatar via the unavatar proxy, and the post date decoded
// from the snowflake ID.
func applyTwitterHints(rec *metadata.Record, rawURL string) {
	user := twitter.ExtractUsername(rawURL)
	id := twitter.ExtractTweetID(rawURL)

	if user != "" {
		rec.Title = fmt.Sprintf("X post by @%s", user)
		rec.Author = &metadata.Author{Handle: user}
		rec.Image = "https://unavatar.io/twitter/" + user
	} else {
		rec.Title = "X Post"
	}

	if id != "" {
		rec.SourceID = id
		if created := twitter.SnowflakeTime(id); !created.IsZero() {
			rec.CreatedAt = &created
		}
	}
}
