package twitter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/api"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// BaseURL is the TwitterAPI.io endpoint root. Overridable for tests.
var BaseURL = "https://api.twitterapi.io"

// maxBatchSize is the API's per-request ID limit.
const maxBatchSize = 100

type tweetsResponse struct {
	Tweets []apiTweet `json:"tweets"`
}

type apiTweet struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	CreatedAt    string    `json:"createdAt"`
	Author       apiAuthor `json:"author"`
	LikeCount    int       `json:"likeCount"`
	RetweetCount int       `json:"retweetCount"`
	ReplyCount   int       `json:"replyCount"`
	QuoteCount   int       `json:"quoteCount"`
	ViewCount    int       `json:"viewCount"`
}

type apiAuthor struct {
	UserName       string `json:"userName"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
	IsVerified     bool   `json:"isVerified"`
	IsBlueVerified bool   `json:"isBlueVerified"`
}

// FetchByIDs fetches tweets in batches of up to 100 IDs per API call and
// returns them keyed by tweet ID. Every call is paced through the
// scheduler because the metered tier enforces a hard per-request delay.
// A failed chunk does not discard the chunks already paid for: its IDs
// come back in the failed list alongside the partial result, with the
// last chunk error as a rate-limited or network fetch error. IDs simply
// absent from a successful response are left out of both.
func (p *Provider) FetchByIDs(ctx context.Context, ids []string) (map[string]*metadata.Record, []string, error) {
	records := make(map[string]*metadata.Record, len(ids))
	var failed []string
	var lastErr error

	for start := 0; start < len(ids); start += maxBatchSize {
		end := min(start+maxBatchSize, len(ids))
		batch := ids[start:end]

		var resp tweetsResponse
		err := p.scheduler.Do(ctx, api.DestTwitterAPI, func() error {
			endpoint := fmt.Sprintf("%s/twitter/tweets?tweet_ids=%s",
				BaseURL, url.QueryEscape(strings.Join(batch, ",")))
			return p.client.GetAndDecode(ctx, endpoint, &resp, nil)
		})
		if err != nil {
			slog.Warn("Tweet batch chunk failed", "requested", len(batch), "error", err)
			lastErr = metadata.NewFetchError(api.FetchReason(err), "", err)
			failed = append(failed, batch...)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		slog.Debug("Fetched tweet batch", "requested", len(batch), "returned", len(resp.Tweets))
		for i := range resp.Tweets {
			rec := normalizeTweet(&resp.Tweets[i])
			records[rec.SourceID] = rec
		}
	}

	return records, failed, lastErr
}

// normalizeTweet maps an API tweet onto the shared record shape.
func normalizeTweet(t *apiTweet) *metadata.Record {
	rec := &metadata.Record{
		ContentType: metadata.TypeTwitter,
		Title:       tweetTitle(t),
		Description: metadata.Truncate(t.Text, 300),
		FullText:    t.Text,
		SourceID:    t.ID,
		Source:      metadata.SourceAPI,
		Author: &metadata.Author{
			Handle:      t.Author.UserName,
			DisplayName: t.Author.Name,
			Verified:    t.Author.IsVerified || t.Author.IsBlueVerified,
			Avatar:      t.Author.ProfilePicture,
		},
		Metrics: &metadata.Metrics{
			Likes:   int64(t.LikeCount),
			Shares:  int64(t.RetweetCount),
			Replies: int64(t.ReplyCount),
			Quotes:  int64(t.QuoteCount),
			Views:   int64(t.ViewCount),
		},
	}

	if t.Author.ProfilePicture != "" {
		rec.Image = t.Author.ProfilePicture
	}

	if created, err := time.Parse(time.RubyDate, t.CreatedAt); err == nil {
		utc := created.UTC()
		rec.CreatedAt = &utc
	} else if created := SnowflakeTime(t.ID); !created.IsZero() {
		rec.CreatedAt = &created
	}

	return rec
}

func tweetTitle(t *apiTweet) string {
	name := t.Author.Name
	if name == "" {
		name = "@" + t.Author.UserName
	}
	return fmt.Sprintf("%s on X: %s", name, metadata.Truncate(t.Text, 80))
}
