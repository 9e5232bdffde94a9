package bluesky

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type resolveHandleResponse struct {
	DID string `json:"did"`
}

type getPostsResponse struct {
	Posts []feedPost `json:"posts"`
}

type feedPost struct {
	URI         string     `json:"uri"`
	CID         string     `json:"cid"`
	Author      postAuthor `json:"author"`
	Record      postRecord `json:"record"`
	ReplyCount  int        `json:"replyCount"`
	RepostCount int        `json:"repostCount"`
	LikeCount   int        `json:"likeCount"`
	QuoteCount  int        `json:"quoteCount"`
}

type postAuthor struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

type postRecord struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// resolveHandle maps a handle to its DID. URLs sometimes carry the DID
// directly, in which case no lookup is needed.
func (p *Provider) resolveHandle(ctx context.Context, handle string, headers map[string]string) (string, error) {
	if strings.HasPrefix(handle, "did:") {
		return handle, nil
	}

	endpoint := fmt.Sprintf("%s/xrpc/com.atproto.identity.resolveHandle?handle=%s",
		PublicAPIBase, url.QueryEscape(handle))

	var resp resolveHandleResponse
	if err := p.client.GetAndDecode(ctx, endpoint, &resp, headers); err != nil {
		return "", fmt.Errorf("failed to resolve handle %s: %w", handle, err)
	}
	if resp.DID == "" {
		return "", fmt.Errorf("empty DID for handle %s", handle)
	}
	return resp.DID, nil
}

// getPost fetches a single post by AT-URI via the AppView. headers
// carry the session token when one exists.
func (p *Provider) getPost(ctx context.Context, atURI string, headers map[string]string) (*feedPost, error) {
	endpoint := fmt.Sprintf("%s/xrpc/app.bsky.feed.getPosts?uris=%s",
		PublicAPIBase, url.QueryEscape(atURI))

	var resp getPostsResponse
	if err := p.client.GetAndDecode(ctx, endpoint, &resp, headers); err != nil {
		return nil, fmt.Errorf("failed to fetch post %s: %w", atURI, err)
	}
	if len(resp.Posts) == 0 {
		return nil, fmt.Errorf("post %s not found", atURI)
	}
	return &resp.Posts[0], nil
}
