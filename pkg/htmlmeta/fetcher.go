package htmlmeta

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/api"
	httputil "github.com/jimmystridh/obsidian-inbox-browser/pkg/http"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

const maxBodySize = 1 << 20 // 1MB

// Fetcher downloads a page and extracts its metadata.
type Fetcher struct {
	client *api.Client
}

// NewFetcher creates a fetcher over the given HTTP client. Pass a scraper
// client so browser-like headers and burst limiting apply.
func NewFetcher(client *api.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch downloads rawURL and parses its metadata. Non-HTML responses and
// unparseable documents come back as parse-failure fetch errors so adapter
// chains can fall through to a placeholder.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*PageMeta, error) {
	body, contentType, err := f.client.GetBody(ctx, rawURL, maxBodySize, nil)
	if err != nil {
		return nil, metadata.NewFetchError(api.FetchReason(err), rawURL, err)
	}

	if !httputil.IsHTMLContentType(contentType) {
		return nil, metadata.NewFetchError(metadata.ReasonParseFailure, rawURL,
			fmt.Errorf("not an HTML page: %s", contentType))
	}

	htmlContent, err := decodeToUTF8(body, contentType)
	if err != nil {
		return nil, metadata.NewFetchError(metadata.ReasonParseFailure, rawURL, err)
	}

	meta, err := Parse(htmlContent, rawURL)
	if err != nil {
		return nil, metadata.NewFetchError(metadata.ReasonParseFailure, rawURL, err)
	}

	slog.Debug("Extracted page metadata", "url", rawURL, "title", meta.Title,
		"hasDescription", meta.Description != "")
	return meta, nil
}

// decodeToUTF8 converts the body to UTF-8 using the Content-Type charset
// hint, falling back to treating the bytes as UTF-8 when detection fails.
func decodeToUTF8(body []byte, contentType string) (string, error) {
	reader, err := charset.NewReader(strings.NewReader(string(body)), contentType)
	if err != nil {
		slog.Warn("Failed to detect charset, assuming UTF-8", "error", err)
		return string(body), nil
	}

	utf8Bytes, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to convert to UTF-8: %w", err)
	}
	return string(utf8Bytes), nil
}
