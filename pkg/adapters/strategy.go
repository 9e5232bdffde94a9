package adapters

import (
	"context"
	"log/slog"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// Strategy is one named way of resolving a URL. Adapters declare an ordered
// chain of strategies (api first, scraping second, placeholder last) instead
// of nesting error handling.
type Strategy struct {
	Name  string
	Fetch func(ctx context.Context, rawURL string) (*metadata.Record, error)
}

// RunChain executes strategies in order and returns the first successful
// record. The last failure is returned when every strategy fails.
func RunChain(ctx context.Context, rawURL string, chain []Strategy) (*metadata.Record, error) {
	var lastErr error

	for _, s := range chain {
		if err := ctx.Err(); err != nil {
			return nil, metadata.NewFetchError(metadata.ReasonNetwork, rawURL, err)
		}

		rec, err := s.Fetch(ctx, rawURL)
		if err == nil && rec != nil {
			slog.Debug("Strategy succeeded", "strategy", s.Name, "url", rawURL)
			return rec, nil
		}

		slog.Debug("Strategy failed", "strategy", s.Name, "url", rawURL, "error", err)
		if err != nil {
			lastErr = err
		}
	}

	if lastErr == nil {
		lastErr = metadata.NewFetchError(metadata.ReasonUnsupported, rawURL, nil)
	}
	return nil, lastErr
}
