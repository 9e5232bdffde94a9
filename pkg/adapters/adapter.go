// Package adapters defines the source-adapter contract and the registry the
// resolver uses to classify URLs into content families.
package adapters

import (
	"context"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// Adapter translates one external content family into normalized metadata
// records. Implementations live under internal/ and are registered with a
// Registry owned by the resolver.
type Adapter interface {
	// Name identifies the adapter in logs and provenance fields.
	Name() string
	// ContentType is the family this adapter produces.
	ContentType() metadata.ContentType
	// CanHandle reports whether the adapter recognizes the URL.
	CanHandle(rawURL string) bool
	// Fetch resolves the URL into a record. Failures are returned as
	// *metadata.FetchError; the adapter never fabricates fallback records,
	// that is the resolver's job.
	Fetch(ctx context.Context, rawURL string) (*metadata.Record, error)
}
