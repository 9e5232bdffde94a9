package cache

import (
	"testing"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

func TestTTLPolicyDefaults(t *testing.T) {
	policy := NewTTLPolicy(nil)

	tests := []struct {
		name     string
		rec      *metadata.Record
		expected time.Duration
	}{
		{
			name: "tweet from paid api",
			rec: &metadata.Record{
				ContentType: metadata.TypeTwitter,
				Source:      metadata.SourceAPI,
			},
			expected: 24 * time.Hour,
		},
		{
			name: "tweet from fallback",
			rec: &metadata.Record{
				ContentType: metadata.TypeTwitter,
				Source:      metadata.SourceFallback,
			},
			expected: 6 * time.Hour,
		},
		{
			name: "youtube video",
			rec: &metadata.Record{
				ContentType: metadata.TypeYouTube,
				Source:      metadata.SourceScraping,
			},
			expected: 7 * 24 * time.Hour,
		},
		{
			name: "linkedin placeholder",
			rec: &metadata.Record{
				ContentType: metadata.TypeLinkedIn,
				Source:      metadata.SourceFallback,
			},
			expected: 4 * time.Hour,
		},
		{
			name: "spotify placeholder",
			rec: &metadata.Record{
				ContentType: metadata.TypeSpotify,
				Source:      metadata.SourceFallback,
			},
			expected: 7 * 24 * time.Hour,
		},
		{
			name: "generic website",
			rec: &metadata.Record{
				ContentType: metadata.TypeWebsite,
				Source:      metadata.SourceScraping,
			},
			expected: 12 * time.Hour,
		},
		{
			name: "record with error retries soon",
			rec: &metadata.Record{
				ContentType: metadata.TypeYouTube,
				Source:      metadata.SourceFallback,
				Error:       "fetch failed",
			},
			expected: 30 * time.Minute,
		},
		{
			name:     "unknown type gets the short window",
			rec:      &metadata.Record{ContentType: "mystery"},
			expected: 30 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.For(tt.rec); got != tt.expected {
				t.Errorf("For() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestTTLPolicyOverrides(t *testing.T) {
	policy := NewTTLPolicy(map[metadata.ContentType]time.Duration{
		metadata.TypeWebsite: time.Hour,
	})

	rec := &metadata.Record{ContentType: metadata.TypeWebsite, Source: metadata.SourceScraping}
	if got := policy.For(rec); got != time.Hour {
		t.Errorf("For() = %v, expected the override", got)
	}

	// Overrides never shorten the error retry window logic.
	rec.Error = "boom"
	if got := policy.For(rec); got != ErrorTTL {
		t.Errorf("For() with error = %v, expected %v", got, ErrorTTL)
	}
}

func TestFallbackTTLShorterThanAPI(t *testing.T) {
	policy := NewTTLPolicy(nil)

	apiRec := &metadata.Record{ContentType: metadata.TypeTwitter, Source: metadata.SourceAPI}
	degraded := &metadata.Record{ContentType: metadata.TypeTwitter, Source: metadata.SourceFallback, Error: "rate limited"}

	if policy.For(degraded) >= policy.For(apiRec) {
		t.Error("degraded records must expire before full API records")
	}
}
