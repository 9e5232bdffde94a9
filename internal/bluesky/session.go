package bluesky

import (
	"context"
	"fmt"
	"log/slog"
)

// SessionAPIBase is the PDS endpoint sessions are created against.
// Overridable for tests.
var SessionAPIBase = "https://bsky.social"

// Credentials are the identifier and app password used to create an
// authenticated AT Protocol session.
type Credentials struct {
	Identifier  string
	AppPassword string
}

type createSessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type createSessionResponse struct {
	AccessJWT string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

// authHeaders returns the Authorization header for API reads, creating
// the session on first use. Missing credentials or a failed login mean
// public mode: the reads work either way, authentication only lifts the
// anonymous rate limits.
func (p *Provider) authHeaders(ctx context.Context) map[string]string {
	if p.creds == nil {
		return nil
	}

	p.sessionMu.Lock()
	defer p.sessionMu.Unlock()

	if p.sessionFailed {
		return nil
	}
	if p.accessJWT == "" {
		if err := p.createSession(ctx); err != nil {
			slog.Warn("Bluesky session creation failed, staying in public mode", "error", err)
			p.sessionFailed = true
			return nil
		}
		slog.Debug("Bluesky session created", "identifier", p.creds.Identifier)
	}

	return map[string]string{"Authorization": "Bearer " + p.accessJWT}
}

// createSession logs in with the app password. Callers hold sessionMu.
func (p *Provider) createSession(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/xrpc/com.atproto.server.createSession", SessionAPIBase)

	var resp createSessionResponse
	err := p.client.PostJSONAndDecode(ctx, endpoint, createSessionRequest{
		Identifier: p.creds.Identifier,
		Password:   p.creds.AppPassword,
	}, &resp, nil)
	if err != nil {
		return fmt.Errorf("failed to create session for %s: %w", p.creds.Identifier, err)
	}
	if resp.AccessJWT == "" {
		return fmt.Errorf("empty access token for %s", p.creds.Identifier)
	}

	p.accessJWT = resp.AccessJWT
	return nil
}
