// Package threads resolves threads.net URLs. Threads serves its data as
// JSON islands inside script tags, so resolution renders or fetches the
// page and digs the post out of the embedded payload.
package threads

import (
	"net/url"
	"strings"
)

// URLType classifies a threads.net URL.
type URLType string

const (
	URLTypeNone    URLType = ""
	URLTypeProfile URLType = "profile"
	URLTypeThread  URLType = "thread"
)

// ClassifyURL returns what kind of page a threads.net URL names.
// Ambiguous paths default to profile, matching how the site routes them.
func ClassifyURL(rawURL string) URLType {
	u, err := url.Parse(rawURL)
	if err != nil {
		return URLTypeNone
	}
	switch u.Host {
	case "threads.net", "www.threads.net", "threads.com", "www.threads.com":
	default:
		return URLTypeNone
	}

	parts := splitPath(u.Path)
	switch {
	case len(parts) == 1 && strings.HasPrefix(parts[0], "@"):
		return URLTypeProfile
	case len(parts) == 3 && strings.HasPrefix(parts[0], "@") && parts[1] == "post":
		return URLTypeThread
	case len(parts) == 2 && parts[0] == "t":
		return URLTypeThread
	}
	return URLTypeProfile
}

// PostCode returns the short code of a post URL, or "" for profiles.
func PostCode(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	parts := splitPath(u.Path)
	switch {
	case len(parts) == 3 && parts[1] == "post":
		return parts[2]
	case len(parts) == 2 && parts[0] == "t":
		return parts[1]
	}
	return ""
}

// Username returns the @-handle from a threads URL without the @ prefix.
func Username(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	parts := splitPath(u.Path)
	if len(parts) > 0 && strings.HasPrefix(parts[0], "@") {
		return strings.TrimPrefix(parts[0], "@")
	}
	return ""
}

func splitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}
