// Package htmlmeta extracts page metadata (OpenGraph, twitter cards and
// plain HTML fallbacks) from fetched documents. It backs the scraping
// strategies of every adapter.
package htmlmeta

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/urlutils"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 500
	minParagraphLen   = 20
)

// PageMeta holds the metadata extracted from one HTML document.
type PageMeta struct {
	Title       string
	Description string
	Image       string
	SiteName    string
}

// Parse extracts metadata from an HTML document. Priority per field is
// og:* first, then twitter:* cards, then plain title/description tags.
// pageURL is used for the site-name fallback.
func Parse(htmlContent, pageURL string) (*PageMeta, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	meta := &PageMeta{}
	extractTags(doc, meta)
	applyFallbacks(meta, doc, pageURL)
	cleanup(meta, pageURL)

	return meta, nil
}

func extractTags(n *html.Node, meta *PageMeta) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "meta":
			processMetaTag(n, meta)
		case "title":
			if meta.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				meta.Title = strings.TrimSpace(n.FirstChild.Data)
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractTags(c, meta)
	}
}

func processMetaTag(n *html.Node, meta *PageMeta) {
	var property, content, name string

	for _, attr := range n.Attr {
		switch attr.Key {
		case "property":
			property = attr.Val
		case "content":
			content = attr.Val
		case "name":
			name = attr.Val
		}
	}

	// OpenGraph wins over anything already collected from fallbacks.
	switch property {
	case "og:title":
		meta.Title = preferOG(meta.Title, content)
	case "og:description":
		meta.Description = preferOG(meta.Description, content)
	case "og:image":
		meta.Image = preferOG(meta.Image, content)
	case "og:site_name":
		meta.SiteName = preferOG(meta.SiteName, content)
	}

	switch name {
	case "twitter:title":
		if meta.Title == "" {
			meta.Title = content
		}
	case "twitter:description", "description":
		if meta.Description == "" {
			meta.Description = content
		}
	case "twitter:image":
		if meta.Image == "" {
			meta.Image = content
		}
	}
}

func preferOG(existing, content string) string {
	if content != "" {
		return content
	}
	return existing
}

func applyFallbacks(meta *PageMeta, doc *html.Node, pageURL string) {
	if meta.Description == "" {
		meta.Description = firstParagraph(doc)
	}

	if meta.SiteName == "" && pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			meta.SiteName = u.Host
		}
	}
}

// firstParagraph returns the text of the first <p> with enough content
// to serve as a description.
func firstParagraph(doc *html.Node) string {
	var walk func(*html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "p" {
			text := strings.TrimSpace(nodeText(n))
			if len(text) > minParagraphLen {
				return text
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if result := walk(c); result != "" {
				return result
			}
		}
		return ""
	}
	return walk(doc)
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

func cleanup(meta *PageMeta, pageURL string) {
	meta.Title = cleanField(meta.Title, maxTitleLen)
	meta.Description = cleanField(meta.Description, maxDescriptionLen)
	meta.SiteName = cleanField(meta.SiteName, 0)

	// Sites occasionally emit relative og:image paths.
	if meta.Image != "" && !urlutils.IsValidURL(meta.Image) {
		if resolved, err := urlutils.ResolveURL(pageURL, meta.Image); err == nil && urlutils.IsValidURL(resolved) {
			meta.Image = resolved
		} else {
			meta.Image = ""
		}
	}
}

func cleanField(s string, maxLen int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
	if maxLen > 0 && len(s) > maxLen {
		s = s[:maxLen-3] + "..."
	}
	return s
}
