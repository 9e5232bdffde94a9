// Package inbox parses the capture file of a note-taking vault: one
// timestamped line per captured thought or link. It classifies items as
// work or personal and renders resolved links into vault notes.
package inbox

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	urlPattern          = regexp.MustCompile(`https?://[^\s\]]+`)
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\((https?://[^)]+)\)`)
	timestampPattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`)
)

const timestampLayout = "2006-01-02 15:04:05"

// Kind labels what an inbox line contains. URL-bearing lines get the
// content family of their first recognized link.
type Kind string

const (
	KindTwitter  Kind = "twitter"
	KindBluesky  Kind = "bluesky"
	KindThreads  Kind = "threads"
	KindYouTube  Kind = "youtube"
	KindGitHub   Kind = "github"
	KindLinkedIn Kind = "linkedin"
	KindSpotify  Kind = "spotify"
	// KindLink is a URL outside the known families.
	KindLink Kind = "link"
	// KindNote is a plain text capture with no URL.
	KindNote        Kind = "note"
	KindSwedishNote Kind = "swedish-note"
)

// Item is one parsed inbox line.
type Item struct {
	ID         string
	Timestamp  *time.Time
	Content    string
	RawLine    string
	URLs       []string
	Kind       Kind
	LineNumber int
}

// Parse splits the inbox file into items, newest first. Headers, blank
// lines and the capture plugin's "Type:"/"Links:" annotations are
// skipped. Lines without a leading timestamp still become items so
// nothing captured is lost.
func Parse(content string) []Item {
	var items []Item

	for i, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "Type:") || strings.HasPrefix(line, "Links:") {
			continue
		}

		if item, ok := parseLine(line, i); ok {
			items = append(items, item)
		}
	}

	// The file is append-only, so reversing yields newest first.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items
}

func parseLine(line string, index int) (Item, bool) {
	stamp := timestampPattern.FindString(line)
	if stamp == "" {
		urls := ExtractURLs(line)
		return Item{
			ID:         fmt.Sprintf("item-%d", index),
			Content:    line,
			RawLine:    line,
			URLs:       urls,
			Kind:       determineKind(line, urls),
			LineNumber: index + 1,
		}, true
	}

	content := strings.TrimSpace(line[len(stamp):])
	if content == "" {
		return Item{}, false
	}

	item := Item{
		ID:         fmt.Sprintf("item-%s-%d", stamp, index),
		Content:    content,
		RawLine:    line,
		URLs:       ExtractURLs(content),
		LineNumber: index + 1,
	}
	item.Kind = determineKind(content, item.URLs)

	if ts, err := time.ParseInLocation(timestampLayout, stamp, time.Local); err == nil {
		item.Timestamp = &ts
	}
	return item, true
}

// ExtractURLs pulls every URL out of a line: markdown link targets
// first, then bare URLs in the remaining text. Duplicates are dropped,
// order of first appearance is kept.
func ExtractURLs(content string) []string {
	var urls []string
	seen := make(map[string]bool)

	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	for _, m := range markdownLinkPattern.FindAllStringSubmatch(content, -1) {
		add(m[2])
	}

	remaining := markdownLinkPattern.ReplaceAllString(content, "")
	for _, m := range urlPattern.FindAllString(remaining, -1) {
		// Trailing punctuation belongs to the sentence, not the URL.
		add(strings.TrimRight(m, ")],.!?"))
	}

	return urls
}

func determineKind(content string, urls []string) Kind {
	for _, rawURL := range urls {
		u, err := url.Parse(rawURL)
		if err != nil {
			continue
		}
		host := strings.ToLower(u.Host)

		switch {
		case strings.Contains(host, "twitter.com"), strings.Contains(host, "x.com"):
			return KindTwitter
		case strings.Contains(host, "bsky.app"):
			return KindBluesky
		case strings.Contains(host, "threads.net"), strings.Contains(host, "threads.com"):
			return KindThreads
		case strings.Contains(host, "youtube.com"), strings.Contains(host, "youtu.be"):
			return KindYouTube
		case strings.Contains(host, "github.com"):
			return KindGitHub
		case strings.Contains(host, "linkedin.com"):
			return KindLinkedIn
		case strings.Contains(host, "spotify.com"):
			return KindSpotify
		}
	}

	if len(urls) > 0 || strings.Contains(strings.ToLower(content), "http") {
		return KindLink
	}
	if isSwedish(content) {
		return KindSwedishNote
	}
	return KindNote
}

// Common Swedish words plus the recurring vocabulary of this inbox's
// personal captures.
var swedishWords = map[string]bool{
	"och": true, "att": true, "det": true, "är": true, "för": true,
	"med": true, "till": true, "av": true, "som": true, "har": true,
	"träning": true, "hemma": true, "barnkläder": true, "sälja": true,
	"rensa": true, "organisera": true, "glasögon": true, "läroplan": true,
	"ekonomi": true,
}

func isSwedish(content string) bool {
	for _, word := range strings.Fields(strings.ToLower(content)) {
		if swedishWords[word] {
			return true
		}
	}
	return false
}

// Stats summarizes a parsed inbox.
type Stats struct {
	Total   int
	ByKind  map[Kind]int
	ByMonth map[string]int
	URLs    int
	Notes   int
}

// ItemStats counts items by kind, by capture month and by whether they
// carry a URL.
func ItemStats(items []Item) Stats {
	stats := Stats{
		Total:   len(items),
		ByKind:  make(map[Kind]int),
		ByMonth: make(map[string]int),
	}

	for _, item := range items {
		stats.ByKind[item.Kind]++
		if item.Timestamp != nil {
			stats.ByMonth[item.Timestamp.Format("2006-01")]++
		}
		if len(item.URLs) > 0 {
			stats.URLs++
		} else {
			stats.Notes++
		}
	}
	return stats
}
