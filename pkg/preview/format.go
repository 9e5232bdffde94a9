// Package preview provides an interactive inbox browser using a Bubble Tea TUI.
package preview

import (
	"fmt"
	"strings"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/internal/inbox"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// Entry pairs an inbox item with its resolved preview metadata. Record
// is nil for plain notes that carry no URL.
type Entry struct {
	Item   inbox.Item
	Record *metadata.Record
}

// wrapText wraps text to the specified width, breaking at word boundaries when possible
func wrapText(text string, width int) string {
	if width <= 0 {
		width = 70
	}

	var result strings.Builder
	var line strings.Builder
	lineLen := 0

	words := strings.Fields(text)
	for i, word := range words {
		wordLen := len(word)

		if lineLen > 0 && lineLen+1+wordLen > width {
			result.WriteString(line.String())
			result.WriteString("\n")
			line.Reset()
			lineLen = 0
		}

		if lineLen > 0 {
			line.WriteString(" ")
			lineLen++
		}

		line.WriteString(word)
		lineLen += wordLen

		if i == len(words)-1 {
			result.WriteString(line.String())
		}
	}

	return result.String()
}

// FormatCompactListItem formats a single entry in compact list format.
// Example: " 1. [twitter ] 2024-03-04 10:45  Author on X: tweet text"
func FormatCompactListItem(index int, entry Entry) string {
	stamp := "                "
	if entry.Item.Timestamp != nil {
		stamp = entry.Item.Timestamp.Format("2006-01-02 15:04")
	}

	title := entry.Item.Content
	if entry.Record != nil && entry.Record.Title != "" {
		title = entry.Record.Title
	}
	const maxTitleLength = 70
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength-3] + "..."
	}

	return fmt.Sprintf("%2d. [%-8s] %s  %s", index+1, entry.Item.Kind, stamp, title)
}

// FormatDetailedEntry formats one entry with its full resolved metadata.
func FormatDetailedEntry(entry Entry) string {
	var b strings.Builder

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")

	rec := entry.Record
	if rec == nil {
		b.WriteString(fmt.Sprintf("Note: %s\n", wrapText(entry.Item.Content, 70)))
		if entry.Item.Timestamp != nil {
			b.WriteString(fmt.Sprintf("Captured: %s\n", formatTimeAgo(*entry.Item.Timestamp)))
		}
		b.WriteString("═══════════════════════════════════════════════════════════════════════\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Title: %s\n", rec.Title))
	b.WriteString(fmt.Sprintf("Link: %s\n", rec.URL))
	b.WriteString(fmt.Sprintf("Type: %s | Source: %s\n", rec.ContentType, rec.Source))

	if rec.Author != nil {
		author := rec.Author.Handle
		if rec.Author.DisplayName != "" {
			author = fmt.Sprintf("%s (@%s)", rec.Author.DisplayName, rec.Author.Handle)
		}
		if rec.Author.Verified {
			author += " ✓"
		}
		b.WriteString(fmt.Sprintf("Author: %s\n", author))
	}

	if m := rec.Metrics; m != nil {
		switch {
		case m.Stars > 0:
			b.WriteString(fmt.Sprintf("Stars: %d\n", m.Stars))
		case m.Likes > 0 || m.Shares > 0 || m.Replies > 0:
			b.WriteString(fmt.Sprintf("Engagement: %d likes | %d shares | %d replies\n",
				m.Likes, m.Shares, m.Replies))
		}
	}

	if rec.CreatedAt != nil {
		b.WriteString(fmt.Sprintf("Posted: %s\n", formatTimeAgo(*rec.CreatedAt)))
	}

	if rec.Image != "" {
		b.WriteString(fmt.Sprintf("Image: %s\n", rec.Image))
	}

	if rec.Error != "" {
		b.WriteString(fmt.Sprintf("Resolution error: %s\n", rec.Error))
	}

	if content := firstOf(rec.FullText, rec.Description); content != "" {
		const maxContentLength = 1000
		if len(content) > maxContentLength {
			content = content[:maxContentLength] + "..."
		}
		b.WriteString(fmt.Sprintf("\nContent:\n%s\n", wrapText(content, 70)))
	}

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")

	return b.String()
}

// FormatNotePreview renders the markdown note this entry would produce.
func FormatNotePreview(entry Entry, renderer *inbox.NoteRenderer) string {
	if entry.Record == nil {
		return "Plain notes have no generated note preview"
	}

	category := inbox.SuggestNoteCategory(entry.Record)
	note, err := renderer.Render(entry.Record, category, inbox.NoteOptions{})
	if err != nil {
		return fmt.Sprintf("Error rendering note: %s", err)
	}

	filename := inbox.NoteFilename(entry.Record, category, time.Now())
	return fmt.Sprintf("%s/%s\n\n%s", category, filename, note)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// formatTimeAgo formats a time.Time as a human-readable "X ago" string
func formatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		mins := int(duration.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02")
	}
}
