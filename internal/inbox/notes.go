package inbox

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
	"github.com/jimmystridh/obsidian-inbox-browser/templates"
)

// NoteCategory names a vault folder that processed items land in.
type NoteCategory string

const (
	NoteToRead    NoteCategory = "ToRead"
	NoteToWatch   NoteCategory = "ToWatch"
	NoteResources NoteCategory = "Resources"
	NoteInsights  NoteCategory = "Insights"
)

var categoryTemplates = map[NoteCategory]string{
	NoteToRead:    "toread.tmpl",
	NoteToWatch:   "towatch.tmpl",
	NoteResources: "resource.tmpl",
	NoteInsights:  "insight.tmpl",
}

// SuggestNoteCategory maps a resolved record onto the vault folder its
// note belongs in.
func SuggestNoteCategory(rec *metadata.Record) NoteCategory {
	switch rec.ContentType {
	case metadata.TypeYouTube, metadata.TypeSpotify:
		return NoteToWatch
	case metadata.TypeTwitter, metadata.TypeBluesky, metadata.TypeThreads, metadata.TypeLinkedIn:
		return NoteInsights
	case metadata.TypeWebsite:
		return NoteToRead
	default:
		return NoteResources
	}
}

// NoteOptions carries the user's additions to a generated note. A zero
// Now means the current time.
type NoteOptions struct {
	Notes    string
	Priority string
	Tags     []string
	Now      time.Time
}

// NoteRenderer renders markdown notes from resolved records using the
// embedded templates.
type NoteRenderer struct {
	tmpl *template.Template
}

// NewNoteRenderer parses the embedded note templates.
func NewNoteRenderer() (*NoteRenderer, error) {
	tmpl, err := template.New("notes").Funcs(noteFuncs()).ParseFS(templates.EmbeddedTemplates, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse note templates: %w", err)
	}
	return &NoteRenderer{tmpl: tmpl}, nil
}

func noteFuncs() template.FuncMap {
	return template.FuncMap{
		"escapeQuotes": func(s string) string { return strings.ReplaceAll(s, `"`, `\"`) },
	}
}

// Render produces the markdown note for a record in the given category.
func (r *NoteRenderer) Render(rec *metadata.Record, category NoteCategory, opts NoteOptions) (string, error) {
	name, ok := categoryTemplates[category]
	if !ok {
		return "", fmt.Errorf("unknown note category: %s", category)
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, newNoteData(rec, category, opts)); err != nil {
		return "", fmt.Errorf("failed to render note: %w", err)
	}
	return buf.String(), nil
}

// NoteFilename builds the "<date> - <name>.md" filename for a note.
// Insights are named after the author and topic so a folder of social
// posts stays scannable; the rest use the record title.
func NoteFilename(rec *metadata.Record, category NoteCategory, now time.Time) string {
	date := now.Format("2006-01-02")

	var name string
	switch category {
	case NoteInsights:
		author := "Unknown"
		if rec.Author != nil && rec.Author.Handle != "" {
			author = rec.Author.Handle
		}
		name = author + " - " + extractTopic(firstNonEmpty(rec.Description, rec.Title))
	case NoteResources:
		if rec.ContentType == metadata.TypeGitHub && rec.Title != "" {
			name = strings.ReplaceAll(rec.Title, "/", "-")
		} else {
			name = sanitizeFilename(firstNonEmpty(rec.Title, "Resource"))
		}
	case NoteToWatch:
		name = sanitizeFilename(firstNonEmpty(rec.Title, "Video"))
	default:
		name = sanitizeFilename(firstNonEmpty(rec.Title, "Article"))
	}

	return fmt.Sprintf("%s - %s.md", date, name)
}

// noteData is the template payload, flattened so templates stay free of
// nil checks.
type noteData struct {
	Title         string
	URL           string
	Platform      string
	Type          string
	Category      string
	Author        string
	AuthorDisplay string
	Verified      bool
	Description   string
	FullText      string
	Image         string
	Stars         int64
	Likes         int64
	Shares        int64
	Replies       int64
	HasMetrics    bool
	Date          string
	Today         string
	Topic         string
	Notes         string
	Priority      string
	Tags          []string
}

func newNoteData(rec *metadata.Record, category NoteCategory, opts NoteOptions) noteData {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	data := noteData{
		Title:       firstNonEmpty(rec.Title, "Untitled"),
		URL:         rec.URL,
		Platform:    platformName(rec.ContentType),
		Type:        string(rec.ContentType),
		Category:    string(category),
		Author:      "Unknown",
		Description: rec.Description,
		FullText:    rec.FullText,
		Image:       rec.Image,
		Date:        now.Format("2006-01-02"),
		Today:       now.Format("2006-01-02"),
		Topic:       extractTopic(firstNonEmpty(rec.Description, rec.Title)),
		Notes:       opts.Notes,
		Priority:    firstNonEmpty(opts.Priority, "medium"),
		Tags:        opts.Tags,
	}

	if rec.Author != nil {
		if rec.Author.Handle != "" {
			data.Author = rec.Author.Handle
		}
		data.AuthorDisplay = firstNonEmpty(rec.Author.DisplayName, data.Author)
		data.Verified = rec.Author.Verified
	} else {
		data.AuthorDisplay = data.Author
	}

	if rec.CreatedAt != nil {
		data.Date = rec.CreatedAt.Format("2006-01-02")
	}

	if rec.Metrics != nil {
		data.Stars = rec.Metrics.Stars
		data.Likes = rec.Metrics.Likes
		data.Shares = rec.Metrics.Shares
		data.Replies = rec.Metrics.Replies
		data.HasMetrics = rec.Metrics.Likes > 0 || rec.Metrics.Shares > 0 || rec.Metrics.Replies > 0
	}

	return data
}

func platformName(contentType metadata.ContentType) string {
	switch contentType {
	case metadata.TypeTwitter:
		return "X"
	case metadata.TypeBluesky:
		return "Bluesky"
	case metadata.TypeThreads:
		return "Threads"
	case metadata.TypeYouTube:
		return "YouTube"
	case metadata.TypeGitHub:
		return "GitHub"
	case metadata.TypeLinkedIn:
		return "LinkedIn"
	case metadata.TypeSpotify:
		return "Spotify"
	default:
		return "Web"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// sanitizeFilename strips characters that are unsafe in vault filenames
// and caps the length.
func sanitizeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '-'
		}
		return r
	}, name)
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if len(cleaned) > 100 {
		cleaned = strings.TrimSpace(cleaned[:100])
	}
	return cleaned
}

// extractTopic condenses a description into a short filename-safe topic.
func extractTopic(text string) string {
	if text == "" {
		return "General"
	}

	words := strings.Fields(text)
	if len(words) > 5 {
		words = words[:5]
	}
	topic := sanitizeFilename(strings.Join(words, " "))
	if len(topic) > 30 {
		topic = strings.TrimSpace(topic[:30])
	}
	if topic == "" {
		return "General"
	}
	return topic
}
