// Package main provides the CLI entry point for inbox-browser.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"

	"github.com/jimmystridh/obsidian-inbox-browser/internal/config"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/inbox"
	"github.com/jimmystridh/obsidian-inbox-browser/internal/resolver"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/preview"
)

// CLI structure
var CLI struct {
	Config string `help:"Configuration file path" default:"config.yaml"`
	Debug  bool   `help:"Enable debug logging" default:"false"`

	Resolve struct {
		URL  string `arg:"" help:"URL to resolve"`
		JSON bool   `help:"Output the raw metadata record as JSON"`
	} `cmd:"resolve" help:"Resolve preview metadata for a single URL."`

	Batch struct {
		URLs []string `arg:"" optional:"" help:"URLs to resolve (reads stdin when empty)"`
	} `cmd:"batch" help:"Resolve many URLs at once, batching tweet lookups."`

	Inbox struct {
		File  string `help:"Inbox markdown file (overrides config)"`
		Stats bool   `help:"Show capture statistics instead of listing items"`
	} `cmd:"inbox" help:"Parse and classify the inbox file."`

	Preview struct {
		File  string `help:"Inbox markdown file (overrides config)"`
		Limit int    `help:"Maximum number of items to resolve" default:"50"`
	} `cmd:"preview" help:"Browse the inbox interactively with resolved previews."`

	Note struct {
		URL      string   `arg:"" help:"URL to generate a note for"`
		Category string   `help:"Category override (ToRead, ToWatch, Resources, Insights)"`
		Tags     []string `help:"Tags to include in the note frontmatter"`
		Write    bool     `help:"Write the note into the configured notes directory" short:"w"`
	} `cmd:"note" help:"Generate an Obsidian note for a URL."`

	Adapters struct{} `cmd:"adapters" help:"List the registered source adapters in match order."`

	Cache struct {
		Stats struct{} `cmd:"stats" help:"Show cache statistics."`
		Purge struct{} `cmd:"purge" help:"Remove expired cache entries."`
		Bust  struct {
			URL string `arg:"" help:"URL to remove from the cache"`
		} `cmd:"bust" help:"Remove a single URL from both cache tiers."`
	} `cmd:"cache" help:"Inspect and maintain the metadata cache."`
}

func main() {
	// Parse CLI with Kong YAML configuration file loading
	ctx := kong.Parse(&CLI,
		kong.Configuration(kongyaml.Loader, "config.yaml", "~/.inbox-browser/config.yaml"),
	)

	// Configure logging level based on debug flag
	if CLI.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelWarn)
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	switch ctx.Command() {
	case "resolve <url>":
		resolveOne(cfg, CLI.Resolve.URL, CLI.Resolve.JSON)

	case "batch", "batch <urls>":
		resolveBatch(cfg, CLI.Batch.URLs)

	case "inbox":
		browseInbox(cfg, CLI.Inbox.File, CLI.Inbox.Stats)

	case "preview":
		previewInbox(cfg, CLI.Preview.File, CLI.Preview.Limit)

	case "note <url>":
		generateNote(cfg, CLI.Note.URL, CLI.Note.Category, CLI.Note.Tags, CLI.Note.Write)

	case "adapters":
		listAdapters(cfg)

	case "cache stats":
		cacheStats(cfg)

	case "cache purge":
		cachePurge(cfg)

	case "cache bust <url>":
		cacheBust(cfg, CLI.Cache.Bust.URL)

	default:
		panic(ctx.Command())
	}
}

// newResolver wires up the resolver from the loaded configuration.
func newResolver(cfg *config.Config) *resolver.Resolver {
	r, err := resolver.New(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to initialize resolver", "error", err)
		os.Exit(1)
	}
	return r
}

// resolveOne resolves a single URL and prints the result
func resolveOne(cfg *config.Config, url string, asJSON bool) {
	r := newResolver(cfg)
	defer r.Close()

	rec, err := r.Resolve(context.Background(), url)
	if err != nil {
		slog.Error("Failed to resolve URL", "url", url, "error", err)
		os.Exit(1)
	}

	if asJSON {
		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			slog.Error("Failed to encode record", "error", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Print(preview.FormatDetailedEntry(preview.Entry{Record: rec}))
}

// resolveBatch resolves a list of URLs, reading stdin when none are given
func resolveBatch(cfg *config.Config, urls []string) {
	if len(urls) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				urls = append(urls, line)
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Error("Failed to read URLs from stdin", "error", err)
			os.Exit(1)
		}
	}
	if len(urls) == 0 {
		fmt.Println("No URLs to resolve")
		return
	}

	r := newResolver(cfg)
	defer r.Close()

	records, err := r.ResolveMany(context.Background(), urls)
	if err != nil {
		slog.Error("Failed to resolve URLs", "error", err)
		os.Exit(1)
	}

	for i, rec := range records {
		fmt.Printf("%2d. [%-8s] %-9s %s\n", i+1, rec.ContentType, rec.Source, rec.Title)
	}
}

// browseInbox parses the inbox file and prints classified items or stats
func browseInbox(cfg *config.Config, file string, showStats bool) {
	items := loadInbox(cfg, file)

	if showStats {
		stats := inbox.ItemStats(items)
		fmt.Printf("Total items: %d (%d with URLs, %d plain notes)\n", stats.Total, stats.URLs, stats.Notes)
		fmt.Println("\nBy kind:")
		for kind, count := range stats.ByKind {
			fmt.Printf("  %-12s %d\n", kind, count)
		}
		fmt.Println("\nBy month:")
		for month, count := range stats.ByMonth {
			fmt.Printf("  %s  %d\n", month, count)
		}
		return
	}

	classifier, err := inbox.NewClassifier()
	if err != nil {
		slog.Error("Failed to load classifier rules", "error", err)
		os.Exit(1)
	}

	for i, item := range items {
		c := classifier.Classify(item)
		stamp := "                "
		if item.Timestamp != nil {
			stamp = item.Timestamp.Format("2006-01-02 15:04")
		}
		content := item.Content
		if len(content) > 60 {
			content = content[:57] + "..."
		}
		fmt.Printf("%3d. [%-8s] %s  %-8s (%.2f)  %s\n", i+1, item.Kind, stamp, c.Category, c.Confidence, content)
	}
}

// previewInbox resolves inbox URLs and opens the interactive browser
func previewInbox(cfg *config.Config, file string, limit int) {
	items := loadInbox(cfg, file)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	r := newResolver(cfg)
	defer r.Close()

	// Resolve the first URL of each item in one batch so tweet lookups
	// coalesce into a single API call.
	var urls []string
	urlIndex := make([]int, 0, len(items))
	for i, item := range items {
		if len(item.URLs) > 0 {
			urls = append(urls, item.URLs[0])
			urlIndex = append(urlIndex, i)
		}
	}

	entries := make([]preview.Entry, len(items))
	for i, item := range items {
		entries[i] = preview.Entry{Item: item}
	}

	if len(urls) > 0 {
		records, err := r.ResolveMany(context.Background(), urls)
		if err != nil {
			slog.Error("Failed to resolve inbox URLs", "error", err)
			os.Exit(1)
		}
		for j, rec := range records {
			entries[urlIndex[j]].Record = rec
		}
	}

	renderer, err := inbox.NewNoteRenderer()
	if err != nil {
		slog.Error("Failed to load note templates", "error", err)
		os.Exit(1)
	}

	if err := preview.Run(entries, renderer); err != nil {
		slog.Error("Preview failed", "error", err)
		os.Exit(1)
	}
}

// generateNote resolves a URL and renders its Obsidian note
func generateNote(cfg *config.Config, url, categoryOverride string, tags []string, write bool) {
	r := newResolver(cfg)
	defer r.Close()

	rec, err := r.Resolve(context.Background(), url)
	if err != nil {
		slog.Error("Failed to resolve URL", "url", url, "error", err)
		os.Exit(1)
	}

	category := inbox.SuggestNoteCategory(rec)
	if categoryOverride != "" {
		category = inbox.NoteCategory(categoryOverride)
	}

	renderer, err := inbox.NewNoteRenderer()
	if err != nil {
		slog.Error("Failed to load note templates", "error", err)
		os.Exit(1)
	}

	note, err := renderer.Render(rec, category, inbox.NoteOptions{Tags: tags})
	if err != nil {
		slog.Error("Failed to render note", "category", category, "error", err)
		os.Exit(1)
	}

	filename := inbox.NoteFilename(rec, category, time.Now())

	if !write {
		fmt.Printf("%s/%s\n\n%s", category, filename, note)
		return
	}

	dir := filepath.Join(cfg.Inbox.NotesDir, string(category))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("Failed to create notes directory", "dir", dir, "error", err)
		os.Exit(1)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(note), 0o644); err != nil {
		slog.Error("Failed to write note", "path", path, "error", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}

// listAdapters prints the adapter match order
func listAdapters(cfg *config.Config) {
	r := newResolver(cfg)
	defer r.Close()

	for i, name := range r.Adapters() {
		fmt.Printf("%2d. %s\n", i+1, name)
	}
}

// cacheStats prints persistent cache statistics
func cacheStats(cfg *config.Config) {
	r := newResolver(cfg)
	defer r.Close()

	stats, err := r.CacheStats()
	if err != nil {
		slog.Error("Failed to read cache statistics", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Entries: %d (%d expired)\n", stats.TotalEntries, stats.ExpiredEntries)
	fmt.Printf("Total hits: %d\n", stats.TotalHits)
	if len(stats.ByType) > 0 {
		fmt.Println("\nBy type:")
		for contentType, count := range stats.ByType {
			fmt.Printf("  %-10s %d\n", contentType, count)
		}
	}
}

// cachePurge removes expired entries from the persistent cache
func cachePurge(cfg *config.Config) {
	r := newResolver(cfg)
	defer r.Close()

	removed, err := r.PurgeExpired()
	if err != nil {
		slog.Error("Failed to purge cache", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Removed %d expired entries\n", removed)
}

// cacheBust removes a single URL from both cache tiers
func cacheBust(cfg *config.Config, url string) {
	r := newResolver(cfg)
	defer r.Close()

	found, err := r.Bust(url)
	if err != nil {
		slog.Error("Failed to bust cache entry", "url", url, "error", err)
		os.Exit(1)
	}
	if found {
		fmt.Println("Removed from cache")
	} else {
		fmt.Println("Not cached")
	}
}

// loadInbox reads and parses the inbox markdown file
func loadInbox(cfg *config.Config, file string) []inbox.Item {
	if file == "" {
		file = cfg.Inbox.Path
	}
	content, err := os.ReadFile(file)
	if err != nil {
		slog.Error("Failed to read inbox file", "file", file, "error", err)
		os.Exit(1)
	}
	return inbox.Parse(string(content))
}
