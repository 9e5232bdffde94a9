// Package config loads application configuration: a YAML file for
// tunables and a .env file (or the process environment) for credentials.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/filesystem"
)

// Config holds the central application configuration.
type Config struct {
	// Cache configuration
	Cache struct {
		Path     string         `mapstructure:"path"`      // SQLite file path
		TTLHours map[string]int `mapstructure:"ttl_hours"` // Per-content-type TTL overrides
	} `mapstructure:"cache"`

	// Resolver configuration
	Resolver struct {
		DelaysMS       map[string]int `mapstructure:"delays_ms"`        // Per-destination minimum delays
		DefaultDelayMS int            `mapstructure:"default_delay_ms"` // Delay for unlisted destinations
		RenderThreads  bool           `mapstructure:"render_threads"`   // Use headless Chrome for threads.net
	} `mapstructure:"resolver"`

	// Inbox configuration
	Inbox struct {
		Path     string `mapstructure:"path"`      // Inbox markdown file
		NotesDir string `mapstructure:"notes_dir"` // Where generated notes land
	} `mapstructure:"inbox"`

	// Credentials, loaded from the environment rather than YAML.
	Credentials struct {
		TwitterAPIKey   string
		BskyIdentifier  string
		BskyAppPassword string
		GitHubToken     string
	} `mapstructure:"-"`
}

// Load reads the configuration file and the environment. A missing
// config file or .env is fine; defaults and the process environment
// still apply.
func Load(path string) (*Config, error) {
	loadDotEnv()

	if path == "" {
		path = "config.yaml"
	}
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			if execPath, err := filesystem.GetDefaultPath(path); err == nil {
				if _, err := os.Stat(execPath); err == nil {
					path = execPath
				}
			}
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("cache.path", "cache/metadata-cache.db")
	v.SetDefault("resolver.default_delay_ms", 1000)
	v.SetDefault("resolver.render_threads", false)
	v.SetDefault("inbox.path", "Inbox.md")
	v.SetDefault("inbox.notes_dir", "notes")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.Credentials.TwitterAPIKey = os.Getenv("TWITTERAPI_KEY")
	config.Credentials.BskyIdentifier = os.Getenv("BSKY_IDENTIFIER")
	config.Credentials.BskyAppPassword = os.Getenv("BSKY_APP_PASSWORD")
	config.Credentials.GitHubToken = os.Getenv("GITHUB_TOKEN")

	return &config, nil
}

// TTLOverrides converts the configured per-type hour counts into
// durations keyed the way the cache expects.
func (c *Config) TTLOverrides() map[string]time.Duration {
	if len(c.Cache.TTLHours) == 0 {
		return nil
	}
	overrides := make(map[string]time.Duration, len(c.Cache.TTLHours))
	for contentType, hours := range c.Cache.TTLHours {
		overrides[contentType] = time.Duration(hours) * time.Hour
	}
	return overrides
}

// DelayOverrides converts the configured per-destination milliseconds
// into durations.
func (c *Config) DelayOverrides() map[string]time.Duration {
	if len(c.Resolver.DelaysMS) == 0 {
		return nil
	}
	overrides := make(map[string]time.Duration, len(c.Resolver.DelaysMS))
	for dest, ms := range c.Resolver.DelaysMS {
		overrides[dest] = time.Duration(ms) * time.Millisecond
	}
	return overrides
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			slog.Debug("Could not load .env file", "error", err)
		}
	}
}
