package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/filesystem"
	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// DefaultDBFile is the store filename used when no path is configured.
const DefaultDBFile = "metadata-cache.db"

// Stats summarizes the persistent cache contents.
type Stats struct {
	TotalEntries   int
	ExpiredEntries int
	TotalHits      int
	ByType         map[string]int
}

// Store is the persistent cache tier. Records are stored as JSON with
// denormalized columns for the fields queries filter on.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewStore opens (or creates) the SQLite cache at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = DefaultDBFile
	}

	if err := filesystem.EnsureDirectoryExists(dbPath); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=memory",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	slog.Info("Metadata cache initialized", "path", dbPath)
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS metadata_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		metadata TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		hits INTEGER DEFAULT 0,
		last_accessed INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_metadata_url ON metadata_cache(url);
	CREATE INDEX IF NOT EXISTS idx_metadata_expires ON metadata_cache(expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// migrate applies additive column migrations. Duplicate-column errors mean
// the column already exists and are ignored, so old and new databases
// converge on the same shape.
func (s *Store) migrate() error {
	migrations := []string{
		"ALTER TABLE metadata_cache ADD COLUMN content_type TEXT DEFAULT ''",
		"ALTER TABLE metadata_cache ADD COLUMN source_id TEXT DEFAULT ''",
		"ALTER TABLE metadata_cache ADD COLUMN source TEXT DEFAULT ''",
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %q: %w", m, err)
		}
	}

	_, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_metadata_source_id ON metadata_cache(content_type, source_id)")
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the cached record for url, or nil when absent or expired.
// Expiry is lazy: stale rows simply stop matching and are removed later
// by PurgeExpired. A hit bumps the row's counters asynchronously.
func (s *Store) Get(url string) (*metadata.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT metadata FROM metadata_cache
	WHERE url = ? AND expires_at > ?
	`

	var raw string
	err := s.db.QueryRow(query, url, nowMillis()).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached record: %w", err)
	}

	var rec metadata.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode cached record: %w", err)
	}

	go s.recordHit(url)

	return &rec, nil
}

// GetBySourceID returns the cached record with the given content type and
// source identifier, regardless of which URL variant stored it. Used by
// batch resolution to match tweet IDs across twitter.com/x.com forms.
func (s *Store) GetBySourceID(contentType metadata.ContentType, sourceID string) (*metadata.Record, error) {
	if sourceID == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT metadata FROM metadata_cache
	WHERE content_type = ? AND source_id = ? AND expires_at > ?
	LIMIT 1
	`

	var raw string
	err := s.db.QueryRow(query, string(contentType), sourceID, nowMillis()).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query by source id: %w", err)
	}

	var rec metadata.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode cached record: %w", err)
	}
	return &rec, nil
}

// Set stores a record with the given freshness window. An existing row for
// the same URL is replaced but keeps its accumulated hit count.
func (s *Store) Set(rec *metadata.Record, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMillis()
	query := `
	INSERT INTO metadata_cache (url, metadata, created_at, expires_at, hits, last_accessed, content_type, source_id, source)
	VALUES (?, ?, ?, ?, COALESCE((SELECT hits FROM metadata_cache WHERE url = ?), 0), ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		metadata = excluded.metadata,
		created_at = excluded.created_at,
		expires_at = excluded.expires_at,
		last_accessed = excluded.last_accessed,
		content_type = excluded.content_type,
		source_id = excluded.source_id,
		source = excluded.source
	`

	_, err = s.db.Exec(query,
		rec.URL, string(raw), now, now+ttl.Milliseconds(),
		rec.URL, now, string(rec.ContentType), rec.SourceID, string(rec.Source))
	if err != nil {
		return fmt.Errorf("failed to save cached record: %w", err)
	}
	return nil
}

// Delete removes the row for url, expired or not. Returns whether a row
// was removed.
func (s *Store) Delete(url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM metadata_cache WHERE url = ?", url)
	if err != nil {
		return false, fmt.Errorf("failed to delete cached record: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// PurgeExpired removes rows whose freshness window has passed and returns
// how many were removed.
func (s *Store) PurgeExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM metadata_cache WHERE expires_at <= ?", nowMillis())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired entries: %w", err)
	}

	n, _ := result.RowsAffected()
	if n > 0 {
		slog.Debug("Purged expired cache entries", "count", n)
	}
	return int(n), nil
}

// Stats returns cache-wide counters.
func (s *Store) Stats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByType: make(map[string]int)}

	err := s.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(hits), 0) FROM metadata_cache").
		Scan(&stats.TotalEntries, &stats.TotalHits)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}

	err = s.db.QueryRow("SELECT COUNT(*) FROM metadata_cache WHERE expires_at <= ?", nowMillis()).
		Scan(&stats.ExpiredEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to count expired entries: %w", err)
	}

	rows, err := s.db.Query("SELECT content_type, COUNT(*) FROM metadata_cache GROUP BY content_type")
	if err != nil {
		return nil, fmt.Errorf("failed to count by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var contentType string
		var count int
		if err := rows.Scan(&contentType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		stats.ByType[contentType] = count
	}
	return stats, rows.Err()
}

// EntriesByType returns the cached records of one content type, newest
// first. Expired rows are excluded.
func (s *Store) EntriesByType(contentType metadata.ContentType) ([]*metadata.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT metadata FROM metadata_cache
	WHERE content_type = ? AND expires_at > ?
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(query, string(contentType), nowMillis())
	if err != nil {
		return nil, fmt.Errorf("failed to query by type: %w", err)
	}
	defer rows.Close()

	var records []*metadata.Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var rec metadata.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode cached record: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (s *Store) recordHit(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"UPDATE metadata_cache SET hits = hits + 1, last_accessed = ? WHERE url = ?",
		nowMillis(), url)
	if err != nil {
		slog.Warn("Failed to record cache hit", "url", url, "error", err)
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
