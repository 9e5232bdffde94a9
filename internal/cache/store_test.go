package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(url string) *metadata.Record {
	return &metadata.Record{
		URL:         url,
		ContentType: metadata.TypeWebsite,
		Title:       "Sample Page",
		Description: "A sample description",
		Source:      metadata.SourceScraping,
	}
}

func TestStoreSetAndGet(t *testing.T) {
	s := testStore(t)

	rec := sampleRecord("https://example.com/a")
	if err := s.Set(rec, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get("https://example.com/a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil for fresh entry")
	}
	if got.Title != rec.Title || got.ContentType != rec.ContentType {
		t.Errorf("Get() = %+v, expected stored record", got)
	}
}

func TestStoreGetMissing(t *testing.T) {
	s := testStore(t)

	got, err := s.Get("https://example.com/nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, expected nil for missing URL", got)
	}
}

func TestStoreLazyExpiry(t *testing.T) {
	s := testStore(t)

	rec := sampleRecord("https://example.com/expiring")
	if err := s.Set(rec, 100*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get(rec.URL)
	if err != nil || got == nil {
		t.Fatalf("Get() before expiry = (%v, %v), expected hit", got, err)
	}

	time.Sleep(150 * time.Millisecond)

	got, err = s.Get(rec.URL)
	if err != nil {
		t.Fatalf("Get() after expiry error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, expected nil after expiry", got)
	}

	// The expired row is still on disk until purged.
	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalEntries != 1 || stats.ExpiredEntries != 1 {
		t.Errorf("Stats() = %+v, expected 1 expired row still present", stats)
	}
}

func TestStorePurgeExpired(t *testing.T) {
	s := testStore(t)

	if err := s.Set(sampleRecord("https://example.com/old"), -time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(sampleRecord("https://example.com/fresh"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	n, err := s.PurgeExpired()
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeExpired() = %d, expected 1", n)
	}

	got, _ := s.Get("https://example.com/fresh")
	if got == nil {
		t.Error("fresh entry should survive the purge")
	}
}

func TestStoreUpsertPreservesHits(t *testing.T) {
	s := testStore(t)

	rec := sampleRecord("https://example.com/hot")
	if err := s.Set(rec, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Generate hits; recordHit runs async, so bump synchronously here.
	for i := 0; i < 3; i++ {
		s.recordHit(rec.URL)
	}

	// Refresh the entry, then check the counter survived.
	rec.Title = "Updated Title"
	if err := s.Set(rec, time.Hour); err != nil {
		t.Fatalf("Set() refresh error = %v", err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalHits != 3 {
		t.Errorf("TotalHits = %d, expected hit count preserved across upsert", stats.TotalHits)
	}

	got, _ := s.Get(rec.URL)
	if got == nil || got.Title != "Updated Title" {
		t.Errorf("Get() = %+v, expected refreshed record", got)
	}
}

func TestStoreGetBySourceID(t *testing.T) {
	s := testStore(t)

	rec := sampleRecord("https://twitter.com/user/status/123")
	rec.ContentType = metadata.TypeTwitter
	rec.SourceID = "123"
	if err := s.Set(rec, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.GetBySourceID(metadata.TypeTwitter, "123")
	if err != nil {
		t.Fatalf("GetBySourceID() error = %v", err)
	}
	if got == nil || got.URL != rec.URL {
		t.Errorf("GetBySourceID() = %+v, expected the stored record", got)
	}

	got, err = s.GetBySourceID(metadata.TypeTwitter, "999")
	if err != nil {
		t.Fatalf("GetBySourceID() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetBySourceID() = %+v, expected nil for unknown id", got)
	}

	got, err = s.GetBySourceID(metadata.TypeTwitter, "")
	if err != nil || got != nil {
		t.Errorf("GetBySourceID with empty id = (%+v, %v), expected (nil, nil)", got, err)
	}
}

func TestStoreDelete(t *testing.T) {
	s := testStore(t)

	rec := sampleRecord("https://example.com/bust")
	if err := s.Set(rec, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	removed, err := s.Delete(rec.URL)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !removed {
		t.Error("Delete() = false, expected a row removed")
	}

	removed, err = s.Delete(rec.URL)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if removed {
		t.Error("second Delete() = true, expected no row")
	}
}

func TestStoreEntriesByType(t *testing.T) {
	s := testStore(t)

	tweet := sampleRecord("https://x.com/u/status/1")
	tweet.ContentType = metadata.TypeTwitter
	site := sampleRecord("https://example.com")

	if err := s.Set(tweet, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(site, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	records, err := s.EntriesByType(metadata.TypeTwitter)
	if err != nil {
		t.Fatalf("EntriesByType() error = %v", err)
	}
	if len(records) != 1 || records[0].URL != tweet.URL {
		t.Errorf("EntriesByType() = %+v, expected only the tweet", records)
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	s, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := s.Set(sampleRecord("https://example.com/persist"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore() reopen error = %v", err)
	}
	defer s2.Close()

	got, err := s2.Get("https://example.com/persist")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Error("record should survive a store reopen")
	}
}
