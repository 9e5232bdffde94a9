package cache

import (
	"sync"
	"time"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

type memoryEntry struct {
	rec       *metadata.Record
	expiresAt time.Time
}

// Memory is the session tier of the cache. Entries honor the same expiry
// as their persistent counterparts but vanish on restart.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// Get returns the cached record for url, or nil when absent or expired.
func (m *Memory) Get(url string) *metadata.Record {
	m.mu.RLock()
	entry, ok := m.entries[url]
	m.mu.RUnlock()

	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, url)
		m.mu.Unlock()
		return nil
	}
	return entry.rec
}

// Set stores a record for the given freshness window.
func (m *Memory) Set(rec *metadata.Record, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[rec.URL] = memoryEntry{rec: rec, expiresAt: time.Now().Add(ttl)}
}

// Delete removes the entry for url if present.
func (m *Memory) Delete(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, url)
}

// Len returns the number of live entries, counting expired ones that have
// not been touched since they lapsed.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
