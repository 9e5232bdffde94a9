package adapters

import (
	"fmt"
	"sync"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

// Registry holds adapters in registration order. Classification walks the
// list and the first CanHandle match wins, so specific adapters must be
// registered before the generic catch-all.
type Registry struct {
	mu       sync.RWMutex
	adapters []Adapter
	fallback Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends an adapter to the match order.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.adapters {
		if existing.Name() == a.Name() {
			return fmt.Errorf("adapter %s is already registered", a.Name())
		}
	}
	r.adapters = append(r.adapters, a)
	return nil
}

// SetFallback sets the catch-all adapter used when nothing matches.
func (r *Registry) SetFallback(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = a
}

// Match returns the adapter responsible for the URL. When no registered
// adapter recognizes it, the fallback adapter is returned (nil if unset).
func (r *Registry) Match(rawURL string) Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.adapters {
		if a.CanHandle(rawURL) {
			return a
		}
	}
	return r.fallback
}

// Classify returns the content type for a URL without fetching anything.
func (r *Registry) Classify(rawURL string) metadata.ContentType {
	if a := r.Match(rawURL); a != nil {
		return a.ContentType()
	}
	return metadata.TypeWebsite
}

// List returns the registered adapter names in match order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters)+1)
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	if r.fallback != nil {
		names = append(names, r.fallback.Name())
	}
	return names
}
