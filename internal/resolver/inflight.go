package resolver

import (
	"sync"

	"github.com/jimmystridh/obsidian-inbox-browser/pkg/metadata"
)

type inflightCall struct {
	done chan struct{}
	rec  *metadata.Record
	err  error
}

// inflight deduplicates concurrent resolutions of the same URL. The
// first caller runs the fetch; everyone else blocks on the call's done
// channel and shares the outcome.
type inflight struct {
	mu    sync.Mutex
	calls map[string]*inflightCall
}

func newInflight() *inflight {
	return &inflight{calls: make(map[string]*inflightCall)}
}

// join returns the in-progress call for url, or registers a new one.
// leader reports whether the caller must perform the fetch and settle it.
func (f *inflight) join(url string) (call *inflightCall, leader bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.calls[url]; ok {
		return existing, false
	}

	call = &inflightCall{done: make(chan struct{})}
	f.calls[url] = call
	return call, true
}

// settle records the outcome, removes the entry and wakes the waiters.
func (f *inflight) settle(url string, call *inflightCall, rec *metadata.Record, err error) {
	f.mu.Lock()
	delete(f.calls, url)
	f.mu.Unlock()

	call.rec = rec
	call.err = err
	close(call.done)
}
