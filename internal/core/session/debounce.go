package session

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of transcript events per path. A path becomes
// ready once it has been quiet for the full window, so the last write of a
// burst is always followed by an ingest. Entries are dropped as they fire;
// the pending set never outlives the bursts it tracks.
type Debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]*time.Timer),
		ready:   make(chan string, 100),
	}
}

// Observe notes one event for path, starting or extending its quiet window.
func (d *Debouncer) Observe(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.pending[path]; ok {
		timer.Reset(d.window)
		return
	}
	d.pending[path] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.pending, path)
		d.mu.Unlock()
		d.ready <- path
	})
}

// Ready returns the stream of paths whose quiet window has elapsed.
func (d *Debouncer) Ready() <-chan string {
	return d.ready
}
