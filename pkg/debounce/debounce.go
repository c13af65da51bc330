package debounce

import (
	"sync"
	"time"
)

const (
	// pruneThreshold is the size above which stale entries are evicted.
	pruneThreshold = 50
	// staleFactor times the window is the age at which an entry is stale.
	staleFactor = 10
)

// Window coalesces repeated writes for the same id that arrive within a short interval.
type Window struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

// New returns a debounce window. now may be nil to use the wall clock.
func New(window time.Duration, now func() time.Time) *Window {
	if now == nil {
		now = time.Now
	}
	return &Window{
		window: window,
		now:    now,
		seen:   make(map[string]time.Time),
	}
}

// Recent reports whether id was marked within the window. If it was not, id is
// marked now, so exactly one of several rapid callers proceeds.
func (w *Window) Recent(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if last, ok := w.seen[id]; ok && now.Sub(last) < w.window {
		return true
	}
	w.seen[id] = now
	if len(w.seen) > pruneThreshold {
		w.prune(now)
	}
	return false
}

// Forget drops id so the next write for it is not suppressed.
func (w *Window) Forget(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.seen, id)
}

// Len reports the number of tracked ids.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}

func (w *Window) prune(now time.Time) {
	stale := staleFactor * w.window
	for id, last := range w.seen {
		if now.Sub(last) > stale {
			delete(w.seen, id)
		}
	}
}
