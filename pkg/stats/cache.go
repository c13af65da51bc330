package stats

import (
	"sync"
	"time"
)

// Counts summarises an owner's tasks.
type Counts struct {
	Pending   int
	Completed int
	Total     int
}

type entry struct {
	counts Counts
	stored time.Time
}

// Cache memoises per-owner counts for a fixed time. Writers call Invalidate.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	owners map[string]entry
}

// NewCache creates an empty cache. now may be nil to use the wall clock.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:    ttl,
		now:    now,
		owners: make(map[string]entry),
	}
}

// Get returns the cached counts for owner if they have not expired.
func (c *Cache) Get(owner string) (Counts, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.owners[owner]
	if !ok {
		return Counts{}, false
	}
	if c.now().Sub(e.stored) >= c.ttl {
		delete(c.owners, owner)
		return Counts{}, false
	}
	return e.counts, true
}

func (c *Cache) Put(owner string, counts Counts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owners[owner] = entry{counts: counts, stored: c.now()}
}

func (c *Cache) Invalidate(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.owners, owner)
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owners = make(map[string]entry)
}
