package stats

import (
	"testing"
	"time"
)

func TestCacheExpiresAfterTTL(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	c := NewCache(5*time.Minute, func() time.Time { return now })

	c.Put("a@x.com", Counts{Pending: 2, Completed: 1, Total: 3})
	got, ok := c.Get("a@x.com")
	if !ok || got.Total != 3 {
		t.Fatalf("expected cached counts, got %+v %v", got, ok)
	}

	now = now.Add(5 * time.Minute)
	if _, ok := c.Get("a@x.com"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(time.Hour, nil)
	c.Put("a@x.com", Counts{Total: 1})
	c.Put("b@x.com", Counts{Total: 2})

	c.Invalidate("a@x.com")
	if _, ok := c.Get("a@x.com"); ok {
		t.Error("expected a@x.com to be invalidated")
	}
	if _, ok := c.Get("b@x.com"); !ok {
		t.Error("expected b@x.com to survive")
	}

	c.InvalidateAll()
	if _, ok := c.Get("b@x.com"); ok {
		t.Error("expected all entries invalidated")
	}
}
