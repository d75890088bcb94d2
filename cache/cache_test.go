package cache

import (
	"context"
	"testing"
	"time"
)

func newTestCache(t *testing.T, maxEntries int, ttl time.Duration) (*Cache[string], *time.Time) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	c := New[string](ctx, maxEntries, ttl)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestCache_GetSet(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Minute)

	if _, ok := c.Get("homepage"); ok {
		t.Error("empty cache must miss")
	}
	c.Set("homepage", "v1")
	if v, ok := c.Get("homepage"); !ok || v != "v1" {
		t.Errorf("got %q, %v", v, ok)
	}
}

func TestCache_Expiry(t *testing.T) {
	c, clock := newTestCache(t, 10, time.Minute)
	c.Set(Key("catalog", "A", "1"), "page")

	*clock = clock.Add(2 * time.Minute)
	if _, ok := c.Get(Key("catalog", "A", "1")); ok {
		t.Error("expired entry must miss")
	}
	c.evictExpired()
	if c.Len() != 0 {
		t.Errorf("expired entry not evicted, len %d", c.Len())
	}
}

func TestCache_Capacity(t *testing.T) {
	c, _ := newTestCache(t, 2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("b", "2b")
	if c.Len() != 2 {
		t.Fatalf("overwriting a key must not evict, len %d", c.Len())
	}
	c.Set("c", "3")
	if c.Len() != 2 {
		t.Errorf("capacity exceeded, len %d", c.Len())
	}
	if v, ok := c.Get("c"); !ok || v != "3" {
		t.Error("newest entry must be stored")
	}
}

func TestCache_Disabled(t *testing.T) {
	c := New[int](context.Background(), 10, 0)
	if c != nil {
		t.Fatal("zero TTL must disable the cache")
	}
	c.Set("k", 1)
	if _, ok := c.Get("k"); ok || c.Len() != 0 {
		t.Error("nil cache must behave as always-miss")
	}
}

func TestKey(t *testing.T) {
	if Key("catalog", "A", "2") != "catalog|A|2" {
		t.Errorf("unexpected key %q", Key("catalog", "A", "2"))
	}
}
