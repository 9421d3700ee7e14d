package cache

import (
	"testing"
	"time"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, 0)
	c.Set("2024", 16)
	c.Set("2025", 16)
	if _, ok := c.Get("2024"); !ok {
		t.Fatal("expected 2024 cached")
	}
	c.Set("2026", 16) // evicts 2025, the least recently used

	if _, ok := c.Get("2025"); ok {
		t.Fatal("expected 2025 evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUCache_ZeroTTLNeverExpires(t *testing.T) {
	c := NewLRUCache[string](4, 0)
	c.Set("k", "v")
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("expected nothing expired, got %d", n)
	}
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("unexpected get: %q %v", v, ok)
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](4, time.Hour).WithClock(func() time.Time { return now })
	c.Set("k", "v")
	c.Set("j", "w")
	now = now.Add(30 * time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected entry alive before ttl")
	}
	now = now.Add(31 * time.Minute)
	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("expected 2 expired, got %d", n)
	}
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to expire")
	}
	c.Set("a", "1")
	c.Delete("a")
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUCache_MinimumSize(t *testing.T) {
	c := NewLRUCache[int](0, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("b"); !ok || c.Size() != 1 {
		t.Fatalf("expected only the newest entry, size %d", c.Size())
	}
}
