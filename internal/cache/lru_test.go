package cache

import (
	"testing"
	"time"
)

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	if _, ok := c.Get("a"); !ok {
		t.Fatal("Get(a) missing")
	}
	c.Set("c", "3") // evicts b, the least recently used

	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) after Delete should miss")
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("x", 1)
	c.Set("y", 2)
	now = now.Add(30 * time.Second)
	c.Set("y", 3) // refreshes expiry

	now = now.Add(45 * time.Second)
	if _, ok := c.Get("x"); ok {
		t.Error("Get(x) should be expired")
	}
	if v, ok := c.Get("y"); !ok || v != 3 {
		t.Errorf("Get(y) = %d, %v", v, ok)
	}

	now = now.Add(time.Hour)
	m := NewManager(c)
	if n := m.CleanAll(); n != 1 {
		t.Errorf("CleanAll() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}
