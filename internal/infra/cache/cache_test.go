package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_StaleRetention(t *testing.T) {
	c := cache.New[string](20*time.Millisecond, cache.WithStaleRetention(time.Hour))
	defer c.Close()

	c.Set("items:p1", "snapshot")
	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("items:p1"); ok {
		t.Fatal("expected fresh lookup to miss after TTL")
	}
	val, ok := c.GetStale("items:p1")
	if !ok || val != "snapshot" {
		t.Fatalf("expected stale value to be retained, got %q (ok=%v)", val, ok)
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	c := cache.New[int](5 * time.Minute)
	defer c.Close()

	c.Set("view:p1:a", 1)
	c.Set("view:p1:b", 2)
	c.Set("view:p2:a", 3)

	if n := c.DeletePrefix("view:p1:"); n != 2 {
		t.Errorf("expected 2 deletions, got %d", n)
	}
	if _, ok := c.Get("view:p2:a"); !ok {
		t.Error("expected other project's entry to survive")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry left, got %d", c.Len())
	}
}

func TestCache_CloseIsIdempotent(t *testing.T) {
	c := cache.New[string](time.Minute)
	c.Close()
	c.Close()
}
