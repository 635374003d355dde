package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/vip-insights-bfa-go/internal/infra/cache"
)

func TestCacheSetGet(t *testing.T) {
	c := cache.New[string](1 * time.Minute)

	c.Set("snr-001", "Alice Handler")

	got, ok := c.Get("snr-001")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "Alice Handler" {
		t.Errorf("got %q, want %q", got, "Alice Handler")
	}
}

func TestCacheMiss(t *testing.T) {
	c := cache.New[string](1 * time.Minute)

	_, ok := c.Get("missing")
	if ok {
		t.Error("expected cache miss")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := cache.New[int](10 * time.Millisecond)

	c.Set("key", 42)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("key")
	if ok {
		t.Error("expected entry to be expired")
	}
}

func TestCacheDelete(t *testing.T) {
	c := cache.New[string](1 * time.Minute)

	c.Set("key", "value")
	c.Delete("key")

	_, ok := c.Get("key")
	if ok {
		t.Error("expected entry to be deleted")
	}
}

func TestCacheClampsNonPositiveTTL(t *testing.T) {
	c := cache.New[string](0)

	c.Set("key", "value")

	got, ok := c.Get("key")
	if !ok || got != "value" {
		t.Errorf("expected entry to survive with clamped TTL, got %q (ok=%v)", got, ok)
	}
}

func TestCacheClose(t *testing.T) {
	c := cache.New[string](1 * time.Minute)
	c.Set("key", "value")
	c.Close()

	// Closing only stops the background sweep; the cache keeps serving.
	got, ok := c.Get("key")
	if !ok || got != "value" {
		t.Errorf("expected cache usable after close, got %q (ok=%v)", got, ok)
	}
}

func TestCacheFlush(t *testing.T) {
	c := cache.New[string](1 * time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Flush()

	if _, ok := c.Get("a"); ok {
		t.Error("expected cache to be empty after flush")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected cache to be empty after flush")
	}
}
