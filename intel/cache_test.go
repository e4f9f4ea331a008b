package intel

import (
	"testing"
	"time"

	"qrsentry/verdict"
)

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(time.Minute)
	v := verdict.Verdict{Status: verdict.StatusMalicious, FlaggedBy: verdict.FlaggedByBoth}
	c.Put("http://evil.test/", v)

	got, ok := c.Get("http://evil.test/")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != v {
		t.Fatalf("got %+v, want %+v", got, v)
	}
	if _, ok := c.Get("http://other.test/"); ok {
		t.Fatal("unexpected hit for different url")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Put("http://a.test/", verdict.Verdict{Status: verdict.StatusSafe})

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, ok := c.Get("http://a.test/"); ok {
		t.Fatal("expected expired entry to miss")
	}

	// Expired entries are swept on the next insert.
	c.Put("http://b.test/", verdict.Verdict{Status: verdict.StatusSafe})
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1 after sweep", c.Len())
	}
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache(0)
	c.Put("http://a.test/", verdict.Verdict{Status: verdict.StatusSafe})
	if _, ok := c.Get("http://a.test/"); ok {
		t.Fatal("disabled cache must not hit")
	}
	var nilCache *Cache
	nilCache.Put("x", verdict.Verdict{})
	if _, ok := nilCache.Get("x"); ok {
		t.Fatal("nil cache must not hit")
	}
}
