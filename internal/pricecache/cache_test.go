package pricecache

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
)

func testQuote(price int64) flight.PriceQuote {
	route, _ := flight.NewRoute("MAD", "BCN")
	return flight.PriceQuote{
		Route:      route,
		TravelDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Price:      decimal.NewFromInt(price),
		Currency:   "EUR",
		Source:     "aerodata",
		Confidence: 1.0,
		FetchedAt:  time.Now(),
	}
}

func TestKeyFormat(t *testing.T) {
	route, _ := flight.NewRoute("MAD", "BCN")
	date := time.Date(2026, 4, 1, 15, 30, 0, 0, time.UTC)
	if got := Key(route, date); got != "MAD-BCN|2026-04-01" {
		t.Fatalf("key = %q", got)
	}
}

func TestGetMissThenHit(t *testing.T) {
	c := New(10)
	key := "MAD-BCN|2026-04-01"

	if _, ok := c.Get(key); ok {
		t.Fatal("empty cache should miss")
	}

	c.Put(key, testQuote(95), time.Minute)
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected a hit")
	}
	if !got.Price.Equal(decimal.NewFromInt(95)) {
		t.Fatalf("price = %s, want 95", got.Price)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("stats = %+v, want 1 hit 1 miss", stats)
	}
	if stats.HitRate() != 0.5 {
		t.Fatalf("hit rate = %f, want 0.5", stats.HitRate())
	}
}

func TestExpiredEntryIsMissAndEvicted(t *testing.T) {
	c := New(10)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	key := "MAD-BCN|2026-04-01"
	c.Put(key, testQuote(95), 5*time.Minute)

	now = now.Add(5 * time.Minute)
	if _, ok := c.Get(key); ok {
		t.Fatal("entry at TTL boundary should be expired")
	}
	if got := c.Stats().Entries; got != 0 {
		t.Fatalf("entries = %d, expired entry should be evicted", got)
	}
}

func TestLRUEvictionAtCapacity(t *testing.T) {
	c := New(3)
	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("k%d", i), testQuote(int64(100+i)), time.Minute)
	}

	// Touch k0 so k1 becomes the least recently used.
	if _, ok := c.Get("k0"); !ok {
		t.Fatal("k0 should be present")
	}

	c.Put("k3", testQuote(200), time.Minute)

	if _, ok := c.Get("k1"); ok {
		t.Fatal("k1 should have been evicted as LRU")
	}
	for _, key := range []string{"k0", "k2", "k3"} {
		if _, ok := c.Get(key); !ok {
			t.Fatalf("%s should still be cached", key)
		}
	}
}

func TestPutUpdatesExistingEntry(t *testing.T) {
	c := New(10)
	key := "MAD-BCN|2026-04-01"

	c.Put(key, testQuote(95), time.Minute)
	c.Put(key, testQuote(80), time.Minute)

	got, ok := c.Get(key)
	if !ok || !got.Price.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("got %s ok=%v, want updated price 80", got.Price, ok)
	}
	if entries := c.Stats().Entries; entries != 1 {
		t.Fatalf("entries = %d, want 1", entries)
	}
}

func TestInvalidate(t *testing.T) {
	c := New(10)
	key := "MAD-BCN|2026-04-01"
	c.Put(key, testQuote(95), time.Minute)
	c.Invalidate(key)
	if _, ok := c.Get(key); ok {
		t.Fatal("invalidated entry should be gone")
	}
}
