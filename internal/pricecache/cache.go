package pricecache

import (
	"container/list"
	"sync"
	"time"

	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
)

// Key builds the canonical cache key for a route and travel date.
func Key(route flight.Route, date time.Time) string {
	return route.Key() + "|" + date.Format("2006-01-02")
}

type entry struct {
	key       string
	quote     flight.PriceQuote
	expiresAt time.Time
}

// Stats reports cache performance counters.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// HitRate returns hits / (hits + misses), or zero with no traffic.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a TTL price cache with LRU eviction. Expired entries are treated
// as absent and evicted lazily on access; above MaxEntries the least
// recently used entry is evicted before insertion.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
	hits       int64
	misses     int64
	now        func() time.Time
}

// New builds a cache holding at most maxEntries quotes.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Cache{
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
}

// Get returns the cached quote for key, if present and unexpired. The quote
// is returned by value so callers never share the cached copy.
func (c *Cache) Get(key string) (flight.PriceQuote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return flight.PriceQuote{}, false
	}

	e := el.Value.(*entry)
	if !c.now().Before(e.expiresAt) {
		c.removeLocked(el)
		c.misses++
		return flight.PriceQuote{}, false
	}

	c.order.MoveToFront(el)
	c.hits++
	return e.quote, true
}

// Put stores a quote under key for the given TTL, evicting the least
// recently used entry if the cache is full.
func (c *Cache) Put(key string, quote flight.PriceQuote, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(ttl)
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		e.quote = quote
		e.expiresAt = expires
		c.order.MoveToFront(el)
		return
	}

	for len(c.entries) >= c.maxEntries {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
	}

	el := c.order.PushFront(&entry{key: key, quote: quote, expiresAt: expires})
	c.entries[key] = el
}

// Invalidate drops a single key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.removeLocked(el)
	}
}

// Stats snapshots the hit/miss counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

func (c *Cache) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	delete(c.entries, e.key)
	c.order.Remove(el)
}

// SetClock overrides the time source. Test hook.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}
