package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
)

// Trend classifies how a route's price has moved across the stats window.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// Record is one accepted quote observation for a route.
type Record struct {
	Route      flight.Route
	TravelDate time.Time
	Price      decimal.Decimal
	Source     string
	Confidence float64
	ObservedAt time.Time
}

// Statistics summarises a route's recent observations.
type Statistics struct {
	Count int
	Mean  decimal.Decimal
	Min   decimal.Decimal
	Max   decimal.Decimal
	Trend Trend
}

// PersistenceSink decouples the store from its backing storage; file,
// embedded DB, and remote implementations are all valid.
type PersistenceSink interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context, routeKey string, since time.Time) ([]Record, error)
}

// Options bound the per-route record window.
type Options struct {
	// Retention drops records older than this (default 90 days).
	Retention time.Duration
	// MaxEntries caps records kept per route (default 500). The tighter of
	// the two bounds wins.
	MaxEntries int
}

// Store keeps an append-only, bounded price history per route. Appends are
// ordered by acquisition completion time; concurrent workers for different
// routes never contend on the same lock.
type Store struct {
	mu         sync.RWMutex
	routes     map[string]*routeHistory
	retention  time.Duration
	maxEntries int
	sink       PersistenceSink
	logger     zerolog.Logger
	now        func() time.Time
}

type routeHistory struct {
	mu      sync.Mutex
	records []Record
}

// NewStore builds a history store. sink may be nil for in-memory only.
func NewStore(opts Options, sink PersistenceSink, logger zerolog.Logger) *Store {
	retention := opts.Retention
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 500
	}
	return &Store{
		routes:     make(map[string]*routeHistory),
		retention:  retention,
		maxEntries: maxEntries,
		sink:       sink,
		logger:     logger.With().Str("component", "history_store").Logger(),
		now:        time.Now,
	}
}

func (s *Store) routeFor(key string) *routeHistory {
	s.mu.RLock()
	rh, ok := s.routes[key]
	s.mu.RUnlock()
	if ok {
		return rh
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rh, ok = s.routes[key]; ok {
		return rh
	}
	rh = &routeHistory{}
	s.routes[key] = rh
	return rh
}

// Record appends an accepted quote to the route's history. The observation
// timestamp is taken at append time, so ordering reflects acquisition
// completion, not dispatch. Sink failures are logged and do not block the
// in-memory append.
func (s *Store) Record(ctx context.Context, quote flight.PriceQuote) {
	rec := Record{
		Route:      quote.Route,
		TravelDate: quote.TravelDate,
		Price:      quote.Price,
		Source:     quote.Source,
		Confidence: quote.Confidence,
		ObservedAt: s.now().UTC(),
	}

	rh := s.routeFor(quote.Route.Key())
	rh.mu.Lock()
	rh.records = append(rh.records, rec)
	s.trimLocked(rh)
	rh.mu.Unlock()

	if s.sink != nil {
		if err := s.sink.Append(ctx, rec); err != nil {
			s.logger.Error().Err(err).Str("route", quote.Route.Key()).Msg("failed to persist history record")
		}
	}
}

// trimLocked enforces retention and entry-count bounds; caller holds rh.mu.
func (s *Store) trimLocked(rh *routeHistory) {
	cutoff := s.now().UTC().Add(-s.retention)
	firstValid := 0
	for firstValid < len(rh.records) && rh.records[firstValid].ObservedAt.Before(cutoff) {
		firstValid++
	}
	if excess := len(rh.records) - firstValid - s.maxEntries; excess > 0 {
		firstValid += excess
	}
	if firstValid > 0 {
		rh.records = append([]Record(nil), rh.records[firstValid:]...)
	}
}

// Load seeds a route's history from the persistence sink, keeping records
// ordered by observation time.
func (s *Store) Load(ctx context.Context, route flight.Route) error {
	if s.sink == nil {
		return nil
	}

	since := s.now().UTC().Add(-s.retention)
	records, err := s.sink.List(ctx, route.Key(), since)
	if err != nil {
		return err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ObservedAt.Before(records[j].ObservedAt)
	})

	rh := s.routeFor(route.Key())
	rh.mu.Lock()
	rh.records = records
	s.trimLocked(rh)
	rh.mu.Unlock()
	return nil
}

// Recent returns up to limit most recent records for a route, newest first.
func (s *Store) Recent(route flight.Route, limit int) []Record {
	rh := s.routeFor(route.Key())
	rh.mu.Lock()
	defer rh.mu.Unlock()

	n := len(rh.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Record, limit)
	for i := 0; i < limit; i++ {
		out[i] = rh.records[n-1-i]
	}
	return out
}

// Stats computes mean/min/max and trend over the records observed within
// the window. Trend compares the mean of the oldest third against the
// newest third and is stable within ±3%.
func (s *Store) Stats(route flight.Route, window time.Duration) Statistics {
	if window <= 0 {
		window = s.retention
	}

	rh := s.routeFor(route.Key())
	rh.mu.Lock()
	defer rh.mu.Unlock()

	cutoff := s.now().UTC().Add(-window)
	var recent []Record
	for _, rec := range rh.records {
		if !rec.ObservedAt.Before(cutoff) {
			recent = append(recent, rec)
		}
	}

	stats := Statistics{Count: len(recent), Trend: TrendStable}
	if len(recent) == 0 {
		return stats
	}

	sum := decimal.Zero
	stats.Min = recent[0].Price
	stats.Max = recent[0].Price
	for _, rec := range recent {
		sum = sum.Add(rec.Price)
		if rec.Price.LessThan(stats.Min) {
			stats.Min = rec.Price
		}
		if rec.Price.GreaterThan(stats.Max) {
			stats.Max = rec.Price
		}
	}
	stats.Mean = sum.Div(decimal.NewFromInt(int64(len(recent)))).Round(2)
	stats.Trend = classifyTrend(recent)
	return stats
}

func classifyTrend(records []Record) Trend {
	third := len(records) / 3
	if third == 0 {
		return TrendStable
	}

	oldest := meanPrice(records[:third])
	newest := meanPrice(records[len(records)-third:])
	if oldest.IsZero() {
		return TrendStable
	}

	change := newest.Sub(oldest).Div(oldest)
	threshold := decimal.NewFromFloat(0.03)
	switch {
	case change.GreaterThan(threshold):
		return TrendRising
	case change.LessThan(threshold.Neg()):
		return TrendFalling
	default:
		return TrendStable
	}
}

func meanPrice(records []Record) decimal.Decimal {
	if len(records) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, rec := range records {
		sum = sum.Add(rec.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(records))))
}

// SetClock overrides the time source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}
