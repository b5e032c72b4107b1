package acquire

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/juankaspain/vuelosrobot-sub000/internal/breaker"
	"github.com/juankaspain/vuelosrobot-sub000/internal/deals"
	"github.com/juankaspain/vuelosrobot-sub000/internal/estimator"
	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
	"github.com/juankaspain/vuelosrobot-sub000/internal/history"
	"github.com/juankaspain/vuelosrobot-sub000/internal/metrics"
	"github.com/juankaspain/vuelosrobot-sub000/internal/pricecache"
	"github.com/juankaspain/vuelosrobot-sub000/internal/provider"
	"github.com/juankaspain/vuelosrobot-sub000/internal/ratelimit"
)

var travelDate = time.Now().UTC().AddDate(0, 0, 30).Truncate(24 * time.Hour)

// stubProvider returns a fixed price or error and counts calls.
type stubProvider struct {
	mu    sync.Mutex
	name  string
	price decimal.Decimal
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) FetchPrice(ctx context.Context, route flight.Route, date time.Time) (flight.PriceQuote, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return flight.PriceQuote{}, s.err
	}
	return flight.PriceQuote{
		Route:      route,
		TravelDate: date,
		Price:      s.price,
		Currency:   "EUR",
		Source:     s.name,
		Confidence: 1.0,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type captureNotifier struct {
	mu     sync.Mutex
	events []deals.Event
}

func (c *captureNotifier) Notify(ctx context.Context, event deals.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

type harness struct {
	orch     *Orchestrator
	store    *history.Store
	cache    *pricecache.Cache
	notifier *captureNotifier
}

func newHarness(t *testing.T, providers ...provider.PriceProvider) *harness {
	t.Helper()

	registry := metrics.NewRegistry(0)
	limiter := ratelimit.New(nil)
	clients := make([]*provider.Client, 0, len(providers))
	for _, p := range providers {
		brk := breaker.New(breaker.DefaultConfig())
		clients = append(clients, provider.NewClient(p, limiter, brk, registry, time.Second, zerolog.Nop()))
	}

	cache := pricecache.New(100)
	store := history.NewStore(history.Options{}, nil, zerolog.Nop())
	detector := deals.NewDetector(deals.Options{Cooldown: time.Minute}, zerolog.Nop())
	est := estimator.New(estimator.Options{Seed: 7}, zerolog.Nop())
	notifier := &captureNotifier{}

	orch := New(clients, cache, est, store, detector, registry, notifier, nil, Options{}, zerolog.Nop())
	return &harness{orch: orch, store: store, cache: cache, notifier: notifier}
}

func route(t *testing.T, origin, dest string) flight.Route {
	t.Helper()
	r, err := flight.NewRoute(origin, dest)
	require.NoError(t, err)
	return r
}

func TestGetPriceValidationErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.GetPrice(context.Background(), flight.Route{Origin: "MAD", Destination: "MAD"}, travelDate)
	var verr *flight.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = h.orch.GetPrice(context.Background(), route(t, "MAD", "BCN"), time.Now().AddDate(0, 0, -2))
	require.ErrorAs(t, err, &verr)
}

func TestGetPriceUsesFirstHealthyProvider(t *testing.T) {
	primary := &stubProvider{name: "aerodata", price: decimal.NewFromInt(110)}
	secondary := &stubProvider{name: "farebeam", price: decimal.NewFromInt(90)}
	h := newHarness(t, primary, secondary)

	quote, err := h.orch.GetPrice(context.Background(), route(t, "MAD", "BCN"), travelDate)
	require.NoError(t, err)
	require.Equal(t, "aerodata", quote.Source)
	require.True(t, quote.Price.Equal(decimal.NewFromInt(110)))
	require.Equal(t, 0, secondary.callCount(), "secondary provider should not be consulted")
}

func TestGetPriceFallsThroughFailedProvider(t *testing.T) {
	primary := &stubProvider{name: "aerodata", err: errors.New("boom")}
	secondary := &stubProvider{name: "farebeam", price: decimal.NewFromInt(90)}
	h := newHarness(t, primary, secondary)

	quote, err := h.orch.GetPrice(context.Background(), route(t, "MAD", "BCN"), travelDate)
	require.NoError(t, err)
	require.Equal(t, "farebeam", quote.Source)
}

func TestGetPriceDegradesToHeuristic(t *testing.T) {
	primary := &stubProvider{name: "aerodata", err: errors.New("boom")}
	secondary := &stubProvider{name: "farebeam", err: errors.New("boom")}
	h := newHarness(t, primary, secondary)

	quote, err := h.orch.GetPrice(context.Background(), route(t, "MAD", "BCN"), travelDate)
	require.NoError(t, err)
	require.Equal(t, flight.SourceHeuristic, quote.Source)
	require.True(t, quote.Price.IsPositive())
	require.InDelta(t, 0.95, quote.Confidence, 0.26)
}

func TestGetPriceServesFromCache(t *testing.T) {
	p := &stubProvider{name: "aerodata", price: decimal.NewFromInt(110)}
	h := newHarness(t, p)
	r := route(t, "MAD", "BCN")

	_, err := h.orch.GetPrice(context.Background(), r, travelDate)
	require.NoError(t, err)
	_, err = h.orch.GetPrice(context.Background(), r, travelDate)
	require.NoError(t, err)

	require.Equal(t, 1, p.callCount(), "second lookup should hit the cache")
	require.Equal(t, int64(1), h.orch.CacheStats().Hits)
}

func TestCachedQuoteSkipsHistory(t *testing.T) {
	p := &stubProvider{name: "aerodata", price: decimal.NewFromInt(110)}
	h := newHarness(t, p)
	r := route(t, "MAD", "BCN")

	_, _ = h.orch.GetPrice(context.Background(), r, travelDate)
	_, _ = h.orch.GetPrice(context.Background(), r, travelDate)

	require.Equal(t, 1, h.store.Stats(r, time.Hour).Count, "cache hits must not duplicate history")
}

func TestDealDetectedAndNotified(t *testing.T) {
	p := &stubProvider{name: "aerodata", price: decimal.NewFromInt(400)}
	h := newHarness(t, p)
	r := route(t, "MAD", "BCN")

	// Seed enough history for a trusted mean of 600.
	for i := 0; i < 3; i++ {
		h.store.Record(context.Background(), flight.PriceQuote{
			Route: r, TravelDate: travelDate,
			Price: decimal.NewFromInt(600), Currency: "EUR",
			Source: "aerodata", Confidence: 1.0,
		})
	}

	quote, err := h.orch.GetPrice(context.Background(), r, travelDate)
	require.NoError(t, err)
	require.True(t, quote.Live())

	require.Len(t, h.notifier.events, 1)
	event := h.notifier.events[0]
	require.True(t, event.SavingsPct.Equal(decimal.NewFromFloat(33.3)), "savings = %s", event.SavingsPct)

	emitted := h.orch.Deals(decimal.NewFromInt(30))
	require.Len(t, emitted, 1)
}

func TestScanRoutesValidatesUpfront(t *testing.T) {
	h := newHarness(t)
	routes := []flight.Route{
		route(t, "MAD", "BCN"),
		{Origin: "BAD", Destination: "BAD"},
	}

	_, err := h.orch.ScanRoutes(context.Background(), routes, travelDate)
	var verr *flight.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestScanRoutesConcurrentHeuristics(t *testing.T) {
	h := newHarness(t) // no providers: everything degrades to the estimator

	routes := make([]flight.Route, 0, 50)
	origins := []string{"MAD", "BCN", "LHR", "CDG", "AMS", "FRA", "LIS", "FCO", "VIE", "ZRH"}
	for i, origin := range origins {
		for j, dest := range origins {
			if i == j || len(routes) == 50 {
				continue
			}
			routes = append(routes, route(t, origin, dest))
		}
	}

	quotes, err := h.orch.ScanRoutes(context.Background(), routes, travelDate)
	require.NoError(t, err)
	require.Len(t, quotes, len(routes))
	for i, q := range quotes {
		require.True(t, q.Price.IsPositive(), "route %s has no price", routes[i])
		require.Equal(t, flight.SourceHeuristic, q.Source)
	}
}

func TestScanRoutesCancelledContext(t *testing.T) {
	p := &stubProvider{name: "aerodata", price: decimal.NewFromInt(100)}
	h := newHarness(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.orch.ScanRoutes(ctx, []flight.Route{route(t, "MAD", "BCN")}, travelDate)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHealthReportsBreakerState(t *testing.T) {
	p := &stubProvider{name: "aerodata", err: errors.New("down")}
	h := newHarness(t, p)

	for i := 0; i < 3; i++ {
		_, _ = h.orch.GetPrice(context.Background(), route(t, "MAD", fmt.Sprintf("BC%c", 'A'+i)), travelDate)
	}

	health := h.orch.Health()
	require.Len(t, health, 1)
	require.Equal(t, "aerodata", health[0].Provider)
	require.Equal(t, string(breaker.StateOpen), health[0].State)
	require.Equal(t, float64(0), health[0].SuccessRate)
}
