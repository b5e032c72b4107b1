package acquire

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/juankaspain/vuelosrobot-sub000/internal/deals"
	"github.com/juankaspain/vuelosrobot-sub000/internal/estimator"
	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
	"github.com/juankaspain/vuelosrobot-sub000/internal/history"
	"github.com/juankaspain/vuelosrobot-sub000/internal/metrics"
	"github.com/juankaspain/vuelosrobot-sub000/internal/pricecache"
	"github.com/juankaspain/vuelosrobot-sub000/internal/provider"
)

// DealRecorder persists emitted deal events for auditing. Optional.
type DealRecorder interface {
	InsertDeal(ctx context.Context, event deals.Event) error
}

// ProviderHealth is one provider's health snapshot for the bot layer.
// RemainingBudget is -1 for unlimited providers.
type ProviderHealth struct {
	Provider        string
	State           string
	SuccessRate     float64
	AvgLatencyMs    float64
	RemainingBudget int
}

// Options tune the orchestrator.
type Options struct {
	// CacheTTL for live provider quotes (default 300s).
	CacheTTL time.Duration
	// HeuristicTTL caches fallback estimates briefly to avoid recomputation
	// (default 60s).
	HeuristicTTL time.Duration
	// StatsWindow bounds the historical window used for deal evaluation
	// (default 30 days).
	StatsWindow time.Duration
	// Workers bounds concurrent route acquisitions in ScanRoutes
	// (default 24).
	Workers int
}

// Orchestrator acquires a price per route: cache first, then providers in
// priority order, then the heuristic estimator. Every accepted quote feeds
// the historical store and deal detection. Exhausting live providers
// degrades to the heuristic instead of failing, so route scans never
// produce gaps; only invalid input is surfaced as an error.
type Orchestrator struct {
	clients   []*provider.Client
	cache     *pricecache.Cache
	estimator *estimator.Estimator
	store     *history.Store
	detector  *deals.Detector
	registry  *metrics.Registry
	notifier  deals.Notifier
	recorder  DealRecorder
	logger    zerolog.Logger

	cacheTTL     time.Duration
	heuristicTTL time.Duration
	statsWindow  time.Duration
	workers      int
	now          func() time.Time
}

// New wires the orchestrator. notifier and recorder may be nil.
func New(
	clients []*provider.Client,
	cache *pricecache.Cache,
	est *estimator.Estimator,
	store *history.Store,
	detector *deals.Detector,
	registry *metrics.Registry,
	notifier deals.Notifier,
	recorder DealRecorder,
	opts Options,
	logger zerolog.Logger,
) *Orchestrator {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 300 * time.Second
	}
	if opts.HeuristicTTL <= 0 {
		opts.HeuristicTTL = 60 * time.Second
	}
	if opts.StatsWindow <= 0 {
		opts.StatsWindow = 30 * 24 * time.Hour
	}
	if opts.Workers <= 0 {
		opts.Workers = 24
	}

	return &Orchestrator{
		clients:      clients,
		cache:        cache,
		estimator:    est,
		store:        store,
		detector:     detector,
		registry:     registry,
		notifier:     notifier,
		recorder:     recorder,
		logger:       logger.With().Str("component", "orchestrator").Logger(),
		cacheTTL:     opts.CacheTTL,
		heuristicTTL: opts.HeuristicTTL,
		statsWindow:  opts.StatsWindow,
		workers:      opts.Workers,
		now:          time.Now,
	}
}

// GetPrice returns a quote for the route and travel date. The only error it
// can return is a flight.ValidationError for malformed input.
func (o *Orchestrator) GetPrice(ctx context.Context, route flight.Route, date time.Time) (flight.PriceQuote, error) {
	if err := o.validate(route, date); err != nil {
		return flight.PriceQuote{}, err
	}

	key := pricecache.Key(route, date)
	if quote, ok := o.cache.Get(key); ok {
		return quote, nil
	}

	quote, live := o.acquire(ctx, route, date)
	if live {
		o.cache.Put(key, quote, o.cacheTTL)
	} else {
		o.cache.Put(key, quote, o.heuristicTTL)
	}

	o.accept(ctx, quote)
	return quote, nil
}

// acquire walks the provider chain and falls back to the estimator.
func (o *Orchestrator) acquire(ctx context.Context, route flight.Route, date time.Time) (flight.PriceQuote, bool) {
	for _, client := range o.clients {
		quote, err := client.FetchPrice(ctx, route, date)
		if err == nil {
			return quote, true
		}
		if errors.Is(err, provider.ErrRateLimited) || errors.Is(err, provider.ErrCircuitOpen) {
			// Local skip signal; nothing was attempted on the network.
			continue
		}
		// Provider-level failure already recorded on breaker and metrics;
		// fall through to the next provider.
	}

	return o.estimator.Estimate(estimator.Request{
		Route:      route,
		TravelDate: date,
		Stops:      1,
		Cabin:      estimator.CabinEconomy,
	}), false
}

// accept records the quote to history and runs deal detection. Called for
// every acquired quote, including ones whose scan was already aborted.
func (o *Orchestrator) accept(ctx context.Context, quote flight.PriceQuote) {
	if !quote.Valid() {
		o.logger.Warn().
			Str("route", quote.Route.Key()).
			Str("source", quote.Source).
			Str("price", quote.Price.String()).
			Msg("discarding invalid quote")
		return
	}

	// Detached so a cancelled scan still persists useful observations.
	recordCtx := context.WithoutCancel(ctx)

	stats := o.store.Stats(quote.Route, o.statsWindow)
	o.store.Record(recordCtx, quote)

	event, ok := o.detector.Evaluate(quote, stats)
	if !ok {
		return
	}

	if o.recorder != nil {
		if err := o.recorder.InsertDeal(recordCtx, event); err != nil {
			o.logger.Error().Err(err).Str("route", event.Route.Key()).Msg("failed to persist deal event")
		}
	}
	if o.notifier != nil {
		if err := o.notifier.Notify(recordCtx, event); err != nil {
			o.logger.Error().Err(err).Str("route", event.Route.Key()).Msg("failed to dispatch deal notification")
		}
	}
}

// ScanRoutes acquires prices for all routes concurrently under a bounded
// worker pool. Routes are independent; there is no cross-route ordering
// guarantee. If ctx is cancelled mid-scan, in-flight acquisitions complete
// and feed history but the partial response is discarded.
func (o *Orchestrator) ScanRoutes(ctx context.Context, routes []flight.Route, date time.Time) ([]flight.PriceQuote, error) {
	for _, route := range routes {
		if err := o.validate(route, date); err != nil {
			return nil, err
		}
	}

	results := make([]flight.PriceQuote, len(routes))
	sem := make(chan struct{}, o.workers)
	var wg sync.WaitGroup

	for i, route := range routes {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, r flight.Route) {
			defer wg.Done()
			defer func() { <-sem }()

			quote, err := o.GetPrice(ctx, r, date)
			if err != nil {
				// Routes were validated up front; nothing else errors.
				return
			}
			results[idx] = quote
		}(i, route)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Deals returns emitted deal events with savings at or above minSavingsPct.
func (o *Orchestrator) Deals(minSavingsPct decimal.Decimal) []deals.Event {
	return o.detector.Events(minSavingsPct)
}

// History exposes the underlying store for read-side commands.
func (o *Orchestrator) History() *history.Store {
	return o.store
}

// Health reports per-provider breaker state and rolling call statistics.
func (o *Orchestrator) Health() []ProviderHealth {
	out := make([]ProviderHealth, 0, len(o.clients))
	for _, client := range o.clients {
		snap := o.registry.Snapshot(client.Name())
		out = append(out, ProviderHealth{
			Provider:        client.Name(),
			State:           string(client.BreakerState()),
			SuccessRate:     snap.SuccessRate,
			AvgLatencyMs:    snap.AvgLatencyMs,
			RemainingBudget: client.RemainingBudget(),
		})
	}
	return out
}

// CacheStats exposes cache hit/miss accounting.
func (o *Orchestrator) CacheStats() pricecache.Stats {
	return o.cache.Stats()
}

func (o *Orchestrator) validate(route flight.Route, date time.Time) error {
	if _, err := flight.NewRoute(route.Origin, route.Destination); err != nil {
		return err
	}
	return flight.ValidateTravelDate(date, o.now())
}
