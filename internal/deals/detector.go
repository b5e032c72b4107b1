package deals

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
	"github.com/juankaspain/vuelosrobot-sub000/internal/history"
)

// Event is an emitted deal: a quote whose price sits far enough below the
// route's historical mean to warrant notification.
type Event struct {
	Route          flight.Route
	Quote          flight.PriceQuote
	HistoricalMean decimal.Decimal
	SavingsPct     decimal.Decimal
	NotifiedAt     time.Time
}

// Notifier delivers deal events to the bot layer. Implementations live at
// the system boundary; delivery failures are logged by callers, never
// propagated into the acquisition path.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Options tune the detector.
type Options struct {
	// MinSavings is the emission threshold as a fraction of the historical
	// mean (default 0.20). The boundary is inclusive.
	MinSavings decimal.Decimal
	// Cooldown suppresses repeat events per route (default 30 minutes).
	Cooldown time.Duration
	// MinHistory is the minimum number of observations required before a
	// route's mean is trusted (default 3).
	MinHistory int
	// KeepEvents bounds the emitted-event log (default 200).
	KeepEvents int
}

// Detector compares fresh quotes against historical statistics and emits
// at most one deal event per route per cooldown window.
type Detector struct {
	mu         sync.Mutex
	minSavings decimal.Decimal
	cooldown   time.Duration
	minHistory int
	keepEvents int
	lastEmit   map[string]time.Time
	events     []Event
	logger     zerolog.Logger
	now        func() time.Time
}

// NewDetector builds a detector with defaults filled in.
func NewDetector(opts Options, logger zerolog.Logger) *Detector {
	minSavings := opts.MinSavings
	if minSavings.IsZero() {
		minSavings = decimal.NewFromFloat(0.20)
	}
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Minute
	}
	minHistory := opts.MinHistory
	if minHistory <= 0 {
		minHistory = 3
	}
	keepEvents := opts.KeepEvents
	if keepEvents <= 0 {
		keepEvents = 200
	}
	return &Detector{
		minSavings: minSavings,
		cooldown:   cooldown,
		minHistory: minHistory,
		keepEvents: keepEvents,
		lastEmit:   make(map[string]time.Time),
		logger:     logger.With().Str("component", "deal_detector").Logger(),
		now:        time.Now,
	}
}

// Evaluate decides whether the quote qualifies as a deal. An event is
// emitted only when savings meet the threshold (inclusive) and no unexpired
// event exists for the route. Emitted events are never retroactively
// cancelled.
func (d *Detector) Evaluate(quote flight.PriceQuote, stats history.Statistics) (Event, bool) {
	if stats.Count < d.minHistory || !stats.Mean.IsPositive() {
		return Event{}, false
	}

	savings := stats.Mean.Sub(quote.Price).Div(stats.Mean)
	if savings.LessThan(d.minSavings) {
		return Event{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now().UTC()
	key := quote.Route.Key()
	if last, ok := d.lastEmit[key]; ok && now.Sub(last) < d.cooldown {
		d.logger.Debug().
			Str("route", key).
			Str("savings_pct", savings.Mul(decimal.NewFromInt(100)).StringFixed(1)).
			Msg("deal suppressed by cooldown")
		return Event{}, false
	}

	event := Event{
		Route:          quote.Route,
		Quote:          quote,
		HistoricalMean: stats.Mean,
		SavingsPct:     savings.Mul(decimal.NewFromInt(100)).Round(1),
		NotifiedAt:     now,
	}

	d.lastEmit[key] = now
	d.events = append(d.events, event)
	if len(d.events) > d.keepEvents {
		d.events = append([]Event(nil), d.events[len(d.events)-d.keepEvents:]...)
	}

	d.logger.Info().
		Str("route", key).
		Str("price", quote.Price.String()).
		Str("mean", stats.Mean.String()).
		Str("savings_pct", event.SavingsPct.String()).
		Str("source", quote.Source).
		Msg("deal detected")

	return event, true
}

// Events returns emitted events with savings at or above minSavingsPct
// (a percentage, e.g. 25 for 25%), newest first.
func (d *Detector) Events(minSavingsPct decimal.Decimal) []Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Event, 0, len(d.events))
	for i := len(d.events) - 1; i >= 0; i-- {
		if d.events[i].SavingsPct.GreaterThanOrEqual(minSavingsPct) {
			out = append(out, d.events[i])
		}
	}
	return out
}

// SetClock overrides the time source. Test hook.
func (d *Detector) SetClock(now func() time.Time) {
	d.mu.Lock()
	d.now = now
	d.mu.Unlock()
}
