package estimator

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
)

func newTestEstimator(t *testing.T) *Estimator {
	t.Helper()
	e := New(Options{Seed: 42}, zerolog.Nop())
	e.nowFunc = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return e
}

func mustRoute(t *testing.T, origin, dest string) flight.Route {
	t.Helper()
	route, err := flight.NewRoute(origin, dest)
	if err != nil {
		t.Fatalf("route %s-%s: %v", origin, dest, err)
	}
	return route
}

func TestEstimateIsDeterministic(t *testing.T) {
	e := newTestEstimator(t)
	req := Request{
		Route:      mustRoute(t, "MAD", "BCN"),
		TravelDate: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		Stops:      1,
		Cabin:      CabinEconomy,
	}

	first := e.Estimate(req)
	second := e.Estimate(req)
	if !first.Price.Equal(second.Price) {
		t.Fatalf("same request produced %s then %s", first.Price, second.Price)
	}
	if first.Confidence != second.Confidence {
		t.Fatalf("confidence drifted: %f vs %f", first.Confidence, second.Confidence)
	}
}

func TestEstimateKnownRouteBounds(t *testing.T) {
	e := newTestEstimator(t)
	// MAD-BCN base fare 95, booked 45 days out (x0.88), April (neutral
	// season), Wednesday (x0.95), one stop, economy. Noise stays within
	// [0.92, 1.08], so the price must land in [73.06, 85.77].
	quote := e.Estimate(Request{
		Route:      mustRoute(t, "MAD", "BCN"),
		TravelDate: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		Stops:      1,
		Cabin:      CabinEconomy,
	})

	low := decimal.NewFromFloat(73.0)
	high := decimal.NewFromFloat(86.0)
	if quote.Price.LessThan(low) || quote.Price.GreaterThan(high) {
		t.Fatalf("price %s outside expected bounds [%s, %s]", quote.Price, low, high)
	}
	if quote.Source != flight.SourceHeuristic {
		t.Fatalf("source = %s", quote.Source)
	}
	if quote.Currency != "EUR" {
		t.Fatalf("currency = %s", quote.Currency)
	}
}

func TestConfidenceReflectsFallbacks(t *testing.T) {
	e := newTestEstimator(t)
	date := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)

	// Table hit: no fallbacks.
	tableHit := e.Estimate(Request{Route: mustRoute(t, "MAD", "BCN"), TravelDate: date, Stops: 1})
	if tableHit.Confidence != 0.95 {
		t.Fatalf("table-hit confidence = %f, want 0.95", tableHit.Confidence)
	}

	// Unknown airports: base fare and distance both fall back.
	unknown := e.Estimate(Request{Route: mustRoute(t, "XQZ", "QZX"), TravelDate: date, Stops: 1})
	if unknown.Confidence >= tableHit.Confidence {
		t.Fatalf("unknown-route confidence %f should be below %f", unknown.Confidence, tableHit.Confidence)
	}
	if unknown.Confidence < 0.70 || unknown.Confidence > 0.95 {
		t.Fatalf("confidence %f outside [0.70, 0.95]", unknown.Confidence)
	}
}

func TestReversedRouteUsesFareTable(t *testing.T) {
	e := newTestEstimator(t)
	base, fallbacks := e.basePrice(mustRoute(t, "BCN", "MAD"))
	if fallbacks != 0 {
		t.Fatalf("reversed route should hit the fare table, fallbacks = %d", fallbacks)
	}
	if base != baseFaresEUR["MAD-BCN"] {
		t.Fatalf("base = %f, want the MAD-BCN fare", base)
	}
}

func TestCabinAndStopsMultipliers(t *testing.T) {
	e := newTestEstimator(t)
	date := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	route := mustRoute(t, "MAD", "LHR")

	economy := e.Estimate(Request{Route: route, TravelDate: date, Stops: 1, Cabin: CabinEconomy})
	business := e.Estimate(Request{Route: route, TravelDate: date, Stops: 1, Cabin: CabinBusiness})
	if !business.Price.GreaterThan(economy.Price) {
		t.Fatalf("business %s should exceed economy %s", business.Price, economy.Price)
	}

	direct := e.Estimate(Request{Route: route, TravelDate: date, Stops: 0, Cabin: CabinEconomy})
	twoStops := e.Estimate(Request{Route: route, TravelDate: date, Stops: 2, Cabin: CabinEconomy})
	if !direct.Price.GreaterThan(economy.Price) || !economy.Price.GreaterThan(twoStops.Price) {
		t.Fatalf("stops ordering broken: direct %s, one %s, two %s", direct.Price, economy.Price, twoStops.Price)
	}
}

func TestLastMinutePremium(t *testing.T) {
	e := newTestEstimator(t)

	nearDate := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC) // 3 days out
	farDate := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC) // 45 days out

	near := e.advanceFactor(e.nowFunc(), nearDate)
	far := e.advanceFactor(e.nowFunc(), farDate)
	if near != 1.10 || far != 0.88 {
		t.Fatalf("advance factors = %f / %f, want 1.10 / 0.88", near, far)
	}
}

func TestSeasonFactors(t *testing.T) {
	e := newTestEstimator(t)
	if got := e.seasonFactor(time.July); got != 1.25 {
		t.Fatalf("July factor = %f, want 1.25", got)
	}
	if got := e.seasonFactor(time.February); got != 0.90 {
		t.Fatalf("February factor = %f, want 0.90", got)
	}
	if got := e.seasonFactor(time.April); got != 1.00 {
		t.Fatalf("April factor = %f, want 1.00", got)
	}
}

func TestHaversineSanity(t *testing.T) {
	// Madrid to Barcelona is roughly 480 km great circle.
	mad := airportCoords["MAD"]
	bcn := airportCoords["BCN"]
	km := haversineKm(mad[0], mad[1], bcn[0], bcn[1])
	if km < 400 || km > 560 {
		t.Fatalf("MAD-BCN distance = %f km, expected ~480", km)
	}
}
