package flight

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceHeuristic marks quotes produced by the local estimator rather than
// a live provider.
const SourceHeuristic = "heuristic"

// PriceQuote is the result of one acquisition attempt. Quotes are immutable
// once created; cached copies are returned by value, never shared.
type PriceQuote struct {
	Route      Route
	TravelDate time.Time
	Price      decimal.Decimal
	Currency   string
	Source     string
	Confidence float64
	FetchedAt  time.Time
}

// Live reports whether the quote came from a live provider.
func (q PriceQuote) Live() bool {
	return q.Source != SourceHeuristic
}

// Valid checks the quote invariants: positive price and confidence in [0,1].
func (q PriceQuote) Valid() bool {
	return q.Price.IsPositive() && q.Confidence >= 0 && q.Confidence <= 1
}

// fixedRates is a minimal fixed-rate table with EUR as base. Conversion
// accuracy beyond this lookup is explicitly out of scope.
var fixedRates = map[string]decimal.Decimal{
	"EUR": decimal.NewFromInt(1),
	"USD": decimal.NewFromFloat(1.08),
	"GBP": decimal.NewFromFloat(0.85),
	"CHF": decimal.NewFromFloat(0.96),
}

// ConvertToEUR normalises a price into EUR using the fixed-rate table.
// Unknown currencies pass through unchanged.
func ConvertToEUR(price decimal.Decimal, currency string) decimal.Decimal {
	rate, ok := fixedRates[currency]
	if !ok || rate.IsZero() {
		return price
	}
	return price.Div(rate).Round(2)
}
