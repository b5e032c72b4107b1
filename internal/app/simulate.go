package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/juankaspain/vuelosrobot-sub000/internal/deals"
	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
	"github.com/juankaspain/vuelosrobot-sub000/internal/history"
)

// SimulateDeal evaluates a synthetic quote against a given historical mean
// and pushes the resulting event through the configured notifier. Useful
// for verifying Telegram wiring without waiting for a real price drop.
func (a *App) SimulateDeal(ctx context.Context, opts SimulateOptions) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is not enabled")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no notification channel configured")
	}

	route, err := flight.ParseRoute(opts.Route)
	if err != nil {
		return err
	}
	if opts.Price <= 0 || opts.Mean <= 0 {
		return errors.New("--price and --mean must be greater than zero")
	}

	quote := flight.PriceQuote{
		Route:      route,
		TravelDate: time.Now().UTC().AddDate(0, 0, a.Config.Scan.HorizonDays),
		Price:      decimal.NewFromFloat(opts.Price).Round(2),
		Currency:   "EUR",
		Source:     "simulated",
		Confidence: 1.0,
		FetchedAt:  time.Now().UTC(),
	}
	minHistory := a.Config.Deals.MinHistory
	if minHistory <= 0 {
		minHistory = 3
	}

	mean := decimal.NewFromFloat(opts.Mean).Round(2)
	stats := history.Statistics{
		Count: minHistory,
		Mean:  mean,
		Min:   mean,
		Max:   mean,
		Trend: history.TrendStable,
	}

	detector := deals.NewDetector(deals.Options{
		MinSavings: decimal.NewFromFloat(a.Config.Deals.ThresholdPct / 100),
		Cooldown:   a.Config.Deals.Cooldown,
		MinHistory: a.Config.Deals.MinHistory,
	}, a.Logger)

	event, ok := detector.Evaluate(quote, stats)
	if !ok {
		a.Logger.Info().
			Str("route", route.Key()).
			Float64("price", opts.Price).
			Float64("mean", opts.Mean).
			Msg("synthetic quote does not qualify as a deal")
		return nil
	}

	return notifier.Notify(ctx, event)
}
