package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
)

// Scan runs a one-shot acquisition over the requested (or configured)
// routes and prints the resulting quotes.
func (a *App) Scan(ctx context.Context, opts ScanOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	var routes []flight.Route
	if len(opts.Routes) > 0 {
		for _, raw := range opts.Routes {
			route, err := flight.ParseRoute(raw)
			if err != nil {
				return err
			}
			routes = append(routes, route)
		}
	} else {
		routes, err = a.routes()
		if err != nil {
			return err
		}
	}

	horizon := opts.HorizonDays
	if horizon <= 0 {
		horizon = a.Config.Scan.HorizonDays
	}
	travelDate := time.Now().UTC().AddDate(0, 0, horizon).Truncate(24 * time.Hour)

	orch := a.newOrchestrator(store)
	a.preloadHistory(ctx, orch, routes, store)

	quotes, err := orch.ScanRoutes(ctx, routes, travelDate)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Route\tDate\tPrice\tCurrency\tSource\tConfidence")
	for _, q := range quotes {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%.2f\n",
			q.Route.Key(),
			q.TravelDate.Format("2006-01-02"),
			q.Price.StringFixed(2),
			q.Currency,
			q.Source,
			q.Confidence,
		)
	}
	writer.Flush()

	stats := orch.CacheStats()
	a.Logger.Debug().Int64("hits", stats.Hits).Int64("misses", stats.Misses).Msg("cache accounting after scan")
	return nil
}
