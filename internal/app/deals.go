package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Deals prints persisted deal events, newest first.
func (a *App) Deals(ctx context.Context, opts DealsOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot list deals")
	}
	if closeStore != nil {
		defer closeStore()
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := store.ListRecentDeals(ctx, limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "no deals found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Notified (UTC)\tRoute\tDate\tPrice\tMean\tSavings%\tSource")
	for _, row := range rows {
		if row.SavingsPct.InexactFloat64() < opts.MinSavingsPct {
			continue
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.NotifiedAt.UTC().Format(time.RFC3339),
			row.RouteKey,
			row.TravelDate.Format("2006-01-02"),
			row.Price.StringFixed(2),
			row.HistoricalMean.StringFixed(2),
			row.SavingsPct.StringFixed(1),
			row.Source,
		)
	}
	writer.Flush()
	return nil
}
