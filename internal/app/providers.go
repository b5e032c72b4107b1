package app

import (
	"fmt"
	"os"
	"text/tabwriter"
)

// Providers prints the configured provider chain and its health state.
// Breaker states and rolling statistics are process-local, so outside the
// running service this shows the cold baseline.
func (a *App) Providers() error {
	orch := a.newOrchestrator(nil)

	health := orch.Health()
	if len(health) == 0 {
		fmt.Fprintln(os.Stdout, "no providers configured")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Provider\tBreaker\tSuccessRate\tAvgLatencyMs\tBudgetLeft")
	for _, h := range health {
		budget := "unlimited"
		if h.RemainingBudget >= 0 {
			budget = fmt.Sprintf("%d", h.RemainingBudget)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%.2f\t%.1f\t%s\n",
			h.Provider,
			h.State,
			h.SuccessRate,
			h.AvgLatencyMs,
			budget,
		)
	}
	writer.Flush()
	return nil
}
