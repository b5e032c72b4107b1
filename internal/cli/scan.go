package cli

import (
	"github.com/spf13/cobra"

	"github.com/juankaspain/vuelosrobot-sub000/internal/app"
)

var (
	scanRoutes  []string
	scanHorizon int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Fetch current prices for the configured routes once and print them",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Scan(cmd.Context(), app.ScanOptions{
			Routes:      scanRoutes,
			HorizonDays: scanHorizon,
		})
	},
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanRoutes, "route", nil, "Route to scan, e.g. MAD-BCN (repeatable; defaults to config)")
	scanCmd.Flags().IntVar(&scanHorizon, "horizon-days", 0, "Days ahead for the travel date (defaults to config)")
}
