package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/juankaspain/vuelosrobot-sub000/internal/app"
)

var (
	simulateRoute string
	simulatePrice float64
	simulateMean  float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-deal",
	Short: "Evaluate a synthetic quote against a historical mean and fire the alert path",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateRoute == "" {
			return errors.New("--route is required")
		}
		if simulatePrice <= 0 || simulateMean <= 0 {
			return errors.New("--price and --mean must be greater than 0")
		}

		return getApp().SimulateDeal(cmd.Context(), app.SimulateOptions{
			Route: simulateRoute,
			Price: simulatePrice,
			Mean:  simulateMean,
		})
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateRoute, "route", "", "Route for the synthetic quote, e.g. MAD-BCN")
	simulateCmd.Flags().Float64Var(&simulatePrice, "price", 0, "Synthetic quote price in EUR")
	simulateCmd.Flags().Float64Var(&simulateMean, "mean", 0, "Historical mean price in EUR")
}
