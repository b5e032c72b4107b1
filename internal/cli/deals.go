package cli

import (
	"github.com/spf13/cobra"

	"github.com/juankaspain/vuelosrobot-sub000/internal/app"
)

var (
	dealsMinSavings float64
	dealsLimit      int
)

var dealsCmd = &cobra.Command{
	Use:   "deals",
	Short: "List recently detected deals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Deals(cmd.Context(), app.DealsOptions{
			MinSavingsPct: dealsMinSavings,
			Limit:         dealsLimit,
		})
	},
}

func init() {
	dealsCmd.Flags().Float64Var(&dealsMinSavings, "min-savings", 0, "Only show deals at or above this savings percentage")
	dealsCmd.Flags().IntVar(&dealsLimit, "limit", 50, "Maximum number of deals to list")
}
