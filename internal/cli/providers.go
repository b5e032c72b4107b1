package cli

import (
	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show configured providers and their circuit state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Providers()
	},
}
