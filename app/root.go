// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "design-shop",
	Short: "Design Shop is the commerce backend of the Kandinsky design studio",
	Long: `Design Shop sells design packages and takes donations through Stripe
Checkout, reconciles payments from webhooks and exposes an admin API
for orders, donations and payment settings.`,
	Args: cobra.OnlyValidArgs,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "Path to the directory holding main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
