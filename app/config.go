package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kandinsky-studio/design-shop/internal/config"
)

func init() { //nolint: gochecknoinits
	configCmd.Flags().BoolVar(&configAsJSON, "json", false, "Print JSON instead of TOML")

	rootCmd.AddCommand(configCmd)
}

var (
	configAsJSON bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.ReadConfig(configPath)
			if err != nil {
				return err
			}

			dump := config.DumpConfig
			if configAsJSON {
				dump = config.DumpConfigJSON
			}

			out, err := dump(&c)
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), out)

			return err
		},
	}
)
