package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kandinsky-studio/design-shop/internal/config"
	"github.com/kandinsky-studio/design-shop/internal/daemon"
	"github.com/kandinsky-studio/design-shop/internal/logger"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
}

var (
	configPath string // Path to the configuration directory

	cfg     config.Config
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the Design Shop web service",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			if cfg, err = config.ReadConfig(configPath); err != nil {
				return err
			}

			if devMode {
				cfg.DevMode = true
			}

			return logger.Init(cfg.Log)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer func() {
				if err := logger.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close logger")
				}
			}()

			d, err := daemon.New(cmd.Context(), &cfg)
			if err != nil {
				log.Error().Err(err).Msg("failed to start")
				return err
			}

			return d.Start()
		},
	}
)
