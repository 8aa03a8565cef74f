package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tracknet-io/tracknet/internal/api"
	"github.com/tracknet-io/tracknet/internal/core"
)

var (
	cfgFile string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the tracknet server",

		Run: func(cmd *cobra.Command, args []string) {
			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

			config, err := core.NewConfig(cfgFile)
			if err != nil {
				logger.Fatal().Err(err).Msg("loading config")
			}

			app, err := api.New(config, logger)
			if err != nil {
				logger.Fatal().Err(err).Msg("starting app")
			}
			defer app.Close()

			if err := app.Listen(); err != nil {
				logger.Fatal().Err(err).Msg("server stopped")
			}
		},
	}
)

func init() {
	serveCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "/etc/config/tracknet.yml", "config file (default is /etc/config/tracknet.yml)")
}
