package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TWRT/board-sync/internal/app"
	"github.com/TWRT/board-sync/internal/config"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err := app.NewLogger(cfg.Env)
			if err != nil {
				return err
			}
			logger.Debug().Str("env", cfg.Env).Msg("loaded config")

			a, err := app.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to set up app: %w", err)
			}
			defer a.Close()

			a.Warm(cmd.Context())
			return a.ListenAndServe(cmd.Context())
		},
	}
}
