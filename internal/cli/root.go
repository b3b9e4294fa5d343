package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TWRT/board-sync/internal/app"
	"github.com/TWRT/board-sync/internal/client/firebase"
	"github.com/TWRT/board-sync/internal/config"
	"github.com/TWRT/board-sync/internal/repository"
)

var Version = "dev"

var envFile string

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "board-sync",
		Short:         "Kanban board sync service over the Firebase Realtime Database",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(historyCmd())

	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// tooling is the setup shared by the maintenance commands: the document
// store plus the local run log.
type tooling struct {
	store  *firebase.FirebaseClient
	logger zerolog.Logger
	db     *sql.DB
	runs   *repository.RunRepository
}

func openTooling() (*tooling, error) {
	cfg, err := config.LoadTooling(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := app.NewLogger(cfg.Env)
	if err != nil {
		return nil, err
	}
	db, err := repository.InitDB(cfg.State.DBPath)
	if err != nil {
		return nil, err
	}
	return &tooling{
		store:  firebase.NewFirebaseClient(cfg.Firebase.URL, cfg.Firebase.Timeout, logger),
		logger: logger,
		db:     db,
		runs:   repository.NewRunRepository(db),
	}, nil
}

func (t *tooling) Close() {
	if err := t.db.Close(); err != nil {
		t.logger.Error().Err(err).Msg("failed to close state db")
	}
}

// record runs fn and logs it as a maintenance run of kind. A broken run log
// never stops the command itself.
func record(ctx context.Context, runs *repository.RunRepository, logger zerolog.Logger, kind string, fn func() (int, error)) error {
	id, err := runs.Start(ctx, kind)
	if err != nil {
		logger.Warn().Err(err).Str("kind", kind).Msg("failed to record run start")
	}

	affected, runErr := fn()

	if id != 0 {
		if err := runs.Finish(ctx, id, affected, runErr); err != nil {
			logger.Warn().Err(err).Int64("run_id", id).Msg("failed to record run result")
		}
	}
	logger.Debug().Str("kind", kind).Int("affected", affected).Msg("maintenance run done")
	return runErr
}
