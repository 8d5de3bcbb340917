package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joestump/bookswap/internal/config"
	"github.com/joestump/bookswap/internal/db"
	"github.com/joestump/bookswap/internal/logging"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg, os.Stderr)

			database, err := db.New(ctx, cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(ctx, database, cfg.DB.Driver); err != nil {
				return err
			}

			version, err := db.Version(ctx, database, cfg.DB.Driver)
			if err != nil {
				return err
			}
			slog.Info("migrations complete", "driver", cfg.DB.Driver, "version", version)
			return nil
		},
	}
}
