package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joestump/bookswap/internal/api"
	"github.com/joestump/bookswap/internal/auth"
	"github.com/joestump/bookswap/internal/build"
	"github.com/joestump/bookswap/internal/config"
	"github.com/joestump/bookswap/internal/db"
	"github.com/joestump/bookswap/internal/handler"
	"github.com/joestump/bookswap/internal/ledger"
	"github.com/joestump/bookswap/internal/logging"
	"github.com/joestump/bookswap/internal/match"
	"github.com/joestump/bookswap/internal/store"
	"github.com/joestump/bookswap/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.Setup(cfg, os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := telemetry.Setup(ctx, cfg.OTel.Endpoint)
			if err != nil {
				return err
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := shutdownTracing(sctx); err != nil {
					logger.Warn("tracer shutdown", "error", err)
				}
			}()

			database, err := db.New(ctx, cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(ctx, database, cfg.DB.Driver); err != nil {
				return err
			}

			verifier, err := auth.NewVerifier(ctx, cfg)
			if err != nil {
				return err
			}

			books := store.NewSQLBookStore(database)
			l := ledger.New(books, logger)

			apiRouter := api.NewAPIRouter(api.Deps{
				BearerAuth: auth.NewBearerTokenMiddleware(verifier, logger),
				Ledger:     l,
				Finder:     match.NewFinder(l, logger),
				Logger:     logger,
			})
			router := handler.NewRouter(handler.Deps{
				API:     apiRouter,
				DB:      books,
				Logger:  logger,
				Metrics: cfg.Metrics.Enabled,
			})

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			return run(ctx, srv, logger)
		},
	}
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "version", build.Version)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return <-errCh
}
