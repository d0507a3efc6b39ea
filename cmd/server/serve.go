package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/app"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/config"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/db"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/logging"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/migrate"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/recurring"
)

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic recurring booking trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			// For receiving Ctrl+C / SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := logging.New(os.Stdout, cfg.LogLevel, cfg.IsProduction)

			pool, err := db.NewPool(ctx, cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("failed to connect to db: %w", err)
			}
			defer pool.Close()

			if migrateUp {
				if err := migrate.Up(ctx, pool); err != nil {
					return fmt.Errorf("failed to migrate: %w", err)
				}
			}

			container := app.NewContainer(app.Config{
				IsProduction:         cfg.IsProduction,
				ProdOrigins:          cfg.ProdOrigins,
				DBPool:               pool,
				JWTSecret:            cfg.JWTSecret,
				Logger:               logger,
				Location:             cfg.SchedulerLocation,
				SchedulerLookahead:   cfg.SchedulerLookahead,
				SchedulerConcurrency: cfg.SchedulerConcurrency,
			})

			var trigger *recurring.Trigger
			if cfg.SchedulerEnabled {
				trigger, err = recurring.NewTrigger(ctx, container.Scheduler, cfg.SchedulerCron, cfg.SchedulerLocation, logger)
				if err != nil {
					return err
				}
				trigger.Start()
			}

			// Use http.Server for graceful shutdown
			server := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           container.Router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				logger.Info("server running", "addr", cfg.HTTPAddr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
				close(serverErr)
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutdown signal received")
			case err := <-serverErr:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
			}

			// Create a shutdown context with timeout
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if trigger != nil {
				trigger.Stop(shutdownCtx)
			}
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("server forced to shutdown", "error", err)
			}

			logger.Info("server exited gracefully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", false, "apply database migrations before serving")
	return cmd
}
