package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/app"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/config"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/db"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/logging"
)

// newTickCmd runs a single scheduler pass, for use from an external timer
// such as a Kubernetes CronJob.
func newTickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run one recurring booking scheduler tick and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			container := app.NewContainer(app.Config{
				IsProduction:         cfg.IsProduction,
				DBPool:               pool,
				JWTSecret:            cfg.JWTSecret,
				Logger:               logger,
				Location:             cfg.SchedulerLocation,
				SchedulerLookahead:   cfg.SchedulerLookahead,
				SchedulerConcurrency: cfg.SchedulerConcurrency,
			})

			report, err := container.Scheduler.Tick(logging.ContextWithLogger(ctx, logger))
			if err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d recurring bookings failed", report.Failed, report.Processed)
			}
			return nil
		},
	}
}
