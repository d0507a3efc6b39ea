package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/config"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/db"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("failed to connect to db: %w", err)
			}
			defer pool.Close()

			if err := migrate.Up(ctx, pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
