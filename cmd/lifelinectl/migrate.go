package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lifeline/internal/platform/config"
	"lifeline/internal/platform/migrate"
	"lifeline/internal/platform/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending schema migrations against DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			db, err := postgres.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrate.Up(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
