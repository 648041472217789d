package main

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"lifeline/internal/platform/config"
	"lifeline/internal/platform/migrate"
	"lifeline/internal/platform/postgres"
)

// seed-demo loads a small Dhaka-centric data set so the search and match
// endpoints have something to work with on a fresh database.
func newSeedDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-demo",
		Short: "Load demo donors and a demo blood request into DATABASE_URL",
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
			if err := seedDemo(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "demo data loaded")
			return nil
		},
	}
}

func seedDemo(db *sql.DB) error {
	donors := []struct {
		bloodType   string
		gender      string
		area        string
		count       int
		reliability float64
	}{
		{"O_POSITIVE", "MALE", "Dhaka - Gulshan", 5, 4.5},
		{"O_POSITIVE", "FEMALE", "Dhaka - Dhanmondi", 2, 3.0},
		{"O_NEGATIVE", "MALE", "Dhaka - Banani", 8, 5.0},
		{"A_POSITIVE", "MALE", "Dhaka - Mirpur", 1, 2.0},
		{"A_NEGATIVE", "FEMALE", "Dhaka - Uttara", 3, 4.0},
		{"B_POSITIVE", "OTHER", "Chattogram", 0, 0.0},
		{"AB_POSITIVE", "MALE", "Sylhet", 6, 4.8},
	}
	for _, d := range donors {
		_, err := db.Exec(
			`INSERT INTO donors (id, blood_type, gender, area, is_available, is_verified,
			                     donation_count, reliability_score)
			 VALUES ($1, $2, $3, $4, TRUE, TRUE, $5, $6)`,
			uuid.New(), d.bloodType, d.gender, d.area, d.count, d.reliability)
		if err != nil {
			return fmt.Errorf("seed donor: %w", err)
		}
	}

	_, err := db.Exec(
		`INSERT INTO blood_requests (id, blood_type, location, urgency_level, units_required, status)
		 VALUES ($1, 'O_POSITIVE', 'Dhaka', 'URGENT', 2, 'OPEN')`,
		uuid.New())
	if err != nil {
		return fmt.Errorf("seed request: %w", err)
	}
	return nil
}
