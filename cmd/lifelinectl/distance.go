package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lifeline/internal/geo"
)

func newDistanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distance <location-a> <location-b>",
		Short: "Estimate the distance in km between two named locations",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			estimator, err := geo.New()
			if err != nil {
				return err
			}
			km := estimator.DistanceKm(args[0], args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "%.1f km\n", km)
			return nil
		},
	}
}
