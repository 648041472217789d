// Command lifelinectl holds operational tooling for the matching service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "lifelinectl",
		Short:   "Operational tooling for the lifeline matching service",
		Version: version,
	}

	rootCmd.AddCommand(
		newMigrateCmd(),
		newDistanceCmd(),
		newSeedDemoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
