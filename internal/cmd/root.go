// Package cmd holds the marketplace command line: the HTTP server, the
// notification worker and the maintenance commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "marketplace",
	Short: "Multi-vendor marketplace with cash on delivery and manual payments",
	Long: `marketplace serves the storefront API, runs schema migrations and
delivers e-mail notifications for vendor signups and payment reviews.

Configuration comes from the environment and an optional .env file.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
