// Package main implements the collabctl CLI for manual operations
// against a running collabd server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL of the collabd HTTP server.
	serverURL string
	version   = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "collabctl",
	Short: "CLI for collabd server operations",
	Long: `collabctl is a command-line interface for interacting with a collabd server.
It provides commands for checking health, minting tokens and seeding demo data.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:5000", "collabd server URL")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(seedCmd)
}
