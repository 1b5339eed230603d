// Package cli implements the library command-line interface: serving the
// HTTP API, loading the catalog, and running circulation operations from
// the terminal.
package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "library",
	Short:         "Library circulation system",
	Long:          "Manages a library's borrowers, loans, and fines over PostgreSQL or SQLite.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the TOML config file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
