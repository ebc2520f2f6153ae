// Package cli implements the command line interface of the consortium
// backend.
package cli

import (
	"fmt"
	"os"

	"github.com/consorcio/backend/internal/router"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "consortium",
		Short: "Consortium installment and contemplation backend",
		Long: `The consortium backend manages consortiums of members saving together.

It generates the installment schedule of every member, records payments,
marks overdue installments and contemplates members month by month.`,
		RunE:          runServe, // Default action is serve
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file with environment variables")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.Version = version
	router.SetVersion(version)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
