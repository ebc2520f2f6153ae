package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark overdue obligations once and exit",
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	e, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	marked, err := e.Sweeper.SweepOverdue(ctx)
	if err != nil {
		return fmt.Errorf("overdue sweep: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d obligations marked as overdue\n", marked)
	return nil
}
