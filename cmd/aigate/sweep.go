package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"saharasprout/aigate/pkg/cacheguard"
	"saharasprout/aigate/pkg/telemetry/logging"
)

var sweepFlags struct {
	statsOnly bool
	timeout   time.Duration
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one cache sweep pass and exit",
	Long: `Enumerate all cached entries under the known content-type prefixes,
re-validate each against current rules and delete failures.

Examples:
  # Sweep the configured store
  aigate sweep

  # Report validity counts without deleting anything
  aigate sweep --stats-only`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().BoolVar(&sweepFlags.statsOnly, "stats-only", false, "report validity counts without deleting")
	sweepCmd.Flags().DurationVar(&sweepFlags.timeout, "timeout", 10*time.Minute, "sweep timeout")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), sweepFlags.timeout)
	defer cancel()

	st, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	cache, err := cacheguard.New(cacheguard.Config{Store: st, Logger: logger})
	if err != nil {
		return err
	}

	if sweepFlags.statsOnly {
		stats, err := cache.Stats(ctx)
		if err != nil {
			return err
		}
		for prefix, ps := range stats {
			fmt.Printf("%-10s total=%d valid=%d invalid=%d\n", prefix, ps.Total, ps.Valid, ps.Invalid)
		}
		return nil
	}

	report, err := cache.Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("scanned %d entries, removed %d\n", report.Scanned, report.Removed)
	return nil
}
