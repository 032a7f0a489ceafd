package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"saharasprout/aigate/pkg/guard"
	"saharasprout/aigate/pkg/policy"
	"saharasprout/aigate/pkg/telemetry/logging"
)

var usageFlags struct {
	user string
	tier string
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Report a user's usage, spend and warnings for today",
	Long: `Read today's ledger records for one user and print the daily spend,
per-capability call counts and any proximity-to-limit warnings.

Examples:
  aigate usage --user farmer-17
  aigate usage --user farmer-17 --tier premium`,
	RunE: runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.Flags().StringVarP(&usageFlags.user, "user", "u", "", "user identifier (required)")
	usageCmd.Flags().StringVarP(&usageFlags.tier, "tier", "t", string(policy.TierFree), "subscription tier")
	usageCmd.MarkFlagRequired("user")
}

func runUsage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:  "warn",
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	policies, err := cfg.PolicyTable()
	if err != nil {
		return err
	}

	manager, err := guard.New(guard.Config{
		Policies:       policies,
		Store:          st,
		CostThreshold:  cfg.Warnings.CostThreshold,
		UsageThreshold: cfg.Warnings.UsageThreshold,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	defer manager.Close()

	tier := policy.Tier(usageFlags.tier)

	stats, err := manager.UsageStats(ctx, usageFlags.user)
	if err != nil {
		return err
	}

	fmt.Printf("user %s on %s\n", usageFlags.user, stats.Date)
	fmt.Printf("daily cost: $%.2f\n", stats.DailyCost)

	ids := make([]string, 0, len(stats.UsageByCapability))
	for id, n := range stats.UsageByCapability {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("  %-28s %d\n", id, stats.UsageByCapability[id])
	}

	warnings, err := manager.Warnings(ctx, usageFlags.user, tier)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Printf("warning: %s\n", w.Message)
	}
	return nil
}
