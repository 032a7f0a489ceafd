package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load the configuration, apply defaults and environment overrides and
report whether the result is usable.

Examples:
  aigate validate --config /etc/aigate/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The policy table applies its own structural checks on top of
	// config validation.
	table, err := cfg.PolicyTable()
	if err != nil {
		return err
	}

	fmt.Println("configuration valid")
	fmt.Printf("store backend: %s\n", cfg.Store.Backend)
	fmt.Printf("capabilities: %d\n", len(table.Capabilities()))

	tiers := make([]string, 0, len(cfg.Tiers))
	for name := range cfg.Tiers {
		tiers = append(tiers, name)
	}
	sort.Strings(tiers)
	for _, name := range tiers {
		t := cfg.Tiers[name]
		fmt.Printf("  tier %-12s x%.1f  $%.2f/day\n", name, t.RequestMultiplier, t.DailyCostCeiling)
	}
	return nil
}
