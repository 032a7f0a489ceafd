package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "aigate",
	Short: "aigate - admission control and cache validity for AI calls",
	Long: `aigate is a cost-aware governance layer for AI-generation calls.

It provides:
  - Tier-scaled rolling-window quotas per AI capability
  - Daily spend ceilings with proximity warnings
  - Content-aware cache validation with self-healing reads
  - A periodic sweep that purges invalid cached results`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (built-in defaults when empty)")
}
