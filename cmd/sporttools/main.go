// Package main provides the sporttools command line for offline scoring.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sporttools",
		Short: "Score physical fitness tests offline",
		Long: `sporttools validates grading standard files, scores measurement records
and aggregates cohort statistics without running the HTTP service.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("standard", "", "Path to a standard YAML file (default: embedded national standard)")

	rootCmd.AddCommand(
		newValidateCmd(),
		newScoreCmd(),
		newStatsCmd(),
	)
	return rootCmd
}
