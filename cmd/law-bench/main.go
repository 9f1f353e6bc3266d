// Package main provides the law-bench binary: a retrieval benchmark
// for legal-document search backends.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "law-bench",
		Short: "Law Bench - legal retrieval benchmark",
		Long: `Law Bench evaluates legal-document retrievers against a
human-validated set of (query, ground-truth-law) pairs. It computes
NDCG, Recall, MRR, and hit-rate per query and per bench source, and
produces a bad-case diff of fully-missed queries.

Run 'law-bench run' to execute a benchmark.
Run 'law-bench --help' for available commands.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		runCmd(),
		analyzeCmd(),
		indexCmd(),
		historyCmd(),
		watchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("law-bench %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
