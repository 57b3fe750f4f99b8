package main

import (
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "cv",
	Short: "cv is a git-aware code intelligence toolkit",
	Long: `cv augments ordinary git workflows with a persistent, queryable model
of a repository's source: a property graph of structural relationships and a
vector index of semantic similarity, combined behind search, navigation, and
impact-analysis commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "emit verbose diagnostic output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
}
