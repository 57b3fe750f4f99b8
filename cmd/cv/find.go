package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlvector/cv-git/internal/semanticgraph"
)

var (
	findLimit    int
	findLanguage string
	findFile     string
	findMinScore float64
)

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Semantic search over the indexed repository",
	Long: `Embeds the query and returns the top-scoring chunks, each enriched
with up to five callers, callees, and non-call neighbors pulled from the
property graph when one is available.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot, err := requireRepoRoot()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		app, err := newAppContext(ctx, repoRoot)
		if err != nil {
			return err
		}
		defer app.Close()

		filters := map[string]interface{}{}
		if findLanguage != "" {
			filters["language"] = findLanguage
		}
		if findFile != "" {
			filters["file_path"] = findFile
		}

		hits, err := app.semanticGraph.SemanticSearch(ctx, args[0], semanticgraph.Options{
			Limit:    findLimit,
			Filters:  filters,
			MinScore: float32(findMinScore),
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			data, mErr := json.MarshalIndent(hits, "", "  ")
			if mErr != nil {
				return mErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		for _, h := range hits {
			fmt.Fprintf(cmd.OutOrStdout(), "%.3f  %s  %s\n", h.Result.Score, h.Result.Document.Metadata["file_path"], h.Result.Document.Metadata["symbol_name"])
			for _, c := range h.Callers {
				fmt.Fprintf(cmd.OutOrStdout(), "    caller:  %s (%s)\n", c.Name, c.File)
			}
			for _, c := range h.Callees {
				fmt.Fprintf(cmd.OutOrStdout(), "    callee:  %s (%s)\n", c.Name, c.File)
			}
			for _, n := range h.Neighbors {
				fmt.Fprintf(cmd.OutOrStdout(), "    related: %s (%s)\n", n.Name, n.File)
			}
		}
		return nil
	},
}

func init() {
	findCmd.Flags().IntVar(&findLimit, "limit", 10, "maximum number of hits to return")
	findCmd.Flags().StringVar(&findLanguage, "language", "", "restrict results to this language")
	findCmd.Flags().StringVar(&findFile, "file", "", "restrict results to this file path")
	findCmd.Flags().Float64Var(&findMinScore, "min-score", 0, "drop hits scoring below this relevance threshold")
	rootCmd.AddCommand(findCmd)
}
