package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlvector/cv-git/internal/graphstore"
	"github.com/controlvector/cv-git/internal/semanticgraph"
)

var explainDepth int

var explainCmd = &cobra.Command{
	Use:   "explain <symbol>",
	Short: "Show a symbol's neighborhood, impact, and semantic peers",
	Long: `Resolves <symbol> to a graph node and reports its callers/callees
neighborhood, the transitive impact of changing it, and semantically similar
code elsewhere in the repository.`,
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

		symbolID := graphstore.CompositeID(app.repoID, string(graphstore.NodeKindSymbol), args[0])

		result, err := app.semanticGraph.GetComprehensiveContext(ctx, symbolID, "", semanticgraph.Options{
			GraphDepth: explainDepth,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			data, mErr := json.MarshalIndent(result, "", "  ")
			if mErr != nil {
				return mErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		if result.Neighborhood == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "no graph neighborhood available (graph store not configured)")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "neighborhood: %d nodes, %d edges\n", len(result.Neighborhood.Nodes), len(result.Neighborhood.Edges))
		}
		if result.Impact != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "impact: %d direct callers, %d transitive callers, %d affected files\n",
				len(result.Impact.DirectCallers), len(result.Impact.TransitiveCallers), len(result.Impact.AffectedFiles))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "similar peers:\n")
		for _, p := range result.SimilarPeers {
			fmt.Fprintf(cmd.OutOrStdout(), "  %.3f  %s\n", p.Score, p.Document.Metadata["file_path"])
		}
		return nil
	},
}

func init() {
	explainCmd.Flags().IntVar(&explainDepth, "depth", 2, "graph BFS depth for the neighborhood")
	rootCmd.AddCommand(explainCmd)
}
