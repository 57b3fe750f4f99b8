package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlvector/cv-git/internal/cverrors"
	"github.com/controlvector/cv-git/internal/graphstore"
)

var (
	graphDepth    int
	graphMaxNodes int
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Query the property graph directly",
}

func withGraphStore(cmd *cobra.Command, fn func(app *appContext, gstore graphstore.Graph) error) error {
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

	if app.gstore == nil {
		return cverrors.New(cverrors.KindUpstreamUnavailable, "graph store is not configured or unreachable")
	}
	return fn(app, app.gstore)
}

func printJSONOrText(cmd *cobra.Command, v interface{}, textFn func()) error {
	if jsonOutput {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	textFn()
	return nil
}

var graphCallersCmd = &cobra.Command{
	Use:   "callers <symbol>",
	Short: "List symbols that call <symbol>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGraphStore(cmd, func(app *appContext, gstore graphstore.Graph) error {
			symID := graphstore.CompositeID(app.repoID, string(graphstore.NodeKindSymbol), args[0])
			nodes, err := gstore.GetCallers(cmd.Context(), app.repoID, symID)
			if err != nil {
				return err
			}
			return printJSONOrText(cmd, nodes, func() {
				for _, n := range nodes {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", n.Name, n.File)
				}
			})
		})
	},
}

var graphCalleesCmd = &cobra.Command{
	Use:   "callees <symbol>",
	Short: "List symbols that <symbol> calls",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGraphStore(cmd, func(app *appContext, gstore graphstore.Graph) error {
			symID := graphstore.CompositeID(app.repoID, string(graphstore.NodeKindSymbol), args[0])
			nodes, err := gstore.GetCallees(cmd.Context(), app.repoID, symID)
			if err != nil {
				return err
			}
			return printJSONOrText(cmd, nodes, func() {
				for _, n := range nodes {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", n.Name, n.File)
				}
			})
		})
	},
}

var graphNeighborhoodCmd = &cobra.Command{
	Use:   "neighborhood <symbol>",
	Short: "Show the BFS neighborhood around <symbol>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGraphStore(cmd, func(app *appContext, gstore graphstore.Graph) error {
			symID := graphstore.CompositeID(app.repoID, string(graphstore.NodeKindSymbol), args[0])
			nb, err := gstore.GetNeighborhood(cmd.Context(), app.repoID, symID, graphDepth, graphMaxNodes)
			if err != nil {
				return err
			}
			return printJSONOrText(cmd, nb, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d nodes, %d edges\n", len(nb.Nodes), len(nb.Edges))
				for _, n := range nb.Nodes {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", n.Name, n.File)
				}
			})
		})
	},
}

var graphPathCmd = &cobra.Command{
	Use:   "path <from> <to>",
	Short: "Find the shortest path between two symbols",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGraphStore(cmd, func(app *appContext, gstore graphstore.Graph) error {
			fromID := graphstore.CompositeID(app.repoID, string(graphstore.NodeKindSymbol), args[0])
			toID := graphstore.CompositeID(app.repoID, string(graphstore.NodeKindSymbol), args[1])
			path, err := gstore.FindPath(cmd.Context(), app.repoID, fromID, toID, graphDepth)
			if err != nil {
				return err
			}
			return printJSONOrText(cmd, path, func() {
				if !path.Found {
					fmt.Fprintln(cmd.OutOrStdout(), "no path found")
					return
				}
				for _, n := range path.Nodes {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", n.Name, n.File)
				}
			})
		})
	},
}

var graphImpactCmd = &cobra.Command{
	Use:   "impact <symbol>",
	Short: "Show the transitive impact of changing <symbol>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGraphStore(cmd, func(app *appContext, gstore graphstore.Graph) error {
			symID := graphstore.CompositeID(app.repoID, string(graphstore.NodeKindSymbol), args[0])
			impact, err := gstore.GetImpactAnalysis(cmd.Context(), app.repoID, symID, graphDepth)
			if err != nil {
				return err
			}
			return printJSONOrText(cmd, impact, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "direct callers: %d  transitive callers: %d  affected files: %d\n",
					len(impact.DirectCallers), len(impact.TransitiveCallers), len(impact.AffectedFiles))
				for _, f := range impact.AffectedFiles {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", f)
				}
			})
		})
	},
}

func init() {
	graphCmd.PersistentFlags().IntVar(&graphDepth, "depth", 3, "maximum traversal depth")
	graphCmd.PersistentFlags().IntVar(&graphMaxNodes, "max-nodes", 50, "maximum nodes to return")
	graphCmd.AddCommand(graphCallersCmd, graphCalleesCmd, graphNeighborhoodCmd, graphPathCmd, graphImpactCmd)
	rootCmd.AddCommand(graphCmd)
}
