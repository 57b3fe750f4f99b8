package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/controlvector/cv-git/internal/sync"
)

var (
	syncForce    bool
	syncInMemory bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Parse, embed, and index the repository's current state",
	Long: `Walks the repository, diffs it against the last indexed Merkle state,
and parses/embeds/stores whatever changed. Falls back to a full pass when no
prior state exists or --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot, err := requireRepoRoot()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var appOpts []appOption
		if syncInMemory {
			appOpts = append(appOpts, withInMemoryVectorStore())
		}
		app, err := newAppContext(ctx, repoRoot, appOpts...)
		if err != nil {
			return err
		}
		defer app.Close()

		engine := sync.New(app.repoRoot, app.repoID, app.registry, app.markdown, app.embedder, app.vstore, app.gstore, sync.Config{
			ParseWorkers:   app.cfg.Indexer.ParseWorkers,
			EmbedWorkers:   app.cfg.Indexer.EmbedWorkers,
			StoreWorkers:   app.cfg.Indexer.StoreWorkers,
			EmbedBatchSize: app.cfg.Indexer.EmbedBatchSize,
			ChunkSize:      app.cfg.Indexer.ChunkSize,
			ChunkOverlap:   app.cfg.Indexer.ChunkOverlap,
			CancelGrace:    time.Duration(app.cfg.Indexer.CancelGraceSeconds) * time.Second,
		})

		start := time.Now()
		report, err := engine.Run(ctx, syncForce)
		if report == nil {
			return err
		}

		if app.metrics != nil {
			status := "success"
			if !report.Success {
				status = "failure"
			}
			app.metrics.RecordSyncOperation(report.Type, status, time.Since(start))
			app.metrics.RecordFilesProcessed(report.Stats.FilesProcessed)
			app.metrics.RecordFilesFailed(report.Stats.FilesFailed)
			app.metrics.RecordChunksEmbedded(report.Stats.ChunksEmbedded)
			app.metrics.RecordSymbolsIndexed(report.Stats.SymbolsIndexed)
			for _, fe := range report.Errors {
				app.metrics.RecordSyncError(fe.Phase)
			}
		}

		if jsonOutput {
			data, mErr := json.MarshalIndent(report, "", "  ")
			if mErr != nil {
				return mErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s sync completed in %s\n", report.Type, report.Duration.Round(time.Millisecond))
		fmt.Fprintf(cmd.OutOrStdout(), "  files processed: %d  failed: %d\n", report.Stats.FilesProcessed, report.Stats.FilesFailed)
		fmt.Fprintf(cmd.OutOrStdout(), "  chunks embedded: %d  symbols indexed: %d\n", report.Stats.ChunksEmbedded, report.Stats.SymbolsIndexed)
		for _, fe := range report.Errors {
			fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s: %s\n", fe.Phase, fe.File, fe.Error)
		}
		if !report.Success {
			return err
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "force a full resync, ignoring prior Merkle state")
	syncCmd.Flags().Bool("incremental", true, "perform an incremental sync when prior state exists (default)")
	syncCmd.Flags().BoolVar(&syncInMemory, "in-memory", false, "use a disposable in-memory vector store instead of qdrant/sqlite")
	rootCmd.AddCommand(syncCmd)
}
