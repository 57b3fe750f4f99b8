package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/controlvector/cv-git/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize cv-git state for the enclosing repository",
	Long:  `Creates .cv/ under the repository root with a default repo-scoped config.json.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot, err := requireRepoRoot()
		if err != nil {
			return err
		}

		dataDir := filepath.Join(repoRoot, ".cv")
		if err := os.MkdirAll(filepath.Join(dataDir, "documents"), 0o755); err != nil {
			return fmt.Errorf("create .cv directory: %w", err)
		}

		repoCfgPath := config.RepoConfigPath(repoRoot)
		if _, err := os.Stat(repoCfgPath); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "already initialized: %s\n", repoCfgPath)
			return nil
		}

		cfg := config.Defaults()
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal default config: %w", err)
		}
		if err := os.WriteFile(repoCfgPath, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", repoCfgPath, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "initialized cv-git at %s\n", dataDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
