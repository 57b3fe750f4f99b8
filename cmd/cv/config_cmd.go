package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/controlvector/cv-git/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit cv-git configuration",
}

// configAsMap round-trips cfg through JSON to get a dotted-path-addressable
// tree, since Config's fields are nested structs rather than a flat map.
func configAsMap(cfg *config.Config) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func lookupDotted(m map[string]interface{}, key string) (interface{}, bool) {
	parts := strings.Split(key, ".")
	var cur interface{} = m
	for _, p := range parts {
		node, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = node[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func setDotted(m map[string]interface{}, key string, value interface{}) error {
	parts := strings.Split(key, ".")
	cur := m
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]interface{})
		if !ok {
			return fmt.Errorf("unknown config section %q", p)
		}
		cur = next
	}
	last := parts[len(parts)-1]
	if _, ok := cur[last]; !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	cur[last] = value
	return nil
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value (dotted path, e.g. ai.provider)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot, err := requireRepoRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(cmd.Context(), repoRoot)
		if err != nil {
			return err
		}
		m, err := configAsMap(cfg)
		if err != nil {
			return err
		}
		val, ok := lookupDotted(m, args[0])
		if !ok {
			return fmt.Errorf("unknown config key %q", args[0])
		}
		data, err := json.Marshal(val)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one configuration value in the repo-scoped config.json",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot, err := requireRepoRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(cmd.Context(), repoRoot)
		if err != nil {
			return err
		}
		m, err := configAsMap(cfg)
		if err != nil {
			return err
		}

		var value interface{}
		if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
			value = args[1] // plain string, not JSON-encoded
		}
		if err := setDotted(m, args[0], value); err != nil {
			return err
		}

		merged, err := json.Marshal(m)
		if err != nil {
			return err
		}
		var updated config.Config
		if err := json.Unmarshal(merged, &updated); err != nil {
			return err
		}
		if err := updated.Validate(); err != nil {
			return err
		}

		data, err := json.MarshalIndent(&updated, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(config.RepoConfigPath(repoRoot), data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the fully merged configuration as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot, err := requireRepoRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(cmd.Context(), repoRoot)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the repo-scoped config.json to defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot, err := requireRepoRoot()
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(config.Defaults(), "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(config.RepoConfigPath(repoRoot), data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reset %s to defaults\n", config.RepoConfigPath(repoRoot))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the repo-scoped and global config file paths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot, err := requireRepoRoot()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "repo:   %s\n", config.RepoConfigPath(repoRoot))
		fmt.Fprintf(cmd.OutOrStdout(), "global: %s\n", config.GlobalConfigPath())
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Print the repo-scoped config path for editing ($EDITOR integration not implemented)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot, err := requireRepoRoot()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.RepoConfigPath(repoRoot))
		return nil
	},
}

var (
	privilegeMode       string
	privilegeAllowSudo  bool
	privilegeWarnOnRoot bool
)

var configPrivilegeCmd = &cobra.Command{
	Use:   "privilege",
	Short: "View or update the privilege-escalation policy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot, err := requireRepoRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(cmd.Context(), repoRoot)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("mode") && !cmd.Flags().Changed("allow-sudo") && !cmd.Flags().Changed("warn-on-root") {
			data, err := json.MarshalIndent(cfg.Privilege, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		if cmd.Flags().Changed("mode") {
			cfg.Privilege.Mode = privilegeMode
		}
		if cmd.Flags().Changed("allow-sudo") {
			cfg.Privilege.AllowSudo = privilegeAllowSudo
		}
		if cmd.Flags().Changed("warn-on-root") {
			cfg.Privilege.WarnOnRoot = privilegeWarnOnRoot
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(config.RepoConfigPath(repoRoot), data, 0o644)
	},
}

var configGlobalInitCmd = &cobra.Command{
	Use:   "global-init",
	Short: "Create the per-user global config under $HOME",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GlobalConfigPath()
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "already exists: %s\n", path)
			return nil
		}
		data, err := json.MarshalIndent(config.Defaults(), "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
		return nil
	},
}

func init() {
	configPrivilegeCmd.Flags().StringVar(&privilegeMode, "mode", "", "privilege mode: auto|user|root")
	configPrivilegeCmd.Flags().BoolVar(&privilegeAllowSudo, "allow-sudo", false, "allow sudo re-exec when required")
	configPrivilegeCmd.Flags().BoolVar(&privilegeWarnOnRoot, "warn-on-root", true, "warn when running as root")

	configCmd.AddCommand(configGetCmd, configSetCmd, configListCmd, configResetCmd, configEditCmd, configPathCmd, configPrivilegeCmd, configGlobalInitCmd)
	rootCmd.AddCommand(configCmd)
}
