package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/controlvector/cv-git/internal/credential"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored credentials for platforms and AI providers",
}

var authToken string

var authSetupCmd = &cobra.Command{
	Use:   "setup <service>",
	Short: "Store a credential for <service> (github, gitlab, anthropic, openai, openrouter, ...)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot, err := requireRepoRoot()
		if err != nil {
			return err
		}
		cfg, err := loadCfgOnly(cmd, repoRoot)
		if err != nil {
			return err
		}
		credStore, err := openCredentialStore(cfg)
		if err != nil {
			return err
		}

		credType, err := credentialTypeForService(args[0])
		if err != nil {
			return err
		}

		value := authToken
		if value == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "enter token for %s: ", args[0])
			reader := bufio.NewReader(cmd.InOrStdin())
			line, _ := reader.ReadString('\n')
			value = strings.TrimSpace(line)
		}

		err = credStore.Set(cmd.Context(), credential.Credential{
			Metadata: credential.Metadata{
				Type: credType,
				Name: "default",
			},
			Value: value,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored credential for %s (backend: %s)\n", args[0], credStore.GetStorageBackend())
		return nil
	},
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials (metadata only, never secret values)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot, err := requireRepoRoot()
		if err != nil {
			return err
		}
		cfg, err := loadCfgOnly(cmd, repoRoot)
		if err != nil {
			return err
		}
		credStore, err := openCredentialStore(cfg)
		if err != nil {
			return err
		}

		entries := credStore.List(cmd.Context())
		if jsonOutput {
			data, mErr := json.MarshalIndent(entries, "", "  ")
			if mErr != nil {
				return mErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  type=%s  lastUsed=%s\n", e.ID, e.Type, e.LastUsed)
		}
		return nil
	},
}

var authTestCmd = &cobra.Command{
	Use:   "test [service]",
	Short: "Validate the stored platform token by calling the hosting API",
	Args:  cobra.MaximumNArgs(1),
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

		adapter, err := app.platformAdapter(ctx)
		if err != nil {
			return err
		}
		if err := adapter.Init(ctx); err != nil {
			return err
		}
		info, err := adapter.ValidateToken(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			data, mErr := json.MarshalIndent(info, "", "  ")
			if mErr != nil {
				return mErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: authenticated against %s\n", adapter.Platform())
		return nil
	},
}

func credentialTypeForService(service string) (credential.Type, error) {
	switch strings.ToLower(service) {
	case "github":
		return credential.TypeGitHubToken, nil
	case "gitlab":
		return credential.TypeGitLabToken, nil
	case "anthropic":
		return credential.TypeAnthropicKey, nil
	case "openai":
		return credential.TypeOpenAIKey, nil
	case "openrouter":
		return credential.TypeOpenRouterKey, nil
	case "cloudflare":
		return credential.TypeCloudflare, nil
	case "aws":
		return credential.TypeAWS, nil
	case "digitalocean":
		return credential.TypeDigitalOcean, nil
	case "npm":
		return credential.TypeNPM, nil
	default:
		return "", fmt.Errorf("unknown service %q", service)
	}
}

func init() {
	authSetupCmd.Flags().StringVar(&authToken, "token", "", "credential value (prompted on stdin if omitted)")
	authCmd.AddCommand(authSetupCmd, authListCmd, authTestCmd)
	rootCmd.AddCommand(authCmd)
}
