package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlvector/cv-git/internal/platform"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Create and manage releases on the repository's hosting platform",
}

var (
	releaseName       string
	releaseBody       string
	releaseDraft      bool
	releasePrerelease bool
)

var releaseCreateCmd = &cobra.Command{
	Use:   "create <tag>",
	Short: "Create a release",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlatform(cmd, func(app *appContext, adapter platform.Adapter, owner, repo string) error {
			created, err := adapter.CreateRelease(cmd.Context(), owner, repo, platform.Release{
				TagName:    args[0],
				Name:       releaseName,
				Body:       releaseBody,
				Draft:      releaseDraft,
				Prerelease: releasePrerelease,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", created.TagName, created.URL)
			return nil
		})
	},
}

var releaseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List releases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlatform(cmd, func(app *appContext, adapter platform.Adapter, owner, repo string) error {
			releases, err := adapter.ListReleases(cmd.Context(), owner, repo)
			if err != nil {
				return err
			}
			return printJSONOrText(cmd, releases, func() {
				for _, r := range releases {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", r.TagName, r.Name)
				}
			})
		})
	},
}

var releaseViewCmd = &cobra.Command{
	Use:   "view <tag>",
	Short: "Show one release",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlatform(cmd, func(app *appContext, adapter platform.Adapter, owner, repo string) error {
			rel, err := adapter.GetRelease(cmd.Context(), owner, repo, args[0])
			if err != nil {
				return err
			}
			return printJSONOrText(cmd, rel, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s\n", rel.TagName, rel.Name, rel.Body)
			})
		})
	},
}

var releaseDeleteCmd = &cobra.Command{
	Use:   "delete <tag>",
	Short: "Delete a release",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlatform(cmd, func(app *appContext, adapter platform.Adapter, owner, repo string) error {
			if err := adapter.DeleteRelease(cmd.Context(), owner, repo, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

var releasePublishCmd = &cobra.Command{
	Use:   "publish <tag>",
	Short: "Publish a draft release (clears the draft flag)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlatform(cmd, func(app *appContext, adapter platform.Adapter, owner, repo string) error {
			existing, err := adapter.GetRelease(cmd.Context(), owner, repo, args[0])
			if err != nil {
				return err
			}
			existing.Draft = false
			if err := adapter.DeleteRelease(cmd.Context(), owner, repo, args[0]); err != nil {
				return err
			}
			published, err := adapter.CreateRelease(cmd.Context(), owner, repo, *existing)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", published.TagName)
			return nil
		})
	},
}

func init() {
	releaseCreateCmd.Flags().StringVar(&releaseName, "name", "", "release title")
	releaseCreateCmd.Flags().StringVar(&releaseBody, "body", "", "release notes")
	releaseCreateCmd.Flags().BoolVar(&releaseDraft, "draft", false, "create as a draft")
	releaseCreateCmd.Flags().BoolVar(&releasePrerelease, "prerelease", false, "mark as a prerelease")

	releaseCmd.AddCommand(releaseCreateCmd, releaseListCmd, releaseViewCmd, releaseDeleteCmd, releasePublishCmd)
	rootCmd.AddCommand(releaseCmd)
}
