package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/controlvector/cv-git/internal/platform"
)

var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Create and manage pull requests on the repository's hosting platform",
}

func withPlatform(cmd *cobra.Command, fn func(app *appContext, adapter platform.Adapter, owner, repo string) error) error {
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
	owner, repo, err := app.originOwnerRepo()
	if err != nil {
		return err
	}
	return fn(app, adapter, owner, repo)
}

var (
	prTitle string
	prBody  string
	prHead  string
	prBase  string
	prDraft bool
)

var prCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a pull request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlatform(cmd, func(app *appContext, adapter platform.Adapter, owner, repo string) error {
			created, err := adapter.CreatePullRequest(cmd.Context(), owner, repo, platform.PullRequest{
				Title: prTitle,
				Body:  prBody,
				Head:  prHead,
				Base:  prBase,
				Draft: prDraft,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%d %s (%s)\n", created.Number, created.Title, created.URL)
			return nil
		})
	},
}

var prListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pull requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlatform(cmd, func(app *appContext, adapter platform.Adapter, owner, repo string) error {
			prs, err := adapter.ListPullRequests(cmd.Context(), owner, repo, platform.PullRequestOpen)
			if err != nil {
				return err
			}
			return printJSONOrText(cmd, prs, func() {
				for _, pr := range prs {
					fmt.Fprintf(cmd.OutOrStdout(), "#%d  %s  %s\n", pr.Number, pr.State, pr.Title)
				}
			})
		})
	},
}

var prViewCmd = &cobra.Command{
	Use:   "view <number>",
	Short: "Show one pull request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid PR number %q", args[0])
		}
		return withPlatform(cmd, func(app *appContext, adapter platform.Adapter, owner, repo string) error {
			pr, err := adapter.GetPullRequest(cmd.Context(), owner, repo, number)
			if err != nil {
				return err
			}
			return printJSONOrText(cmd, pr, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d %s (%s)\n%s\n", pr.Number, pr.Title, pr.State, pr.Body)
			})
		})
	},
}

var prMergeCmd = &cobra.Command{
	Use:   "merge <number>",
	Short: "Merge a pull request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid PR number %q", args[0])
		}
		return withPlatform(cmd, func(app *appContext, adapter platform.Adapter, owner, repo string) error {
			if err := adapter.MergePullRequest(cmd.Context(), owner, repo, number); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "merged #%d\n", number)
			return nil
		})
	},
}

var prUpdateCmd = &cobra.Command{
	Use:   "update <number>",
	Short: "Update a pull request's title/body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid PR number %q", args[0])
		}
		return withPlatform(cmd, func(app *appContext, adapter platform.Adapter, owner, repo string) error {
			updated, err := adapter.UpdatePullRequest(cmd.Context(), owner, repo, number, platform.PullRequest{
				Title: prTitle,
				Body:  prBody,
			})
			if err != nil {
				return err
			}
			data, mErr := json.MarshalIndent(updated, "", "  ")
			if mErr != nil {
				return mErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

func init() {
	prCreateCmd.Flags().StringVar(&prTitle, "title", "", "pull request title")
	prCreateCmd.Flags().StringVar(&prBody, "body", "", "pull request description")
	prCreateCmd.Flags().StringVar(&prHead, "head", "", "source branch")
	prCreateCmd.Flags().StringVar(&prBase, "base", "", "target branch")
	prCreateCmd.Flags().BoolVar(&prDraft, "draft", false, "open as a draft pull request")

	prUpdateCmd.Flags().StringVar(&prTitle, "title", "", "new title")
	prUpdateCmd.Flags().StringVar(&prBody, "body", "", "new description")

	prCmd.AddCommand(prCreateCmd, prListCmd, prViewCmd, prMergeCmd, prUpdateCmd)
	rootCmd.AddCommand(prCmd)
}
