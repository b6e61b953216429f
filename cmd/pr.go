package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/forge-flow/workflow"
)

var prOpts workflow.PullRequestOptions

var prCmd = &cobra.Command{
	Use:     "pr",
	Aliases: []string{"mr"},
	Short:   "Open pull requests and enable auto-merge",
}

var prCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish the current branch and open a pull request for it",
	Long: `Publish the current branch and open a pull request for it.

The branch is pushed first. If the remote branch has commits that are not in your local branch,
you are asked whether to force-push, look at the diff, or quit. Nothing is ever force-pushed
without that answer.

With --auto-merge, auto-merge is enabled using the first method the repository allows out of
merge commit, squash and rebase. Failing to enable it leaves the pull request open and only
logs a warning.`,
	Example: `forge-flow pr create --labels bug --reviewers @ --auto-merge
forge-flow pr create --base release-1.2 --draft --title "Backport crash fix"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd, func(ctx context.Context, r *workflow.Runner) error {
			_, err := r.CreatePullRequest(ctx, prOpts)
			return err
		})
	},
}

var prMergeCmd = &cobra.Command{
	Use:   "merge [number]",
	Short: "Enable auto-merge on a pull request",
	Long: `Enable auto-merge on a pull request, the open pull request of the current branch when no
number is given. The first method the repository allows out of merge commit, squash and rebase is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number := 0
		if len(args) == 1 {
			var err error
			if number, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("invalid pull request number %q: %w", args[0], err)
			}
		}
		return run(cmd, func(ctx context.Context, r *workflow.Runner) error {
			_, err := r.MergePullRequest(ctx, number)
			return err
		})
	},
}

func init() {
	root.AddCommand(prCmd)
	prCmd.AddCommand(prCreateCmd, prMergeCmd)

	flags := prCreateCmd.Flags()
	flags.StringVarP(&prOpts.Title, "title", "t", "", "Pull request title, defaults to the title template")
	flags.StringVarP(&prOpts.Body, "body", "b", "", "Pull request description, defaults to the body template")
	flags.StringVar(&prOpts.Base, "base", "", "Target branch, defaults to the main branch")
	flags.BoolVar(&prOpts.Draft, "draft", false, "Open as a draft")
	flags.StringVar(&prOpts.Labels, "labels", "", "Comma separated label names, @ to choose")
	flags.StringVar(&prOpts.Milestone, "milestone", "", "Milestone title, @ to choose")
	flags.StringVar(&prOpts.Assignees, "assignees", "", "Comma separated logins, @ to choose")
	flags.StringVar(&prOpts.Reviewers, "reviewers", "", "Comma separated logins, @ to choose")
	flags.BoolVar(&prOpts.AutoMerge, "auto-merge", false, "Enable auto-merge once the pull request is open")
}
