package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/forge-flow/workflow"
)

var issueOpts workflow.IssueOptions

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Create and label issues",
}

var issueCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an issue",
	Example: `# Label and assign by name
forge-flow issue create --title "Crash on start" --labels bug,p1 --assignees alice
# Pick the milestone from a list
forge-flow issue create --title "Crash on start" --milestone @`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd, func(ctx context.Context, r *workflow.Runner) error {
			_, err := r.CreateIssue(ctx, issueOpts)
			return err
		})
	},
}

var issueLabels string

var issueLabelCmd = &cobra.Command{
	Use:     "label <number>",
	Short:   "Add labels to an existing issue",
	Example: `forge-flow issue label 12 --labels bug,needs-triage`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid issue number %q: %w", args[0], err)
		}
		return run(cmd, func(ctx context.Context, r *workflow.Runner) error {
			_, err := r.LabelIssue(ctx, number, issueLabels)
			return err
		})
	},
}

func init() {
	root.AddCommand(issueCmd)
	issueCmd.AddCommand(issueCreateCmd, issueLabelCmd)

	issueCreateCmd.Flags().StringVarP(&issueOpts.Title, "title", "t", "", "Issue title")
	issueCreateCmd.Flags().StringVarP(&issueOpts.Body, "body", "b", "", "Issue description")
	issueCreateCmd.Flags().StringVar(&issueOpts.Labels, "labels", "", "Comma separated label names, @ to choose")
	issueCreateCmd.Flags().StringVar(&issueOpts.Milestone, "milestone", "", "Milestone title, @ to choose")
	issueCreateCmd.Flags().StringVar(&issueOpts.Assignees, "assignees", "", "Comma separated logins, @ to choose")
	mustFlag(issueCreateCmd.MarkFlagRequired("title"))

	issueLabelCmd.Flags().StringVar(&issueLabels, "labels", "@", "Comma separated label names, @ to choose")
}
