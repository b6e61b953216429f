package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/selection"
	"github.com/smartcontractkit/forge-flow/workflow"
)

var milestoneState string

var milestoneCmd = &cobra.Command{
	Use:   "milestone",
	Short: "Close, list and inspect milestones",
}

// milestonePattern is the first argument, or the manual selection sentinel.
func milestonePattern(args []string) string {
	if len(args) == 0 {
		return selection.ManualSentinel
	}
	return args[0]
}

var milestoneCloseCmd = &cobra.Command{
	Use:   "close [title]",
	Short: "Close an open milestone, chosen from a list when no title is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, r *workflow.Runner) error {
			_, err := r.CloseMilestone(ctx, milestonePattern(args))
			return err
		})
	},
}

var milestoneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List milestones with their due dates",
	Args:  cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		states := []forge.MilestoneState{forge.MilestoneOpen, forge.MilestoneClosed, forge.MilestoneAll}
		if !slices.Contains(states, forge.MilestoneState(milestoneState)) {
			return fmt.Errorf("invalid state %q, use open, closed or all", milestoneState)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd, func(ctx context.Context, r *workflow.Runner) error {
			_, err := r.ListMilestones(ctx, forge.MilestoneState(milestoneState))
			return err
		})
	},
}

var milestoneShowCmd = &cobra.Command{
	Use:   "show [title]",
	Short: "Show the issues and pull requests of an open milestone",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, r *workflow.Runner) error {
			_, err := r.ShowMilestone(ctx, milestonePattern(args))
			return err
		})
	},
}

func init() {
	root.AddCommand(milestoneCmd)
	milestoneCmd.AddCommand(milestoneCloseCmd, milestoneListCmd, milestoneShowCmd)

	milestoneListCmd.Flags().StringVar(&milestoneState, "state", string(forge.MilestoneOpen), "open, closed or all")
}
