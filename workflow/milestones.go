package workflow

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/selection"
)

// MilestoneReport is a milestone with the issues and pull requests assigned to it.
type MilestoneReport struct {
	Milestone    forge.Milestone
	Issues       []forge.Issue
	PullRequests []forge.PullRequest
}

// CloseMilestone resolves pattern among the open milestones and closes the match.
func (r *Runner) CloseMilestone(ctx context.Context, pattern string) (forge.Milestone, error) {
	var closed forge.Milestone
	err := r.track(ctx, MilestoneClose, func(l zerolog.Logger) error {
		milestone, err := r.resolveMilestone(ctx, pattern)
		if err != nil {
			return err
		}
		closed, err = r.provider.CloseMilestone(ctx, milestone)
		if err != nil {
			return err
		}
		l.Info().Str("milestone", closed.Title).Msg("Closed milestone")
		r.printf("%s\t%s\n", closed.Title, closed.State)
		return nil
	})
	return closed, err
}

// ListMilestones prints milestones in state with their due dates.
func (r *Runner) ListMilestones(ctx context.Context, state forge.MilestoneState) ([]forge.Milestone, error) {
	var milestones []forge.Milestone
	err := r.track(ctx, MilestoneList, func(l zerolog.Logger) error {
		if state == "" {
			state = forge.MilestoneOpen
		}
		var err error
		milestones, err = r.provider.Milestones(ctx, state)
		if err != nil {
			return err
		}
		l.Debug().Int("count", len(milestones)).Str("state", string(state)).Msg("Listed milestones")
		for _, m := range milestones {
			due := "-"
			if m.DueOn != nil {
				due = m.DueOn.Format("2006-01-02")
			}
			r.printf("%s\t%s\t%s\n", m.Title, due, m.State)
		}
		return nil
	})
	return milestones, err
}

// ShowMilestone resolves pattern among the open milestones and lists its issues and pull requests,
// fetched in parallel.
func (r *Runner) ShowMilestone(ctx context.Context, pattern string) (MilestoneReport, error) {
	var report MilestoneReport
	err := r.track(ctx, MilestoneShow, func(l zerolog.Logger) error {
		milestone, err := r.resolveMilestone(ctx, pattern)
		if err != nil {
			return err
		}
		report.Milestone = milestone

		var group errgroup.Group
		group.Go(func() error {
			issues, err := r.provider.MilestoneIssues(ctx, milestone)
			if err != nil {
				return fmt.Errorf("failed to list issues of %s: %w", milestone.Title, err)
			}
			report.Issues = issues
			return nil
		})
		group.Go(func() error {
			prs, err := r.provider.MilestonePullRequests(ctx, milestone)
			if err != nil {
				return fmt.Errorf("failed to list pull requests of %s: %w", milestone.Title, err)
			}
			report.PullRequests = prs
			return nil
		})
		if err := group.Wait(); err != nil {
			return err
		}

		l.Debug().
			Str("milestone", milestone.Title).
			Int("issues", len(report.Issues)).
			Int("pull_requests", len(report.PullRequests)).
			Msg("Fetched milestone contents")

		r.printf("%s\n", milestone.Title)
		r.printf("Issues:\n")
		for _, issue := range report.Issues {
			r.printf("  #%d\t%s\t%s\n", issue.Number, issue.State, issue.Title)
		}
		r.printf("Pull requests:\n")
		for _, pr := range report.PullRequests {
			r.printf("  #%d\t%s\t%s\n", pr.Number, pr.State, pr.Title)
		}
		return nil
	})
	return report, err
}

func (r *Runner) resolveMilestone(ctx context.Context, pattern string) (forge.Milestone, error) {
	resolver := r.newResolver(ctx)
	err := resolver.Submit(selection.AttributeRequest{
		Kind:        selection.KindMilestone,
		DisplayName: milestoneName,
		Pattern:     pattern,
		Cardinality: selection.Single,
	})
	if err != nil {
		return forge.Milestone{}, err
	}
	attrs, err := r.resolveAttributes(resolver)
	if err != nil {
		return forge.Milestone{}, err
	}
	if attrs.milestone == nil {
		return forge.Milestone{}, ErrNoMilestoneSelected
	}
	return *attrs.milestone, nil
}
