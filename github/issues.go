package github

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/go-github/v73/github"

	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/provider"
)

// CreateIssue opens an issue with its labels, milestone and assignees in one call.
func (c *Client) CreateIssue(ctx context.Context, input forge.IssueInput) (forge.Issue, error) {
	req := &github.IssueRequest{
		Title: github.Ptr(input.Title),
		Body:  github.Ptr(input.Body),
	}
	applyAttributes(req, input.Labels, input.Milestone, input.Assignees)

	issue, err := provider.Get[*github.Issue](ctx, c.rest, provider.Request{
		Path: c.repoPath("issues"),
		Body: req,
	})
	if err != nil {
		return forge.Issue{}, c.wrap("create_issue", err)
	}
	c.logger.Debug().Int("issue_number", issue.GetNumber()).Msg("Created issue")
	return toIssue(issue), nil
}

// AddIssueLabels adds labels to an existing issue or pull request.
func (c *Client) AddIssueLabels(ctx context.Context, number int, labels []forge.Label) error {
	_, err := provider.Get[[]*github.Label](ctx, c.rest, provider.Request{
		Path: c.repoPath("issues", strconv.Itoa(number), "labels"),
		Body: map[string][]string{"labels": labelNames(labels)},
	})
	return c.wrap("add_issue_labels", err)
}

// MilestoneIssues lists the issues, open and closed, assigned to milestone.
func (c *Client) MilestoneIssues(ctx context.Context, milestone forge.Milestone) ([]forge.Issue, error) {
	items, err := c.milestoneItems(ctx, milestone)
	if err != nil {
		return nil, c.wrap("list_milestone_issues", err)
	}
	issues := make([]forge.Issue, 0, len(items))
	for _, item := range items {
		if !item.IsPullRequest() {
			issues = append(issues, toIssue(item))
		}
	}
	return issues, nil
}

// CreateLabel creates a repository label.
func (c *Client) CreateLabel(ctx context.Context, input forge.LabelInput) (forge.Label, error) {
	label, err := provider.Get[*github.Label](ctx, c.rest, provider.Request{
		Path: c.repoPath("labels"),
		Body: &github.Label{
			Name:        github.Ptr(input.Name),
			Color:       github.Ptr(input.Color),
			Description: github.Ptr(input.Description),
		},
	})
	if err != nil {
		return forge.Label{}, c.wrap("create_label", err)
	}
	return toLabel(label), nil
}

// CloseMilestone marks milestone closed.
func (c *Client) CloseMilestone(ctx context.Context, milestone forge.Milestone) (forge.Milestone, error) {
	closed, err := provider.Get[*github.Milestone](ctx, c.rest, provider.Request{
		Method: http.MethodPatch,
		Path:   c.repoPath("milestones", strconv.Itoa(milestone.Number)),
		Body:   &github.Milestone{State: github.Ptr("closed")},
	})
	if err != nil {
		return forge.Milestone{}, c.wrap("close_milestone", err)
	}
	return toMilestone(closed), nil
}

// milestoneItems lists issues and pull requests of a milestone; GitHub returns both from the issues endpoint.
func (c *Client) milestoneItems(ctx context.Context, milestone forge.Milestone) ([]*github.Issue, error) {
	return provider.List[*github.Issue](ctx, c.rest, provider.Request{
		Path: c.repoPath("issues"),
		Params: map[string]string{
			"milestone": strconv.Itoa(milestone.Number),
			"state":     "all",
		},
	})
}

func applyAttributes(req *github.IssueRequest, labels []forge.Label, milestone *forge.Milestone, assignees []forge.User) {
	if len(labels) > 0 {
		names := labelNames(labels)
		req.Labels = &names
	}
	if milestone != nil {
		req.Milestone = github.Ptr(milestone.Number)
	}
	if len(assignees) > 0 {
		logins := userLogins(assignees)
		req.Assignees = &logins
	}
}

func labelNames(labels []forge.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	return names
}

func userLogins(users []forge.User) []string {
	logins := make([]string, 0, len(users))
	for _, u := range users {
		logins = append(logins, u.Login)
	}
	return logins
}

func toIssue(i *github.Issue) forge.Issue {
	labels := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		labels = append(labels, l.GetName())
	}
	return forge.Issue{
		Number: i.GetNumber(),
		Title:  i.GetTitle(),
		State:  i.GetState(),
		WebURL: i.GetHTMLURL(),
		Labels: labels,
	}
}
