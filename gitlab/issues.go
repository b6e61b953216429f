package gitlab

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/provider"
)

// issueBody is the create issue payload. Labels travel as one comma separated string.
type issueBody struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Labels      string  `json:"labels,omitempty"`
	MilestoneID int64   `json:"milestone_id,omitempty"`
	AssigneeIDs []int64 `json:"assignee_ids,omitempty"`
}

type labelBody struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
}

// DefaultLabelColor is used when a label is created without a color.
const DefaultLabelColor = "#ededed"

// CreateIssue opens an issue with its labels, milestone and assignees in one call.
func (c *Client) CreateIssue(ctx context.Context, input forge.IssueInput) (forge.Issue, error) {
	body := issueBody{
		Title:       input.Title,
		Description: input.Body,
		Labels:      joinLabels(input.Labels),
		AssigneeIDs: userIDs(input.Assignees),
	}
	if input.Milestone != nil {
		body.MilestoneID = input.Milestone.ID
	}

	issue, err := provider.Get[*gl.Issue](ctx, c.rest, provider.Request{
		Path: c.projectPath("issues"),
		Body: body,
	})
	if err != nil {
		return forge.Issue{}, c.wrap("create_issue", err)
	}
	c.logger.Debug().Int("issue_iid", int(issue.IID)).Msg("Created issue")
	return toIssue(issue), nil
}

// AddIssueLabels is not offered for GitLab.
func (c *Client) AddIssueLabels(context.Context, int, []forge.Label) error {
	return &forge.UnsupportedOperationError{Provider: provider.GitLab, Operation: "add_issue_labels"}
}

// MilestoneIssues lists the issues assigned to milestone.
func (c *Client) MilestoneIssues(ctx context.Context, milestone forge.Milestone) ([]forge.Issue, error) {
	issues, err := provider.List[*gl.Issue](ctx, c.rest, provider.Request{
		Path: c.projectPath("milestones", strconv.FormatInt(milestone.ID, 10), "issues"),
	})
	if err != nil {
		return nil, c.wrap("list_milestone_issues", err)
	}
	out := make([]forge.Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, toIssue(i))
	}
	return out, nil
}

// CreateLabel creates a project label.
func (c *Client) CreateLabel(ctx context.Context, input forge.LabelInput) (forge.Label, error) {
	color := input.Color
	switch {
	case color == "":
		color = DefaultLabelColor
	case !strings.HasPrefix(color, "#"):
		color = "#" + color
	}

	label, err := provider.Get[*gl.Label](ctx, c.rest, provider.Request{
		Path: c.projectPath("labels"),
		Body: labelBody{Name: input.Name, Color: color, Description: input.Description},
	})
	if err != nil {
		return forge.Label{}, c.wrap("create_label", err)
	}
	return toLabel(label), nil
}

// CloseMilestone marks milestone closed.
func (c *Client) CloseMilestone(ctx context.Context, milestone forge.Milestone) (forge.Milestone, error) {
	closed, err := provider.Get[*gl.Milestone](ctx, c.rest, provider.Request{
		Method: http.MethodPut,
		Path:   c.projectPath("milestones", strconv.FormatInt(milestone.ID, 10)),
		Body:   map[string]string{"state_event": "close"},
	})
	if err != nil {
		return forge.Milestone{}, c.wrap("close_milestone", err)
	}
	return toMilestone(closed), nil
}

func joinLabels(labels []forge.Label) string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	return strings.Join(names, ",")
}

func userIDs(users []forge.User) []int64 {
	if len(users) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func toIssue(i *gl.Issue) forge.Issue {
	return forge.Issue{
		Number: int(i.IID),
		Title:  i.Title,
		State:  i.State,
		WebURL: i.WebURL,
		Labels: []string(i.Labels),
	}
}
