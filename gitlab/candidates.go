package gitlab

import (
	"context"
	"time"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/provider"
)

// Labels lists every label of the project.
func (c *Client) Labels(ctx context.Context) ([]forge.Label, error) {
	labels, err := provider.List[*gl.Label](ctx, c.rest, provider.Request{Path: c.projectPath("labels")})
	if err != nil {
		return nil, c.wrap("list_labels", err)
	}
	out := make([]forge.Label, 0, len(labels))
	for _, l := range labels {
		out = append(out, toLabel(l))
	}
	return out, nil
}

// Milestones lists the project's milestones in state. GitLab calls open milestones active.
func (c *Client) Milestones(ctx context.Context, state forge.MilestoneState) ([]forge.Milestone, error) {
	params := map[string]string{}
	switch state {
	case "", forge.MilestoneOpen:
		params["state"] = "active"
	case forge.MilestoneClosed:
		params["state"] = "closed"
	}

	milestones, err := provider.List[*gl.Milestone](ctx, c.rest, provider.Request{
		Path:   c.projectPath("milestones"),
		Params: params,
	})
	if err != nil {
		return nil, c.wrap("list_milestones", err)
	}
	out := make([]forge.Milestone, 0, len(milestones))
	for _, m := range milestones {
		out = append(out, toMilestone(m))
	}
	return out, nil
}

// Collaborators lists the project members, inherited members included.
func (c *Client) Collaborators(ctx context.Context) ([]forge.User, error) {
	members, err := provider.List[*gl.ProjectMember](ctx, c.rest, provider.Request{Path: c.projectPath("members", "all")})
	if err != nil {
		return nil, c.wrap("list_collaborators", err)
	}
	out := make([]forge.User, 0, len(members))
	for _, m := range members {
		out = append(out, forge.User{
			ID:    int64(m.ID),
			Login: m.Username,
			Name:  m.Name,
		})
	}
	return out, nil
}

// CurrentUser returns the user owning the token.
func (c *Client) CurrentUser(ctx context.Context) (forge.User, error) {
	user, err := provider.Get[*gl.User](ctx, c.rest, provider.Request{Path: "/user"})
	if err != nil {
		return forge.User{}, c.wrap("get_user", err)
	}
	return forge.User{
		ID:    int64(user.ID),
		Login: user.Username,
		Name:  user.Name,
	}, nil
}

func toLabel(l *gl.Label) forge.Label {
	return forge.Label{
		Name:        l.Name,
		Color:       l.Color,
		Description: l.Description,
	}
}

func toMilestone(m *gl.Milestone) forge.Milestone {
	milestone := forge.Milestone{
		ID:     int64(m.ID),
		Number: int(m.IID),
		Title:  m.Title,
		State:  m.State,
		WebURL: m.WebURL,
	}
	if m.DueDate != nil {
		due := time.Time(*m.DueDate)
		milestone.DueOn = &due
	}
	return milestone
}
