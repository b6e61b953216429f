package github

import (
	"context"

	"github.com/google/go-github/v73/github"

	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/provider"
)

// Labels lists every label of the repository.
func (c *Client) Labels(ctx context.Context) ([]forge.Label, error) {
	labels, err := provider.List[*github.Label](ctx, c.rest, provider.Request{Path: c.repoPath("labels")})
	if err != nil {
		return nil, c.wrap("list_labels", err)
	}
	out := make([]forge.Label, 0, len(labels))
	for _, l := range labels {
		out = append(out, toLabel(l))
	}
	return out, nil
}

// Milestones lists the repository's milestones in state.
func (c *Client) Milestones(ctx context.Context, state forge.MilestoneState) ([]forge.Milestone, error) {
	if state == "" {
		state = forge.MilestoneOpen
	}
	milestones, err := provider.List[*github.Milestone](ctx, c.rest, provider.Request{
		Path:   c.repoPath("milestones"),
		Params: map[string]string{"state": string(state)},
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

// Collaborators lists the users with access to the repository.
func (c *Client) Collaborators(ctx context.Context) ([]forge.User, error) {
	users, err := provider.List[*github.User](ctx, c.rest, provider.Request{Path: c.repoPath("collaborators")})
	if err != nil {
		return nil, c.wrap("list_collaborators", err)
	}
	out := make([]forge.User, 0, len(users))
	for _, u := range users {
		out = append(out, toUser(u))
	}
	return out, nil
}

// CurrentUser returns the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (forge.User, error) {
	user, err := provider.Get[*github.User](ctx, c.rest, provider.Request{Path: "/user"})
	if err != nil {
		return forge.User{}, c.wrap("get_user", err)
	}
	return toUser(user), nil
}

func toLabel(l *github.Label) forge.Label {
	return forge.Label{
		Name:        l.GetName(),
		Color:       l.GetColor(),
		Description: l.GetDescription(),
	}
}

func toMilestone(m *github.Milestone) forge.Milestone {
	milestone := forge.Milestone{
		ID:     m.GetID(),
		Number: m.GetNumber(),
		Title:  m.GetTitle(),
		State:  m.GetState(),
		WebURL: m.GetHTMLURL(),
	}
	if m.DueOn != nil {
		due := m.DueOn.Time
		milestone.DueOn = &due
	}
	return milestone
}

func toUser(u *github.User) forge.User {
	return forge.User{
		ID:    u.GetID(),
		Login: u.GetLogin(),
		Name:  u.GetName(),
	}
}
