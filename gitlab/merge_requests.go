package gitlab

import (
	"context"
	"fmt"
	"strconv"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/provider"
)

// draftPrefix marks a merge request as draft through its title.
const draftPrefix = "Draft: "

type mergeRequestBody struct {
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	SourceBranch    string  `json:"source_branch"`
	TargetBranch    string  `json:"target_branch"`
	TargetProjectID int64   `json:"target_project_id,omitempty"`
	Labels          string  `json:"labels,omitempty"`
	MilestoneID     int64   `json:"milestone_id,omitempty"`
	AssigneeIDs     []int64 `json:"assignee_ids,omitempty"`
	ReviewerIDs     []int64 `json:"reviewer_ids,omitempty"`
}

// CreatePullRequest opens a merge request with every attribute in one call.
// When the client targets the upstream of a fork, the request is created on the fork
// with the upstream project as target.
func (c *Client) CreatePullRequest(ctx context.Context, input forge.PullRequestInput) (forge.PullRequest, error) {
	title := input.Title
	if input.Draft {
		title = draftPrefix + title
	}
	body := mergeRequestBody{
		Title:        title,
		Description:  input.Body,
		SourceBranch: input.Head,
		TargetBranch: input.Base,
		Labels:       joinLabels(input.Labels),
		AssigneeIDs:  userIDs(input.Assignees),
		ReviewerIDs:  userIDs(input.Reviewers),
	}
	if input.Milestone != nil {
		body.MilestoneID = input.Milestone.ID
	}

	path := c.projectPath("merge_requests")
	if c.repo.IsUpstream && c.repo.ForkOwner != "" {
		upstream, err := provider.Get[*gl.Project](ctx, c.rest, provider.Request{Path: c.projectPath()})
		if err != nil {
			return forge.PullRequest{}, c.wrap("get_upstream_project", err)
		}
		body.TargetProjectID = int64(upstream.ID)
		fork := provider.RepositoryPath{Owner: c.repo.ForkOwner, Name: c.repo.Name}
		path = projectPathOf(fork.ProjectID(), "merge_requests")
	}

	mr, err := provider.Get[*gl.MergeRequest](ctx, c.rest, provider.Request{Path: path, Body: body})
	if err != nil {
		return forge.PullRequest{}, c.wrap("create_pull_request", err)
	}
	pr := toPullRequest(mr)
	c.logger.Debug().Int("mr_iid", pr.Number).Str("url", pr.WebURL).Msg("Created merge request")
	return pr, nil
}

// GetPullRequest fetches a merge request by iid.
func (c *Client) GetPullRequest(ctx context.Context, number int) (forge.PullRequest, error) {
	mr, err := provider.Get[*gl.MergeRequest](ctx, c.rest, provider.Request{
		Path: c.projectPath("merge_requests", strconv.Itoa(number)),
	})
	if err != nil {
		return forge.PullRequest{}, c.wrap("get_pull_request", err)
	}
	return toPullRequest(mr), nil
}

// FindPullRequest returns the opened merge request whose source branch is head.
func (c *Client) FindPullRequest(ctx context.Context, head string) (forge.PullRequest, error) {
	mrs, err := provider.Get[[]*gl.MergeRequest](ctx, c.rest, provider.Request{
		Path: c.projectPath("merge_requests"),
		Params: map[string]string{
			"state":         "opened",
			"source_branch": head,
		},
	})
	if err != nil {
		return forge.PullRequest{}, c.wrap("find_pull_request", err)
	}
	if len(mrs) == 0 {
		return forge.PullRequest{}, fmt.Errorf("%w for branch %s", forge.ErrPullRequestNotFound, head)
	}
	return toPullRequest(mrs[0]), nil
}

// MilestonePullRequests lists the merge requests assigned to milestone.
func (c *Client) MilestonePullRequests(ctx context.Context, milestone forge.Milestone) ([]forge.PullRequest, error) {
	mrs, err := provider.List[*gl.MergeRequest](ctx, c.rest, provider.Request{
		Path: c.projectPath("milestones", strconv.FormatInt(milestone.ID, 10), "merge_requests"),
	})
	if err != nil {
		return nil, c.wrap("list_milestone_pull_requests", err)
	}
	out := make([]forge.PullRequest, 0, len(mrs))
	for _, mr := range mrs {
		out = append(out, toPullRequest(mr))
	}
	return out, nil
}

func toPullRequest(mr *gl.MergeRequest) forge.PullRequest {
	iid := int(mr.IID)
	return forge.PullRequest{
		ID:     strconv.Itoa(iid),
		Number: iid,
		Title:  mr.Title,
		State:  mr.State,
		Draft:  mr.Draft,
		Head:   mr.SourceBranch,
		Base:   mr.TargetBranch,
		WebURL: mr.WebURL,
	}
}
