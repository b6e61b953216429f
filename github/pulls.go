package github

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/go-github/v73/github"

	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/provider"
)

// CreatePullRequest opens a pull request, then applies its attributes.
// GitHub does not accept labels, milestone or assignees on creation, they are set with an issue update.
// A failure after creation leaves the pull request in place.
func (c *Client) CreatePullRequest(ctx context.Context, input forge.PullRequestInput) (forge.PullRequest, error) {
	created, err := provider.Get[*github.PullRequest](ctx, c.rest, provider.Request{
		Path: c.repoPath("pulls"),
		Body: &github.NewPullRequest{
			Title: github.Ptr(input.Title),
			Head:  github.Ptr(c.qualifiedHead(input.Head)),
			Base:  github.Ptr(input.Base),
			Body:  github.Ptr(input.Body),
			Draft: github.Ptr(input.Draft),
		},
	})
	if err != nil {
		return forge.PullRequest{}, c.wrap("create_pull_request", err)
	}
	pr := toPullRequest(created)
	c.logger.Debug().Int("pr_number", pr.Number).Str("url", pr.WebURL).Msg("Created pull request")

	update := &github.IssueRequest{}
	applyAttributes(update, input.Labels, input.Milestone, input.Assignees)
	if update.Labels != nil || update.Milestone != nil || update.Assignees != nil {
		_, err = provider.Get[*github.Issue](ctx, c.rest, provider.Request{
			Method: http.MethodPatch,
			Path:   c.repoPath("issues", strconv.Itoa(pr.Number)),
			Body:   update,
		})
		if err != nil {
			return pr, c.wrap("update_pull_request_attributes", err)
		}
	}

	if len(input.Reviewers) > 0 {
		_, err = provider.Get[*github.PullRequest](ctx, c.rest, provider.Request{
			Path: c.repoPath("pulls", strconv.Itoa(pr.Number), "requested_reviewers"),
			Body: &github.ReviewersRequest{Reviewers: userLogins(input.Reviewers)},
		})
		if err != nil {
			return pr, c.wrap("request_reviewers", err)
		}
	}
	return pr, nil
}

// GetPullRequest fetches a pull request by number.
func (c *Client) GetPullRequest(ctx context.Context, number int) (forge.PullRequest, error) {
	pr, err := provider.Get[*github.PullRequest](ctx, c.rest, provider.Request{
		Path: c.repoPath("pulls", strconv.Itoa(number)),
	})
	if err != nil {
		return forge.PullRequest{}, c.wrap("get_pull_request", err)
	}
	return toPullRequest(pr), nil
}

// FindPullRequest returns the open pull request whose head is the branch head.
func (c *Client) FindPullRequest(ctx context.Context, head string) (forge.PullRequest, error) {
	prs, err := provider.Get[[]*github.PullRequest](ctx, c.rest, provider.Request{
		Path: c.repoPath("pulls"),
		Params: map[string]string{
			"state": "open",
			"head":  c.headOwner() + ":" + head,
		},
	})
	if err != nil {
		return forge.PullRequest{}, c.wrap("find_pull_request", err)
	}
	if len(prs) == 0 {
		return forge.PullRequest{}, fmt.Errorf("%w for branch %s", forge.ErrPullRequestNotFound, head)
	}
	return toPullRequest(prs[0]), nil
}

// MilestonePullRequests lists the pull requests, open and closed, assigned to milestone.
func (c *Client) MilestonePullRequests(ctx context.Context, milestone forge.Milestone) ([]forge.PullRequest, error) {
	items, err := c.milestoneItems(ctx, milestone)
	if err != nil {
		return nil, c.wrap("list_milestone_pull_requests", err)
	}
	prs := make([]forge.PullRequest, 0, len(items))
	for _, item := range items {
		if item.IsPullRequest() {
			prs = append(prs, forge.PullRequest{
				Number: item.GetNumber(),
				Title:  item.GetTitle(),
				State:  item.GetState(),
				WebURL: item.GetHTMLURL(),
			})
		}
	}
	return prs, nil
}

// qualifiedHead prefixes the fork owner when the pull request targets the upstream repository.
func (c *Client) qualifiedHead(branch string) string {
	if c.repo.IsUpstream && c.repo.ForkOwner != "" {
		return c.repo.ForkOwner + ":" + branch
	}
	return branch
}

func (c *Client) headOwner() string {
	if c.repo.IsUpstream && c.repo.ForkOwner != "" {
		return c.repo.ForkOwner
	}
	return c.repo.Owner
}

func toPullRequest(pr *github.PullRequest) forge.PullRequest {
	return forge.PullRequest{
		ID:     pr.GetNodeID(),
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		State:  pr.GetState(),
		Draft:  pr.GetDraft(),
		Head:   pr.GetHead().GetRef(),
		Base:   pr.GetBase().GetRef(),
		WebURL: pr.GetHTMLURL(),
	}
}
