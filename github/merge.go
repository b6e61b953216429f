package github

import (
	"context"
	"fmt"

	gh_graphql "github.com/shurcooL/githubv4"

	"github.com/smartcontractkit/forge-flow/merge"
	"github.com/smartcontractkit/forge-flow/provider"
)

const mergePermissionsQuery = `query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    mergeCommitAllowed
    squashMergeAllowed
    rebaseMergeAllowed
  }
}`

const enableAutoMergeMutation = `mutation($input: EnablePullRequestAutoMergeInput!) {
  enablePullRequestAutoMerge(input: $input) {
    pullRequest {
      number
      autoMergeRequest {
        enabledAt
        mergeMethod
      }
    }
  }
}`

type enableAutoMergePayload struct {
	EnablePullRequestAutoMerge struct {
		PullRequest struct {
			Number           int `json:"number"`
			AutoMergeRequest *struct {
				EnabledAt   *gh_graphql.DateTime              `json:"enabledAt"`
				MergeMethod gh_graphql.PullRequestMergeMethod `json:"mergeMethod"`
			} `json:"autoMergeRequest"`
		} `json:"pullRequest"`
	} `json:"enablePullRequestAutoMerge"`
}

// MergePermissions reads which merge methods repo allows.
func (c *Client) MergePermissions(ctx context.Context, repo provider.RepositoryPath) (merge.Permissions, error) {
	var data struct {
		Repository merge.Permissions `json:"repository"`
	}
	err := c.graphql.Execute(ctx, mergePermissionsQuery, map[string]any{
		"owner": repo.Owner,
		"name":  repo.Name,
	}, &data)
	if err != nil {
		return merge.Permissions{}, c.wrap("get_merge_permissions", err)
	}
	return data.Repository, nil
}

// EnableAutoMerge turns on auto-merge for the pull request with the given node ID.
func (c *Client) EnableAutoMerge(ctx context.Context, pullRequestID string, method merge.Method) error {
	mergeMethod, err := graphQLMergeMethod(method)
	if err != nil {
		return err
	}
	input := gh_graphql.EnablePullRequestAutoMergeInput{
		PullRequestID: gh_graphql.ID(pullRequestID),
		MergeMethod:   &mergeMethod,
	}

	var payload enableAutoMergePayload
	if err := c.graphql.Execute(ctx, enableAutoMergeMutation, map[string]any{"input": input}, &payload); err != nil {
		return c.wrap("enable_auto_merge", err)
	}

	pr := payload.EnablePullRequestAutoMerge.PullRequest
	l := c.logger.Debug().Int("number", pr.Number)
	if request := pr.AutoMergeRequest; request != nil {
		l = l.Str("merge_method", string(request.MergeMethod))
		if request.EnabledAt != nil {
			l = l.Time("enabled_at", request.EnabledAt.Time)
		}
	}
	l.Msg("Enabled auto-merge")
	return nil
}

func graphQLMergeMethod(method merge.Method) (gh_graphql.PullRequestMergeMethod, error) {
	switch method {
	case merge.MethodMerge:
		return gh_graphql.PullRequestMergeMethodMerge, nil
	case merge.MethodSquash:
		return gh_graphql.PullRequestMergeMethodSquash, nil
	case merge.MethodRebase:
		return gh_graphql.PullRequestMergeMethodRebase, nil
	default:
		return "", fmt.Errorf("unknown merge method %q", method)
	}
}
