package gitlab

import (
	"context"
	"fmt"
	"net/http"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/smartcontractkit/forge-flow/merge"
	"github.com/smartcontractkit/forge-flow/provider"
)

type acceptBody struct {
	MergeWhenPipelineSucceeds bool `json:"merge_when_pipeline_succeeds"`
	Squash                    bool `json:"squash,omitempty"`
}

// MergePermissions maps the project's merge method and squash option onto merge.Permissions.
//
//	merge, rebase_merge -> merge commits allowed
//	ff                  -> rebase allowed
//	squash != never     -> squash allowed
func (c *Client) MergePermissions(ctx context.Context, repo provider.RepositoryPath) (merge.Permissions, error) {
	project, err := provider.Get[*gl.Project](ctx, c.rest, provider.Request{Path: projectPathOf(repo.ProjectID())})
	if err != nil {
		return merge.Permissions{}, c.wrap("get_merge_permissions", err)
	}
	return permissionsOf(project), nil
}

func permissionsOf(project *gl.Project) merge.Permissions {
	method := string(project.MergeMethod)
	squash := string(project.SquashOption)
	return merge.Permissions{
		MergeCommitAllowed: method == "merge" || method == "rebase_merge",
		RebaseMergeAllowed: method == "ff",
		SquashMergeAllowed: squash != "never",
	}
}

// EnableAutoMerge sets the merge request with the given iid to merge once its pipeline succeeds.
func (c *Client) EnableAutoMerge(ctx context.Context, pullRequestID string, method merge.Method) error {
	body := acceptBody{MergeWhenPipelineSucceeds: true}
	switch method {
	case merge.MethodMerge, merge.MethodRebase:
	case merge.MethodSquash:
		body.Squash = true
	default:
		return fmt.Errorf("unknown merge method %q", method)
	}

	_, err := provider.Get[*gl.MergeRequest](ctx, c.rest, provider.Request{
		Method: http.MethodPut,
		Path:   c.projectPath("merge_requests", pullRequestID, "merge"),
		Body:   body,
	})
	return c.wrap("enable_auto_merge", err)
}
