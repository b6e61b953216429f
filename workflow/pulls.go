package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/merge"
	"github.com/smartcontractkit/forge-flow/publish"
	"github.com/smartcontractkit/forge-flow/selection"
)

var (
	// ErrOnBaseBranch is returned when a pull request would be opened from the branch it targets.
	ErrOnBaseBranch = errors.New("refusing to open a pull request from the base branch")
	// ErrNoPrompter is returned when branch publishing has no way to ask the operator.
	ErrNoPrompter = errors.New("no prompter configured")
)

// PullRequestOptions describes a pull request to open from the current branch.
// Attribute fields take comma separated patterns, "@" for manual selection or "" to skip.
type PullRequestOptions struct {
	// Title and Body default to the configured templates.
	Title string
	Body  string
	// Base defaults to the repository's main branch.
	Base      string
	Draft     bool
	Labels    string
	Milestone string
	Assignees string
	Reviewers string
	// AutoMerge enables auto-merge with the negotiated method. Failing to do so is only a warning.
	AutoMerge bool
}

// PullRequestResult is what pr.create did.
type PullRequestResult struct {
	PullRequest forge.PullRequest
	Published   publish.Outcome
	// MergeMethod is set when auto-merge was enabled.
	MergeMethod merge.Method
}

// CreatePullRequest publishes the current branch while fetching attribute candidates, then resolves
// the patterns, opens the pull request and optionally enables auto-merge.
func (r *Runner) CreatePullRequest(ctx context.Context, opts PullRequestOptions) (PullRequestResult, error) {
	var result PullRequestResult
	err := r.track(ctx, PRCreate, func(l zerolog.Logger) error {
		if r.engine == nil {
			return ErrNoEngine
		}
		if r.prompter == nil {
			return ErrNoPrompter
		}

		branch, err := r.engine.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		mainBranch, err := r.engine.MainBranch(ctx)
		if err != nil {
			return err
		}
		base := opts.Base
		if base == "" {
			base = mainBranch
		}
		if branch == mainBranch || branch == base {
			return fmt.Errorf("%w %q", ErrOnBaseBranch, branch)
		}
		l = l.With().Str("branch", branch).Str("base", base).Logger()

		clean, err := r.engine.WorkingTreeClean(ctx)
		if err != nil {
			l.Warn().Err(err).Msg("Could not inspect the working tree")
		} else if !clean {
			l.Warn().Msg("Working tree has uncommitted changes, they will not be part of the pull request")
		}

		var currentUser forge.User
		resolver := r.newResolver(ctx)
		err = submitAttributes(resolver, opts.Labels, opts.Milestone, opts.Assignees, opts.Reviewers,
			map[string]func([]selection.Candidate) []selection.Candidate{
				reviewerName: func(candidates []selection.Candidate) []selection.Candidate {
					return excludeUser(candidates, currentUser)
				},
			},
		)
		if err != nil {
			return err
		}

		var group errgroup.Group
		group.Go(func() error {
			outcome, err := publish.NewCoordinator(
				r.engine,
				r.prompter,
				publish.WithLogger(l),
				publish.WithMetrics(r.metrics),
			).Publish(ctx)
			result.Published = outcome
			return err
		})
		if len(selection.SplitPatterns(opts.Reviewers)) > 0 {
			group.Go(func() error {
				user, err := r.provider.CurrentUser(ctx)
				if err != nil {
					return fmt.Errorf("failed to look up the current user: %w", err)
				}
				currentUser = user
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			// Candidate fetches are left to finish, their results are dropped.
			return err
		}
		l.Info().Str("outcome", string(result.Published)).Msg("Published branch")

		attrs, err := r.resolveAttributes(resolver)
		if err != nil {
			return err
		}

		values := map[string]any{
			"branch":     branch,
			"base":       base,
			"repository": r.provider.Repository().FullName(),
		}
		title := opts.Title
		if strings.TrimSpace(title) == "" {
			title = render(r.titleTemplate, values)
		}
		if strings.TrimSpace(title) == "" {
			title = branch
		}
		body := opts.Body
		if body == "" {
			body = render(r.bodyTemplate, values)
		}

		pr, err := r.provider.CreatePullRequest(ctx, forge.PullRequestInput{
			Title:     title,
			Body:      body,
			Head:      branch,
			Base:      base,
			Draft:     opts.Draft,
			Labels:    attrs.labels,
			Milestone: attrs.milestone,
			Assignees: attrs.assignees,
			Reviewers: attrs.reviewers,
		})
		if err != nil {
			return err
		}
		result.PullRequest = pr
		l.Info().Int("number", pr.Number).Str("url", pr.WebURL).Msg("Opened pull request")
		r.printf("%s\n", pr.WebURL)

		if !opts.AutoMerge {
			return nil
		}
		method, err := r.negotiator(l).Negotiate(ctx, r.provider.Repository(), pr.ID)
		if err != nil {
			l.Warn().Err(err).Int("number", pr.Number).Msg("Auto-merge was not enabled")
			return nil
		}
		result.MergeMethod = method
		r.printf("auto-merge enabled (%s)\n", strings.ToLower(string(method)))
		return nil
	})
	return result, err
}

// MergePullRequest enables auto-merge on pull request number, or on the open pull request of the
// current branch when number is 0. A rejection fails the workflow.
func (r *Runner) MergePullRequest(ctx context.Context, number int) (merge.Method, error) {
	var method merge.Method
	err := r.track(ctx, PRMerge, func(l zerolog.Logger) error {
		pr, err := r.findPullRequest(ctx, number)
		if err != nil {
			return err
		}
		l = l.With().Int("number", pr.Number).Logger()

		method, err = r.negotiator(l).Negotiate(ctx, r.provider.Repository(), pr.ID)
		if err != nil {
			return err
		}
		l.Info().Str("method", string(method)).Msg("Enabled auto-merge")
		r.printf("%s: auto-merge enabled (%s)\n", pr.WebURL, strings.ToLower(string(method)))
		return nil
	})
	return method, err
}

func (r *Runner) findPullRequest(ctx context.Context, number int) (forge.PullRequest, error) {
	if number > 0 {
		return r.provider.GetPullRequest(ctx, number)
	}
	if r.engine == nil {
		return forge.PullRequest{}, ErrNoEngine
	}
	branch, err := r.engine.CurrentBranch(ctx)
	if err != nil {
		return forge.PullRequest{}, err
	}
	pr, err := r.provider.FindPullRequest(ctx, branch)
	if err != nil {
		return forge.PullRequest{}, fmt.Errorf("branch %s: %w", branch, err)
	}
	return pr, nil
}

func (r *Runner) negotiator(l zerolog.Logger) *merge.Negotiator {
	return merge.NewNegotiator(
		r.provider,
		r.provider,
		merge.WithLogger(l),
		merge.WithMetrics(r.metrics, r.provider.Kind()),
	)
}

// excludeUser drops user from candidates. Nobody can review their own pull request.
func excludeUser(candidates []selection.Candidate, user forge.User) []selection.Candidate {
	if user.Login == "" {
		return candidates
	}
	kept := make([]selection.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if u, ok := c.User(); ok && strings.EqualFold(u.Login, user.Login) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
