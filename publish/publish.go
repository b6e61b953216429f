// Package publish gets the current branch onto the remote before a pull request is opened,
// reconciling it with a remote branch that moved on in the meantime.
package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smartcontractkit/forge-flow/telemetry"
	"github.com/smartcontractkit/forge-flow/vcs"
)

// ErrAborted matches every *AbortedError.
var ErrAborted = errors.New("publish aborted")

// AbortedError is returned when the operator declines a retry or quits a divergence prompt.
type AbortedError struct {
	Branch string
	Reason string
	// Cause is the push failure that led to the abort, if any.
	Cause error
}

func (e *AbortedError) Error() string {
	msg := fmt.Sprintf("publishing %s aborted: %s", e.Branch, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrAborted) hold.
func (e *AbortedError) Is(target error) bool {
	return target == ErrAborted
}

func (e *AbortedError) Unwrap() error {
	return e.Cause
}

// Outcome is how a branch ended up published.
type Outcome string

const (
	// OutcomeCreated means the remote branch did not exist and was pushed with -u.
	OutcomeCreated Outcome = "created"
	// OutcomePushed means the remote branch was updated without force.
	OutcomePushed Outcome = "pushed"
	// OutcomeForcePushed means the operator chose to overwrite a diverged remote branch.
	OutcomeForcePushed Outcome = "force_pushed"
)

// DivergenceAction is the operator's answer when the remote branch has commits the local one lacks.
type DivergenceAction int

const (
	ActionQuit DivergenceAction = iota
	ActionForcePush
	ActionShowDiff
)

func (a DivergenceAction) String() string {
	switch a {
	case ActionForcePush:
		return "force-push"
	case ActionShowDiff:
		return "diff"
	default:
		return "quit"
	}
}

// Prompter asks the operator what to do. Every call blocks until an answer is given.
type Prompter interface {
	// ConfirmRetry offers to retry a failed push. An empty answer means abort.
	ConfirmRetry(branch string, pushErr error) (bool, error)
	// ResolveDivergence asks how to publish a branch whose remote has commits not present locally.
	ResolveDivergence(state BranchState) (DivergenceAction, error)
	// ShowDiff presents the local/remote diff.
	ShowDiff(diff string) error
}

// BranchState is the relation of the local branch to its remote branch, derived fresh per attempt.
type BranchState struct {
	Branch string
	// RemoteBranch is the remote branch qualified with the remote name, empty when none exists.
	RemoteBranch    string
	HasRemoteBranch bool
	// IsGone is set when the configured upstream was deleted on the remote.
	IsGone bool
	// AheadCommits are local commits missing on the remote.
	AheadCommits []string
	// BehindCommits are remote commits missing locally.
	BehindCommits []string
}

// Diverged reports whether the remote branch has commits the local branch lacks.
func (s BranchState) Diverged() bool {
	return len(s.BehindCommits) > 0
}

// Coordinator publishes the current branch.
type Coordinator struct {
	engine   vcs.Engine
	prompter Prompter
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetrics records publish outcomes.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = metrics
	}
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(engine vcs.Engine, prompter Prompter, options ...Option) *Coordinator {
	c := &Coordinator{
		engine:   engine,
		prompter: prompter,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Publish pushes the current branch, creating, updating or, with explicit consent, force-pushing
// the remote branch. Force-push is never retried without a fresh answer.
func (c *Coordinator) Publish(ctx context.Context) (Outcome, error) {
	outcome, err := c.publish(ctx)
	switch {
	case errors.Is(err, ErrAborted):
		c.metrics.IncBranchPublish(ctx, "aborted")
	case err != nil:
		c.metrics.IncBranchPublish(ctx, "failed")
	default:
		c.metrics.IncBranchPublish(ctx, string(outcome))
	}
	return outcome, err
}

func (c *Coordinator) publish(ctx context.Context) (Outcome, error) {
	branch, err := c.engine.CurrentBranch(ctx)
	if err != nil {
		return "", err
	}
	l := c.logger.With().Str("branch", branch).Logger()

	remoteBranch, err := c.engine.RemoteBranch(ctx, true)
	if err != nil {
		return "", err
	}
	if remoteBranch == "" {
		gone, err := c.engine.IsRemoteBranchGone(ctx)
		if err != nil {
			return "", err
		}
		if gone {
			l.Info().Msg("Remote branch was deleted, publishing it again")
		}
		return c.publishNew(ctx, branch)
	}

	if err := c.engine.Fetch(ctx); err != nil {
		return "", fmt.Errorf("failed to fetch: %w", err)
	}
	state, err := c.State(ctx)
	if err != nil {
		return "", err
	}
	if !state.HasRemoteBranch {
		l.Info().Msg("Remote branch was pruned by fetch, publishing it again")
		return c.publishNew(ctx, branch)
	}
	return c.publishExisting(ctx, state)
}

// State derives the branch state from the local repository without touching the network.
func (c *Coordinator) State(ctx context.Context) (BranchState, error) {
	branch, err := c.engine.CurrentBranch(ctx)
	if err != nil {
		return BranchState{}, err
	}
	state := BranchState{Branch: branch}

	state.RemoteBranch, err = c.engine.RemoteBranch(ctx, true)
	if err != nil {
		return BranchState{}, err
	}
	if state.RemoteBranch == "" {
		state.IsGone, err = c.engine.IsRemoteBranchGone(ctx)
		return state, err
	}
	state.HasRemoteBranch = true

	if state.AheadCommits, err = c.engine.Cherry(ctx, state.RemoteBranch, "HEAD"); err != nil {
		return BranchState{}, fmt.Errorf("failed to compare with %s: %w", state.RemoteBranch, err)
	}
	if state.BehindCommits, err = c.engine.Cherry(ctx, "HEAD", state.RemoteBranch); err != nil {
		return BranchState{}, fmt.Errorf("failed to compare with %s: %w", state.RemoteBranch, err)
	}
	return state, nil
}

func (c *Coordinator) publishNew(ctx context.Context, branch string) (Outcome, error) {
	for {
		err := c.engine.Push(ctx, vcs.PushOptions{RemoteBranch: branch, SetUpstream: true})
		if err == nil {
			c.logger.Info().Str("branch", branch).Msg("Created remote branch")
			return OutcomeCreated, nil
		}

		c.logger.Warn().Err(err).Str("branch", branch).Msg("Push failed")
		retry, promptErr := c.prompter.ConfirmRetry(branch, err)
		if promptErr != nil {
			return "", promptErr
		}
		if !retry {
			return "", &AbortedError{Branch: branch, Reason: "push failed", Cause: err}
		}
	}
}

func (c *Coordinator) publishExisting(ctx context.Context, state BranchState) (Outcome, error) {
	l := c.logger.With().
		Str("branch", state.Branch).
		Str("remote_branch", state.RemoteBranch).
		Int("ahead", len(state.AheadCommits)).
		Int("behind", len(state.BehindCommits)).
		Logger()

	if !state.Diverged() {
		if err := c.engine.Push(ctx, vcs.PushOptions{RemoteBranch: state.Branch}); err != nil {
			return "", fmt.Errorf("failed to push %s: %w", state.Branch, err)
		}
		l.Info().Msg("Pushed branch")
		return OutcomePushed, nil
	}

	for {
		action, err := c.prompter.ResolveDivergence(state)
		if err != nil {
			return "", err
		}
		l.Debug().Stringer("action", action).Msg("Divergence answer")

		switch action {
		case ActionForcePush:
			if err := c.engine.Push(ctx, vcs.PushOptions{RemoteBranch: state.Branch, Force: true}); err != nil {
				return "", fmt.Errorf("failed to force-push %s: %w", state.Branch, err)
			}
			l.Warn().Msg("Force-pushed branch")
			return OutcomeForcePushed, nil
		case ActionShowDiff:
			diff, err := c.engine.Diff(ctx, state.RemoteBranch, "HEAD")
			if err != nil {
				return "", err
			}
			if err := c.prompter.ShowDiff(diff); err != nil {
				return "", err
			}
		default:
			return "", &AbortedError{Branch: state.Branch, Reason: "remote branch has diverged"}
		}
	}
}
