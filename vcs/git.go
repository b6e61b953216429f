package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog"

	"github.com/smartcontractkit/forge-flow/config"
)

// Git is the Engine for a local clone.
type Git struct {
	dir    string
	repo   *git.Repository
	remote string
	runner Runner
	logger zerolog.Logger
}

var _ Engine = (*Git)(nil)

// GitOption configures Git.
type GitOption func(*Git)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) GitOption {
	return func(g *Git) {
		g.logger = logger
	}
}

// WithRemote sets the remote branches are published to. Defaults to origin.
func WithRemote(remote string) GitOption {
	return func(g *Git) {
		if remote != "" {
			g.remote = remote
		}
	}
}

// WithRunner replaces the git subprocess runner.
func WithRunner(runner Runner) GitOption {
	return func(g *Git) {
		g.runner = runner
	}
}

// NewGit opens the repository containing dir.
func NewGit(dir string, options ...GitOption) (*Git, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", dir, err)
	}

	g := &Git{
		dir:    dir,
		repo:   repo,
		remote: config.DefaultRemote,
		runner: ExecRunner{},
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(g)
	}
	if wt, err := repo.Worktree(); err == nil {
		g.dir = wt.Filesystem.Root()
	}
	return g, nil
}

// Remote returns the name of the remote branches are published to.
func (g *Git) Remote() string {
	return g.remote
}

func (g *Git) CurrentBranch(context.Context) (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", ErrDetachedHead
	}
	return head.Name().Short(), nil
}

// upstream returns the branch on the publish remote that carries the current branch.
// Only a same-named branch on g.remote counts. Tracking configs pointing at another remote
// or another branch name, as left by git checkout -b feature origin/main, are ignored.
func (g *Git) upstream(ctx context.Context) (branch string, configured bool, err error) {
	current, err := g.CurrentBranch(ctx)
	if err != nil {
		return "", false, err
	}

	cfg, err := g.repo.Branch(current)
	switch {
	case err == nil && cfg.Remote == g.remote && cfg.Merge.Short() == current:
		return current, true, nil
	case err == nil && cfg.Remote != "":
		g.logger.Debug().
			Str("branch", current).
			Str("tracking_remote", cfg.Remote).
			Str("tracking_branch", cfg.Merge.Short()).
			Msg("Ignoring tracking config that does not point at the same branch on the publish remote")
	case err != nil && !errors.Is(err, git.ErrBranchNotFound):
		return "", false, fmt.Errorf("failed to read branch config of %s: %w", current, err)
	}

	if g.remoteRefExists(g.remote, current) {
		return current, false, nil
	}
	return "", false, nil
}

func (g *Git) remoteRefExists(remote, branch string) bool {
	_, err := g.repo.Reference(plumbing.NewRemoteReferenceName(remote, branch), true)
	return err == nil
}

func (g *Git) RemoteBranch(ctx context.Context, qualified bool) (string, error) {
	branch, configured, err := g.upstream(ctx)
	if err != nil || branch == "" {
		return "", err
	}
	if configured && !g.remoteRefExists(g.remote, branch) {
		return "", nil
	}
	if qualified {
		return g.remote + "/" + branch, nil
	}
	return branch, nil
}

func (g *Git) IsRemoteBranchGone(ctx context.Context) (bool, error) {
	branch, configured, err := g.upstream(ctx)
	if err != nil {
		return false, err
	}
	return configured && !g.remoteRefExists(g.remote, branch), nil
}

// MainBranch follows the remote HEAD, then falls back to main or master.
func (g *Git) MainBranch(context.Context) (string, error) {
	head, err := g.repo.Reference(plumbing.NewRemoteHEADReferenceName(g.remote), false)
	if err == nil && head.Type() == plumbing.SymbolicReference {
		return strings.TrimPrefix(head.Target().String(), "refs/remotes/"+g.remote+"/"), nil
	}

	for _, candidate := range []string{"main", "master"} {
		if g.remoteRefExists(g.remote, candidate) {
			return candidate, nil
		}
		if _, err := g.repo.Reference(plumbing.NewBranchReferenceName(candidate), true); err == nil {
			return candidate, nil
		}
	}
	return "main", nil
}

func (g *Git) Fetch(ctx context.Context) error {
	_, err := g.run(ctx, "fetch", "--prune", g.remote)
	return err
}

func (g *Git) Push(ctx context.Context, opts PushOptions) error {
	current, err := g.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	args := []string{"push"}
	if opts.Force {
		args = append(args, "--force")
	}
	if opts.SetUpstream {
		args = append(args, "-u")
	}
	if opts.RemoteBranch != "" && opts.RemoteBranch != current {
		return fmt.Errorf("%w: %s cannot be pushed to %s/%s", ErrBranchNameMismatch, current, g.remote, opts.RemoteBranch)
	}
	args = append(args, g.remote, current)

	_, err = g.run(ctx, args...)
	return err
}

func (g *Git) Cherry(ctx context.Context, upstream, head string) ([]string, error) {
	args := []string{"cherry", upstream}
	if head != "" {
		args = append(args, head)
	}
	result, err := g.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseCherry(result.Stdout), nil
}

// parseCherry keeps the "+" lines of git cherry output: commits without an equivalent upstream.
func parseCherry(out string) []string {
	var commits []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if sha, ok := strings.CutPrefix(line, "+ "); ok {
			commits = append(commits, strings.TrimSpace(sha))
		}
	}
	return commits
}

func (g *Git) Diff(ctx context.Context, from, to string) (string, error) {
	result, err := g.run(ctx, "diff", from, to)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

func (g *Git) WorkingTreeClean(context.Context) (bool, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("failed to read worktree status: %w", err)
	}
	return status.IsClean(), nil
}

func (g *Git) RemoteURL(_ context.Context, name string) (string, error) {
	if name == "" {
		name = g.remote
	}
	remote, err := g.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("failed to read remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", name)
	}
	return urls[0], nil
}

func (g *Git) RemoteExists(_ context.Context, name string) (bool, error) {
	_, err := g.repo.Remote(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, git.ErrRemoteNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to read remote %s: %w", name, err)
	}
}

func (g *Git) run(ctx context.Context, args ...string) (Result, error) {
	l := g.logger.With().Strs("args", args).Str("dir", g.dir).Logger()
	l.Debug().Msg("Running git")
	result, err := g.runner.Run(ctx, g.dir, args...)
	if err != nil {
		l.Debug().Err(err).Str("stderr", result.Stderr).Msg("git failed")
		return result, err
	}
	l.Trace().Str("stdout", result.Stdout).Msg("git finished")
	return result, nil
}
