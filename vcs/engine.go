// Package vcs is the boundary to the local git repository: branch and remote reads through go-git,
// network and history commands through the git binary, and detection of the hosting provider
// from the remote URLs.
package vcs

import (
	"context"
	"errors"
)

// ErrDetachedHead is returned when HEAD does not point at a branch.
var ErrDetachedHead = errors.New("HEAD is detached, check out a branch first")

// ErrBranchNameMismatch is returned when a push targets a remote branch named differently
// from the current branch.
var ErrBranchNameMismatch = errors.New("remote branch name differs from the local branch")

// PushOptions controls a push of the current branch.
type PushOptions struct {
	// RemoteBranch is the branch name on the remote. It must be empty or the current branch name.
	RemoteBranch string
	// SetUpstream records the remote branch as the current branch's upstream (-u).
	SetUpstream bool
	Force       bool
}

// Engine is everything workflows need from the local repository.
type Engine interface {
	CurrentBranch(ctx context.Context) (string, error)
	// RemoteBranch returns the same-named branch on the publish remote, prefixed with the remote
	// name when qualified is set. It is empty when that branch does not exist. Tracking configs
	// that point at another remote or another branch name are ignored.
	RemoteBranch(ctx context.Context, qualified bool) (string, error)
	// IsRemoteBranchGone reports whether the current branch tracks its same-named branch on the
	// publish remote and that branch was deleted.
	IsRemoteBranchGone(ctx context.Context) (bool, error)
	MainBranch(ctx context.Context) (string, error)
	Fetch(ctx context.Context) error
	Push(ctx context.Context, opts PushOptions) error
	// Cherry lists the commits of head that are not in upstream, oldest first.
	Cherry(ctx context.Context, upstream, head string) ([]string, error)
	Diff(ctx context.Context, from, to string) (string, error)
	WorkingTreeClean(ctx context.Context) (bool, error)
	// RemoteURL returns the first URL of the named remote, the default remote when name is empty.
	RemoteURL(ctx context.Context, name string) (string, error)
	RemoteExists(ctx context.Context, name string) (bool, error)
}
