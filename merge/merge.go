// Package merge negotiates the merge method a repository allows and enables auto-merge with it.
package merge

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smartcontractkit/forge-flow/provider"
	"github.com/smartcontractkit/forge-flow/telemetry"
)

// Method is how a pull request gets merged.
type Method string

const (
	MethodMerge  Method = "MERGE"
	MethodSquash Method = "SQUASH"
	MethodRebase Method = "REBASE"
)

// ErrNoMergeMethodAllowed matches every *NoMergeMethodAllowedError.
var ErrNoMergeMethodAllowed = errors.New("no merge method allowed")

// NoMergeMethodAllowedError is returned when a repository allows none of the merge methods.
type NoMergeMethodAllowedError struct {
	Repository provider.RepositoryPath
}

func (e *NoMergeMethodAllowedError) Error() string {
	return fmt.Sprintf("no merge method is allowed on %s", e.Repository.FullName())
}

// Is makes errors.Is(err, ErrNoMergeMethodAllowed) hold.
func (e *NoMergeMethodAllowedError) Is(target error) bool {
	return target == ErrNoMergeMethodAllowed
}

// Permissions are the repository level merge settings.
type Permissions struct {
	MergeCommitAllowed bool `json:"mergeCommitAllowed"`
	SquashMergeAllowed bool `json:"squashMergeAllowed"`
	RebaseMergeAllowed bool `json:"rebaseMergeAllowed"`
}

// PermissionSource reads the merge settings of a repository.
type PermissionSource interface {
	MergePermissions(ctx context.Context, repo provider.RepositoryPath) (Permissions, error)
}

// AutoMerger enables auto-merge on a pull request identified by its provider-assigned ID.
type AutoMerger interface {
	EnableAutoMerge(ctx context.Context, pullRequestID string, method Method) error
}

// Choose applies the fixed priority MERGE > SQUASH > REBASE. The second result is false when
// nothing is allowed.
func Choose(p Permissions) (Method, bool) {
	switch {
	case p.MergeCommitAllowed:
		return MethodMerge, true
	case p.SquashMergeAllowed:
		return MethodSquash, true
	case p.RebaseMergeAllowed:
		return MethodRebase, true
	default:
		return "", false
	}
}

// Negotiator picks a merge method for a repository and enables auto-merge with it.
type Negotiator struct {
	source  PermissionSource
	enabler AutoMerger
	logger  zerolog.Logger
	metrics *telemetry.Metrics
	kind    provider.Kind
}

// Option configures a Negotiator.
type Option func(*Negotiator)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(n *Negotiator) {
		n.logger = logger
	}
}

// WithMetrics records auto-merge outcomes.
func WithMetrics(metrics *telemetry.Metrics, kind provider.Kind) Option {
	return func(n *Negotiator) {
		n.metrics = metrics
		n.kind = kind
	}
}

// NewNegotiator creates a Negotiator.
func NewNegotiator(source PermissionSource, enabler AutoMerger, options ...Option) *Negotiator {
	n := &Negotiator{
		source:  source,
		enabler: enabler,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(n)
	}
	return n
}

// AvailableMergeMethod returns the highest priority method repo allows.
func (n *Negotiator) AvailableMergeMethod(ctx context.Context, repo provider.RepositoryPath) (Method, error) {
	permissions, err := n.source.MergePermissions(ctx, repo)
	if err != nil {
		return "", fmt.Errorf("failed to read merge settings: %w", err)
	}
	method, ok := Choose(permissions)
	if !ok {
		return "", &NoMergeMethodAllowedError{Repository: repo}
	}
	n.logger.Debug().
		Str("repository", repo.FullName()).
		Bool("merge_commit_allowed", permissions.MergeCommitAllowed).
		Bool("squash_merge_allowed", permissions.SquashMergeAllowed).
		Bool("rebase_merge_allowed", permissions.RebaseMergeAllowed).
		Str("method", string(method)).
		Msg("Negotiated merge method")
	return method, nil
}

// EnableAutoMerge enables auto-merge with method. Callers decide whether a rejection is fatal.
func (n *Negotiator) EnableAutoMerge(ctx context.Context, pullRequestID string, method Method) error {
	err := n.enabler.EnableAutoMerge(ctx, pullRequestID, method)
	result := "enabled"
	if err != nil {
		result = "rejected"
	}
	n.metrics.IncAutoMerge(ctx, string(n.kind), string(method), result)
	if err != nil {
		return fmt.Errorf("failed to enable auto-merge with %s: %w", method, err)
	}
	return nil
}

// Negotiate picks the method for repo and enables auto-merge on the pull request with it.
func (n *Negotiator) Negotiate(ctx context.Context, repo provider.RepositoryPath, pullRequestID string) (Method, error) {
	method, err := n.AvailableMergeMethod(ctx, repo)
	if err != nil {
		return "", err
	}
	return method, n.EnableAutoMerge(ctx, pullRequestID, method)
}
