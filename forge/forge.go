// Package forge defines the capability sets every hosting provider implements and the value types
// they exchange with workflows.
package forge

import (
	"context"
	"time"

	"github.com/smartcontractkit/forge-flow/merge"
	"github.com/smartcontractkit/forge-flow/provider"
)

// Label is a repository label.
type Label struct {
	Name        string
	Color       string
	Description string
}

// MilestoneState filters milestone listings.
type MilestoneState string

const (
	MilestoneOpen   MilestoneState = "open"
	MilestoneClosed MilestoneState = "closed"
	MilestoneAll    MilestoneState = "all"
)

// Milestone is a repository milestone.
type Milestone struct {
	// ID is the provider's global identifier. GitLab addresses milestones by it.
	ID int64
	// Number is the repository scoped number (GitHub number, GitLab iid).
	Number int
	Title  string
	State  string
	DueOn  *time.Time
	WebURL string
}

// User is a collaborator (GitHub) or project member (GitLab).
type User struct {
	ID    int64
	Login string
	Name  string
}

// Issue is an issue as returned by the provider.
type Issue struct {
	Number int
	Title  string
	State  string
	WebURL string
	Labels []string
}

// PullRequest is a GitHub pull request or a GitLab merge request.
type PullRequest struct {
	// ID is the provider-assigned opaque identifier used for auto-merge
	// (GraphQL node ID on GitHub, iid on GitLab).
	ID     string
	Number int
	Title  string
	State  string
	Draft  bool
	Head   string
	Base   string
	WebURL string
}

// IssueInput describes an issue to create. Attributes are already resolved.
type IssueInput struct {
	Title     string
	Body      string
	Labels    []Label
	Milestone *Milestone
	Assignees []User
}

// PullRequestInput describes a pull request to create. Attributes are already resolved.
type PullRequestInput struct {
	Title string
	Body  string
	// Head is the source branch, Base the target branch.
	Head      string
	Base      string
	Draft     bool
	Labels    []Label
	Milestone *Milestone
	Assignees []User
	Reviewers []User
}

// LabelInput describes a label to create.
type LabelInput struct {
	Name        string
	Color       string
	Description string
}

// CandidateSource lists the full candidate sets attributes are resolved against.
type CandidateSource interface {
	Labels(ctx context.Context) ([]Label, error)
	Milestones(ctx context.Context, state MilestoneState) ([]Milestone, error)
	Collaborators(ctx context.Context) ([]User, error)
}

// IssueLike covers issue operations.
type IssueLike interface {
	CreateIssue(ctx context.Context, input IssueInput) (Issue, error)
	// AddIssueLabels fails with an *UnsupportedOperationError where the provider has no equivalent.
	AddIssueLabels(ctx context.Context, number int, labels []Label) error
	MilestoneIssues(ctx context.Context, milestone Milestone) ([]Issue, error)
}

// MergeRequestLike covers pull request (merge request) operations.
type MergeRequestLike interface {
	CreatePullRequest(ctx context.Context, input PullRequestInput) (PullRequest, error)
	GetPullRequest(ctx context.Context, number int) (PullRequest, error)
	// FindPullRequest returns the open pull request whose source branch is head.
	FindPullRequest(ctx context.Context, head string) (PullRequest, error)
	MilestonePullRequests(ctx context.Context, milestone Milestone) ([]PullRequest, error)
}

// Provider is everything workflows need from one hosting provider bound to one repository.
type Provider interface {
	CandidateSource
	IssueLike
	MergeRequestLike
	merge.PermissionSource
	merge.AutoMerger

	Kind() provider.Kind
	Repository() provider.RepositoryPath
	CurrentUser(ctx context.Context) (User, error)
	CreateLabel(ctx context.Context, input LabelInput) (Label, error)
	CloseMilestone(ctx context.Context, milestone Milestone) (Milestone, error)
}
