package workflow

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/internal/testhelpers"
	"github.com/smartcontractkit/forge-flow/merge"
	"github.com/smartcontractkit/forge-flow/provider"
	"github.com/smartcontractkit/forge-flow/publish"
	"github.com/smartcontractkit/forge-flow/vcs"
)

var testRepo = provider.RepositoryPath{Provider: provider.GitHub, Host: "github.com", Owner: "acme", Name: "widgets"}

type mockProvider struct {
	mock.Mock
}

var _ forge.Provider = (*mockProvider)(nil)

func (m *mockProvider) Kind() provider.Kind { return testRepo.Provider }

func (m *mockProvider) Repository() provider.RepositoryPath { return testRepo }

func (m *mockProvider) Labels(ctx context.Context) ([]forge.Label, error) {
	args := m.Called(ctx)
	labels, _ := args.Get(0).([]forge.Label)
	return labels, args.Error(1)
}

func (m *mockProvider) Milestones(ctx context.Context, state forge.MilestoneState) ([]forge.Milestone, error) {
	args := m.Called(ctx, state)
	milestones, _ := args.Get(0).([]forge.Milestone)
	return milestones, args.Error(1)
}

func (m *mockProvider) Collaborators(ctx context.Context) ([]forge.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]forge.User)
	return users, args.Error(1)
}

func (m *mockProvider) CurrentUser(ctx context.Context) (forge.User, error) {
	args := m.Called(ctx)
	return args.Get(0).(forge.User), args.Error(1)
}

func (m *mockProvider) CreateIssue(ctx context.Context, input forge.IssueInput) (forge.Issue, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(forge.Issue), args.Error(1)
}

func (m *mockProvider) AddIssueLabels(ctx context.Context, number int, labels []forge.Label) error {
	return m.Called(ctx, number, labels).Error(0)
}

func (m *mockProvider) MilestoneIssues(ctx context.Context, milestone forge.Milestone) ([]forge.Issue, error) {
	args := m.Called(ctx, milestone)
	issues, _ := args.Get(0).([]forge.Issue)
	return issues, args.Error(1)
}

func (m *mockProvider) CreatePullRequest(ctx context.Context, input forge.PullRequestInput) (forge.PullRequest, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(forge.PullRequest), args.Error(1)
}

func (m *mockProvider) GetPullRequest(ctx context.Context, number int) (forge.PullRequest, error) {
	args := m.Called(ctx, number)
	return args.Get(0).(forge.PullRequest), args.Error(1)
}

func (m *mockProvider) FindPullRequest(ctx context.Context, head string) (forge.PullRequest, error) {
	args := m.Called(ctx, head)
	return args.Get(0).(forge.PullRequest), args.Error(1)
}

func (m *mockProvider) MilestonePullRequests(ctx context.Context, milestone forge.Milestone) ([]forge.PullRequest, error) {
	args := m.Called(ctx, milestone)
	prs, _ := args.Get(0).([]forge.PullRequest)
	return prs, args.Error(1)
}

func (m *mockProvider) MergePermissions(ctx context.Context, repo provider.RepositoryPath) (merge.Permissions, error) {
	args := m.Called(ctx, repo)
	return args.Get(0).(merge.Permissions), args.Error(1)
}

func (m *mockProvider) EnableAutoMerge(ctx context.Context, pullRequestID string, method merge.Method) error {
	return m.Called(ctx, pullRequestID, method).Error(0)
}

func (m *mockProvider) CreateLabel(ctx context.Context, input forge.LabelInput) (forge.Label, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(forge.Label), args.Error(1)
}

func (m *mockProvider) CloseMilestone(ctx context.Context, milestone forge.Milestone) (forge.Milestone, error) {
	args := m.Called(ctx, milestone)
	return args.Get(0).(forge.Milestone), args.Error(1)
}

type mockEngine struct {
	mock.Mock
}

var _ vcs.Engine = (*mockEngine)(nil)

func (m *mockEngine) CurrentBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockEngine) RemoteBranch(ctx context.Context, qualified bool) (string, error) {
	args := m.Called(ctx, qualified)
	return args.String(0), args.Error(1)
}

func (m *mockEngine) IsRemoteBranchGone(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockEngine) MainBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockEngine) Fetch(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockEngine) Push(ctx context.Context, opts vcs.PushOptions) error {
	return m.Called(ctx, opts).Error(0)
}

func (m *mockEngine) Cherry(ctx context.Context, upstream, head string) ([]string, error) {
	args := m.Called(ctx, upstream, head)
	commits, _ := args.Get(0).([]string)
	return commits, args.Error(1)
}

func (m *mockEngine) Diff(ctx context.Context, from, to string) (string, error) {
	args := m.Called(ctx, from, to)
	return args.String(0), args.Error(1)
}

func (m *mockEngine) WorkingTreeClean(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockEngine) RemoteURL(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *mockEngine) RemoteExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

// declinePrompter aborts every question.
type declinePrompter struct{}

func (declinePrompter) ConfirmRetry(string, error) (bool, error) { return false, nil }

func (declinePrompter) ResolveDivergence(publish.BranchState) (publish.DivergenceAction, error) {
	return publish.ActionQuit, nil
}

func (declinePrompter) ShowDiff(string) error { return nil }

// pickChooser answers every manual selection with fixed indexes.
type pickChooser struct {
	one  int
	many []int
}

func (c pickChooser) ChooseOne(string, []string, bool) (int, error) { return c.one, nil }

func (c pickChooser) ChooseMany(string, []string) ([]int, error) { return c.many, nil }

func newRunner(t *testing.T, p *mockProvider, options ...Option) (*Runner, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	options = append([]Option{WithLogger(testhelpers.Logger(t)), WithOutput(out)}, options...)
	return NewRunner(p, options...), out
}

var (
	labelBug  = forge.Label{Name: "bug", Color: "d73a4a"}
	labelDocs = forge.Label{Name: "documentation", Color: "0075ca"}
	labelCI   = forge.Label{Name: "ci"}

	milestoneV1 = forge.Milestone{ID: 101, Number: 1, Title: "v1.0", State: "open"}
	milestoneV2 = forge.Milestone{ID: 102, Number: 2, Title: "v2.0", State: "open"}

	userAlice = forge.User{ID: 1, Login: "alice"}
	userBob   = forge.User{ID: 2, Login: "bob", Name: "Bob"}
	userCarol = forge.User{ID: 3, Login: "carol"}
)

func withCandidates(p *mockProvider) {
	p.On("Labels", mock.Anything).Return([]forge.Label{labelBug, labelDocs, labelCI}, nil).Maybe()
	p.On("Milestones", mock.Anything, forge.MilestoneOpen).Return([]forge.Milestone{milestoneV1, milestoneV2}, nil).Maybe()
	p.On("Collaborators", mock.Anything).Return([]forge.User{userAlice, userBob, userCarol}, nil).Maybe()
}
