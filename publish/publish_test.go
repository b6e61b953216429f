package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/forge-flow/internal/testhelpers"
	"github.com/smartcontractkit/forge-flow/vcs"
)

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

type mockPrompter struct {
	mock.Mock
}

func (m *mockPrompter) ConfirmRetry(branch string, pushErr error) (bool, error) {
	args := m.Called(branch, pushErr)
	return args.Bool(0), args.Error(1)
}

func (m *mockPrompter) ResolveDivergence(state BranchState) (DivergenceAction, error) {
	args := m.Called(state)
	return args.Get(0).(DivergenceAction), args.Error(1)
}

func (m *mockPrompter) ShowDiff(diff string) error {
	return m.Called(diff).Error(0)
}

func newCoordinator(t *testing.T, engine *mockEngine, prompter *mockPrompter) *Coordinator {
	t.Helper()

	return NewCoordinator(engine, prompter, WithLogger(testhelpers.Logger(t)))
}

// existingRemote sets up a branch feature-x tracking origin/feature-x with the given commit sets.
func existingRemote(engine *mockEngine, ahead, behind []string) {
	engine.On("CurrentBranch", mock.Anything).Return("feature-x", nil)
	engine.On("RemoteBranch", mock.Anything, true).Return("origin/feature-x", nil)
	engine.On("Fetch", mock.Anything).Return(nil).Once()
	engine.On("Cherry", mock.Anything, "origin/feature-x", "HEAD").Return(ahead, nil)
	engine.On("Cherry", mock.Anything, "HEAD", "origin/feature-x").Return(behind, nil)
}

func TestPublish_NoRemoteBranch(t *testing.T) {
	t.Parallel()

	engine, prompter := &mockEngine{}, &mockPrompter{}
	engine.On("CurrentBranch", mock.Anything).Return("feature-x", nil)
	engine.On("RemoteBranch", mock.Anything, true).Return("", nil)
	engine.On("IsRemoteBranchGone", mock.Anything).Return(false, nil)
	engine.On("Push", mock.Anything, vcs.PushOptions{RemoteBranch: "feature-x", SetUpstream: true}).Return(nil).Once()

	outcome, err := newCoordinator(t, engine, prompter).Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	engine.AssertNumberOfCalls(t, "Push", 1)
	engine.AssertNotCalled(t, "Fetch", mock.Anything)
	prompter.AssertNotCalled(t, "ConfirmRetry", mock.Anything, mock.Anything)
	prompter.AssertNotCalled(t, "ResolveDivergence", mock.Anything)
}

func TestPublish_GoneRemoteBranchIsRecreated(t *testing.T) {
	t.Parallel()

	engine, prompter := &mockEngine{}, &mockPrompter{}
	engine.On("CurrentBranch", mock.Anything).Return("feature-x", nil)
	engine.On("RemoteBranch", mock.Anything, true).Return("", nil)
	engine.On("IsRemoteBranchGone", mock.Anything).Return(true, nil)
	engine.On("Push", mock.Anything, vcs.PushOptions{RemoteBranch: "feature-x", SetUpstream: true}).Return(nil).Once()

	outcome, err := newCoordinator(t, engine, prompter).Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	engine.AssertExpectations(t)
}

func TestPublish_PushFailureRetry(t *testing.T) {
	t.Parallel()

	pushErr := errors.New("connection reset")

	t.Run("retry then succeed", func(t *testing.T) {
		t.Parallel()

		engine, prompter := &mockEngine{}, &mockPrompter{}
		engine.On("CurrentBranch", mock.Anything).Return("feature-x", nil)
		engine.On("RemoteBranch", mock.Anything, true).Return("", nil)
		engine.On("IsRemoteBranchGone", mock.Anything).Return(false, nil)
		engine.On("Push", mock.Anything, mock.Anything).Return(pushErr).Once()
		engine.On("Push", mock.Anything, mock.Anything).Return(nil).Once()
		prompter.On("ConfirmRetry", "feature-x", pushErr).Return(true, nil).Once()

		outcome, err := newCoordinator(t, engine, prompter).Publish(context.Background())
		require.NoError(t, err)
		assert.Equal(t, OutcomeCreated, outcome)
		engine.AssertNumberOfCalls(t, "Push", 2)
		prompter.AssertExpectations(t)
	})

	t.Run("declined retry aborts", func(t *testing.T) {
		t.Parallel()

		engine, prompter := &mockEngine{}, &mockPrompter{}
		engine.On("CurrentBranch", mock.Anything).Return("feature-x", nil)
		engine.On("RemoteBranch", mock.Anything, true).Return("", nil)
		engine.On("IsRemoteBranchGone", mock.Anything).Return(false, nil)
		engine.On("Push", mock.Anything, mock.Anything).Return(pushErr).Once()
		prompter.On("ConfirmRetry", "feature-x", pushErr).Return(false, nil).Once()

		_, err := newCoordinator(t, engine, prompter).Publish(context.Background())
		require.ErrorIs(t, err, ErrAborted)
		require.ErrorIs(t, err, pushErr)
		assert.Equal(t, "publishing feature-x aborted: push failed: connection reset", err.Error())
		engine.AssertNumberOfCalls(t, "Push", 1)
	})
}

func TestPublish_ExistingRemoteBranch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ahead  []string
		behind []string
	}{
		{name: "local only commits", ahead: []string{"aaa", "bbb"}},
		{name: "up to date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine, prompter := &mockEngine{}, &mockPrompter{}
			existingRemote(engine, tt.ahead, tt.behind)
			engine.On("Push", mock.Anything, vcs.PushOptions{RemoteBranch: "feature-x"}).Return(nil).Once()

			outcome, err := newCoordinator(t, engine, prompter).Publish(context.Background())
			require.NoError(t, err)
			assert.Equal(t, OutcomePushed, outcome)

			engine.AssertExpectations(t)
			prompter.AssertNotCalled(t, "ResolveDivergence", mock.Anything)
		})
	}
}

func TestPublish_Diverged(t *testing.T) {
	t.Parallel()

	expectedState := BranchState{
		Branch:          "feature-x",
		RemoteBranch:    "origin/feature-x",
		HasRemoteBranch: true,
		AheadCommits:    []string{"aaa", "bbb"},
		BehindCommits:   []string{"ccc"},
	}

	t.Run("prompt comes before any push", func(t *testing.T) {
		t.Parallel()

		engine, prompter := &mockEngine{}, &mockPrompter{}
		existingRemote(engine, expectedState.AheadCommits, expectedState.BehindCommits)
		prompter.On("ResolveDivergence", expectedState).Return(ActionQuit, nil).Once()

		_, err := newCoordinator(t, engine, prompter).Publish(context.Background())
		require.ErrorIs(t, err, ErrAborted)
		engine.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
		prompter.AssertExpectations(t)
	})

	t.Run("diff then force-push", func(t *testing.T) {
		t.Parallel()

		engine, prompter := &mockEngine{}, &mockPrompter{}
		existingRemote(engine, expectedState.AheadCommits, expectedState.BehindCommits)
		engine.On("Diff", mock.Anything, "origin/feature-x", "HEAD").Return("diff --git a/x b/x", nil).Once()
		engine.On("Push", mock.Anything, vcs.PushOptions{RemoteBranch: "feature-x", Force: true}).Return(nil).Once()
		prompter.On("ResolveDivergence", expectedState).Return(ActionShowDiff, nil).Once()
		prompter.On("ShowDiff", "diff --git a/x b/x").Return(nil).Once()
		prompter.On("ResolveDivergence", expectedState).Return(ActionForcePush, nil).Once()

		outcome, err := newCoordinator(t, engine, prompter).Publish(context.Background())
		require.NoError(t, err)
		assert.Equal(t, OutcomeForcePushed, outcome)
		engine.AssertExpectations(t)
		prompter.AssertExpectations(t)
	})

	t.Run("failed force-push is not retried", func(t *testing.T) {
		t.Parallel()

		engine, prompter := &mockEngine{}, &mockPrompter{}
		existingRemote(engine, expectedState.AheadCommits, expectedState.BehindCommits)
		engine.On("Push", mock.Anything, mock.Anything).Return(errors.New("protected branch")).Once()
		prompter.On("ResolveDivergence", expectedState).Return(ActionForcePush, nil).Once()

		_, err := newCoordinator(t, engine, prompter).Publish(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrAborted)
		engine.AssertNumberOfCalls(t, "Push", 1)
		prompter.AssertNotCalled(t, "ConfirmRetry", mock.Anything, mock.Anything)
	})
}

type recordingRunner struct {
	mock.Mock
}

func (r *recordingRunner) Run(ctx context.Context, dir string, args ...string) (vcs.Result, error) {
	called := r.Called(args)
	return called.Get(0).(vcs.Result), called.Error(1)
}

// trackingMainRepo reproduces git checkout -b feature origin/main: feature is one commit ahead
// of origin/main and its branch config tracks origin/main.
func trackingMainRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	signature := &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("readme"), 0o600))
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	base, err := wt.Commit("initial commit", &git.CommitOptions{Author: signature})
	require.NoError(t, err)

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:acme/widgets.git"}})
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", "main"), base),
	))

	require.NoError(t, wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("feature"), Create: true}))
	require.NoError(t, repo.CreateBranch(&gitconfig.Branch{
		Name:   "feature",
		Remote: "origin",
		Merge:  plumbing.NewBranchReferenceName("main"),
	}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "feature.txt"), []byte("feature work"), 0o600))
	_, err = wt.Add("feature.txt")
	require.NoError(t, err)
	_, err = wt.Commit("feature work", &git.CommitOptions{Author: signature})
	require.NoError(t, err)
	return dir
}

func TestPublish_BranchTrackingMainIsPublishedUnderItsOwnName(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}
	runner.On("Run", []string{"push", "-u", "origin", "feature"}).Return(vcs.Result{}, nil).Once()

	engine, err := vcs.NewGit(trackingMainRepo(t), vcs.WithRunner(runner), vcs.WithLogger(testhelpers.Logger(t)))
	require.NoError(t, err)

	outcome, err := NewCoordinator(engine, &mockPrompter{}, WithLogger(testhelpers.Logger(t))).Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	runner.AssertExpectations(t)
	runner.AssertNumberOfCalls(t, "Run", 1)
}

func TestPublish_FetchFailureIsFatal(t *testing.T) {
	t.Parallel()

	engine, prompter := &mockEngine{}, &mockPrompter{}
	engine.On("CurrentBranch", mock.Anything).Return("feature-x", nil)
	engine.On("RemoteBranch", mock.Anything, true).Return("origin/feature-x", nil)
	engine.On("Fetch", mock.Anything).Return(errors.New("could not resolve host"))

	_, err := newCoordinator(t, engine, prompter).Publish(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch")
	engine.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}

func TestDivergenceAction_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "force-push", ActionForcePush.String())
	assert.Equal(t, "diff", ActionShowDiff.String())
	assert.Equal(t, "quit", ActionQuit.String())
}
