package selection

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/forge-flow/forge"
)

type mockChooser struct {
	mock.Mock
}

func (m *mockChooser) ChooseOne(title string, options []string, allowNone bool) (int, error) {
	args := m.Called(title, options, allowNone)
	return args.Int(0), args.Error(1)
}

func (m *mockChooser) ChooseMany(title string, options []string) ([]int, error) {
	args := m.Called(title, options)
	indexes, _ := args.Get(0).([]int)
	return indexes, args.Error(1)
}

func labels(names ...string) []Candidate {
	ls := make([]forge.Label, 0, len(names))
	for _, n := range names {
		ls = append(ls, forge.Label{Name: n})
	}
	return FromLabels(ls)
}

func names(candidates []Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, LabelName(c))
	}
	return out
}

func TestSelectOne_CaseInsensitive(t *testing.T) {
	t.Parallel()

	chosen, err := NewMatcher(nil).SelectOne("lbl", labels("Bug"), "bug", LabelName)
	require.NoError(t, err)
	require.NotNil(t, chosen)
	assert.Equal(t, "Bug", LabelName(*chosen))
}

func TestSelectOne(t *testing.T) {
	t.Parallel()

	candidates := labels("bug", "Bug", "docs", "good first issue")

	tests := []struct {
		name          string
		pattern       string
		expected      string
		expectedNil   bool
		expectedError any
	}{
		{name: "exact", pattern: "docs", expected: "docs"},
		{name: "upper case pattern", pattern: "DOCS", expected: "docs"},
		{name: "spaces inside the name", pattern: "Good First Issue", expected: "good first issue"},
		{name: "surrounding whitespace", pattern: "  docs ", expected: "docs"},
		{name: "skip", pattern: SkipSentinel, expectedNil: true},
		{name: "not found", pattern: "feature", expectedError: &NotFoundError{}},
		{name: "prefix is not a match", pattern: "doc", expectedError: &NotFoundError{}},
		{name: "ambiguous", pattern: "BUG", expectedError: &AmbiguousMatchError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			chosen, err := NewMatcher(nil).SelectOne("label", candidates, tt.pattern, LabelName)
			switch target := tt.expectedError.(type) {
			case *NotFoundError:
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "label", target.DisplayName)
				assert.Equal(t, strings.TrimSpace(tt.pattern), target.Pattern)
				return
			case *AmbiguousMatchError:
				require.ErrorAs(t, err, &target)
				assert.Len(t, target.Matches, 2)
				return
			}
			require.NoError(t, err)
			if tt.expectedNil {
				assert.Nil(t, chosen)
				return
			}
			require.NotNil(t, chosen)
			assert.Equal(t, tt.expected, LabelName(*chosen))
		})
	}
}

func TestSelectOne_SkipDoesNotTouchCandidates(t *testing.T) {
	t.Parallel()

	chooser := &mockChooser{}
	key := func(Candidate) string {
		t.Fatal("key extractor must not run for the skip sentinel")
		return ""
	}
	chosen, err := NewMatcher(chooser).SelectOne("milestone", nil, SkipSentinel, key)
	require.NoError(t, err)
	assert.Nil(t, chosen)
	chooser.AssertNotCalled(t, "ChooseOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestSelectOne_Manual(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	candidates := FromMilestones([]forge.Milestone{
		{Number: 1, Title: "v1.0"},
		{Number: 2, Title: "v1.1", DueOn: &due},
	})

	t.Run("chosen", func(t *testing.T) {
		t.Parallel()

		chooser := &mockChooser{}
		chooser.On("ChooseOne", "Select milestone", []string{"v1.0", "v1.1 (due 2026-11-01)"}, true).Return(1, nil).Once()

		chosen, err := NewMatcher(chooser).SelectOne("milestone", candidates, ManualSentinel, MilestoneTitle)
		require.NoError(t, err)
		require.NotNil(t, chosen)
		m, ok := chosen.Milestone()
		require.True(t, ok)
		assert.Equal(t, 2, m.Number)
		chooser.AssertExpectations(t)
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()

		chooser := &mockChooser{}
		chooser.On("ChooseOne", mock.Anything, mock.Anything, true).Return(-1, nil).Once()

		chosen, err := NewMatcher(chooser).SelectOne("milestone", candidates, ManualSentinel, MilestoneTitle)
		require.NoError(t, err)
		assert.Nil(t, chosen)
	})

	t.Run("chooser failure", func(t *testing.T) {
		t.Parallel()

		chooser := &mockChooser{}
		cause := errors.New("interrupted")
		chooser.On("ChooseOne", mock.Anything, mock.Anything, true).Return(0, cause).Once()

		_, err := NewMatcher(chooser).SelectOne("milestone", candidates, ManualSentinel, MilestoneTitle)
		require.ErrorIs(t, err, cause)
	})

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()

		chooser := &mockChooser{}
		chooser.On("ChooseOne", mock.Anything, mock.Anything, true).Return(5, nil).Once()

		_, err := NewMatcher(chooser).SelectOne("milestone", candidates, ManualSentinel, MilestoneTitle)
		require.Error(t, err)
	})

	t.Run("no chooser", func(t *testing.T) {
		t.Parallel()

		_, err := NewMatcher(nil).SelectOne("milestone", candidates, ManualSentinel, MilestoneTitle)
		require.ErrorIs(t, err, ErrNoChooser)
	})
}

func TestSelectMany(t *testing.T) {
	t.Parallel()

	candidates := labels("bug", "docs", "Feature", "needs review")

	tests := []struct {
		name     string
		patterns []string
		expected []string
		notFound string
	}{
		{name: "input order is kept", patterns: []string{"feature,bug"}, expected: []string{"Feature", "bug"}},
		{name: "list input is joined", patterns: []string{"docs", "BUG"}, expected: []string{"docs", "bug"}},
		{name: "tokens are trimmed", patterns: []string{" docs ,  needs review"}, expected: []string{"docs", "needs review"}},
		{name: "empty tokens are dropped", patterns: []string{"docs,,bug,"}, expected: []string{"docs", "bug"}},
		{name: "empty pattern selects nothing", patterns: []string{""}, expected: []string{}},
		{name: "no patterns select nothing", expected: []string{}},
		{name: "duplicates resolve twice", patterns: []string{"bug,BUG"}, expected: []string{"bug", "bug"}},
		{name: "one unknown token fails the whole selection", patterns: []string{"bug,wontfix,docs"}, notFound: "wontfix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			selected, err := NewMatcher(nil).SelectMany("label", candidates, LabelName, tt.patterns...)
			if tt.notFound != "" {
				var notFound *NotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Equal(t, tt.notFound, notFound.Pattern)
				assert.Nil(t, selected)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, names(selected))
		})
	}
}

// Every outcome of SelectMany is either one candidate per token or a match error.
func TestSelectMany_Cardinality(t *testing.T) {
	t.Parallel()

	candidates := labels("bug", "Bug", "docs", "feature")
	vocabulary := []string{"bug", "docs", "FEATURE", "missing", "Docs"}

	var patterns []string
	for _, a := range vocabulary {
		patterns = append(patterns, a)
		for _, b := range vocabulary {
			patterns = append(patterns, a+","+b)
			for _, c := range vocabulary {
				patterns = append(patterns, a+", "+b+" ,"+c)
			}
		}
	}

	matcher := NewMatcher(nil)
	for _, pattern := range patterns {
		selected, err := matcher.SelectMany("label", candidates, LabelName, pattern)
		if err != nil {
			var (
				notFound  *NotFoundError
				ambiguous *AmbiguousMatchError
			)
			assert.True(t, errors.As(err, &notFound) || errors.As(err, &ambiguous), "pattern %q failed with %v", pattern, err)
			assert.Nil(t, selected)
			continue
		}
		assert.Len(t, selected, len(SplitPatterns(pattern)), "pattern %q", pattern)
	}
}

func TestSelectMany_Manual(t *testing.T) {
	t.Parallel()

	candidates := labels("bug", "docs", "feature")
	chooser := &mockChooser{}
	chooser.On("ChooseMany", "Select label", []string{"bug", "docs", "feature"}).Return([]int{2, 0}, nil).Once()

	selected, err := NewMatcher(chooser).SelectMany("label", candidates, LabelName, ManualSentinel)
	require.NoError(t, err)
	assert.Equal(t, []string{"feature", "bug"}, names(selected))
	chooser.AssertExpectations(t)
}

func TestMatcher_Resolve(t *testing.T) {
	t.Parallel()

	inputs := []SelectionInput{
		{
			Request:    AttributeRequest{Kind: KindLabel, DisplayName: "label", Pattern: "docs,bug", Cardinality: Multiple},
			Candidates: labels("bug", "docs"),
		},
		{
			Request:    AttributeRequest{Kind: KindMilestone, DisplayName: "milestone", Pattern: "v2", Cardinality: Single},
			Candidates: FromMilestones([]forge.Milestone{{Number: 3, Title: "V2"}}),
		},
		{
			Request: AttributeRequest{
				Kind: KindCollaborator, DisplayName: "reviewer", Pattern: "Octocat", Cardinality: Multiple,
				Key: func(c Candidate) string {
					u, _ := c.User()
					return u.Name
				},
			},
			Candidates: FromUsers([]forge.User{{Login: "mona", Name: "octocat"}}),
		},
	}

	results, err := NewMatcher(nil).ResolveAll(inputs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, []forge.Label{{Name: "docs"}, {Name: "bug"}}, results[0].Labels())
	require.NotNil(t, results[1].Milestone())
	assert.Equal(t, 3, results[1].Milestone().Number)
	assert.Equal(t, []forge.User{{Login: "mona", Name: "octocat"}}, results[2].Users())
}

func TestCandidate_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "bug - Something is broken", Candidate{Kind: KindLabel, Value: forge.Label{Name: "bug", Description: "Something is broken"}}.String())
	assert.Equal(t, "mona (Mona Lisa)", Candidate{Kind: KindCollaborator, Value: forge.User{Login: "mona", Name: "Mona Lisa"}}.String())
	assert.Equal(t, "mona", Candidate{Kind: KindCollaborator, Value: forge.User{Login: "mona", Name: "Mona"}}.String())
}
