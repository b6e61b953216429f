package selection

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoChooser is returned when manual selection is requested but no chooser is configured.
var ErrNoChooser = errors.New("manual selection is not available")

// Chooser presents options to the operator and blocks until they choose.
type Chooser interface {
	// ChooseOne returns the index of the chosen option, or -1 when allowNone is set and
	// the operator picked "none".
	ChooseOne(title string, options []string, allowNone bool) (int, error)
	// ChooseMany returns the indexes of the chosen options in the order they were picked.
	ChooseMany(title string, options []string) ([]int, error)
}

// Matcher resolves patterns against candidates.
type Matcher struct {
	chooser Chooser
}

// NewMatcher creates a Matcher. chooser may be nil when manual selection is never used.
func NewMatcher(chooser Chooser) *Matcher {
	return &Matcher{chooser: chooser}
}

// SelectOne resolves pattern to at most one candidate.
// SkipSentinel returns nil without looking at candidates, ManualSentinel asks the chooser
// with an extra "none" option.
func (m *Matcher) SelectOne(displayName string, candidates []Candidate, pattern string, key KeyFunc) (*Candidate, error) {
	pattern = strings.TrimSpace(pattern)
	switch pattern {
	case SkipSentinel:
		return nil, nil
	case ManualSentinel:
		if m.chooser == nil {
			return nil, ErrNoChooser
		}
		index, err := m.chooser.ChooseOne(chooserTitle(displayName), options(candidates), true)
		if err != nil {
			return nil, err
		}
		if index < 0 {
			return nil, nil
		}
		if index >= len(candidates) {
			return nil, fmt.Errorf("chooser returned %d for %d %ss", index, len(candidates), displayName)
		}
		chosen := candidates[index]
		return &chosen, nil
	}

	chosen, err := matchExact(displayName, candidates, pattern, key)
	if err != nil {
		return nil, err
	}
	return &chosen, nil
}

// SelectMany resolves comma separated patterns, returning exactly one candidate per token in
// token order. Several patterns are joined with commas first. A lone ManualSentinel asks the chooser.
func (m *Matcher) SelectMany(displayName string, candidates []Candidate, key KeyFunc, patterns ...string) ([]Candidate, error) {
	joined := JoinPatterns(patterns...)
	if strings.TrimSpace(joined) == ManualSentinel {
		if m.chooser == nil {
			return nil, ErrNoChooser
		}
		indexes, err := m.chooser.ChooseMany(chooserTitle(displayName), options(candidates))
		if err != nil {
			return nil, err
		}
		chosen := make([]Candidate, 0, len(indexes))
		for _, index := range indexes {
			if index < 0 || index >= len(candidates) {
				return nil, fmt.Errorf("chooser returned %d for %d %ss", index, len(candidates), displayName)
			}
			chosen = append(chosen, candidates[index])
		}
		return chosen, nil
	}

	tokens := SplitPatterns(joined)
	selected := make([]Candidate, 0, len(tokens))
	for _, token := range tokens {
		chosen, err := matchExact(displayName, candidates, token, key)
		if err != nil {
			return nil, err
		}
		selected = append(selected, chosen)
	}
	return selected, nil
}

// Resolve applies the request's cardinality to its fetched candidates.
func (m *Matcher) Resolve(input SelectionInput) (SelectionResult, error) {
	req := input.Request
	result := SelectionResult{Request: req}
	if req.Cardinality == Multiple {
		many, err := m.SelectMany(req.DisplayName, input.Candidates, req.key(), req.Pattern)
		result.Many = many
		return result, err
	}
	one, err := m.SelectOne(req.DisplayName, input.Candidates, req.Pattern, req.key())
	result.One = one
	return result, err
}

// ResolveAll resolves every input in order, stopping at the first failure.
func (m *Matcher) ResolveAll(inputs []SelectionInput) ([]SelectionResult, error) {
	results := make([]SelectionResult, 0, len(inputs))
	for _, input := range inputs {
		result, err := m.Resolve(input)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// JoinPatterns normalizes list input into one comma separated pattern.
func JoinPatterns(patterns ...string) string {
	return strings.Join(patterns, ",")
}

// SplitPatterns splits a comma separated pattern into trimmed, non-empty tokens.
func SplitPatterns(pattern string) []string {
	var tokens []string
	for _, token := range strings.Split(pattern, ",") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func matchExact(displayName string, candidates []Candidate, pattern string, key KeyFunc) (Candidate, error) {
	var matches []Candidate
	for _, c := range candidates {
		if strings.EqualFold(key(c), pattern) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return Candidate{}, &NotFoundError{DisplayName: displayName, Pattern: pattern}
	case 1:
		return matches[0], nil
	default:
		return Candidate{}, &AmbiguousMatchError{DisplayName: displayName, Pattern: pattern, Matches: matches}
	}
}

func options(candidates []Candidate) []string {
	opts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		opts = append(opts, c.String())
	}
	return opts
}

func chooserTitle(displayName string) string {
	return "Select " + displayName
}
