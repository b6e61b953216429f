// Package selection resolves operator supplied patterns against candidate sets fetched from a provider.
//
// A Resolver fetches every requested candidate set concurrently and hands them back in submission
// order. A Matcher then turns each pattern into candidates: exact case-insensitive matches,
// an interactive choice for the manual sentinel, or nothing for the skip sentinel.
package selection

import (
	"fmt"
	"strings"

	"github.com/smartcontractkit/forge-flow/forge"
)

const (
	// ManualSentinel asks for an interactive choice instead of pattern matching.
	ManualSentinel = "@"
	// SkipSentinel selects nothing without consulting the candidates.
	SkipSentinel = ""
)

// Kind is the attribute a candidate set belongs to.
type Kind string

const (
	KindLabel        Kind = "label"
	KindMilestone    Kind = "milestone"
	KindCollaborator Kind = "collaborator"
)

// Cardinality is how many candidates a request resolves to.
type Cardinality int

const (
	Single Cardinality = iota
	Multiple
)

func (c Cardinality) String() string {
	if c == Multiple {
		return "multiple"
	}
	return "single"
}

// Candidate is a read-only projection of a provider resource.
// Value holds a forge.Label, forge.Milestone or forge.User depending on Kind.
type Candidate struct {
	Kind  Kind
	Value any
}

// Label returns the wrapped label.
func (c Candidate) Label() (forge.Label, bool) {
	l, ok := c.Value.(forge.Label)
	return l, ok
}

// Milestone returns the wrapped milestone.
func (c Candidate) Milestone() (forge.Milestone, bool) {
	m, ok := c.Value.(forge.Milestone)
	return m, ok
}

// User returns the wrapped collaborator.
func (c Candidate) User() (forge.User, bool) {
	u, ok := c.Value.(forge.User)
	return u, ok
}

// String renders the candidate for interactive choosers.
func (c Candidate) String() string {
	switch v := c.Value.(type) {
	case forge.Label:
		if v.Description != "" {
			return fmt.Sprintf("%s - %s", v.Name, v.Description)
		}
		return v.Name
	case forge.Milestone:
		if v.DueOn != nil {
			return fmt.Sprintf("%s (due %s)", v.Title, v.DueOn.Format("2006-01-02"))
		}
		return v.Title
	case forge.User:
		if v.Name != "" && !strings.EqualFold(v.Name, v.Login) {
			return fmt.Sprintf("%s (%s)", v.Login, v.Name)
		}
		return v.Login
	default:
		return fmt.Sprint(v)
	}
}

// KeyFunc extracts the string a pattern is matched against.
type KeyFunc func(Candidate) string

// LabelName matches labels by name.
func LabelName(c Candidate) string {
	l, _ := c.Label()
	return l.Name
}

// MilestoneTitle matches milestones by title.
func MilestoneTitle(c Candidate) string {
	m, _ := c.Milestone()
	return m.Title
}

// UserLogin matches collaborators by login.
func UserLogin(c Candidate) string {
	u, _ := c.User()
	return u.Login
}

// DefaultKey returns the key function used when a request does not set one.
func DefaultKey(kind Kind) KeyFunc {
	switch kind {
	case KindMilestone:
		return MilestoneTitle
	case KindCollaborator:
		return UserLogin
	default:
		return LabelName
	}
}

// FromLabels wraps labels as candidates.
func FromLabels(labels []forge.Label) []Candidate {
	candidates := make([]Candidate, 0, len(labels))
	for _, l := range labels {
		candidates = append(candidates, Candidate{Kind: KindLabel, Value: l})
	}
	return candidates
}

// FromMilestones wraps milestones as candidates.
func FromMilestones(milestones []forge.Milestone) []Candidate {
	candidates := make([]Candidate, 0, len(milestones))
	for _, m := range milestones {
		candidates = append(candidates, Candidate{Kind: KindMilestone, Value: m})
	}
	return candidates
}

// FromUsers wraps collaborators as candidates.
func FromUsers(users []forge.User) []Candidate {
	candidates := make([]Candidate, 0, len(users))
	for _, u := range users {
		candidates = append(candidates, Candidate{Kind: KindCollaborator, Value: u})
	}
	return candidates
}

// AttributeRequest asks for one attribute to be resolved.
type AttributeRequest struct {
	Kind        Kind
	DisplayName string
	Pattern     string
	Cardinality Cardinality
	// Key defaults to DefaultKey(Kind).
	Key KeyFunc
	// PreFilter narrows the fetched set before matching.
	PreFilter func([]Candidate) []Candidate
}

func (r AttributeRequest) key() KeyFunc {
	if r.Key != nil {
		return r.Key
	}
	return DefaultKey(r.Kind)
}

// SelectionInput is a request paired with its fetched candidates.
type SelectionInput struct {
	Request    AttributeRequest
	Candidates []Candidate
}

// SelectionResult holds what a request resolved to. One is set for Single requests,
// Many for Multiple requests.
type SelectionResult struct {
	Request AttributeRequest
	One     *Candidate
	Many    []Candidate
}

// Labels returns the selected labels.
func (r SelectionResult) Labels() []forge.Label {
	labels := make([]forge.Label, 0, len(r.all()))
	for _, c := range r.all() {
		if l, ok := c.Label(); ok {
			labels = append(labels, l)
		}
	}
	return labels
}

// Users returns the selected collaborators.
func (r SelectionResult) Users() []forge.User {
	users := make([]forge.User, 0, len(r.all()))
	for _, c := range r.all() {
		if u, ok := c.User(); ok {
			users = append(users, u)
		}
	}
	return users
}

// Milestone returns the selected milestone, or nil.
func (r SelectionResult) Milestone() *forge.Milestone {
	for _, c := range r.all() {
		if m, ok := c.Milestone(); ok {
			return &m
		}
	}
	return nil
}

func (r SelectionResult) all() []Candidate {
	if r.One != nil {
		return []Candidate{*r.One}
	}
	return r.Many
}
