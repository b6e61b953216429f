package selection

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when a pattern matches no candidate.
type NotFoundError struct {
	DisplayName string
	Pattern     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s matches %q", e.DisplayName, e.Pattern)
}

// AmbiguousMatchError is returned when a pattern matches more than one candidate.
type AmbiguousMatchError struct {
	DisplayName string
	Pattern     string
	Matches     []Candidate
}

func (e *AmbiguousMatchError) Error() string {
	names := make([]string, 0, len(e.Matches))
	for _, m := range e.Matches {
		names = append(names, m.String())
	}
	return fmt.Sprintf("%q matches %d %ss: %s", e.Pattern, len(e.Matches), e.DisplayName, strings.Join(names, ", "))
}
