package forge

import (
	"errors"
	"fmt"

	"github.com/smartcontractkit/forge-flow/provider"
)

// ErrUnsupportedOperation matches every *UnsupportedOperationError.
var ErrUnsupportedOperation = errors.New("operation not supported by provider")

// UnsupportedOperationError reports a capability the provider lacks.
type UnsupportedOperationError struct {
	Provider  provider.Kind
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s is not supported on %s", e.Operation, e.Provider)
}

// Is makes errors.Is(err, ErrUnsupportedOperation) hold.
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}

// ErrPullRequestNotFound is returned when no open pull request matches a branch.
var ErrPullRequestNotFound = errors.New("no open pull request found")

// OperationError adds the failing operation and repository to a provider failure.
// The underlying *provider.APIError stays reachable through errors.As.
type OperationError struct {
	Provider   provider.Kind
	Operation  string
	Repository string
	Underlying error
}

func (e *OperationError) Error() string {
	if e.Repository != "" {
		return fmt.Sprintf("%s %s for %s: %v", e.Provider, e.Operation, e.Repository, e.Underlying)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Operation, e.Underlying)
}

func (e *OperationError) Unwrap() error {
	return e.Underlying
}

// WrapOperation wraps err in an *OperationError, returning nil for a nil err.
func WrapOperation(repo provider.RepositoryPath, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{
		Provider:   repo.Provider,
		Operation:  operation,
		Repository: repo.FullName(),
		Underlying: err,
	}
}
