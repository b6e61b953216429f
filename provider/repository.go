package provider

import (
	"fmt"
	"net/url"
)

// Kind tags which hosting provider a repository lives on.
type Kind string

const (
	// GitHub is github.com or a GitHub Enterprise Server instance.
	GitHub Kind = "github"
	// GitLab is gitlab.com or a self-managed GitLab instance.
	GitLab Kind = "gitlab"
)

// RepositoryPath identifies the repository operations target.
// It is resolved once per invocation from the local git remotes.
type RepositoryPath struct {
	Provider Kind
	Host     string
	// Owner is the user or organization on GitHub, the full namespace (which may contain slashes) on GitLab.
	Owner string
	Name  string
	// IsUpstream is set when the path points at the parent of the fork the local clone pushes to.
	IsUpstream bool
	// ForkOwner is the namespace of the fork when IsUpstream is set.
	ForkOwner string
}

// FullName returns "owner/name".
func (r RepositoryPath) FullName() string {
	return r.Owner + "/" + r.Name
}

// ProjectID returns the URL encoded full path GitLab accepts in place of a numeric project ID.
func (r RepositoryPath) ProjectID() string {
	return url.PathEscape(r.FullName())
}

func (r RepositoryPath) String() string {
	if r.IsUpstream {
		return fmt.Sprintf("%s:%s (upstream of %s)", r.Provider, r.FullName(), r.ForkOwner)
	}
	return fmt.Sprintf("%s:%s", r.Provider, r.FullName())
}
