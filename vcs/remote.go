package vcs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/smartcontractkit/forge-flow/config"
	"github.com/smartcontractkit/forge-flow/provider"
)

// ErrUnknownProvider is returned when a remote host is neither a known GitHub nor GitLab host.
var ErrUnknownProvider = errors.New("remote host is not a known GitHub or GitLab host")

// RemoteURL is a parsed git remote.
type RemoteURL struct {
	Host string
	// Owner is everything before the last path segment: a user, an organization or a GitLab group path.
	Owner string
	Name  string
}

// ParseRemoteURL parses ssh, scp-like and http(s) remote URLs.
func ParseRemoteURL(raw string) (RemoteURL, error) {
	endpoint, err := transport.NewEndpoint(strings.TrimSpace(raw))
	if err != nil {
		return RemoteURL{}, fmt.Errorf("invalid remote URL %q: %w", raw, err)
	}
	if endpoint.Host == "" || endpoint.Protocol == "file" {
		return RemoteURL{}, fmt.Errorf("remote URL %q does not point at a hosting provider", raw)
	}

	path := strings.Trim(endpoint.Path, "/")
	path = strings.TrimSuffix(path, ".git")
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return RemoteURL{}, fmt.Errorf("remote URL %q has no owner/name path", raw)
	}
	return RemoteURL{
		Host:  strings.ToLower(endpoint.Host),
		Owner: path[:i],
		Name:  path[i+1:],
	}, nil
}

// DetectProvider maps a remote host to a provider using the public hosts and the configured API hosts.
func DetectProvider(host string, cfg config.Config) (provider.Kind, error) {
	host = strings.ToLower(host)
	switch {
	case host == "github.com" || host == hostOf(cfg.GitHub.BaseURL):
		return provider.GitHub, nil
	case host == "gitlab.com" || host == hostOf(cfg.GitLab.BaseURL) || slices.Contains(cfg.GitLab.GitLabHosts(), host):
		return provider.GitLab, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, host)
	}
}

func hostOf(baseURL string) string {
	if baseURL == "" {
		return ""
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// ResolveRepository derives the repository operations target from the remotes of engine.
// When the upstream remote exists, the repository is the upstream and the default remote's
// owner is recorded as the fork owner.
func ResolveRepository(ctx context.Context, engine Engine, cfg config.Config) (provider.RepositoryPath, error) {
	originURL, err := engine.RemoteURL(ctx, cfg.Remote)
	if err != nil {
		return provider.RepositoryPath{}, err
	}
	origin, err := ParseRemoteURL(originURL)
	if err != nil {
		return provider.RepositoryPath{}, err
	}

	target := origin
	isUpstream := false
	if cfg.UpstreamRemote != "" && cfg.UpstreamRemote != cfg.Remote {
		exists, err := engine.RemoteExists(ctx, cfg.UpstreamRemote)
		if err != nil {
			return provider.RepositoryPath{}, err
		}
		if exists {
			upstreamURL, err := engine.RemoteURL(ctx, cfg.UpstreamRemote)
			if err != nil {
				return provider.RepositoryPath{}, err
			}
			if target, err = ParseRemoteURL(upstreamURL); err != nil {
				return provider.RepositoryPath{}, err
			}
			isUpstream = true
		}
	}

	kind, err := DetectProvider(target.Host, cfg)
	if err != nil {
		return provider.RepositoryPath{}, err
	}
	repo := provider.RepositoryPath{
		Provider:   kind,
		Host:       target.Host,
		Owner:      target.Owner,
		Name:       target.Name,
		IsUpstream: isUpstream,
	}
	if isUpstream {
		repo.ForkOwner = origin.Owner
	}
	return repo, nil
}
