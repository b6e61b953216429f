package gitlab

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/smartcontractkit/forge-flow/base"
	"github.com/smartcontractkit/forge-flow/config"
	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/provider"
	"github.com/smartcontractkit/forge-flow/telemetry"
)

// ErrNoCredential is returned when no GitLab token is configured.
var ErrNoCredential = errors.New("no GitLab credential configured, set GITLAB_TOKEN")

// Client is the GitLab provider bound to one project.
type Client struct {
	rest    *provider.Client
	repo    provider.RepositoryPath
	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

var _ forge.Provider = (*Client)(nil)

// NewClient creates a GitLab REST client for repo.
func NewClient(repo provider.RepositoryPath, options ...ClientOption) (*Client, error) {
	opts := &clientOptions{logger: zerolog.Nop()}
	for _, opt := range options {
		opt(opts)
	}

	credential := provider.NewCredential(opts.secrets.Token)
	if credential.IsZero() {
		return nil, ErrNoCredential
	}

	baseURL := strings.TrimSuffix(opts.secrets.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultGitLabBaseURL
	}
	logger := opts.logger.With().Str("repository", repo.FullName()).Str("base_url", baseURL).Logger()

	var baseTransport http.RoundTripper
	if opts.httpClient != nil {
		baseTransport = opts.httpClient.Transport
	}
	httpClient := base.NewClient(
		"gitlab",
		base.WithLogger(logger),
		base.WithBaseTransport(baseTransport),
		base.WithRequestHeaders(http.Header{"PRIVATE-TOKEN": []string{credential.Token()}}),
	)

	rest, err := provider.NewClient(
		baseURL,
		dialect{},
		provider.WithLogger(logger),
		provider.WithHTTPClient(httpClient),
		provider.WithMetrics(opts.metrics),
	)
	if err != nil {
		return nil, err
	}
	return &Client{
		rest:    rest,
		repo:    repo,
		logger:  logger,
		metrics: opts.metrics,
	}, nil
}

// Kind returns provider.GitLab.
func (c *Client) Kind() provider.Kind {
	return provider.GitLab
}

// Repository returns the project the client is bound to.
func (c *Client) Repository() provider.RepositoryPath {
	return c.repo
}

// projectPath joins segments under /projects/{id}, where id is the URL encoded full path.
func (c *Client) projectPath(segments ...string) string {
	return projectPathOf(c.repo.ProjectID(), segments...)
}

func projectPathOf(projectID string, segments ...string) string {
	parts := append([]string{"", "projects", projectID}, segments...)
	return strings.Join(parts, "/")
}

func (c *Client) wrap(operation string, err error) error {
	return forge.WrapOperation(c.repo, operation, err)
}
