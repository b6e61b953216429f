package github

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_primary_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_secondary_ratelimit"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/smartcontractkit/forge-flow/base"
	"github.com/smartcontractkit/forge-flow/config"
	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/provider"
	"github.com/smartcontractkit/forge-flow/telemetry"
)

// Client is the GitHub provider bound to one repository.
type Client struct {
	rest    *provider.Client
	graphql *provider.GraphQLClient
	repo    provider.RepositoryPath
	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

var _ forge.Provider = (*Client)(nil)

// NewClient creates a GitHub REST and GraphQL client for repo.
func NewClient(repo provider.RepositoryPath, options ...ClientOption) (*Client, error) {
	opts := &clientOptions{logger: zerolog.Nop()}
	for _, opt := range options {
		opt(opts)
	}

	tokenSource, err := setupAuth(opts.logger, opts.secrets)
	if err != nil {
		return nil, fmt.Errorf("failed to setup authentication: %w", err)
	}

	baseURL := opts.secrets.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultGitHubBaseURL
	}
	graphQLURL := opts.secrets.GraphQLURL
	if graphQLURL == "" {
		graphQLURL = GraphQLEndpoint(baseURL)
	}

	logger := opts.logger.With().Str("repository", repo.FullName()).Str("base_url", baseURL).Logger()
	client := &Client{
		repo:    repo,
		logger:  logger,
		metrics: opts.metrics,
	}

	var baseTransport http.RoundTripper
	if opts.httpClient != nil {
		baseTransport = opts.httpClient.Transport
	}
	transport := base.NewTransport(
		"github",
		base.WithLogger(logger),
		base.WithBaseTransport(baseTransport),
	)
	transport = &oauth2.Transport{Source: tokenSource, Base: transport}

	onPrimaryRateLimitHit := func(ctx *github_primary_ratelimit.CallbackContext) {
		l := logger.Warn().Str("limit", "primary")
		if ctx.Request != nil {
			l = l.Str("request_url", ctx.Request.URL.String())
		}
		if ctx.Response != nil {
			l = l.Int("status", ctx.Response.StatusCode)
		}
		if ctx.Category != "" {
			l = l.Str("category", string(ctx.Category))
		}
		if ctx.ResetTime != nil {
			l = l.Str("reset_time", ctx.ResetTime.String())
		}
		l.Msg(base.RateLimitHitMsg)

		if ctx.Request != nil {
			client.metrics.IncRateLimitHit(ctx.Request.Context(), string(provider.GitHub))
		}
	}

	onSecondaryRateLimitHit := func(ctx *github_secondary_ratelimit.CallbackContext) {
		l := logger.Warn().Str("limit", "secondary")
		if ctx.Request != nil {
			l = l.Str("request_url", ctx.Request.URL.String())
		}
		if ctx.ResetTime != nil {
			l = l.Str("reset_time", ctx.ResetTime.String())
		}
		if ctx.TotalSleepTime != nil {
			l = l.Str("total_sleep_time", ctx.TotalSleepTime.String())
		}
		l.Msg(base.RateLimitHitMsg)

		if ctx.Request != nil {
			client.metrics.IncRateLimitHit(ctx.Request.Context(), string(provider.GitHub))
		}
	}

	// The secondary guard sleeps until the reset and then resends the rejected request.
	// No other layer resends a GitHub request.
	rateLimited := github_ratelimit.NewClient(
		transport,
		github_primary_ratelimit.WithLimitDetectedCallback(onPrimaryRateLimitHit),
		github_secondary_ratelimit.WithLimitDetectedCallback(onSecondaryRateLimitHit),
	)
	rateLimited.Timeout = base.DefaultTimeout

	client.rest, err = provider.NewClient(
		baseURL,
		dialect{},
		provider.WithLogger(logger),
		provider.WithHTTPClient(rateLimited),
		provider.WithMetrics(opts.metrics),
		provider.WithHeader("Accept", "application/vnd.github+json"),
		provider.WithHeader("X-GitHub-Api-Version", "2022-11-28"),
	)
	if err != nil {
		return nil, err
	}
	client.graphql = provider.NewGraphQLClient(client.rest, graphQLURL)

	return client, nil
}

// GraphQLEndpoint derives the GraphQL URL from a REST base URL.
// GitHub Enterprise Server serves REST under /api/v3 and GraphQL under /api/graphql.
func GraphQLEndpoint(restBaseURL string) string {
	restBaseURL = strings.TrimSuffix(restBaseURL, "/")
	if strings.HasSuffix(restBaseURL, "/api/v3") {
		return strings.TrimSuffix(restBaseURL, "/v3") + "/graphql"
	}
	return restBaseURL + "/graphql"
}

// Kind returns provider.GitHub.
func (c *Client) Kind() provider.Kind {
	return provider.GitHub
}

// Repository returns the repository the client is bound to.
func (c *Client) Repository() provider.RepositoryPath {
	return c.repo
}

// repoPath joins escaped segments under /repos/{owner}/{name}.
func (c *Client) repoPath(segments ...string) string {
	parts := []string{"repos", url.PathEscape(c.repo.Owner), url.PathEscape(c.repo.Name)}
	parts = append(parts, segments...)
	return "/" + strings.Join(parts, "/")
}

func (c *Client) wrap(operation string, err error) error {
	return forge.WrapOperation(c.repo, operation, err)
}
