package gitlab

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/smartcontractkit/forge-flow/config"
	"github.com/smartcontractkit/forge-flow/telemetry"
)

// ClientOption configures the GitLab client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	secrets    config.GitLab
	logger     zerolog.Logger
	metrics    *telemetry.Metrics
	httpClient *http.Client
}

// WithConfig uses a GitLab config for the token and base URL.
func WithConfig(cfg config.Config) ClientOption {
	return func(c *clientOptions) {
		c.secrets = cfg.GitLab
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *clientOptions) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics instance.
func WithMetrics(metrics *telemetry.Metrics) ClientOption {
	return func(c *clientOptions) {
		c.metrics = metrics
	}
}

// WithHTTPClient sends requests through the transport of httpClient.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *clientOptions) {
		c.httpClient = httpClient
	}
}
