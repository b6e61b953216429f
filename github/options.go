package github

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/smartcontractkit/forge-flow/config"
	"github.com/smartcontractkit/forge-flow/telemetry"
)

// ClientOption is a function that can be used to configure the GitHub client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	secrets    config.GitHub
	logger     zerolog.Logger
	metrics    *telemetry.Metrics
	httpClient *http.Client
}

// WithConfig uses a GitHub config to set up authentication and endpoints.
func WithConfig(cfg config.Config) ClientOption {
	return func(c *clientOptions) {
		c.secrets = cfg.GitHub
	}
}

// WithLogger sets the logger for the GitHub client.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *clientOptions) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics instance for the GitHub client.
func WithMetrics(metrics *telemetry.Metrics) ClientOption {
	return func(c *clientOptions) {
		c.metrics = metrics
	}
}

// WithHTTPClient sends requests through the transport of httpClient instead of http.DefaultTransport.
// Handy for testing.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *clientOptions) {
		c.httpClient = httpClient
	}
}
