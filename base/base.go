// Package base provides a base HTTP client with logging middleware for calling git hosting providers.
package base

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	// RateLimitWarningThreshold is the number of remaining requests before a warning is logged.
	RateLimitWarningThreshold = 5
	// RateLimitWarningMsg is the message logged when the number of remaining requests is below the warning threshold.
	RateLimitWarningMsg = "API requests nearing rate limit"
	// RateLimitHitMsg is the message logged when the number of remaining requests is 0.
	RateLimitHitMsg = "API rate limit hit"

	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 30 * time.Second
)

// rateLimitHeaders names the rate limit headers of one provider.
type rateLimitHeaders struct {
	limit     string
	remaining string
	used      string
	reset     string
}

var (
	githubRateLimitHeaders = rateLimitHeaders{
		limit:     "X-RateLimit-Limit",
		remaining: "X-RateLimit-Remaining",
		used:      "X-RateLimit-Used",
		reset:     "X-RateLimit-Reset",
	}
	gitlabRateLimitHeaders = rateLimitHeaders{
		limit:     "RateLimit-Limit",
		remaining: "RateLimit-Remaining",
		used:      "RateLimit-Observed",
		reset:     "RateLimit-Reset",
	}
)

type baseOptions struct {
	logger    zerolog.Logger
	component string
	base      http.RoundTripper
	header    http.Header
}

// Option can modify how the base client works
type Option func(*baseOptions)

// WithLogger sets the logger to use for logging requests and responses
func WithLogger(logger zerolog.Logger) Option {
	return func(opts *baseOptions) {
		opts.logger = logger
	}
}

// WithBaseTransport sets the base transport to use for the client
func WithBaseTransport(base http.RoundTripper) Option {
	return func(opts *baseOptions) {
		if base != nil {
			opts.base = base
		}
	}
}

// WithRequestHeaders sets headers to add to all requests
func WithRequestHeaders(headers http.Header) Option {
	return func(opts *baseOptions) {
		if opts.header == nil {
			opts.header = make(http.Header)
		}
		for key, values := range headers {
			for _, value := range values {
				opts.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new base HTTP client with logging middleware
func NewClient(component string, options ...Option) *http.Client {
	return &http.Client{
		Timeout:   DefaultTimeout,
		Transport: NewTransport(component, options...),
	}
}

// NewTransport creates a new base transport with logging middleware for use as the base transport for other clients
func NewTransport(component string, options ...Option) http.RoundTripper {
	opts := &baseOptions{
		logger:    zerolog.Nop(),
		base:      http.DefaultTransport,
		component: component,
	}
	for _, opt := range options {
		opt(opts)
	}

	return &Transport{
		Base:          opts.base,
		Logger:        opts.logger.With().Str("component", opts.component).Logger(),
		Component:     opts.component,
		RequestHeader: opts.header,
	}
}

// Transport is an HTTP transport that logs requests and responses
type Transport struct {
	// Base is the underlying HTTP transport
	Base http.RoundTripper
	// Logger is the logger to use for logging
	Logger zerolog.Logger
	// Component identifies the provider channel making the request
	Component string
	// RequestHeader is the headers to use for all requests, if set.
	RequestHeader http.Header
}

// RoundTrip implements http.RoundTripper. It logs requests and responses and reports how close
// the caller is to the provider's rate limit.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	l := t.Logger.With().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Logger()
	l.Trace().Msg("HTTP client request")

	if t.RequestHeader != nil {
		req = req.Clone(req.Context())
		for key, values := range t.RequestHeader {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
	}

	resp, err := t.Base.RoundTrip(req)
	l = l.With().Str("duration", time.Since(start).String()).Logger()
	if err != nil {
		l.Error().Err(err).Msg("HTTP client error")
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		l.Error().Err(err).Msg("Failed to read response body")
		return resp, err
	}
	resp.Body = io.NopCloser(bytes.NewBuffer(body))
	l = l.With().Int("status_code", resp.StatusCode).Str("body", string(body)).Logger()

	headers := githubRateLimitHeaders
	if resp.Header.Get(headers.remaining) == "" {
		headers = gitlabRateLimitHeaders
	}
	l = logRateLimit(l, resp.Header, headers)

	l.Trace().Msg("HTTP client response")
	return resp, nil
}

// logRateLimit attaches rate limit fields to l and warns when the budget is nearly spent.
func logRateLimit(l zerolog.Logger, header http.Header, names rateLimitHeaders) zerolog.Logger {
	intHeader := func(name string) (int, bool) {
		raw := header.Get(name)
		if raw == "" {
			return 0, false
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			l.Debug().Str("header", name).Str("value", raw).Msg("Unparsable rate limit header")
			return 0, false
		}
		return value, true
	}

	if limit, ok := intHeader(names.limit); ok {
		l = l.With().Int("call_limit", limit).Logger()
	}
	if used, ok := intHeader(names.used); ok {
		l = l.With().Int("calls_used", used).Logger()
	}
	if reset, ok := intHeader(names.reset); ok {
		l = l.With().Time("limit_reset", time.Unix(int64(reset), 0)).Logger()
	}
	if remaining, ok := intHeader(names.remaining); ok {
		l = l.With().Int("calls_remaining", remaining).Logger()
		if remaining == 0 {
			l.Warn().Msg(RateLimitHitMsg)
		} else if remaining <= RateLimitWarningThreshold {
			l.Warn().Msg(RateLimitWarningMsg)
		}
	}
	return l
}
