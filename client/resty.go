// Package client provides a Resty client with logging middleware to call git hosting providers with.
package client

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

type options struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	headers    map[string]string
}

// Option configures NewResty.
type Option func(*options)

// WithHTTPClient makes resty send requests through httpClient, usually one built by the base package
// so that authentication and rate limit transports are applied.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithBaseURL sets the URL relative request paths are resolved against.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(o *options) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		o.headers[key] = value
	}
}

// NewResty creates a new Resty client with logging middleware to call other services with.
// Component is used to identify what service is making the request.
// Retries are disabled, callers decide whether a failed call is worth repeating.
func NewResty(logger zerolog.Logger, component string, opts ...Option) *resty.Client {
	o := &options{userAgent: "forge-flow"}
	for _, opt := range opts {
		opt(o)
	}

	var client *resty.Client
	if o.httpClient != nil {
		client = resty.NewWithClient(o.httpClient)
	} else {
		client = resty.New().SetTimeout(30 * time.Second)
	}
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal
	client.SetRetryCount(0)
	client.SetHeader("User-Agent", o.userAgent)
	client.SetHeader("Accept", "application/json")
	for key, value := range o.headers {
		client.SetHeader(key, value)
	}
	if o.baseURL != "" {
		client.SetBaseURL(o.baseURL)
	}

	logger = logger.With().Str("component", component).Logger()

	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		logger.Trace().
			Str("method", r.Method).
			Str("url", r.URL).
			Msg("HTTP client request")
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
		logger.Trace().
			Str("method", r.Request.Method).
			Str("url", r.Request.URL).
			Int("status_code", r.StatusCode()).
			Str("duration", r.Time().String()).
			Bytes("response_body", r.Body()).
			Msg("HTTP client response")
		return nil
	})

	client.OnError(func(r *resty.Request, err error) {
		logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("url", r.URL).
			Msg("HTTP client error")
	})

	return client
}
