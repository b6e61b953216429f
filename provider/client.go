package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/smartcontractkit/forge-flow/client"
	"github.com/smartcontractkit/forge-flow/telemetry"
)

// DefaultPerPage is sent on multipage requests that do not choose a page size themselves.
const DefaultPerPage = "100"

// ErrInvalidBaseURL is returned when a client is built without a usable API base URL.
var ErrInvalidBaseURL = errors.New("invalid API base URL")

// Request describes one REST call.
type Request struct {
	// Method is inferred when empty: POST when Body is set, GET otherwise.
	Method string
	// Path is relative to the client's base URL, or absolute.
	Path   string
	Params map[string]string
	Body   any
	// Multipage follows next page links and accumulates every page's items in order.
	// The response of every page must be a JSON array.
	Multipage bool
	// StatusCode, when set, receives the status of the last successful response.
	StatusCode *int
}

// HTTPMethod returns the explicit method, or the one inferred from the body.
func (r *Request) HTTPMethod() string {
	switch {
	case r.Method != "":
		return strings.ToUpper(r.Method)
	case r.Body != nil:
		return http.MethodPost
	default:
		return http.MethodGet
	}
}

// Requester performs REST calls. *Client implements it.
type Requester interface {
	Do(ctx context.Context, req *Request, out any) error
	Kind() Kind
}

// Client is the authenticated REST client for one provider.
type Client struct {
	rest    *resty.Client
	dialect Dialect
	baseURL string
	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger     zerolog.Logger
	httpClient *http.Client
	metrics    *telemetry.Metrics
	headers    map[string]string
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithHTTPClient sets the HTTP client carrying the auth and logging transports.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// WithMetrics sets the metrics instance.
func WithMetrics(metrics *telemetry.Metrics) ClientOption {
	return func(o *clientOptions) {
		o.metrics = metrics
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) ClientOption {
	return func(o *clientOptions) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		o.headers[key] = value
	}
}

// NewClient creates a REST client for the provider described by dialect.
func NewClient(baseURL string, dialect Dialect, options ...ClientOption) (*Client, error) {
	opts := &clientOptions{logger: zerolog.Nop()}
	for _, opt := range options {
		opt(opts)
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	restOpts := []client.Option{client.WithBaseURL(baseURL)}
	if opts.httpClient != nil {
		restOpts = append(restOpts, client.WithHTTPClient(opts.httpClient))
	}
	for key, value := range opts.headers {
		restOpts = append(restOpts, client.WithHeader(key, value))
	}

	logger := opts.logger.With().Str("provider", string(dialect.Kind())).Logger()
	return &Client{
		rest:    client.NewResty(logger, string(dialect.Kind())+"-rest", restOpts...),
		dialect: dialect,
		baseURL: baseURL,
		logger:  logger,
		metrics: opts.metrics,
	}, nil
}

// Kind returns the provider this client talks to.
func (c *Client) Kind() Kind {
	return c.dialect.Kind()
}

// BaseURL returns the REST base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs req and decodes the response into out, which may be nil.
// For multipage requests out must point to a slice, it receives the items of every page
// in page order, then in-page order.
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	method := req.HTTPMethod()
	params := req.Params
	if req.Multipage {
		params = withDefaultPerPage(params)
	}

	target := req.Path
	items := []json.RawMessage{}
	for page := 1; ; page++ {
		resp, err := c.send(ctx, method, target, params, req.Body)
		if err != nil {
			return err
		}
		if req.StatusCode != nil {
			*req.StatusCode = resp.StatusCode()
		}
		if !req.Multipage {
			return decodeBody(resp.Body(), out)
		}

		var pageItems []json.RawMessage
		if err := json.Unmarshal(resp.Body(), &pageItems); err != nil {
			return fmt.Errorf("failed to decode page %d of %s: %w", page, req.Path, err)
		}
		items = append(items, pageItems...)

		next, ok := c.dialect.NextPage(resp.RawResponse)
		if !ok {
			c.logger.Trace().Str("path", req.Path).Int("pages", page).Int("items", len(items)).Msg("Fetched all pages")
			break
		}
		target = next
		if c.dialect.NextLinkCarriesParams() {
			params = nil
		}
	}

	if out == nil {
		return nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) send(
	ctx context.Context,
	method, target string,
	params map[string]string,
	body any,
) (*resty.Response, error) {
	r := c.rest.R().SetContext(ctx)
	if len(params) > 0 {
		r.SetQueryParams(params)
	}
	if body != nil {
		r.SetBody(body)
	}

	start := time.Now()
	resp, err := r.Execute(method, target)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}
	c.metrics.IncAPIRequest(ctx, string(c.Kind()), method, resp.StatusCode())
	c.metrics.RecordAPILatency(ctx, string(c.Kind()), method, time.Since(start))

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		raw := *resp.RawResponse
		raw.Body = io.NopCloser(bytes.NewReader(resp.Body()))
		apiErr := c.dialect.DecodeError(&raw)
		if apiErr.Method == "" {
			apiErr.Method = method
		}
		if apiErr.URL == "" {
			apiErr.URL = target
		}
		if apiErr.StatusCode == 0 {
			apiErr.StatusCode = resp.StatusCode()
		}
		return nil, apiErr
	}
	return resp, nil
}

func decodeBody(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func withDefaultPerPage(params map[string]string) map[string]string {
	if _, ok := params["per_page"]; ok {
		return params
	}
	withPage := make(map[string]string, len(params)+1)
	for key, value := range params {
		withPage[key] = value
	}
	withPage["per_page"] = DefaultPerPage
	return withPage
}

// Get performs a single page request and decodes the response into a T.
func Get[T any](ctx context.Context, r Requester, req Request) (T, error) {
	var out T
	req.Multipage = false
	err := r.Do(ctx, &req, &out)
	return out, err
}

// List performs a multipage request and decodes every item into a T.
func List[T any](ctx context.Context, r Requester, req Request) ([]T, error) {
	var out []T
	req.Multipage = true
	if err := r.Do(ctx, &req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
