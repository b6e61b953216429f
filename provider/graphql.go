package provider

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// GraphQLClient runs fixed queries and mutations against a provider's GraphQL endpoint,
// reusing the REST client's transport, credential and error decoding.
type GraphQLClient struct {
	rest     Requester
	endpoint string
}

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Path    []any  `json:"path,omitempty"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// NewGraphQLClient creates a client posting to the absolute endpoint URL.
func NewGraphQLClient(rest Requester, endpoint string) *GraphQLClient {
	return &GraphQLClient{rest: rest, endpoint: endpoint}
}

// Endpoint returns the GraphQL URL.
func (g *GraphQLClient) Endpoint() string {
	return g.endpoint
}

// Execute posts query with variables and decodes the "data" member into out.
// A 2xx answer with a non-empty "errors" array fails with an *APIError carrying that status,
// whose message joins every error message with ", ".
func (g *GraphQLClient) Execute(ctx context.Context, query string, variables map[string]any, out any) error {
	var (
		resp   graphQLResponse
		status int
	)
	err := g.rest.Do(ctx, &Request{
		Method:     http.MethodPost,
		Path:       g.endpoint,
		Body:       graphQLRequest{Query: query, Variables: variables},
		StatusCode: &status,
	}, &resp)
	if err != nil {
		return err
	}

	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		details := make([]ErrorDetail, 0, len(resp.Errors))
		for _, gqlErr := range resp.Errors {
			messages = append(messages, gqlErr.Message)
			details = append(details, ErrorDetail{Code: gqlErr.Type, Message: gqlErr.Message})
		}
		return &APIError{
			Provider:   g.rest.Kind(),
			Method:     http.MethodPost,
			URL:        g.endpoint,
			StatusCode: status,
			Message:    strings.Join(messages, ", "),
			Details:    details,
		}
	}

	if out == nil || len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil
	}
	return json.Unmarshal(resp.Data, out)
}
