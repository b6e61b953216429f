package github

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/forge-flow/base"
	"github.com/smartcontractkit/forge-flow/config"
	"github.com/smartcontractkit/forge-flow/internal/testhelpers"
	"github.com/smartcontractkit/forge-flow/logging"
	"github.com/smartcontractkit/forge-flow/provider"
)

func TestRateLimit(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("skipping rate limit test in short mode")
	}

	tests := []struct {
		name        string
		statusCode  int
		header      http.Header
		expectMsgs  []string
		expectError bool
		body        string
	}{
		{
			name:       "warning",
			statusCode: http.StatusOK,
			header: http.Header{
				"X-RateLimit-Limit":     []string{"100"},
				"X-RateLimit-Remaining": []string{fmt.Sprint(base.RateLimitWarningThreshold - 1)},
				"X-RateLimit-Used":      []string{"10"},
				"X-RateLimit-Reset":     []string{"1718211600"},
			},
			body:       `{"login": "testuser"}`,
			expectMsgs: []string{base.RateLimitWarningMsg},
		},
		{
			name:       "primary limit hit",
			statusCode: http.StatusTooManyRequests,
			header: http.Header{
				"X-RateLimit-Limit":     []string{"100"},
				"X-RateLimit-Remaining": []string{"0"},
				"X-RateLimit-Used":      []string{"100"},
				"X-RateLimit-Reset": []string{
					fmt.Sprint(time.Now().Add(time.Millisecond * 1).Unix()),
				},
				"X-RateLimit-Resource": []string{"core"},
			},
			body: `{"message": "API rate limit exceeded"}`,
			expectMsgs: []string{
				base.RateLimitHitMsg,
				`"limit":"primary"`,
			},
			expectError: true,
		},
		// Secondary rate limits wait out Retry-After before the request is sent again
		{
			name:       "secondary limit hit",
			statusCode: http.StatusTooManyRequests,
			header: http.Header{
				"X-RateLimit-Limit": []string{"100"},
				"X-RateLimit-Used":  []string{"100"},
				"X-RateLimit-Reset": []string{
					fmt.Sprint(time.Now().Add(time.Millisecond * 100).Unix()),
				},
				"X-RateLimit-Resource": []string{"core"},
				"Retry-After":          []string{"1"},
			},
			body: `{"message": "You have exceeded a secondary rate limit", "documentation_url": "https://docs.github.com/rest/overview/resources-in-the-rest-api#secondary-rate-limits"}`,
			expectMsgs: []string{
				base.RateLimitHitMsg,
				`"limit":"secondary"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				logs = bytes.NewBuffer(nil)
				l    = testhelpers.Logger(
					t,
					logging.WithWriters(logs),
					logging.WithLevel("trace"),
				)
			)

			requests := 0
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if requests >= 1 {
					writeJSON(w, http.StatusOK, `{"login": "testuser"}`)
					return
				}
				requests++
				maps.Copy(w.Header(), tt.header)
				writeJSON(w, tt.statusCode, tt.body)
			}))
			defer ts.Close()

			client, err := NewClient(
				testRepo,
				WithConfig(config.Config{GitHub: config.GitHub{Token: "test-token", BaseURL: ts.URL}}),
				WithLogger(l),
			)
			require.NoError(t, err)

			user, err := client.CurrentUser(context.Background())

			for _, expectMsg := range tt.expectMsgs {
				assert.Contains(t, logs.String(), expectMsg, "Did not find expected message in logs")
			}
			if tt.expectError {
				require.Error(t, err, "expected error")
				return
			}
			require.NoError(t, err, "expected no error")
			assert.Equal(t, "testuser", user.Login)
		})
	}
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	_, err := NewClient(testRepo, WithLogger(testhelpers.Logger(t)))
	require.ErrorIs(t, err, ErrNoCredential)

	_, err = NewClient(testRepo, WithConfig(config.Config{GitHub: config.GitHub{Token: "t", BaseURL: "not a url"}}))
	require.ErrorIs(t, err, provider.ErrInvalidBaseURL)

	client := createTestClient(t)
	assert.Equal(t, provider.GitHub, client.Kind())
	assert.Equal(t, testRepo, client.Repository())
	assert.Equal(t, "https://api.github.com/graphql", client.graphql.Endpoint())
}

func TestNewClient_SendsToken(t *testing.T) {
	t.Parallel()

	var gotAuth, gotAccept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		writeJSON(w, http.StatusOK, `{"login": "testuser", "id": 1}`)
	}))
	defer ts.Close()

	user, err := newServerClient(t, ts.URL).CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
}

func TestGraphQLEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		restURL  string
		expected string
	}{
		{restURL: "https://api.github.com", expected: "https://api.github.com/graphql"},
		{restURL: "https://api.github.com/", expected: "https://api.github.com/graphql"},
		{restURL: "https://github.example.com/api/v3", expected: "https://github.example.com/api/graphql"},
		{restURL: "https://github.example.com/api/v3/", expected: "https://github.example.com/api/graphql"},
	}

	for _, tt := range tests {
		t.Run(tt.restURL, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, GraphQLEndpoint(tt.restURL))
		})
	}
}

func TestErrorNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		status          int
		body            string
		expectedMessage string
		expectedDetails int
	}{
		{
			name:            "custom validation error",
			status:          http.StatusUnprocessableEntity,
			body:            `{"message":"Validation Failed","errors":[{"code":"custom","message":"name already exists"}]}`,
			expectedMessage: "Validation Failed: name already exists",
			expectedDetails: 1,
		},
		{
			name:            "field validation errors",
			status:          http.StatusUnprocessableEntity,
			body:            `{"message":"Validation Failed","errors":[{"resource":"Label","code":"already_exists","field":"name"},{"resource":"Label","code":"invalid","field":"color"}]}`,
			expectedMessage: "Validation Failed: already_exists (name), invalid (color)",
			expectedDetails: 2,
		},
		{
			name:            "plain message",
			status:          http.StatusNotFound,
			body:            `{"message":"Not Found","documentation_url":"https://docs.github.com/rest"}`,
			expectedMessage: "Not Found",
		},
		{
			name:            "empty body",
			status:          http.StatusBadGateway,
			expectedMessage: "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := createTestClient(t,
				mock.WithRequestMatchHandler(
					mock.PostReposLabelsByOwnerByRepo,
					http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
						writeJSON(w, tt.status, tt.body)
					}),
				),
			)

			_, err := client.CreateLabel(context.Background(), forgeLabelInput("bug"))
			require.Error(t, err)

			var apiErr *provider.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.expectedMessage, apiErr.Message)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, provider.GitHub, apiErr.Provider)
			assert.Len(t, apiErr.Details, tt.expectedDetails)
			assert.Contains(t, err.Error(), "github create_label for testowner/testrepo")
		})
	}
}
