package gitlab

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/forge-flow/config"
	"github.com/smartcontractkit/forge-flow/internal/testhelpers"
	"github.com/smartcontractkit/forge-flow/provider"
)

const testProjectPath = "/api/v4/projects/group%2Fsubgroup%2Fproject"

var testRepo = provider.RepositoryPath{
	Provider: provider.GitLab,
	Host:     "gitlab.com",
	Owner:    "group/subgroup",
	Name:     "project",
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Token  string
	Body   map[string]any
}

// fakeGitLab routes on "METHOD escaped-path" and records every request it receives.
type fakeGitLab struct {
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recordedRequest
}

func newFakeGitLab(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *fakeGitLab) {
	t.Helper()

	fake := &fakeGitLab{routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := recordedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.RawQuery,
			Token:  r.Header.Get("PRIVATE-TOKEN"),
		}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &req.Body)
		}
		fake.mu.Lock()
		fake.requests = append(fake.requests, req)
		fake.mu.Unlock()

		handler, ok := fake.routes[req.Method+" "+req.Path]
		if !ok {
			writeJSON(w, http.StatusNotFound, `{"message":"404 Not Found"}`)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, fake
}

func (f *fakeGitLab) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newServerClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	return newServerClientFor(t, testRepo, serverURL)
}

func newServerClientFor(t *testing.T, repo provider.RepositoryPath, serverURL string) *Client {
	t.Helper()

	client, err := NewClient(
		repo,
		WithConfig(config.Config{GitLab: config.GitLab{Token: "test-token", BaseURL: serverURL + "/api/v4"}}),
		WithLogger(testhelpers.Logger(t)),
	)
	require.NoError(t, err)
	return client
}
