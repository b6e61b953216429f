package github

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/forge-flow/config"
	"github.com/smartcontractkit/forge-flow/internal/testhelpers"
	"github.com/smartcontractkit/forge-flow/provider"
)

var testRepo = provider.RepositoryPath{Provider: provider.GitHub, Host: "github.com", Owner: "testowner", Name: "testrepo"}

// createTestClient creates a GitHub client with mocked HTTP responses.
func createTestClient(t *testing.T, mockOptions ...mock.MockBackendOption) *Client {
	t.Helper()

	return createTestClientFor(t, testRepo, mockOptions...)
}

func createTestClientFor(t *testing.T, repo provider.RepositoryPath, mockOptions ...mock.MockBackendOption) *Client {
	t.Helper()

	client, err := NewClient(
		repo,
		WithConfig(config.Config{GitHub: config.GitHub{Token: "test-token"}}),
		WithLogger(testhelpers.Logger(t)),
		WithHTTPClient(mock.NewMockedHTTPClient(mockOptions...)),
	)
	require.NoError(t, err)
	return client
}

// newServerClient creates a GitHub client whose REST and GraphQL endpoints live on a test server.
func newServerClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	client, err := NewClient(
		testRepo,
		WithConfig(config.Config{GitHub: config.GitHub{Token: "test-token", BaseURL: serverURL}}),
		WithLogger(testhelpers.Logger(t)),
	)
	require.NoError(t, err)
	return client
}

// getTestPrivateKey returns a freshly generated PEM encoded RSA key and a file holding it.
func getTestPrivateKey(t *testing.T) (string, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	keyFile := filepath.Join(t.TempDir(), "test_key.pem")
	require.NoError(t, os.WriteFile(keyFile, pemBytes, 0o600))
	return string(pemBytes), keyFile
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
