package github

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jferrl/go-githubauth"
	"golang.org/x/oauth2"

	"github.com/smartcontractkit/forge-flow/config"
)

// GitHub App settings are validated in the order they are needed.
var (
	ErrAppIDMissing          = errors.New("GITHUB_APP_ID is required for GitHub App authentication")
	ErrAppIDInvalid          = errors.New("GITHUB_APP_ID must be numeric")
	ErrAppKeyMissing         = errors.New("GITHUB_PRIVATE_KEY or GITHUB_PRIVATE_KEY_FILE is required for GitHub App authentication")
	ErrInstallationIDMissing = errors.New("GITHUB_INSTALLATION_ID is required for GitHub App authentication")
	ErrInstallationIDInvalid = errors.New("GITHUB_INSTALLATION_ID must be numeric")
)

// newAppTokenSource returns installation tokens for a GitHub App. The installation ID is mandatory.
func newAppTokenSource(cfg config.GitHub) (oauth2.TokenSource, error) {
	if cfg.AppID == "" {
		return nil, ErrAppIDMissing
	}
	appID, err := strconv.ParseInt(cfg.AppID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAppIDInvalid, err)
	}

	privateKey, err := loadPrivateKey(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.InstallationID == "" {
		return nil, ErrInstallationIDMissing
	}
	installationID, err := strconv.ParseInt(cfg.InstallationID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstallationIDInvalid, err)
	}

	appTokenSource, err := githubauth.NewApplicationTokenSource(appID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App token source: %w", err)
	}

	if baseURL := strings.TrimSuffix(cfg.BaseURL, "/"); baseURL != "" && baseURL != config.DefaultGitHubBaseURL {
		return githubauth.NewInstallationTokenSource(
			installationID,
			appTokenSource,
			githubauth.WithEnterpriseURLs(baseURL, baseURL),
		), nil
	}
	return githubauth.NewInstallationTokenSource(installationID, appTokenSource), nil
}

// loadPrivateKey prefers the inline key over the key file.
func loadPrivateKey(cfg config.GitHub) ([]byte, error) {
	if cfg.PrivateKey != "" {
		return []byte(cfg.PrivateKey), nil
	}
	if cfg.PrivateKeyFile == "" {
		return nil, ErrAppKeyMissing
	}
	key, err := os.ReadFile(cfg.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read GitHub App private key file %s: %w", cfg.PrivateKeyFile, err)
	}
	if len(key) == 0 {
		return nil, ErrAppKeyMissing
	}
	return key, nil
}
