package github

import (
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/smartcontractkit/forge-flow/config"
)

// ErrNoCredential is returned when neither a token nor a GitHub App is configured.
var ErrNoCredential = errors.New("no GitHub credential configured, set GITHUB_TOKEN or GITHUB_APP_ID with its key and installation")

// setupAuth returns the token source requests are authenticated with.
// A plain token wins over GitHub App settings.
func setupAuth(l zerolog.Logger, cfg config.GitHub) (oauth2.TokenSource, error) {
	if cfg.Token != "" {
		l.Debug().Msg("Using GitHub token for authentication")
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}), nil
	}

	if cfg.AppID == "" && cfg.InstallationID == "" && cfg.PrivateKey == "" && cfg.PrivateKeyFile == "" {
		return nil, ErrNoCredential
	}

	l.Debug().Msg("Using GitHub App authentication")
	return newAppTokenSource(cfg)
}
