// Package cmd provides the CLI for the forge-flow application.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smartcontractkit/forge-flow/config"
	"github.com/smartcontractkit/forge-flow/logging"
)

var (
	v         = viper.New()
	appConfig config.Config
	logger    zerolog.Logger
)

// root is the root command for the CLI.
var root = &cobra.Command{
	Use:   "forge-flow",
	Short: "Forge Flow automates issue, pull request, label and milestone chores on GitHub and GitLab",
	Long: `
Forge Flow automates issue, pull request, label and milestone chores on GitHub and GitLab
from inside a local clone.

The hosting provider and repository are detected from the git remotes. When an "upstream"
remote exists, pull requests are opened against it from your fork.

Labels, milestones, assignees and reviewers are given as comma separated, case-insensitive
exact names. Pass "@" to pick them from a list instead, or "" to leave them out.

Configuration is read from CLI flags > environment variables > a .env file.
`,
	Example: `
# Open a pull request for the current branch with a label and reviewers
forge-flow pr create --labels bug --reviewers alice,bob --auto-merge
# Pick the milestone interactively
forge-flow issue create --title "Crash on start" --milestone @
# Enable auto-merge on the pull request of the current branch
forge-flow pr merge
# Debug logging to a file
forge-flow label list --log-level debug --log-path forge-flow.log
`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error

		appConfig, err = config.Load(
			config.WithViper(v),
			config.WithCommand(cmd),
		)
		if err != nil {
			return err
		}

		opts := []logging.Option{
			logging.WithLevel(appConfig.LogLevel),
			logging.WithFileName(appConfig.LogPath),
			logging.WithSecrets(appConfig.GetSecrets()),
		}

		logger, err = logging.New(opts...)
		if err != nil {
			return err
		}

		logger.Debug().Str("log_level", appConfig.LogLevel).Str("repo_dir", appConfig.RepoDir).Msg("Loaded config")
		marshaled, err := appConfig.MarshalJSON()
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to marshal config for logging.")
		}
		logger.Debug().Str("config", string(marshaled)).Msg("Configuration")

		return nil
	},
}

func init() {
	config.MustBindConfig(root, v)
}

// Execute is the entry point for the CLI.
func Execute() {
	if err := fang.Execute(context.Background(), root, fang.WithVersion(config.VersionString())); err != nil {
		os.Exit(1)
	}
}

// mustFlag panics on flag registration mistakes.
func mustFlag(err error) {
	if err != nil {
		panic(fmt.Errorf("failed to register flag: %w", err))
	}
}
