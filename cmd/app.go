package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/github"
	"github.com/smartcontractkit/forge-flow/gitlab"
	"github.com/smartcontractkit/forge-flow/prompt"
	"github.com/smartcontractkit/forge-flow/provider"
	"github.com/smartcontractkit/forge-flow/selection"
	"github.com/smartcontractkit/forge-flow/telemetry"
	"github.com/smartcontractkit/forge-flow/vcs"
	"github.com/smartcontractkit/forge-flow/workflow"
)

// newRunner wires the local repository, the detected provider and the interactive prompts.
// The returned func flushes metrics and must be called once the workflow finished.
func newRunner(cmd *cobra.Command) (*workflow.Runner, func(), error) {
	ctx := cmd.Context()
	metrics, shutdown := newMetrics(ctx)

	engine, err := vcs.NewGit(appConfig.RepoDir, vcs.WithLogger(logger), vcs.WithRemote(appConfig.Remote))
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	repo, err := vcs.ResolveRepository(ctx, engine, appConfig)
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	logger.Debug().Stringer("repository", repo).Msg("Resolved repository")

	client, err := newProvider(repo, metrics)
	if err != nil {
		shutdown()
		return nil, nil, err
	}

	lines := prompt.NewLinePrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	var chooser selection.Chooser = lines
	if appConfig.InteractiveUI == prompt.UITUI {
		chooser = prompt.NewListChooser(cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	runner := workflow.NewRunner(
		client,
		workflow.WithEngine(engine),
		workflow.WithPrompter(lines),
		workflow.WithChooser(chooser),
		workflow.WithLogger(logger),
		workflow.WithMetrics(metrics),
		workflow.WithOutput(cmd.OutOrStdout()),
		workflow.WithTemplates(appConfig.Templates),
	)
	return runner, shutdown, nil
}

// newProvider dispatches on the provider tag of repo.
func newProvider(repo provider.RepositoryPath, metrics *telemetry.Metrics) (forge.Provider, error) {
	switch repo.Provider {
	case provider.GitHub:
		client, err := github.NewClient(
			repo,
			github.WithConfig(appConfig),
			github.WithLogger(logger),
			github.WithMetrics(metrics),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub client: %w", err)
		}
		return client, nil
	case provider.GitLab:
		client, err := gitlab.NewClient(
			repo,
			gitlab.WithConfig(appConfig),
			gitlab.WithLogger(logger),
			gitlab.WithMetrics(metrics),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitLab client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: %q", vcs.ErrUnknownProvider, repo.Provider)
	}
}

// newMetrics never fails, a broken exporter only costs the metrics.
func newMetrics(ctx context.Context) (*telemetry.Metrics, func()) {
	metrics, metricsShutdown, err := telemetry.NewMetrics(
		telemetry.WithContext(ctx),
		telemetry.WithExporter(appConfig.Telemetry.MetricsExporter),
		telemetry.WithOTLPEndpoint(appConfig.Telemetry.MetricsEndpoint),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize metrics, continuing without metrics")
		return nil, func() {}
	}
	logger.Debug().
		Str("exporter", appConfig.Telemetry.MetricsExporter).
		Str("endpoint", appConfig.Telemetry.MetricsEndpoint).
		Msg("Metrics initialized")
	return metrics, func() {
		if shutdownErr := metricsShutdown(context.Background()); shutdownErr != nil {
			logger.Error().Err(shutdownErr).Msg("Failed to shutdown metrics")
		}
	}
}

// run builds a runner for cmd and hands it to fn.
func run(cmd *cobra.Command, fn func(ctx context.Context, r *workflow.Runner) error) error {
	runner, shutdown, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer shutdown()
	return fn(cmd.Context(), runner)
}
