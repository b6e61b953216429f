// Package workflow implements the operator facing operations: issues, pull requests, labels and
// milestones. Each workflow wires the provider, the resolver and matcher, and, for pull requests,
// the branch publisher and merge negotiator.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasttemplate"

	"github.com/smartcontractkit/forge-flow/config"
	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/publish"
	"github.com/smartcontractkit/forge-flow/selection"
	"github.com/smartcontractkit/forge-flow/telemetry"
	"github.com/smartcontractkit/forge-flow/vcs"
)

// Workflow names, used for logs and metrics.
const (
	IssueCreate    = "issue.create"
	IssueLabel     = "issue.label"
	PRCreate       = "pr.create"
	PRMerge        = "pr.merge"
	LabelCreate    = "label.create"
	LabelList      = "label.list"
	MilestoneClose = "milestone.close"
	MilestoneList  = "milestone.list"
	MilestoneShow  = "milestone.show"
)

var (
	// ErrNoEngine is returned by workflows that need the local repository when none is configured.
	ErrNoEngine = errors.New("no local repository available")
	// ErrNoMilestoneSelected is returned when a milestone workflow resolves to no milestone.
	ErrNoMilestoneSelected = errors.New("no milestone selected")
)

// Runner runs workflows against one provider and repository.
type Runner struct {
	provider forge.Provider
	engine   vcs.Engine
	prompter publish.Prompter
	chooser  selection.Chooser
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
	out      io.Writer

	titleTemplate string
	bodyTemplate  string
}

// Option configures a Runner.
type Option func(*Runner)

// WithEngine sets the local repository, required by pull request workflows.
func WithEngine(engine vcs.Engine) Option {
	return func(r *Runner) {
		r.engine = engine
	}
}

// WithPrompter sets the prompter branch publishing asks for retries and force-pushes.
func WithPrompter(prompter publish.Prompter) Option {
	return func(r *Runner) {
		r.prompter = prompter
	}
}

// WithChooser enables manual selection with the "@" pattern.
func WithChooser(chooser selection.Chooser) Option {
	return func(r *Runner) {
		r.chooser = chooser
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithMetrics records workflow outcomes.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(r *Runner) {
		r.metrics = metrics
	}
}

// WithOutput sets where results are printed.
func WithOutput(out io.Writer) Option {
	return func(r *Runner) {
		r.out = out
	}
}

// WithTemplates sets the templates for pull request titles and bodies left empty by the operator.
func WithTemplates(templates config.Templates) Option {
	return func(r *Runner) {
		r.titleTemplate = templates.PRTitle
		r.bodyTemplate = templates.PRBody
	}
}

// NewRunner creates a Runner for provider.
func NewRunner(provider forge.Provider, options ...Option) *Runner {
	r := &Runner{
		provider:      provider,
		logger:        zerolog.Nop(),
		out:           io.Discard,
		titleTemplate: config.DefaultPRTitleTemplate,
	}
	for _, opt := range options {
		opt(r)
	}
	r.logger = r.logger.With().
		Str("component", "workflow").
		Str("repository", provider.Repository().String()).
		Logger()
	return r
}

// track times fn and records its outcome under name.
func (r *Runner) track(ctx context.Context, name string, fn func(l zerolog.Logger) error) error {
	l := r.logger.With().Str("workflow", name).Logger()
	start := time.Now()
	l.Debug().Msg("Starting workflow")

	err := fn(l)

	result := "success"
	if err != nil {
		result = "failure"
		if errors.Is(err, publish.ErrAborted) {
			result = "aborted"
		}
	}
	r.metrics.IncWorkflow(ctx, name, result)
	r.metrics.RecordWorkflowDuration(ctx, name, time.Since(start))
	l.Debug().Str("result", result).Str("duration", time.Since(start).String()).Msg("Finished workflow")
	return err
}

func (r *Runner) newResolver(ctx context.Context) *selection.Resolver {
	return selection.NewResolver(
		r.provider,
		selection.WithContext(ctx),
		selection.WithLogger(r.logger),
		selection.WithMetrics(r.metrics),
	)
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// render fills {{branch}}, {{base}} and {{repository}} in template.
func render(template string, values map[string]any) string {
	if template == "" {
		return ""
	}
	return fasttemplate.ExecuteStringStd(template, "{{", "}}", values)
}

// attributes are the resolved values of one workflow's attribute requests.
type attributes struct {
	labels    []forge.Label
	milestone *forge.Milestone
	assignees []forge.User
	reviewers []forge.User
}

const (
	labelsName    = "label"
	milestoneName = "milestone"
	assigneeName  = "assignee"
	reviewerName  = "reviewer"
)

// submitAttributes queues a fetch for every non-skipped pattern. preFilters are keyed by display name.
func submitAttributes(
	resolver *selection.Resolver,
	labels, milestone, assignees, reviewers string,
	preFilters map[string]func([]selection.Candidate) []selection.Candidate,
) error {
	requests := []selection.AttributeRequest{
		{Kind: selection.KindLabel, DisplayName: labelsName, Pattern: labels, Cardinality: selection.Multiple},
		{Kind: selection.KindMilestone, DisplayName: milestoneName, Pattern: milestone, Cardinality: selection.Single},
		{Kind: selection.KindCollaborator, DisplayName: assigneeName, Pattern: assignees, Cardinality: selection.Multiple},
		{Kind: selection.KindCollaborator, DisplayName: reviewerName, Pattern: reviewers, Cardinality: selection.Multiple},
	}
	for _, req := range requests {
		if len(selection.SplitPatterns(req.Pattern)) == 0 {
			continue
		}
		req.PreFilter = preFilters[req.DisplayName]
		if err := resolver.Submit(req); err != nil {
			return err
		}
	}
	return nil
}

// resolveAttributes collects the resolver and matches every pattern.
func (r *Runner) resolveAttributes(resolver *selection.Resolver) (attributes, error) {
	inputs, err := resolver.Collect()
	if err != nil {
		return attributes{}, err
	}
	results, err := selection.NewMatcher(r.chooser).ResolveAll(inputs)
	if err != nil {
		return attributes{}, err
	}

	var attrs attributes
	for _, result := range results {
		switch result.Request.DisplayName {
		case labelsName:
			attrs.labels = result.Labels()
		case milestoneName:
			attrs.milestone = result.Milestone()
		case assigneeName:
			attrs.assignees = result.Users()
		case reviewerName:
			attrs.reviewers = result.Users()
		}
	}
	return attrs, nil
}
