package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/smartcontractkit/forge-flow/forge"
)

// ErrTitleRequired is returned when an issue is created without a title.
var ErrTitleRequired = errors.New("title is required")

// IssueOptions describes an issue to create. Attribute fields take comma separated patterns,
// "@" for manual selection or "" to skip.
type IssueOptions struct {
	Title     string
	Body      string
	Labels    string
	Milestone string
	Assignees string
}

// CreateIssue resolves the attributes concurrently and creates the issue.
func (r *Runner) CreateIssue(ctx context.Context, opts IssueOptions) (forge.Issue, error) {
	var issue forge.Issue
	err := r.track(ctx, IssueCreate, func(l zerolog.Logger) error {
		if strings.TrimSpace(opts.Title) == "" {
			return ErrTitleRequired
		}

		resolver := r.newResolver(ctx)
		if err := submitAttributes(resolver, opts.Labels, opts.Milestone, opts.Assignees, "", nil); err != nil {
			return err
		}
		attrs, err := r.resolveAttributes(resolver)
		if err != nil {
			return err
		}

		issue, err = r.provider.CreateIssue(ctx, forge.IssueInput{
			Title:     opts.Title,
			Body:      opts.Body,
			Labels:    attrs.labels,
			Milestone: attrs.milestone,
			Assignees: attrs.assignees,
		})
		if err != nil {
			return err
		}
		l.Info().Int("number", issue.Number).Str("url", issue.WebURL).Msg("Created issue")
		r.printf("%s\n", issue.WebURL)
		return nil
	})
	return issue, err
}

// LabelIssue adds the labels matching pattern to an existing issue.
func (r *Runner) LabelIssue(ctx context.Context, number int, pattern string) ([]forge.Label, error) {
	var labels []forge.Label
	err := r.track(ctx, IssueLabel, func(l zerolog.Logger) error {
		if number <= 0 {
			return fmt.Errorf("invalid issue number %d", number)
		}

		resolver := r.newResolver(ctx)
		if err := submitAttributes(resolver, pattern, "", "", "", nil); err != nil {
			return err
		}
		attrs, err := r.resolveAttributes(resolver)
		if err != nil {
			return err
		}
		if len(attrs.labels) == 0 {
			l.Info().Int("number", number).Msg("No labels selected, nothing to add")
			return nil
		}

		if err := r.provider.AddIssueLabels(ctx, number, attrs.labels); err != nil {
			return err
		}
		labels = attrs.labels
		names := labelNames(labels)
		l.Info().Int("number", number).Strs("labels", names).Msg("Labeled issue")
		r.printf("#%d: %s\n", number, strings.Join(names, ", "))
		return nil
	})
	return labels, err
}

func labelNames(labels []forge.Label) []string {
	names := make([]string, 0, len(labels))
	for _, label := range labels {
		names = append(names, label.Name)
	}
	return names
}
