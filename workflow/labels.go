package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/smartcontractkit/forge-flow/forge"
)

// ErrLabelNameRequired is returned when a label is created without a name.
var ErrLabelNameRequired = errors.New("label name is required")

// CreateLabel creates a label. The provider picks the default color when none is given.
func (r *Runner) CreateLabel(ctx context.Context, input forge.LabelInput) (forge.Label, error) {
	var label forge.Label
	err := r.track(ctx, LabelCreate, func(l zerolog.Logger) error {
		input.Name = strings.TrimSpace(input.Name)
		if input.Name == "" {
			return ErrLabelNameRequired
		}
		input.Color = strings.TrimPrefix(strings.TrimSpace(input.Color), "#")

		var err error
		label, err = r.provider.CreateLabel(ctx, input)
		if err != nil {
			return err
		}
		l.Info().Str("label", label.Name).Str("color", label.Color).Msg("Created label")
		r.printf("%s\n", label.Name)
		return nil
	})
	return label, err
}

// ListLabels prints every label of the repository.
func (r *Runner) ListLabels(ctx context.Context) ([]forge.Label, error) {
	var labels []forge.Label
	err := r.track(ctx, LabelList, func(l zerolog.Logger) error {
		var err error
		labels, err = r.provider.Labels(ctx)
		if err != nil {
			return err
		}
		l.Debug().Int("count", len(labels)).Msg("Listed labels")
		for _, label := range labels {
			if label.Description != "" {
				r.printf("%s\t%s\n", label.Name, label.Description)
				continue
			}
			r.printf("%s\n", label.Name)
		}
		return nil
	})
	return labels, err
}
