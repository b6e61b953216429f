package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/workflow"
)

var labelInput forge.LabelInput

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Create and list labels",
}

var labelCreateCmd = &cobra.Command{
	Use:     "create <name>",
	Short:   "Create a label",
	Example: `forge-flow label create needs-triage --color fbca04 --description "Nobody looked yet"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := labelInput
		input.Name = args[0]
		return run(cmd, func(ctx context.Context, r *workflow.Runner) error {
			_, err := r.CreateLabel(ctx, input)
			return err
		})
	},
}

var labelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every label of the repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd, func(ctx context.Context, r *workflow.Runner) error {
			_, err := r.ListLabels(ctx)
			return err
		})
	},
}

func init() {
	root.AddCommand(labelCmd)
	labelCmd.AddCommand(labelCreateCmd, labelListCmd)

	labelCreateCmd.Flags().StringVar(&labelInput.Color, "color", "", "Hex color, ededed when empty")
	labelCreateCmd.Flags().StringVarP(&labelInput.Description, "description", "d", "", "Label description")
}
