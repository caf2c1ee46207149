package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/ui"
	"gitlab.com/tozd/go/errors"
)

// NewPreviewCmd creates a new preview command
func NewPreviewCmd(opts *opts.RootOpts) *cobra.Command {
	var planPath string

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Show what a plan would change without writing",
		Long: `Preview runs a plan against a file in memory only.
It will:
1. Load and compile the plan
2. Apply the patches to a copy of the file
3. Print the unified diff and per-patch outcomes
4. Leave the file untouched`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			if planPath == "" {
				return errors.New("a plan file is required (--plan)")
			}

			requests, _, err := loadPlan(planPath)
			if err != nil {
				return err
			}

			result, err := opts.Engine.Preview(ctx, path, requests)
			if err != nil {
				return errors.Errorf("previewing patches: %w", err)
			}

			fmt.Print(ui.RenderDiff(result.Diff))
			fmt.Print(ui.RenderResult(result))
			opts.UserLogger.LogEvent(ui.Event{Type: ui.EventPreviewed, Path: path,
				Description: fmt.Sprintf("%d patch(es)", len(requests))})

			return nil
		},
	}

	cmd.Flags().StringVarP(&planPath, "plan", "p", "", "plan file with the patches to preview (JSON or YAML)")

	return cmd
}
