package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/ui"
	"github.com/walteh/patchrc/pkg/validate"
	"gitlab.com/tozd/go/errors"
)

// NewApplyCmd creates a new apply command
func NewApplyCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		planPath  string
		patchFile string
		dryRun    bool
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "Apply a patch plan to a file",
		Long: `Apply runs every patch in a plan against one file.
It will:
1. Load and compile the plan
2. Validate the patches against the file and warn about conflicts
3. Show the resulting diff and ask for confirmation
4. Back up the file and write the patched content atomically
5. Record the operation so it can be undone`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			// Unified-diff patch files are display-only; say so instead of
			// silently ignoring the flag.
			if patchFile != "" {
				return opts.Engine.ApplyPatchFile(ctx, path, patchFile)
			}

			if planPath == "" {
				return errors.New("a plan file is required (--plan)")
			}

			requests, specs, err := loadPlan(planPath)
			if err != nil {
				return err
			}

			// Warn about overlapping patches before anything runs.
			for _, c := range validate.DetectConflicts(requests) {
				pterm.Warning.Println(c.String())
			}

			// Dry run stops after the preview.
			if dryRun {
				result, err := opts.Engine.Preview(ctx, path, requests)
				if err != nil {
					return errors.Errorf("previewing patches: %w", err)
				}
				fmt.Print(ui.RenderDiff(result.Diff))
				fmt.Print(ui.RenderResult(result))
				opts.UserLogger.LogEvent(ui.Event{Type: ui.EventPreviewed, Path: path,
					Description: fmt.Sprintf("%d patch(es)", len(requests))})
				return nil
			}

			if opts.Config.ConfirmApplications && !yes {
				result, err := opts.Engine.Preview(ctx, path, requests)
				if err != nil {
					return errors.Errorf("previewing patches: %w", err)
				}
				fmt.Print(ui.RenderDiff(result.Diff))

				ok, err := pterm.DefaultInteractiveConfirm.Show(fmt.Sprintf("Apply %d patch(es) to %s?", len(requests), path))
				if err != nil {
					return errors.Errorf("reading confirmation: %w", err)
				}
				if !ok {
					opts.UserLogger.LogEvent(ui.Event{Type: ui.EventSkipped, Path: path, Description: "not confirmed"})
					return nil
				}
			}

			// Run the patches
			result, err := opts.Engine.Apply(ctx, path, requests)
			if err != nil {
				return errors.Errorf("applying patches: %w", err)
			}

			fmt.Print(ui.RenderResult(result))
			if !result.Written {
				opts.UserLogger.LogEvent(ui.Event{Type: ui.EventSkipped, Path: path, Description: "no patches applied"})
				return nil
			}

			if result.BackupPath != "" {
				opts.UserLogger.LogEvent(ui.Event{Type: ui.EventBackedUp, Path: result.BackupPath})
			}
			opts.UserLogger.LogEvent(ui.Event{Type: ui.EventPatched, Path: path,
				Description: fmt.Sprintf("%d of %d patch(es)", result.SuccessCount, len(requests))})

			// Record for undo
			if err := opts.History.Record(ctx, result, specs); err != nil {
				return errors.Errorf("recording history: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&planPath, "plan", "p", "", "plan file with the patches to apply (JSON or YAML)")
	cmd.Flags().StringVar(&patchFile, "patch-file", "", "unified diff to apply (unsupported, kept for clarity)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the diff without writing anything")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// TODO(dr.methodical): 🧪 Add tests for apply command
// TODO(dr.methodical): 📝 Add examples of plan files to the help text
