package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/history"
	"github.com/walteh/patchrc/pkg/ui"
	"gitlab.com/tozd/go/errors"
)

// NewHistoryCmd creates a new history command with its subcommands
func NewHistoryCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect, undo, and redo recorded patch operations",
		Long: `History works with the operation log recorded by apply.
Undo restores a file from the backup taken before its last patch;
redo applies the undone patches again.`,
	}

	cmd.AddCommand(
		newHistoryListCmd(opts),
		newHistoryUndoCmd(opts),
		newHistoryRedoCmd(opts),
		newHistorySearchCmd(opts),
		newHistoryClearCmd(opts),
		newHistoryExportCmd(opts),
	)

	return cmd
}

// newHistoryListCmd lists recorded operations, newest first
func newHistoryListCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded operations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := opts.History.Entries()
			if len(entries) == 0 {
				opts.UserLogger.LogSummary("History is empty")
				return nil
			}

			renderHistoryEntries(entries)

			summary := opts.History.SessionSummary()
			opts.UserLogger.LogSummary(fmt.Sprintf("%d operation(s) on record, %d this session",
				len(entries), summary.Operations))

			return nil
		},
	}
}

// newHistoryUndoCmd restores the file changed by the last operation
func newHistoryUndoCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the most recent patch operation",
		Long: `Undo rolls back the most recent operation.
It will:
1. Take the newest operation off the undo stack
2. Restore the file from the backup taken before the patch
3. Keep the operation available for redo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			op, err := opts.History.Undo(ctx)
			if err != nil {
				return err
			}

			opts.UserLogger.LogEvent(ui.Event{Type: ui.EventRestored, Path: op.Path,
				Description: fmt.Sprintf("undid %d patch(es)", len(op.Patches))})

			return nil
		},
	}
}

// newHistoryRedoCmd reapplies the last undone operation
func newHistoryRedoCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Reapply the most recently undone operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			op, result, err := opts.History.Redo(ctx)
			if err != nil {
				return err
			}

			opts.UserLogger.LogEvent(ui.Event{Type: ui.EventPatched, Path: op.Path,
				Description: fmt.Sprintf("redid %d of %d patch(es)", result.SuccessCount, len(op.Patches))})

			return nil
		},
	}
}

// newHistorySearchCmd filters operations by file or patch details
func newHistorySearchCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search operations by path, patch type, or pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := opts.History.Search(args[0])
			if len(entries) == 0 {
				opts.UserLogger.LogSummary(fmt.Sprintf("No operations match %q", args[0]))
				return nil
			}

			renderHistoryEntries(entries)

			return nil
		},
	}
}

// newHistoryClearCmd wipes the whole history log
func newHistoryClearCmd(opts *opts.RootOpts) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the history log",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !yes {
				ok, err := pterm.DefaultInteractiveConfirm.Show("Delete the whole history log? Undo will no longer work.")
				if err != nil {
					return errors.Errorf("reading confirmation: %w", err)
				}
				if !ok {
					opts.UserLogger.LogSummary("History left untouched")
					return nil
				}
			}

			if err := opts.History.Clear(ctx); err != nil {
				return errors.Errorf("clearing history: %w", err)
			}

			opts.UserLogger.LogSummary("History cleared")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// newHistoryExportCmd writes the full history state to a file
func newHistoryExportCmd(opts *opts.RootOpts) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the history log as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := opts.History.Export(ctx, output); err != nil {
				return errors.Errorf("exporting history: %w", err)
			}

			opts.UserLogger.LogSummary(fmt.Sprintf("History exported to %s", output))

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "patchrc-history-export.json", "file to write")

	return cmd
}

// renderHistoryEntries prints operations with their undo/redo status
func renderHistoryEntries(entries []history.Entry) {
	for _, e := range entries {
		status := "✅"
		if e.Undone {
			status = "↩️"
		}
		fmt.Printf("%s %s  %s  %d patch(es) on %s\n",
			status, e.ID, e.Timestamp.Format("2006-01-02 15:04:05"), len(e.Patches), e.Path)
	}
}

// TODO(dr.methodical): 🧪 Add tests for history subcommands
