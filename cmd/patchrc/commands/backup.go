package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/backup"
	"github.com/walteh/patchrc/pkg/ui"
	"gitlab.com/tozd/go/errors"
)

// NewBackupCmd creates a new backup command with its subcommands
func NewBackupCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "List, restore, and clean up file backups",
		Long: `Backup manages the snapshots taken before every patch.
Backups live in the configured backup directory and rotate
automatically; restore brings back the newest snapshot of a file.`,
	}

	cmd.AddCommand(
		newBackupListCmd(opts),
		newBackupRestoreCmd(opts),
		newBackupCleanupCmd(opts),
	)

	return cmd
}

// newBackupListCmd lists backups, for one file or all of them
func newBackupListCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list [FILE]",
		Short: "List backups, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var infos []*backup.Info
			var err error
			if len(args) == 1 {
				infos, err = opts.Backups.List(args[0])
			} else {
				infos, err = opts.Backups.ListAll()
			}
			if err != nil {
				return errors.Errorf("listing backups: %w", err)
			}

			if len(infos) == 0 {
				opts.UserLogger.LogSummary("No backups found")
				return nil
			}

			data := pterm.TableData{{"Created", "Size", "Original"}}
			for _, info := range infos {
				data = append(data, []string{
					info.CreatedAt.Format("2006-01-02 15:04:05"),
					ui.FormatSize(info.Size),
					info.Original,
				})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
				return errors.Errorf("rendering backup table: %w", err)
			}

			opts.UserLogger.LogSummary(fmt.Sprintf("%d backup(s)", len(infos)))

			return nil
		},
	}
}

// newBackupRestoreCmd restores the newest backup of a file
func newBackupRestoreCmd(opts *opts.RootOpts) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore FILE",
		Short: "Restore a file from its newest backup",
		Long: `Restore replaces a file with its newest backup.
It will:
1. Find the newest backup of the file
2. Ask for confirmation
3. Write the backup content back atomically`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			if !yes {
				ok, err := pterm.DefaultInteractiveConfirm.Show(fmt.Sprintf("Overwrite %s with its newest backup?", path))
				if err != nil {
					return errors.Errorf("reading confirmation: %w", err)
				}
				if !ok {
					opts.UserLogger.LogEvent(ui.Event{Type: ui.EventSkipped, Path: path, Description: "not confirmed"})
					return nil
				}
			}

			info, err := opts.Backups.RestoreLatest(ctx, path)
			if err != nil {
				return errors.Errorf("restoring backup: %w", err)
			}

			opts.UserLogger.LogEvent(ui.Event{Type: ui.EventRestored, Path: path,
				Description: fmt.Sprintf("from %s", info.CreatedAt.Format("2006-01-02 15:04:05"))})

			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// newBackupCleanupCmd deletes backups older than a cutoff
func newBackupCleanupCmd(opts *opts.RootOpts) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete backups older than a number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if days <= 0 {
				days = opts.Config.BackupKeepDays
			}

			removed, err := opts.Backups.CleanupOlderThan(ctx, time.Duration(days)*24*time.Hour)
			if err != nil {
				return errors.Errorf("cleaning up backups: %w", err)
			}

			opts.UserLogger.LogSummary(fmt.Sprintf("Removed %d backup(s) older than %d day(s)", removed, days))

			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "age cutoff in days (default backup_keep_days from config)")

	return cmd
}
