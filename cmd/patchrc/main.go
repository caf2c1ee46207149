package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/commands"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/ui"
)

func main() {
	ctx := context.Background()

	// Root options are filled in after flag parsing, so every command
	// shares one pointer that PersistentPreRunE populates.
	root := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "patchrc",
		Short: "An interactive tool for patching text files safely",
		Long: `patchrc applies declarative patch batches to text files: insertions,
range replacements, and regex-targeted edits, validated up front and
written atomically with automatic backups. It also ships a predefined
fix library, batch operations across file trees, and an undo/redo log.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			built, err := newRootOpts(cmd.Context())
			if err != nil {
				return err
			}
			*root = *built
			return nil
		},
	}

	// Add shared flags
	addRootFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(
		commands.NewApplyCmd(root),
		commands.NewPreviewCmd(root),
		commands.NewInfoCmd(root),
		commands.NewFixCmd(root),
		commands.NewBatchCmd(root),
		commands.NewBackupCmd(root),
		commands.NewHistoryCmd(root),
		commands.NewConfigCmd(root),
		commands.NewInteractiveCmd(root),
		newVersionCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.NewUserLogger(ctx).LogValidation(false, "Command failed", err)
		os.Exit(1)
	}
}

// TODO(dr.methodical): 🧪 Add tests for context cancellation
