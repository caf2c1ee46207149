package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/textfile"
	"github.com/walteh/patchrc/pkg/ui"
	"gitlab.com/tozd/go/errors"
)

// NewInfoCmd creates a new info command
func NewInfoCmd(opts *opts.RootOpts) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "info FILE",
		Short: "Show file details and a numbered preview",
		Long: `Info inspects a text file without changing it.
It will:
1. Report size, line count, language, and checksum
2. Print a numbered preview of the content
3. Cap the preview at the configured maximum unless --full is given`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			info, err := textfile.Stat(ctx, path)
			if err != nil {
				return errors.Errorf("inspecting file: %w", err)
			}

			fmt.Printf("📄 %s\n", info.Path)
			fmt.Printf("   Size:     %s\n", ui.FormatSize(info.Size))
			fmt.Printf("   Lines:    %d\n", info.Lines)
			fmt.Printf("   Language: %s\n", info.Language)
			fmt.Printf("   Checksum: %s\n", info.Checksum)
			fmt.Printf("   Modified: %s\n", info.Modified.Format("2006-01-02 15:04:05"))
			fmt.Println()

			doc, err := textfile.Load(ctx, path)
			if err != nil {
				return errors.Errorf("loading file: %w", err)
			}

			maxLines := opts.Config.MaxPreviewLines
			if full {
				maxLines = 0
			}
			fmt.Print(ui.RenderPreview(doc.Lines, 1, maxLines))

			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "print the whole file instead of the capped preview")

	return cmd
}
