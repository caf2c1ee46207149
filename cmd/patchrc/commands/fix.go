package commands

import (
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/fixes"
	"gitlab.com/tozd/go/errors"
)

// NewFixCmd creates a new fix command with its subcommands
func NewFixCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Browse and apply predefined fixes",
		Long: `Fix works with the library of predefined fixes: builtin security and
code-quality patches plus any bundles loaded from the fixes directory
or pulled from a registry.`,
	}

	cmd.AddCommand(
		newFixListCmd(opts),
		newFixShowCmd(opts),
		newFixSearchCmd(opts),
		newFixApplyCmd(opts),
		newFixPullCmd(opts),
		newFixExportCmd(opts),
	)

	return cmd
}

// newFixListCmd lists fixes, optionally filtered by category
func newFixListCmd(opts *opts.RootOpts) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available fixes",
		RunE: func(cmd *cobra.Command, args []string) error {
			all := opts.Library.All()
			if category != "" {
				all = opts.Library.ByCategory(category)
			}
			if len(all) == 0 {
				opts.UserLogger.LogSummary("No fixes found")
				return nil
			}
			return renderFixTable(all)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list fixes in this category")

	return cmd
}

// newFixShowCmd prints one fix in full, patches included
func newFixShowCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a fix and its patches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fix, err := opts.Library.Get(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s %s (%s)\n", fix.Severity.Icon(), fix.Name, fix.ID)
			fmt.Printf("   Category:    %s\n", fix.Category)
			fmt.Printf("   Severity:    %s\n", fix.Severity)
			fmt.Printf("   Description: %s\n", fix.Description)
			if fix.Author != "" {
				fmt.Printf("   Author:      %s\n", fix.Author)
			}
			if len(fix.FilePatterns) > 0 {
				fmt.Printf("   Files:       %v\n", fix.FilePatterns)
			}
			fmt.Printf("   Patches:\n")
			for i, p := range fix.Patches {
				switch {
				case p.Pattern != "":
					fmt.Printf("   %d. %s  pattern=%q\n", i+1, p.Type, p.Pattern)
				case p.LineNumber > 0:
					fmt.Printf("   %d. %s  line=%d\n", i+1, p.Type, p.LineNumber)
				default:
					fmt.Printf("   %d. %s\n", i+1, p.Type)
				}
			}

			return nil
		},
	}
}

// newFixSearchCmd searches fixes by name, description, or category
func newFixSearchCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search fixes by name, description, or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found := opts.Library.Search(args[0])
			if len(found) == 0 {
				opts.UserLogger.LogSummary(fmt.Sprintf("No fixes match %q", args[0]))
				return nil
			}
			return renderFixTable(found)
		},
	}
}

// newFixApplyCmd applies one fix across a file tree
func newFixApplyCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		root   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "apply ID",
		Short: "Apply a fix to every matching file under a directory",
		Long: `Apply runs a predefined fix across a file tree.
It will:
1. Look up the fix in the library
2. Find the files matching the fix's file patterns
3. Patch each file that matches, backing it up first
4. Report per-file outcomes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var report *fixes.FixReport
			var err error
			if dryRun {
				report, err = opts.Applier.Preview(ctx, root, args[0])
			} else {
				report, err = opts.Applier.Apply(ctx, root, args[0])
			}
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n", report.Fix.Severity.Icon(), report.Fix.Name)
			logBatchReport(opts.UserLogger, report.Batch, dryRun)

			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "directory to apply the fix under")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")

	return cmd
}

// newFixPullCmd pulls fix bundles from a GitHub registry
func newFixPullCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		ref  string
		path string
	)

	cmd := &cobra.Command{
		Use:   "pull REPO",
		Short: "Pull fix bundles from a GitHub repository",
		Long: `Pull downloads fix bundles from a registry repository.
It will:
1. List the bundle files under the registry path
2. Download and validate each bundle
3. Add every fix to the library
4. Save the fixes into the local fixes directory`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			registry, err := fixes.NewRegistry(ctx, fixes.RegistryOptions{
				Repo: args[0],
				Ref:  ref,
				Path: path,
			})
			if err != nil {
				return errors.Errorf("creating registry client: %w", err)
			}

			pulled, err := registry.Pull(ctx)
			if err != nil {
				return errors.Errorf("pulling fixes: %w", err)
			}

			for _, fix := range pulled {
				if err := opts.Library.Add(fix); err != nil {
					return errors.Errorf("adding fix %s: %w", fix.ID, err)
				}
				dest := filepath.Join(opts.FixesDir, fix.ID+".json")
				if err := opts.Library.SaveFix(ctx, fix.ID, dest); err != nil {
					return errors.Errorf("saving fix %s: %w", fix.ID, err)
				}
			}

			opts.UserLogger.LogSummary(fmt.Sprintf("Pulled %d fix(es) into %s", len(pulled), opts.FixesDir))

			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "git ref to pull from (default main)")
	cmd.Flags().StringVar(&path, "path", "", "directory inside the repository (default fixes)")

	return cmd
}

// newFixExportCmd writes one fix to a shareable bundle file
func newFixExportCmd(opts *opts.RootOpts) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export a fix as a bundle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dest := output
			if dest == "" {
				dest = args[0] + ".json"
			}
			if err := opts.Library.SaveFix(ctx, args[0], dest); err != nil {
				return err
			}

			opts.UserLogger.LogSummary(fmt.Sprintf("Exported %s to %s", args[0], dest))

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "bundle file to write (default ID.json)")

	return cmd
}

// renderFixTable prints fixes as a table with severity icons
func renderFixTable(all []*fixes.Fix) error {
	data := pterm.TableData{{"", "ID", "Category", "Severity", "Name"}}
	for _, fix := range all {
		data = append(data, []string{fix.Severity.Icon(), fix.ID, fix.Category, string(fix.Severity), fix.Name})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// TODO(dr.methodical): 🧪 Add tests for fix subcommands
// TODO(dr.methodical): 📝 Add examples of bundle files to the help text
