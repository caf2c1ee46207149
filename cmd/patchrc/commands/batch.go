package commands

import (
	"fmt"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/batch"
	"github.com/walteh/patchrc/pkg/ui"
	"gitlab.com/tozd/go/errors"
)

// NewBatchCmd creates a new batch command with its subcommands
func NewBatchCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run operations across many files",
		Long: `Batch runs patch plans, find/replace, search, and analysis across
every file under a directory that matches the include globs.`,
	}

	cmd.AddCommand(
		newBatchApplyCmd(opts),
		newBatchReplaceCmd(opts),
		newBatchSearchCmd(opts),
		newBatchAnalyzeCmd(opts),
	)

	return cmd
}

// newBatchApplyCmd applies a plan to every matching file
func newBatchApplyCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		root     string
		includes []string
		planPath string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a patch plan to every matching file",
		Long: `Apply runs one plan against a whole file tree.
It will:
1. Load and compile the plan
2. Find the files matching the include globs
3. Patch each file independently, backing it up first
4. Report per-file outcomes and totals`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if planPath == "" {
				return errors.New("a plan file is required (--plan)")
			}

			requests, _, err := loadPlan(planPath)
			if err != nil {
				return err
			}

			var report *batch.Report
			if dryRun {
				report, err = opts.Runner.Preview(ctx, root, includes, requests)
			} else {
				report, err = opts.Runner.Apply(ctx, root, includes, requests)
			}
			if err != nil {
				return errors.Errorf("running batch: %w", err)
			}

			logBatchReport(opts.UserLogger, report, dryRun)

			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "directory to run under")
	cmd.Flags().StringSliceVar(&includes, "include", nil, "glob patterns for files to patch (default every file)")
	cmd.Flags().StringVarP(&planPath, "plan", "p", "", "plan file with the patches to apply (JSON or YAML)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")

	return cmd
}

// newBatchReplaceCmd rewrites every line matching a pattern
func newBatchReplaceCmd(opts *opts.RootOpts) *cobra.Command {
	var includes []string

	cmd := &cobra.Command{
		Use:   "replace ROOT PATTERN REPLACEMENT...",
		Short: "Replace every matching line across a file tree",
		Long: `Replace rewrites every line matching a regular expression.
It will:
1. Find the files matching the include globs
2. Replace each matching line with the replacement line(s)
3. Keep each matched line's indentation
4. Report per-file outcomes and totals`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			report, err := opts.Runner.FindReplace(ctx, args[0], includes, args[1], args[2:])
			if err != nil {
				return errors.Errorf("running replace: %w", err)
			}

			logBatchReport(opts.UserLogger, report, false)

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&includes, "include", nil, "glob patterns for files to rewrite (default every file)")

	return cmd
}

// newBatchSearchCmd searches files for a pattern
func newBatchSearchCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		includes     []string
		contextLines int
	)

	cmd := &cobra.Command{
		Use:   "search ROOT PATTERN",
		Short: "Search a file tree for a regular expression",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			hits, err := opts.Runner.Search(ctx, args[0], includes, args[1], contextLines)
			if err != nil {
				return errors.Errorf("running search: %w", err)
			}

			total := 0
			for _, hit := range hits {
				fmt.Printf("📄 %s\n", hit.Path)
				for _, m := range hit.Matches {
					fmt.Print(ui.RenderMatch(m))
				}
				total += len(hit.Matches)
			}
			opts.UserLogger.LogSummary(fmt.Sprintf("%d match(es) in %d file(s)", total, len(hits)))

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&includes, "include", nil, "glob patterns for files to search (default every file)")
	cmd.Flags().IntVar(&contextLines, "context", 2, "context lines to show around each match")

	return cmd
}

// newBatchAnalyzeCmd reports statistics for a file tree
func newBatchAnalyzeCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		includes []string
		patterns []string
	)

	cmd := &cobra.Command{
		Use:   "analyze ROOT",
		Short: "Report file, line, and language statistics for a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			analysis, err := opts.Runner.Analyze(ctx, args[0], includes, patterns)
			if err != nil {
				return errors.Errorf("running analysis: %w", err)
			}

			fmt.Printf("📊 %s\n", analysis.Root)
			fmt.Printf("   Files: %d\n", analysis.Files)
			fmt.Printf("   Lines: %d\n", analysis.TotalLines)
			fmt.Printf("   Size:  %s\n", ui.FormatSize(analysis.TotalSize))
			fmt.Println()

			if len(analysis.ByLanguage) > 0 {
				data := pterm.TableData{{"Language", "Files"}}
				for _, lang := range sortedKeys(analysis.ByLanguage) {
					data = append(data, []string{lang, fmt.Sprintf("%d", analysis.ByLanguage[lang])})
				}
				if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
					return errors.Errorf("rendering language table: %w", err)
				}
			}

			if len(analysis.PatternHits) > 0 {
				data := pterm.TableData{{"Pattern", "Matching lines"}}
				for _, pattern := range sortedKeys(analysis.PatternHits) {
					data = append(data, []string{pattern, fmt.Sprintf("%d", analysis.PatternHits[pattern])})
				}
				if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
					return errors.Errorf("rendering pattern table: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&includes, "include", nil, "glob patterns for files to analyze (default every file)")
	cmd.Flags().StringSliceVar(&patterns, "patterns", nil, "regular expressions to count across the tree")

	return cmd
}

// logBatchReport prints per-file outcomes and the run summary
func logBatchReport(logger *ui.UserLogger, report *batch.Report, preview bool) {
	for _, outcome := range report.Outcomes {
		switch {
		case outcome.Err != nil:
			logger.LogEvent(ui.Event{Type: ui.EventError, Path: outcome.Path, Error: outcome.Err})
		case outcome.Result.Success() && preview:
			logger.LogEvent(ui.Event{Type: ui.EventPreviewed, Path: outcome.Path,
				Description: fmt.Sprintf("%d change(s)", outcome.Result.SuccessCount)})
		case outcome.Result.Success():
			logger.LogEvent(ui.Event{Type: ui.EventPatched, Path: outcome.Path,
				Description: fmt.Sprintf("%d change(s)", outcome.Result.SuccessCount)})
		default:
			logger.LogEvent(ui.Event{Type: ui.EventSkipped, Path: outcome.Path, Description: "no matches"})
		}
	}
	logger.LogSummary(fmt.Sprintf("%d file(s) scanned, %d patched, %d failed, %d change(s)",
		report.FilesScanned, report.FilesPatched, report.FilesFailed, report.ChangesApplied))
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TODO(dr.methodical): 🧪 Add tests for batch subcommands
