package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/patch"
	"github.com/walteh/patchrc/pkg/textfile"
	"github.com/walteh/patchrc/pkg/ui"
	"github.com/walteh/patchrc/pkg/validate"
	"gitlab.com/tozd/go/errors"
)

// NewInteractiveCmd creates a new interactive command
func NewInteractiveCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"menu", "i"},
		Short:   "Run the menu-driven interactive session",
		Long: `Interactive starts a menu-driven session.
It will:
1. Show the main menu with every operation
2. Walk you through file selection, previews, and confirmations
3. Return to the menu after each action until you quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := &session{opts: opts}
			return s.run(cmd.Context())
		},
	}

	return cmd
}

// Main menu entries
const (
	menuBrowse   = "📁 Browse files"
	menuPatch    = "🔧 Patch a file"
	menuPreview  = "🔍 Preview a plan"
	menuSearch   = "🔎 Search in files"
	menuFix      = "🩹 Apply a predefined fix"
	menuUndo     = "↩️ Undo last operation"
	menuRedo     = "↪️ Redo last undone operation"
	menuHistory  = "📜 View history"
	menuSettings = "⚙️ Settings"
	menuQuit     = "👋 Quit"

	entryBack   = "↩️ Back"
	entryManual = "✏️ Enter a path"
)

// session is one interactive run. Actions that fail report the error and
// drop back to the menu instead of ending the session.
type session struct {
	opts *opts.RootOpts
}

func (s *session) run(ctx context.Context) error {
	for {
		choice, err := pterm.DefaultInteractiveSelect.
			WithOptions([]string{
				menuBrowse, menuPatch, menuPreview, menuSearch, menuFix,
				menuUndo, menuRedo, menuHistory, menuSettings, menuQuit,
			}).
			WithMaxHeight(12).
			Show("What do you want to do?")
		if err != nil {
			return errors.Errorf("reading menu choice: %w", err)
		}

		var actionErr error
		switch choice {
		case menuBrowse:
			actionErr = s.browse(ctx)
		case menuPatch:
			actionErr = s.patchFile(ctx)
		case menuPreview:
			actionErr = s.previewPlan(ctx)
		case menuSearch:
			actionErr = s.searchFiles(ctx)
		case menuFix:
			actionErr = s.applyFix(ctx)
		case menuUndo:
			actionErr = s.undo(ctx)
		case menuRedo:
			actionErr = s.redo(ctx)
		case menuHistory:
			s.showHistory()
		case menuSettings:
			actionErr = s.settings(ctx)
		case menuQuit:
			return nil
		}
		if actionErr != nil {
			s.opts.UserLogger.LogValidation(false, "Action failed", actionErr)
		}
	}
}

// browse walks directories and opens the per-file menu on selection.
func (s *session) browse(ctx context.Context) error {
	const entryUp = "⬆️ .."

	for {
		listing, err := s.opts.Navigator.List(ctx, "")
		if err != nil {
			return err
		}

		options := []string{entryUp}
		for _, d := range listing.Dirs {
			options = append(options, "📁 "+d.Name)
		}
		for _, f := range listing.Files {
			options = append(options, fmt.Sprintf("📄 %s (%s)", f.Name, ui.FormatSize(f.Size)))
		}
		options = append(options, entryManual, entryBack)

		choice, err := pterm.DefaultInteractiveSelect.
			WithOptions(options).
			WithMaxHeight(15).
			Show("Browsing " + s.opts.Navigator.Current())
		if err != nil {
			return errors.Errorf("reading selection: %w", err)
		}

		switch {
		case choice == entryBack:
			return nil
		case choice == entryUp:
			if _, err := s.opts.Navigator.ChangeDir(".."); err != nil {
				pterm.Warning.Println(err.Error())
			}
		case choice == entryManual:
			path, err := pterm.DefaultInteractiveTextInput.Show("Path (~, -, or relative)")
			if err != nil {
				return errors.Errorf("reading path: %w", err)
			}
			if err := s.open(ctx, path); err != nil {
				pterm.Warning.Println(err.Error())
			}
		case strings.HasPrefix(choice, "📁 "):
			if _, err := s.opts.Navigator.ChangeDir(strings.TrimPrefix(choice, "📁 ")); err != nil {
				pterm.Warning.Println(err.Error())
			}
		case strings.HasPrefix(choice, "📄 "):
			name := strings.TrimPrefix(choice, "📄 ")
			if i := strings.LastIndex(name, " ("); i > 0 {
				name = name[:i]
			}
			if err := s.fileMenu(ctx, s.opts.Navigator.Resolve(name)); err != nil {
				return err
			}
		}
	}
}

// open routes manual path input: directories change the working
// directory, files open the per-file menu.
func (s *session) open(ctx context.Context, path string) error {
	resolved := s.opts.Navigator.Resolve(path)
	if path == "~" || path == "-" || path == "" {
		_, err := s.opts.Navigator.ChangeDir(path)
		return err
	}
	fi, err := os.Stat(resolved)
	if err != nil {
		return errors.Errorf("path not found: %s", resolved)
	}
	if fi.IsDir() {
		_, err := s.opts.Navigator.ChangeDir(resolved)
		return err
	}
	return s.fileMenu(ctx, resolved)
}

// fileMenu offers the operations available on a single file.
func (s *session) fileMenu(ctx context.Context, path string) error {
	const (
		actionInfo    = "📄 Show details and preview"
		actionPatch   = "🔧 Apply a plan"
		actionPreview = "🔍 Preview a plan"
		actionRestore = "🔄 Restore newest backup"
	)

	s.opts.Navigator.Visit(path)

	for {
		choice, err := pterm.DefaultInteractiveSelect.
			WithOptions([]string{actionInfo, actionPatch, actionPreview, actionRestore, entryBack}).
			Show(path)
		if err != nil {
			return errors.Errorf("reading selection: %w", err)
		}

		var actionErr error
		switch choice {
		case entryBack:
			return nil
		case actionInfo:
			actionErr = s.showInfo(ctx, path)
		case actionPatch:
			actionErr = s.applyPlanTo(ctx, path)
		case actionPreview:
			actionErr = s.previewPlanOn(ctx, path)
		case actionRestore:
			actionErr = s.restore(ctx, path)
		}
		if actionErr != nil {
			pterm.Warning.Println(actionErr.Error())
		}
	}
}

func (s *session) showInfo(ctx context.Context, path string) error {
	info, err := textfile.Stat(ctx, path)
	if err != nil {
		return err
	}
	fmt.Printf("📄 %s: %s, %d line(s), %s\n", info.Path, ui.FormatSize(info.Size), info.Lines, info.Language)

	doc, err := textfile.Load(ctx, path)
	if err != nil {
		return err
	}
	fmt.Print(ui.RenderPreview(doc.Lines, 1, s.opts.Config.MaxPreviewLines))
	return nil
}

// patchFile asks for a file, then runs the plan flow against it.
func (s *session) patchFile(ctx context.Context) error {
	path, err := s.askFile("File to patch")
	if err != nil {
		return err
	}
	return s.applyPlanTo(ctx, path)
}

func (s *session) previewPlan(ctx context.Context) error {
	path, err := s.askFile("File to preview against")
	if err != nil {
		return err
	}
	return s.previewPlanOn(ctx, path)
}

// applyPlanTo loads a plan, shows the diff, confirms, applies, and
// records the operation for undo.
func (s *session) applyPlanTo(ctx context.Context, path string) error {
	requests, specs, err := s.askPlan()
	if err != nil {
		return err
	}

	for _, c := range validate.DetectConflicts(requests) {
		pterm.Warning.Println(c.String())
	}

	preview, err := s.opts.Engine.Preview(ctx, path, requests)
	if err != nil {
		return err
	}
	fmt.Print(ui.RenderDiff(preview.Diff))
	fmt.Print(ui.RenderResult(preview))
	if !preview.Success() {
		return nil
	}

	ok, err := pterm.DefaultInteractiveConfirm.Show(fmt.Sprintf("Apply %d patch(es) to %s?", len(requests), path))
	if err != nil {
		return errors.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		s.opts.UserLogger.LogEvent(ui.Event{Type: ui.EventSkipped, Path: path, Description: "not confirmed"})
		return nil
	}

	result, err := s.opts.Engine.Apply(ctx, path, requests)
	if err != nil {
		return err
	}
	if !result.Written {
		s.opts.UserLogger.LogEvent(ui.Event{Type: ui.EventSkipped, Path: path, Description: "no patches applied"})
		return nil
	}

	s.opts.Navigator.Visit(path)
	s.opts.UserLogger.LogEvent(ui.Event{Type: ui.EventPatched, Path: path,
		Description: fmt.Sprintf("%d of %d patch(es)", result.SuccessCount, len(requests))})

	return s.opts.History.Record(ctx, result, specs)
}

func (s *session) previewPlanOn(ctx context.Context, path string) error {
	requests, _, err := s.askPlan()
	if err != nil {
		return err
	}

	result, err := s.opts.Engine.Preview(ctx, path, requests)
	if err != nil {
		return err
	}
	fmt.Print(ui.RenderDiff(result.Diff))
	fmt.Print(ui.RenderResult(result))
	return nil
}

// searchFiles runs a pattern search under the current directory.
func (s *session) searchFiles(ctx context.Context) error {
	pattern, err := pterm.DefaultInteractiveTextInput.Show("Regular expression")
	if err != nil {
		return errors.Errorf("reading pattern: %w", err)
	}

	hits, err := s.opts.Runner.Search(ctx, s.opts.Navigator.Current(), nil, pattern, 2)
	if err != nil {
		return err
	}

	total := 0
	for _, hit := range hits {
		fmt.Printf("📄 %s\n", hit.Path)
		for _, m := range hit.Matches {
			fmt.Print(ui.RenderMatch(m))
		}
		total += len(hit.Matches)
	}
	s.opts.UserLogger.LogSummary(fmt.Sprintf("%d match(es) in %d file(s)", total, len(hits)))
	return nil
}

// applyFix picks a fix from the library and runs it under a directory.
func (s *session) applyFix(ctx context.Context) error {
	all := s.opts.Library.All()
	byLabel := make(map[string]string, len(all))
	options := make([]string, 0, len(all)+1)
	for _, fix := range all {
		label := fmt.Sprintf("%s %s: %s", fix.Severity.Icon(), fix.ID, fix.Name)
		byLabel[label] = fix.ID
		options = append(options, label)
	}
	options = append(options, entryBack)

	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions(options).
		WithMaxHeight(15).
		Show("Pick a fix")
	if err != nil {
		return errors.Errorf("reading selection: %w", err)
	}
	if choice == entryBack {
		return nil
	}
	id := byLabel[choice]

	root, err := pterm.DefaultInteractiveTextInput.WithDefaultValue(s.opts.Navigator.Current()).Show("Directory to fix")
	if err != nil {
		return errors.Errorf("reading directory: %w", err)
	}

	// Dry run first so the confirmation shows real numbers.
	preview, err := s.opts.Applier.Preview(ctx, root, id)
	if err != nil {
		return err
	}
	if preview.Batch.FilesPatched == 0 {
		s.opts.UserLogger.LogSummary("No files need this fix")
		return nil
	}

	ok, err := pterm.DefaultInteractiveConfirm.Show(fmt.Sprintf("Fix %d file(s) with %d change(s)?",
		preview.Batch.FilesPatched, preview.Batch.ChangesApplied))
	if err != nil {
		return errors.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		return nil
	}

	report, err := s.opts.Applier.Apply(ctx, root, id)
	if err != nil {
		return err
	}
	logBatchReport(s.opts.UserLogger, report.Batch, false)
	return nil
}

func (s *session) undo(ctx context.Context) error {
	op, err := s.opts.History.Undo(ctx)
	if err != nil {
		return err
	}
	s.opts.UserLogger.LogEvent(ui.Event{Type: ui.EventRestored, Path: op.Path,
		Description: fmt.Sprintf("undid %d patch(es)", len(op.Patches))})
	return nil
}

func (s *session) redo(ctx context.Context) error {
	op, result, err := s.opts.History.Redo(ctx)
	if err != nil {
		return err
	}
	s.opts.UserLogger.LogEvent(ui.Event{Type: ui.EventPatched, Path: op.Path,
		Description: fmt.Sprintf("redid %d of %d patch(es)", result.SuccessCount, len(op.Patches))})
	return nil
}

func (s *session) showHistory() {
	entries := s.opts.History.Entries()
	if len(entries) == 0 {
		s.opts.UserLogger.LogSummary("History is empty")
		return
	}
	renderHistoryEntries(entries)
}

// settings edits one key at a time and saves after every change.
func (s *session) settings(ctx context.Context) error {
	for {
		options := append(config.Keys(), entryBack)
		choice, err := pterm.DefaultInteractiveSelect.
			WithOptions(options).
			WithMaxHeight(15).
			Show("Pick a setting")
		if err != nil {
			return errors.Errorf("reading selection: %w", err)
		}
		if choice == entryBack {
			return nil
		}

		current, err := s.opts.Config.Get(choice)
		if err != nil {
			return err
		}
		value, err := pterm.DefaultInteractiveTextInput.
			WithDefaultValue(fmt.Sprintf("%v", current)).
			Show("New value for " + choice)
		if err != nil {
			return errors.Errorf("reading value: %w", err)
		}

		if err := s.opts.Config.Set(choice, value); err != nil {
			pterm.Warning.Println(err.Error())
			continue
		}

		path := s.opts.ConfigPath
		if path == "" {
			path = config.DefaultFileNames[0]
		}
		if err := s.opts.Config.Save(ctx, path); err != nil {
			return err
		}
		s.opts.UserLogger.LogSummary(fmt.Sprintf("Set %s = %s in %s", choice, value, path))
	}
}

// restore puts the newest backup of path back in place.
func (s *session) restore(ctx context.Context, path string) error {
	ok, err := pterm.DefaultInteractiveConfirm.Show(fmt.Sprintf("Overwrite %s with its newest backup?", path))
	if err != nil {
		return errors.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		return nil
	}

	info, err := s.opts.Backups.RestoreLatest(ctx, path)
	if err != nil {
		return err
	}
	s.opts.UserLogger.LogEvent(ui.Event{Type: ui.EventRestored, Path: path,
		Description: fmt.Sprintf("from %s", info.CreatedAt.Format("2006-01-02 15:04:05"))})
	return nil
}

// askFile offers the recently visited files before falling back to
// manual entry.
func (s *session) askFile(text string) (string, error) {
	recent := s.opts.Navigator.Recent()
	if len(recent) == 0 {
		path, err := pterm.DefaultInteractiveTextInput.Show(text)
		if err != nil {
			return "", errors.Errorf("reading path: %w", err)
		}
		return s.opts.Navigator.Resolve(path), nil
	}

	options := append(append([]string{}, recent...), entryManual)
	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions(options).
		WithMaxHeight(12).
		Show(text)
	if err != nil {
		return "", errors.Errorf("reading selection: %w", err)
	}
	if choice == entryManual {
		path, err := pterm.DefaultInteractiveTextInput.Show(text)
		if err != nil {
			return "", errors.Errorf("reading path: %w", err)
		}
		return s.opts.Navigator.Resolve(path), nil
	}
	return choice, nil
}

// askPlan prompts for a plan file and compiles it.
func (s *session) askPlan() ([]patch.Request, []patch.Spec, error) {
	planPath, err := pterm.DefaultInteractiveTextInput.Show("Plan file (JSON or YAML)")
	if err != nil {
		return nil, nil, errors.Errorf("reading plan path: %w", err)
	}
	return loadPlan(s.opts.Navigator.Resolve(planPath))
}

// TODO(dr.methodical): 🧪 Add tests for the menu flow with scripted input
// TODO(dr.methodical): 🎨 Add a batch operations submenu
