package main

import (
	"context"
	"os"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/backup"
	"github.com/walteh/patchrc/pkg/batch"
	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/fixes"
	"github.com/walteh/patchrc/pkg/history"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/nav"
	"github.com/walteh/patchrc/pkg/patch"
	"github.com/walteh/patchrc/pkg/ui"
	"gitlab.com/tozd/go/errors"
)

// fixesDir holds user bundles loaded on top of the builtin catalog.
const fixesDir = ".patchrc-fixes"

var (
	// Flags
	configFile string
	debug      bool
)

// newRootOpts creates a new RootOpts with initialized dependencies
func newRootOpts(ctx context.Context) (*opts.RootOpts, error) {
	// Create user logger
	userLogger := ui.NewUserLogger(ctx)

	// Load config: an explicit flag must exist, otherwise discover in the
	// working directory and fall back to defaults.
	var cfg *config.Config
	cfgPath := configFile
	var err error
	if configFile != "" {
		cfg, err = config.Load(ctx, configFile)
	} else {
		cfg, cfgPath, err = config.Discover(ctx, ".")
	}
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	matcher := match.NewMatcher(match.DefaultCacheSize)

	backups, err := backup.NewManager(backup.Options{
		Dir:           cfg.BackupDir,
		RotationCount: cfg.BackupRotationCount,
	})
	if err != nil {
		return nil, errors.Errorf("creating backup manager: %w", err)
	}

	engine, err := patch.New(patch.Options{
		Matcher:     matcher,
		Backups:     backups,
		AutoBackup:  cfg.AutoBackup,
		DiffContext: cfg.DiffContextLines,
	})
	if err != nil {
		return nil, errors.Errorf("creating patch engine: %w", err)
	}

	runner, err := batch.NewRunner(batch.Options{
		Engine:     engine,
		Matcher:    matcher,
		Workers:    cfg.BatchWorkers,
		ShowHidden: cfg.ShowHiddenFiles,
	})
	if err != nil {
		return nil, errors.Errorf("creating batch runner: %w", err)
	}

	library := fixes.NewLibrary()
	if _, err := library.LoadDir(ctx, fixesDir); err != nil {
		// A broken user bundle must not take down the builtin catalog.
		userLogger.LogValidation(false, "Loading custom fixes", err)
	}

	applier, err := fixes.NewApplier(fixes.ApplierOptions{Runner: runner, Library: library})
	if err != nil {
		return nil, errors.Errorf("creating fix applier: %w", err)
	}

	hist, err := history.Open(ctx, history.Options{
		Path:    history.DefaultFileName,
		Engine:  engine,
		Backups: backups,
	})
	if err != nil {
		return nil, errors.Errorf("opening history: %w", err)
	}

	navigator, err := nav.New(nav.Options{Start: ".", ShowHidden: cfg.ShowHiddenFiles})
	if err != nil {
		return nil, errors.Errorf("creating navigator: %w", err)
	}

	return &opts.RootOpts{
		Config:     cfg,
		ConfigPath: cfgPath,
		FixesDir:   fixesDir,
		Matcher:    matcher,
		Engine:     engine,
		Backups:    backups,
		Runner:     runner,
		Library:    library,
		Applier:    applier,
		History:    hist,
		Navigator:  navigator,
		UserLogger: userLogger,
	}, nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (discovered when empty)")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		pterm.EnableDebugMessages()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}

// TODO(dr.methodical): 🧪 Add tests for config discovery order
