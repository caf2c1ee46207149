package fixes

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/patchrc/pkg/batch"
	"gitlab.com/tozd/go/errors"
)

// 🔧 ApplierOptions configures an Applier.
type ApplierOptions struct {
	// Runner executes the fix's patches across the tree. Required.
	Runner *batch.Runner

	// Library resolves fix ids. Required.
	Library *Library
}

// 🚀 Applier applies library fixes to directory trees. File selection and
// per-file patching are delegated to the batch runner; the applier only
// resolves the fix and compiles its patches.
type Applier struct {
	runner  *batch.Runner
	library *Library
}

// 🏭 NewApplier creates an Applier, validating required options.
func NewApplier(opts ApplierOptions) (*Applier, error) {
	if opts.Runner == nil {
		return nil, errors.New("runner is required")
	}
	if opts.Library == nil {
		return nil, errors.New("library is required")
	}
	return &Applier{runner: opts.Runner, library: opts.Library}, nil
}

// 📊 FixReport pairs the fix that ran with its batch outcome.
type FixReport struct {
	Fix   *Fix
	Batch *batch.Report
}

// Apply runs the fix against every file under root matching its globs.
func (a *Applier) Apply(ctx context.Context, root, fixID string) (*FixReport, error) {
	return a.run(ctx, root, fixID, false)
}

// Preview runs the fix without writing anything.
func (a *Applier) Preview(ctx context.Context, root, fixID string) (*FixReport, error) {
	return a.run(ctx, root, fixID, true)
}

func (a *Applier) run(ctx context.Context, root, fixID string, preview bool) (*FixReport, error) {
	logger := zerolog.Ctx(ctx)

	fix, err := a.library.Get(fixID)
	if err != nil {
		return nil, err
	}
	requests, err := fix.Requests()
	if err != nil {
		return nil, err
	}

	var report *batch.Report
	if preview {
		report, err = a.runner.Preview(ctx, root, fix.Globs(), requests)
	} else {
		report, err = a.runner.Apply(ctx, root, fix.Globs(), requests)
	}
	if err != nil {
		return nil, errors.Errorf("applying fix %s: %w", fixID, err)
	}

	logger.Info().
		Str("fix", fixID).
		Str("severity", string(fix.Severity)).
		Int("patched", report.FilesPatched).
		Bool("preview", preview).
		Msg("fix run finished")

	return &FixReport{Fix: fix, Batch: report}, nil
}
