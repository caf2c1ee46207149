// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package batch applies patch batches across many files at once. Files
// are selected by doublestar globs relative to a root directory and
// patched concurrently, one worker per file, with per-file failure
// isolation: a file that cannot be patched never stops the others.
package batch

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/patch"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the per-file concurrency used when none is set.
const DefaultWorkers = 4

// DefaultExcludes are glob patterns never patched, applied when Options
// leaves Excludes nil.
var DefaultExcludes = []string{
	".git/**",
	".patchrc-backups/**",
	"**/*.bak",
}

// 🔧 Options configures a Runner.
type Options struct {
	// Engine applies patches to individual files. Required.
	Engine *patch.Engine

	// Matcher runs read-only searches. Required for Search and Analyze.
	Matcher *match.Matcher

	// Workers caps concurrent file operations. Zero or negative means
	// DefaultWorkers.
	Workers int

	// ShowHidden includes dot-directories in the walk.
	ShowHidden bool

	// Excludes are glob patterns to skip. Nil means DefaultExcludes; an
	// empty non-nil slice disables exclusion.
	Excludes []string
}

// 🚜 Runner executes batch operations over a directory tree.
type Runner struct {
	opts Options
}

// 🏭 NewRunner creates a Runner, validating required options.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Excludes == nil {
		opts.Excludes = DefaultExcludes
	}
	return &Runner{opts: opts}, nil
}

// 📄 FileOutcome is the result of patching one file.
type FileOutcome struct {
	Path   string        // relative to the batch root
	Result *patch.Result // nil when Err is set before a result existed
	Err    error
}

// 📊 Report aggregates a batch run.
type Report struct {
	Root           string
	Outcomes       []FileOutcome // sorted by path
	FilesScanned   int
	FilesPatched   int // files actually rewritten
	FilesFailed    int // files with an error or nothing applied
	ChangesApplied int // total applied requests across all files
}

// 🚀 Apply runs the request batch against every file under root that
// matches the include globs. Each file gets its own engine call; failures
// are collected per file.
func (r *Runner) Apply(ctx context.Context, root string, includes []string, requests []patch.Request) (*Report, error) {
	return r.run(ctx, root, includes, requests, false)
}

// 🔍 Preview runs the same selection and patching pipeline without
// touching any file.
func (r *Runner) Preview(ctx context.Context, root string, includes []string, requests []patch.Request) (*Report, error) {
	return r.run(ctx, root, includes, requests, true)
}

// 🔁 FindReplace replaces every line matching pattern with the
// replacement lines, across all matching files.
func (r *Runner) FindReplace(ctx context.Context, root string, includes []string, pattern string, replacement []string) (*Report, error) {
	return r.Apply(ctx, root, includes, []patch.Request{
		patch.ReplacePatternAll{Pattern: pattern, Code: replacement},
	})
}

func (r *Runner) run(ctx context.Context, root string, includes []string, requests []patch.Request, preview bool) (*Report, error) {
	logger := zerolog.Ctx(ctx)

	if len(requests) == 0 {
		return nil, errors.New("at least one patch request is required")
	}

	files, err := FindFiles(root, includes, r.opts.Excludes, r.opts.ShowHidden)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Root:         root,
		Outcomes:     make([]FileOutcome, len(files)),
		FilesScanned: len(files),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, rel := range files {
		i, rel := i, rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.Outcomes[i] = FileOutcome{Path: rel, Err: err}
				return nil
			}

			path := filepath.Join(root, rel)
			var result *patch.Result
			var err error
			if preview {
				result, err = r.opts.Engine.Preview(gctx, path, requests)
			} else {
				result, err = r.opts.Engine.Apply(gctx, path, requests)
			}
			report.Outcomes[i] = FileOutcome{Path: rel, Result: result, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(report.Outcomes, func(a, b int) bool {
		return report.Outcomes[a].Path < report.Outcomes[b].Path
	})

	for _, outcome := range report.Outcomes {
		switch {
		case outcome.Err != nil:
			report.FilesFailed++
		case outcome.Result != nil && outcome.Result.Success():
			if outcome.Result.Written || preview {
				report.FilesPatched++
			}
			report.ChangesApplied += outcome.Result.SuccessCount
		default:
			report.FilesFailed++
		}
	}

	logger.Info().
		Str("root", root).
		Int("scanned", report.FilesScanned).
		Int("patched", report.FilesPatched).
		Int("failed", report.FilesFailed).
		Bool("preview", preview).
		Msg("batch run finished")

	return report, nil
}
