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

package patch

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/patchrc/pkg/backup"
	"github.com/walteh/patchrc/pkg/diff"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/textfile"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options configures an Engine.
type Options struct {
	// Matcher compiles and caches the patterns requests use. Required.
	Matcher *match.Matcher

	// Backups snapshots files before writes. Nil disables backups.
	Backups *backup.Manager

	// AutoBackup snapshots the target before every write.
	AutoBackup bool

	// StrictBackup turns a failed backup into a batch failure instead of
	// a logged warning.
	StrictBackup bool

	// DiffContext is the unified-diff context line count. Defaults to 3.
	DiffContext int

	// LockTimeout bounds the wait for the per-file lock. Defaults to 5s.
	LockTimeout time.Duration
}

// 🎯 Engine applies request batches to files. It holds no per-batch state:
// every Apply call is independent.
type Engine struct {
	opts Options
}

// 🏭 New creates an Engine, validating required options.
func New(opts Options) (*Engine, error) {
	if opts.Matcher == nil {
		return nil, errors.New("matcher is required")
	}
	if opts.DiffContext <= 0 {
		opts.DiffContext = 3
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}
	return &Engine{opts: opts}, nil
}

// 🚀 Apply runs a request batch against path: lock, load, validate the
// whole batch, mutate a copy of the lines, and — if at least one request
// applied — back up and atomically replace the file. A failed write
// restores the just-created backup. Per-request failures are reported in
// the Result, never as a returned error.
func (e *Engine) Apply(ctx context.Context, path string, requests []Request) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	if len(requests) == 0 {
		return nil, errors.New("at least one patch request is required")
	}

	lock, err := textfile.AcquireLock(ctx, path, e.opts.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	doc, err := textfile.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := preflight(requests, doc.LineCount()); err != nil {
		return nil, err
	}

	newLines, perRequest := ApplyToLines(ctx, doc.Lines, requests, e.opts.Matcher)
	result := newResult(path, doc.LineCount(), len(newLines), perRequest)

	if result.SuccessCount == 0 {
		logger.Warn().
			Str("path", path).
			Int("failed", result.FailureCount).
			Msg("no requests applied, file untouched")
		return result, nil
	}

	result.Diff = diff.Unified(doc.Lines, newLines, displayPath(path), e.opts.DiffContext)

	var snapshot *backup.Info
	if e.opts.AutoBackup && e.opts.Backups != nil {
		snapshot, err = e.opts.Backups.Create(ctx, path)
		if err != nil {
			if e.opts.StrictBackup {
				return nil, errors.Errorf("backing up %s: %v: %w", path, err, ErrBackupFailure)
			}
			logger.Warn().Err(err).Str("path", path).Msg("backup failed, writing without safety net")
		} else {
			result.BackupPath = snapshot.Path
		}
	}

	if err := doc.WithLines(newLines).Save(ctx); err != nil {
		if snapshot != nil {
			if rerr := e.opts.Backups.Restore(ctx, snapshot); rerr != nil {
				logger.Error().Err(rerr).Str("path", path).Msg("restore after failed write also failed")
			} else {
				logger.Info().Str("path", path).Str("backup", snapshot.Path).Msg("restored original after failed write")
			}
		}
		return nil, errors.Errorf("writing %s: %v: %w", path, err, ErrWriteFailure)
	}
	result.Written = true

	logger.Info().
		Str("path", path).
		Int("applied", result.SuccessCount).
		Int("failed", result.FailureCount).
		Int("lines", result.NewLineCount).
		Msg("patched file")

	return result, nil
}

// 🔍 Preview runs the same pipeline as Apply without locking, backing up,
// or writing: the Result carries the diff and per-request outcomes for
// the batch as it would apply right now.
func (e *Engine) Preview(ctx context.Context, path string, requests []Request) (*Result, error) {
	if len(requests) == 0 {
		return nil, errors.New("at least one patch request is required")
	}

	doc, err := textfile.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := preflight(requests, doc.LineCount()); err != nil {
		return nil, err
	}

	newLines, perRequest := ApplyToLines(ctx, doc.Lines, requests, e.opts.Matcher)
	result := newResult(path, doc.LineCount(), len(newLines), perRequest)
	if result.SuccessCount > 0 {
		result.Diff = diff.Unified(doc.Lines, newLines, displayPath(path), e.opts.DiffContext)
	}
	return result, nil
}

// ApplyPatchFile is intentionally a stub: unified-diff patch files are
// displayed by this tool but never parsed or applied.
func (e *Engine) ApplyPatchFile(ctx context.Context, path string, patchFile string) error {
	return errors.Errorf("applying %s to %s: %w", patchFile, path, ErrPatchFilesUnsupported)
}

// ⚙️ ApplyToLines is the pure core: it applies requests to a copy of
// lines and reports per-request outcomes in submission order. Requests
// are applied line-anchored first (highest line first) so earlier
// mutations never shift a later request's target; pattern-anchored and
// append requests follow in submission order, re-scanning the buffer as
// it stands when they run.
func ApplyToLines(ctx context.Context, lines []string, requests []Request, matcher *match.Matcher) ([]string, []RequestResult) {
	logger := zerolog.Ctx(ctx)

	st := &applyState{
		lines:   append(make([]string, 0, len(lines)), lines...),
		matcher: matcher,
	}

	results := make([]RequestResult, len(requests))
	for order, idx := range orderForApply(requests) {
		req := requests[idx]
		detail, err := req.apply(st)
		results[idx] = RequestResult{
			Index:   idx,
			Order:   order,
			Kind:    req.Kind(),
			Applied: err == nil,
			Detail:  detail,
			Err:     err,
		}
		if err != nil {
			logger.Debug().Err(err).Int("request", idx+1).Str("kind", string(req.Kind())).Msg("request failed")
			continue
		}
		logger.Debug().Int("request", idx+1).Str("kind", string(req.Kind())).Msg(detail)
	}

	return st.lines, results
}

// applyState is the engine's private view of one batch in flight.
type applyState struct {
	lines   []string
	matcher *match.Matcher
}

// orderForApply returns request indices in application order: phase 0
// (line-anchored) by descending anchor, then phase 1 (pattern/append) in
// submission order.
func orderForApply(requests []Request) []int {
	order := make([]int, len(requests))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := requests[order[a]], requests[order[b]]
		if ra.phase() != rb.phase() {
			return ra.phase() < rb.phase()
		}
		if ra.phase() == phaseLine {
			return ra.anchor() > rb.anchor()
		}
		return false
	})
	return order
}

// preflight validates the whole batch before any mutation or backup; one
// malformed request rejects everything.
func preflight(requests []Request, lineCount int) error {
	for i, req := range requests {
		if err := req.Validate(lineCount); err != nil {
			return errors.Errorf("request %d: %w", i+1, err)
		}
	}
	return nil
}

func newResult(path string, originalCount, newCount int, perRequest []RequestResult) *Result {
	result := &Result{
		Path:              path,
		OriginalLineCount: originalCount,
		NewLineCount:      newCount,
		Requests:          perRequest,
	}

	applied := make([]RequestResult, 0, len(perRequest))
	for _, rr := range perRequest {
		if rr.Applied {
			result.SuccessCount++
			applied = append(applied, rr)
			continue
		}
		result.FailureCount++
	}

	sort.Slice(applied, func(a, b int) bool { return applied[a].Order < applied[b].Order })
	for _, rr := range applied {
		result.Changes = append(result.Changes, rr.Detail)
	}

	return result
}

// insertLines inserts code before the 0-based position pos.
func insertLines(lines []string, pos int, code []string) []string {
	out := make([]string, 0, len(lines)+len(code))
	out = append(out, lines[:pos]...)
	out = append(out, code...)
	out = append(out, lines[pos:]...)
	return out
}

// splice replaces the half-open 0-based range [start, end) with code.
func splice(lines []string, start, end int, code []string) []string {
	out := make([]string, 0, len(lines)-(end-start)+len(code))
	out = append(out, lines[:start]...)
	out = append(out, code...)
	out = append(out, lines[end:]...)
	return out
}

func checkPatternSyntax(pattern string) error {
	if _, err := regexp.Compile(pattern); err != nil {
		return errors.Errorf("compiling %q: %w", pattern, ErrInvalidPattern)
	}
	return nil
}

// displayPath renders the path for diff headers: relative to the working
// directory when possible, slash-separated, no leading separator.
func displayPath(path string) string {
	if rel, err := filepath.Rel(".", path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return strings.TrimLeft(filepath.ToSlash(path), "/")
}
