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

// Package history is the undo/redo log. Every applied batch is recorded
// with its wire-form patches and the backup taken before the write: undo
// restores that backup, redo re-applies the recorded patches. The log
// persists as JSON so undo survives across runs.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/patchrc/pkg/backup"
	"github.com/walteh/patchrc/pkg/patch"
	"gitlab.com/tozd/go/errors"
)

const (
	// DefaultLimit caps each stack; the oldest operations fall off.
	DefaultLimit = 100

	// DefaultFileName is the log's on-disk name inside a working directory.
	DefaultFileName = ".patchrc-history.json"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// 📜 Operation is one recorded batch application.
type Operation struct {
	ID         string       `json:"id"`
	Timestamp  time.Time    `json:"timestamp"`
	Path       string       `json:"path"`
	Patches    []patch.Spec `json:"patches"`
	BackupPath string       `json:"backup_path,omitempty"`
	Applied    int          `json:"applied"`
	Failed     int          `json:"failed,omitempty"`
	Changes    []string     `json:"changes,omitempty"`
}

// 📑 Entry is an operation plus where it currently sits: still applied,
// or undone and waiting on the redo stack.
type Entry struct {
	Operation
	Undone bool
}

// 📊 Summary describes the operations recorded by this process.
type Summary struct {
	Start         time.Time
	Operations    int
	FilesModified int
	TotalPatches  int
}

// 🔧 Options configures a Log.
type Options struct {
	// Path is the JSON log file. Required.
	Path string

	// Engine re-applies patches on redo. Required.
	Engine *patch.Engine

	// Backups restores snapshots on undo. Required.
	Backups *backup.Manager

	// Limit caps each stack. Zero or negative means DefaultLimit.
	Limit int

	// Now supplies timestamps; defaults to time.Now.
	Now func() time.Time
}

// 🗃️ Log holds the undo and redo stacks. Safe for concurrent use.
type Log struct {
	opts Options

	mu      sync.Mutex
	undo    []Operation
	redo    []Operation
	session []Operation
}

// 🏭 Open creates a Log, loading any existing state from its file. A
// missing or unreadable log file starts empty rather than failing: the
// log is a convenience layer, not a source of truth.
func Open(ctx context.Context, opts Options) (*Log, error) {
	logger := zerolog.Ctx(ctx)

	if opts.Path == "" {
		return nil, errors.New("history path is required")
	}
	if opts.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if opts.Backups == nil {
		return nil, errors.New("backup manager is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	log := &Log{opts: opts}

	data, err := os.ReadFile(opts.Path)
	if err == nil {
		var state logFile
		if err := json.Unmarshal(data, &state); err != nil {
			logger.Warn().Err(err).Str("path", opts.Path).Msg("history file unreadable, starting empty")
		} else {
			log.undo = state.Undo
			log.redo = state.Redo
		}
	}

	return log, nil
}

// logFile is the JSON shape of the persisted log.
type logFile struct {
	Undo      []Operation `json:"undo_stack"`
	Redo      []Operation `json:"redo_stack"`
	LastSaved time.Time   `json:"last_saved"`
}

// ➕ Record adds an applied batch to the undo stack and clears the redo
// stack: history is linear, a new edit invalidates the undone branch.
func (l *Log) Record(ctx context.Context, result *patch.Result, specs []patch.Spec) error {
	if result == nil || !result.Written {
		return errors.New("only written results can be recorded")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.opts.Now()
	op := Operation{
		ID:         fmt.Sprintf("%s_%06d", now.Format("20060102_150405"), now.Nanosecond()/1000),
		Timestamp:  now,
		Path:       result.Path,
		Patches:    specs,
		BackupPath: result.BackupPath,
		Applied:    result.SuccessCount,
		Failed:     result.FailureCount,
		Changes:    result.Changes,
	}

	l.undo = append(l.undo, op)
	if len(l.undo) > l.opts.Limit {
		l.undo = l.undo[len(l.undo)-l.opts.Limit:]
	}
	l.redo = nil
	l.session = append(l.session, op)

	return l.save(ctx)
}

// ↩️ Undo restores the most recent operation's backup and moves the
// operation to the redo stack. Operations recorded without a backup
// cannot be undone.
func (l *Log) Undo(ctx context.Context) (*Operation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.undo) == 0 {
		return nil, ErrNothingToUndo
	}
	op := l.undo[len(l.undo)-1]

	if op.BackupPath == "" {
		return nil, errors.Errorf("operation %s on %s was recorded without a backup", op.ID, op.Path)
	}
	snapshot := &backup.Info{Path: op.BackupPath, Original: op.Path}
	if err := l.opts.Backups.Restore(ctx, snapshot); err != nil {
		return nil, errors.Errorf("undoing %s: %w", op.Path, err)
	}

	l.undo = l.undo[:len(l.undo)-1]
	l.redo = append(l.redo, op)
	if len(l.redo) > l.opts.Limit {
		l.redo = l.redo[len(l.redo)-l.opts.Limit:]
	}

	if err := l.save(ctx); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("path", op.Path).Str("backup", op.BackupPath).Msg("undid operation")
	return &op, nil
}

// ↪️ Redo re-applies the most recently undone operation's patches. On
// failure the operation stays on the redo stack.
func (l *Log) Redo(ctx context.Context) (*Operation, *patch.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.redo) == 0 {
		return nil, nil, ErrNothingToRedo
	}
	op := l.redo[len(l.redo)-1]

	requests, err := patch.CompileSpecs(op.Patches)
	if err != nil {
		return nil, nil, errors.Errorf("redoing %s: %w", op.Path, err)
	}
	result, err := l.opts.Engine.Apply(ctx, op.Path, requests)
	if err != nil {
		return nil, nil, errors.Errorf("redoing %s: %w", op.Path, err)
	}
	if !result.Written {
		return nil, result, errors.Errorf("redoing %s: no patch applied", op.Path)
	}

	op.BackupPath = result.BackupPath
	op.Applied = result.SuccessCount
	op.Failed = result.FailureCount
	op.Changes = result.Changes
	l.redo = l.redo[:len(l.redo)-1]
	l.undo = append(l.undo, op)
	if len(l.undo) > l.opts.Limit {
		l.undo = l.undo[len(l.undo)-l.opts.Limit:]
	}

	if err := l.save(ctx); err != nil {
		return nil, result, err
	}
	zerolog.Ctx(ctx).Info().Str("path", op.Path).Msg("redid operation")
	return &op, result, nil
}

// PeekUndo returns the operation Undo would act on, or nil.
func (l *Log) PeekUndo() *Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.undo) == 0 {
		return nil
	}
	op := l.undo[len(l.undo)-1]
	return &op
}

// PeekRedo returns the operation Redo would act on, or nil.
func (l *Log) PeekRedo() *Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.redo) == 0 {
		return nil
	}
	op := l.redo[len(l.redo)-1]
	return &op
}

// 📋 Entries returns the whole log, newest first, marking undone
// operations.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.undo)+len(l.redo))
	for i := len(l.redo) - 1; i >= 0; i-- {
		out = append(out, Entry{Operation: l.redo[i], Undone: true})
	}
	for i := len(l.undo) - 1; i >= 0; i-- {
		out = append(out, Entry{Operation: l.undo[i]})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Timestamp.After(out[b].Timestamp)
	})
	return out
}

// 🔎 Search returns entries whose path, patch type, or pattern contains
// the query, case-insensitively.
func (l *Log) Search(query string) []Entry {
	query = strings.ToLower(query)
	var out []Entry
	for _, entry := range l.Entries() {
		if strings.Contains(strings.ToLower(entry.Path), query) {
			out = append(out, entry)
			continue
		}
		for _, spec := range entry.Patches {
			if strings.Contains(strings.ToLower(spec.Type), query) ||
				strings.Contains(strings.ToLower(spec.Pattern), query) {
				out = append(out, entry)
				break
			}
		}
	}
	return out
}

// 📊 SessionSummary describes what this process has recorded so far.
func (l *Log) SessionSummary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	summary := Summary{Operations: len(l.session)}
	if len(l.session) > 0 {
		summary.Start = l.session[0].Timestamp
	}
	files := map[string]bool{}
	for _, op := range l.session {
		files[op.Path] = true
		summary.TotalPatches += len(op.Patches)
	}
	summary.FilesModified = len(files)
	return summary
}

// 🧹 Clear empties both stacks and removes the log file.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.undo = nil
	l.redo = nil
	l.session = nil

	if err := os.Remove(l.opts.Path); err != nil && !os.IsNotExist(err) {
		return errors.Errorf("removing history file: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("path", l.opts.Path).Msg("cleared history")
	return nil
}

// 💾 Export writes the full log state, including the session summary, to
// an arbitrary path.
func (l *Log) Export(ctx context.Context, path string) error {
	summary := l.SessionSummary()

	l.mu.Lock()
	defer l.mu.Unlock()

	state := struct {
		ExportedAt time.Time   `json:"exported_at"`
		Undo       []Operation `json:"undo_stack"`
		Redo       []Operation `json:"redo_stack"`
		Session    Summary     `json:"session_summary"`
	}{
		ExportedAt: l.opts.Now(),
		Undo:       l.undo,
		Redo:       l.redo,
		Session:    summary,
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Errorf("encoding history export: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Errorf("writing history export: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("path", path).Msg("exported history")
	return nil
}

// save persists the stacks. Callers hold the lock.
func (l *Log) save(ctx context.Context) error {
	state := logFile{Undo: l.undo, Redo: l.redo, LastSaved: l.opts.Now()}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Errorf("encoding history: %w", err)
	}
	if err := os.WriteFile(l.opts.Path, append(data, '\n'), 0644); err != nil {
		return errors.Errorf("writing history: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("path", l.opts.Path).Int("undo", len(l.undo)).Int("redo", len(l.redo)).Msg("saved history")
	return nil
}
