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

// Package backup manages timestamped file snapshots. Every snapshot of a
// file lands in one backup directory under a name derived from the file's
// absolute path, so backups for the same file can be listed, rotated, and
// restored without any side-channel metadata.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🎯 DefaultRotationCount is how many backups of a single file are kept
// before the oldest are rotated away.
const DefaultRotationCount = 10

// timestampLayout names backup files down to the second; same-second
// collisions get a "-N" sequence suffix.
const timestampLayout = "20060102_150405"

// ErrNoBackups is returned when a restore is requested for a file that
// has no backups in the backup directory.
var ErrNoBackups = errors.New("no backups found")

// backupNameRE splits "<sanitized>.<timestamp>[-seq].bak" into its parts.
var backupNameRE = regexp.MustCompile(`^(.+)\.(\d{8}_\d{6})(?:-(\d+))?\.bak$`)

// 📦 Info describes one backup file on disk.
type Info struct {
	Path      string    `json:"path"`       // backup file location
	Original  string    `json:"original"`   // absolute path of the backed-up file
	CreatedAt time.Time `json:"created_at"` // snapshot time
	Size      int64     `json:"size"`       // backup size in bytes

	seq int // same-second collision sequence, for ordering
}

// 🏭 Options configures a backup Manager.
type Options struct {
	// Dir is the directory that holds backup files (required). It is
	// created on first use.
	Dir string

	// RotationCount caps how many backups are kept per file. Zero or
	// negative means DefaultRotationCount.
	RotationCount int

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// 💾 Manager creates, lists, rotates, and restores backups.
type Manager struct {
	dir           string
	rotationCount int
	now           func() time.Time
}

// NewManager creates a Manager for the given backup directory.
func NewManager(opts Options) (*Manager, error) {
	if opts.Dir == "" {
		return nil, errors.New("backup directory is required")
	}
	if opts.RotationCount <= 0 {
		opts.RotationCount = DefaultRotationCount
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		dir:           opts.Dir,
		rotationCount: opts.RotationCount,
		now:           opts.Now,
	}, nil
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.dir
}

// 💾 Create snapshots the file at path into the backup directory and
// rotates older backups of the same file beyond the rotation count.
func (m *Manager) Create(ctx context.Context, path string) (*Info, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving %s: %w", path, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", absPath, err)
	}
	mode := os.FileMode(0644)
	if fi, err := os.Stat(absPath); err == nil {
		mode = fi.Mode().Perm()
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, errors.Errorf("creating backup directory %s: %w", m.dir, err)
	}

	now := m.now()
	base := fmt.Sprintf("%s.%s", sanitizePath(absPath), now.Format(timestampLayout))

	var backupPath string
	var seq int
	for seq = 0; seq <= 1000; seq++ {
		name := base + ".bak"
		if seq > 0 {
			name = fmt.Sprintf("%s-%d.bak", base, seq)
		}
		candidate := filepath.Join(m.dir, name)
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Errorf("creating backup %s: %w", candidate, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(candidate)
			return nil, errors.Errorf("writing backup %s: %w", candidate, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(candidate)
			return nil, errors.Errorf("closing backup %s: %w", candidate, err)
		}
		backupPath = candidate
		break
	}
	if backupPath == "" {
		return nil, errors.Errorf("too many backups of %s in the same second", absPath)
	}

	info := &Info{
		Path:      backupPath,
		Original:  absPath,
		CreatedAt: now,
		Size:      int64(len(data)),
		seq:       seq,
	}

	zerolog.Ctx(ctx).Debug().
		Str("file", absPath).
		Str("backup", backupPath).
		Msg("created backup")

	if _, err := m.Rotate(ctx, absPath); err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("file", absPath).
			Msg("backup rotation failed")
	}

	return info, nil
}

// 🔄 Restore copies the backup back over its original file.
func (m *Manager) Restore(ctx context.Context, info *Info) error {
	if info == nil {
		return errors.New("backup info is required")
	}

	data, err := os.ReadFile(info.Path)
	if err != nil {
		return errors.Errorf("reading backup %s: %w", info.Path, err)
	}
	mode := os.FileMode(0644)
	if fi, err := os.Stat(info.Path); err == nil {
		mode = fi.Mode().Perm()
	}

	tempPath := info.Original + ".tmp"
	if err := os.WriteFile(tempPath, data, mode); err != nil {
		return errors.Errorf("writing %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, info.Original); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("replacing %s: %w", info.Original, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("file", info.Original).
		Str("backup", info.Path).
		Msg("restored file from backup")

	return nil
}

// 🔄 RestoreLatest restores the most recent backup of path and returns
// the backup that was used.
func (m *Manager) RestoreLatest(ctx context.Context, path string) (*Info, error) {
	backups, err := m.List(path)
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, errors.Errorf("restoring %s: %w", path, ErrNoBackups)
	}
	if err := m.Restore(ctx, backups[0]); err != nil {
		return nil, err
	}
	return backups[0], nil
}

// 🔍 List returns the backups of path, newest first.
func (m *Manager) List(path string) ([]*Info, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving %s: %w", path, err)
	}

	all, err := m.ListAll()
	if err != nil {
		return nil, err
	}

	var backups []*Info
	for _, info := range all {
		if info.Original == absPath {
			backups = append(backups, info)
		}
	}
	return backups, nil
}

// 🔍 ListAll returns every backup in the directory, newest first.
func (m *Manager) ListAll() ([]*Info, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Errorf("reading backup directory %s: %w", m.dir, err)
	}

	var backups []*Info
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, ok := parseBackupName(m.dir, entry.Name())
		if !ok {
			continue
		}
		if fi, err := entry.Info(); err == nil {
			info.Size = fi.Size()
		}
		backups = append(backups, info)
	}

	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].CreatedAt.After(backups[j].CreatedAt)
		}
		return backups[i].seq > backups[j].seq
	})
	return backups, nil
}

// 🔄 Rotate removes the oldest backups of path beyond the rotation count
// and returns how many were removed.
func (m *Manager) Rotate(ctx context.Context, path string) (int, error) {
	backups, err := m.List(path)
	if err != nil {
		return 0, err
	}
	if len(backups) <= m.rotationCount {
		return 0, nil
	}

	removed := 0
	for _, info := range backups[m.rotationCount:] {
		if err := os.Remove(info.Path); err != nil {
			return removed, errors.Errorf("removing backup %s: %w", info.Path, err)
		}
		removed++
	}

	zerolog.Ctx(ctx).Debug().
		Str("file", path).
		Int("removed", removed).
		Msg("rotated backups")

	return removed, nil
}

// 🧹 CleanupOlderThan removes every backup older than the given age and
// returns how many were removed.
func (m *Manager) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	backups, err := m.ListAll()
	if err != nil {
		return 0, err
	}

	cutoff := m.now().Add(-age)
	removed := 0
	for _, info := range backups {
		if info.CreatedAt.After(cutoff) {
			continue
		}
		if err := os.Remove(info.Path); err != nil {
			return removed, errors.Errorf("removing backup %s: %w", info.Path, err)
		}
		removed++
	}

	zerolog.Ctx(ctx).Info().
		Int("removed", removed).
		Dur("older_than", age).
		Msg("cleaned up old backups")

	return removed, nil
}

// sanitizePath flattens an absolute path into a single file name segment
// by replacing separators with "__".
func sanitizePath(path string) string {
	s := strings.ReplaceAll(path, string(os.PathSeparator), "__")
	s = strings.ReplaceAll(s, "/", "__")
	return strings.ReplaceAll(s, ":", "__")
}

// parseBackupName reconstructs an Info from a backup file name. Returns
// false when the name does not look like a backup.
func parseBackupName(dir, name string) (*Info, bool) {
	groups := backupNameRE.FindStringSubmatch(name)
	if groups == nil {
		return nil, false
	}

	createdAt, err := time.ParseInLocation(timestampLayout, groups[2], time.Local)
	if err != nil {
		return nil, false
	}

	seq := 0
	if groups[3] != "" {
		seq, _ = strconv.Atoi(groups[3])
	}

	return &Info{
		Path:      filepath.Join(dir, name),
		Original:  desanitizePath(groups[1]),
		CreatedAt: createdAt,
		seq:       seq,
	}, true
}

// desanitizePath is the best-effort inverse of sanitizePath. Original
// paths containing a literal "__" cannot be distinguished from separators.
func desanitizePath(s string) string {
	return strings.ReplaceAll(s, "__", string(os.PathSeparator))
}
