package backup_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/backup"
)

// fixedClock returns a Manager whose clock the test controls.
func fixedClock(start time.Time) (*time.Time, func() time.Time) {
	current := start
	return &current, func() time.Time { return current }
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	target := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(target, []byte("key: value\n"), 0644))

	mgr, err := backup.NewManager(backup.Options{Dir: dir})
	require.NoError(t, err, "manager should construct")

	info, err := mgr.Create(ctx, target)
	require.NoError(t, err, "backup should succeed")
	require.NotNil(t, info)

	absTarget, err := filepath.Abs(target)
	require.NoError(t, err)
	assert.Equal(t, absTarget, info.Original, "info should record the absolute original path")
	assert.Equal(t, int64(len("key: value\n")), info.Size)
	assert.True(t, strings.HasPrefix(info.Path, dir), "backup should live in the backup directory")
	assert.True(t, strings.HasSuffix(info.Path, ".bak"), "backup name should end in .bak")

	data, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	assert.Equal(t, "key: value\n", string(data), "backup should hold the original bytes")

	backups, err := mgr.List(target)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, info.Path, backups[0].Path)
	assert.Equal(t, absTarget, backups[0].Original, "original path should round trip through the backup name")
}

func TestCreateSameSecondAddsSequenceSuffix(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	target := filepath.Join(t.TempDir(), "app.py")
	require.NoError(t, os.WriteFile(target, []byte("print('hi')\n"), 0644))

	_, now := fixedClock(time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local))
	mgr, err := backup.NewManager(backup.Options{Dir: dir, Now: now})
	require.NoError(t, err)

	first, err := mgr.Create(ctx, target)
	require.NoError(t, err)
	second, err := mgr.Create(ctx, target)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(first.Path, ".20250314_092653.bak"), "first backup uses the bare timestamp, got %s", first.Path)
	assert.True(t, strings.HasSuffix(second.Path, ".20250314_092653-1.bak"), "same-second backup gets a sequence suffix, got %s", second.Path)

	backups, err := mgr.List(target)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, second.Path, backups[0].Path, "newest backup should be listed first")
}

func TestRestoreLatestRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	target := filepath.Join(t.TempDir(), "notes.txt")
	original := "line one\nline two\n"
	require.NoError(t, os.WriteFile(target, []byte(original), 0644))

	mgr, err := backup.NewManager(backup.Options{Dir: dir})
	require.NoError(t, err)

	_, err = mgr.Create(ctx, target)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(target, []byte("clobbered\n"), 0644))

	used, err := mgr.RestoreLatest(ctx, target)
	require.NoError(t, err, "restore should succeed")
	require.NotNil(t, used)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, original, string(data), "restore should bring back the snapshot bytes")
}

func TestRestoreLatestWithoutBackups(t *testing.T) {
	ctx := context.Background()

	mgr, err := backup.NewManager(backup.Options{Dir: t.TempDir()})
	require.NoError(t, err)

	_, err = mgr.RestoreLatest(ctx, filepath.Join(t.TempDir(), "ghost.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, backup.ErrNoBackups)
}

func TestRotateKeepsNewestBackups(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	target := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0644))

	current, now := fixedClock(time.Date(2025, 3, 14, 9, 0, 0, 0, time.Local))
	mgr, err := backup.NewManager(backup.Options{Dir: dir, RotationCount: 2, Now: now})
	require.NoError(t, err)

	var paths []string
	for i := 0; i < 4; i++ {
		info, err := mgr.Create(ctx, target)
		require.NoError(t, err)
		paths = append(paths, info.Path)
		*current = current.Add(time.Second)
	}

	backups, err := mgr.List(target)
	require.NoError(t, err)
	require.Len(t, backups, 2, "rotation should keep only the newest two backups")
	assert.Equal(t, paths[3], backups[0].Path)
	assert.Equal(t, paths[2], backups[1].Path)

	assert.NoFileExists(t, paths[0], "oldest backup should be rotated away")
	assert.NoFileExists(t, paths[1])
}

func TestCleanupOlderThan(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	target := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, os.WriteFile(target, []byte("# report\n"), 0644))

	current, now := fixedClock(time.Date(2025, 3, 12, 12, 0, 0, 0, time.Local))
	mgr, err := backup.NewManager(backup.Options{Dir: dir, Now: now})
	require.NoError(t, err)

	old, err := mgr.Create(ctx, target)
	require.NoError(t, err)

	*current = current.Add(48 * time.Hour)
	fresh, err := mgr.Create(ctx, target)
	require.NoError(t, err)

	removed, err := mgr.CleanupOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "only the stale backup should be removed")

	assert.NoFileExists(t, old.Path)
	assert.FileExists(t, fresh.Path)
}

func TestListMissingDirectory(t *testing.T) {
	mgr, err := backup.NewManager(backup.Options{Dir: filepath.Join(t.TempDir(), "never-created")})
	require.NoError(t, err)

	backups, err := mgr.ListAll()
	require.NoError(t, err, "a missing backup directory just means no backups")
	assert.Empty(t, backups)
}
