package patch_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/backup"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/patch"
)

func newTestEngine(t *testing.T, mutate func(*patch.Options)) *patch.Engine {
	t.Helper()
	opts := patch.Options{Matcher: match.NewMatcher(0)}
	if mutate != nil {
		mutate(&opts)
	}
	eng, err := patch.New(opts)
	require.NoError(t, err, "engine should construct")
	return eng
}

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "target.py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func numberedLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("l%02d", i+1)
	}
	return lines
}

func countApplied(results []patch.RequestResult) (applied, failed int) {
	for _, rr := range results {
		if rr.Applied {
			applied++
		} else {
			failed++
		}
	}
	return applied, failed
}

func TestApplyToLines(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		lines    []string
		requests []patch.Request
		expected []string
		applied  int
		failed   int
	}{
		{
			name:     "insert_at_line_inherits_context_indent",
			lines:    []string{"def f():", "    a = 1", "    return a"},
			requests: []patch.Request{patch.InsertAtLine{Line: 3, Code: []string{"b = 2"}}},
			expected: []string{"def f():", "    a = 1", "    b = 2", "    return a"},
			applied:  1,
		},
		{
			name:     "insert_past_end_clamps_to_append",
			lines:    []string{"only"},
			requests: []patch.Request{patch.InsertAtLine{Line: 99, Code: []string{"tail"}}},
			expected: []string{"only", "tail"},
			applied:  1,
		},
		{
			name:     "replace_range_keeps_line_count_arithmetic",
			lines:    []string{"1", "2", "3", "4", "5"},
			requests: []patch.Request{patch.ReplaceRange{StartLine: 2, EndLine: 4, Code: []string{"X", "Y"}}},
			expected: []string{"1", "X", "Y", "5"},
			applied:  1,
		},
		{
			name:  "pattern_replace_infers_indent_from_replaced_line",
			lines: []string{"def f():", "    pass"},
			requests: []patch.Request{
				patch.ReplacePatternFirst{Pattern: "pass", Code: []string{"return 1"}},
			},
			expected: []string{"def f():", "    return 1"},
			applied:  1,
		},
		{
			name:  "replace_pattern_all_never_rematches_its_own_output",
			lines: []string{"foo", "bar", "foo"},
			requests: []patch.Request{
				patch.ReplacePatternAll{Pattern: "foo", Code: []string{"foo2"}},
			},
			expected: []string{"foo2", "bar", "foo2"},
			applied:  1,
		},
		{
			name:  "replace_pattern_all_with_expanding_replacement",
			lines: []string{"x"},
			requests: []patch.Request{
				patch.ReplacePatternAll{Pattern: "x", Code: []string{"x", "x"}},
			},
			expected: []string{"x", "x"},
			applied:  1,
		},
		{
			name:  "hinted_pattern_must_match_at_hinted_line",
			lines: []string{"alpha", "beta", "alpha"},
			requests: []patch.Request{
				patch.ReplacePatternFirst{Pattern: "alpha", MatchLine: 3, Code: []string{"gamma"}},
			},
			expected: []string{"alpha", "beta", "gamma"},
			applied:  1,
		},
		{
			name:  "hinted_pattern_missing_at_hint_fails",
			lines: []string{"alpha", "beta"},
			requests: []patch.Request{
				patch.ReplacePatternFirst{Pattern: "alpha", MatchLine: 2, Code: []string{"gamma"}},
			},
			expected: []string{"alpha", "beta"},
			failed:   1,
		},
		{
			name:  "insert_after_pattern",
			lines: []string{"import os", "", "def main():"},
			requests: []patch.Request{
				patch.InsertAfterPattern{Pattern: "^import os$", Code: []string{"import sys"}},
			},
			expected: []string{"import os", "import sys", "", "def main():"},
			applied:  1,
		},
		{
			name:  "insert_before_pattern",
			lines: []string{"import os", "", "def main():"},
			requests: []patch.Request{
				patch.InsertBeforePattern{Pattern: "^def main", Code: []string{"# entry point"}},
			},
			expected: []string{"import os", "", "# entry point", "def main():"},
			applied:  1,
		},
		{
			name:     "append_takes_indent_of_last_line",
			lines:    []string{"def f():", "    pass"},
			requests: []patch.Request{patch.Append{Code: []string{"return None"}}},
			expected: []string{"def f():", "    pass", "    return None"},
			applied:  1,
		},
		{
			name:     "delete_range",
			lines:    []string{"a", "b", "c", "d"},
			requests: []patch.Request{patch.DeleteRange{StartLine: 2, EndLine: 3}},
			expected: []string{"a", "d"},
			applied:  1,
		},
		{
			name:  "failed_request_does_not_block_the_rest",
			lines: []string{"alpha", "beta"},
			requests: []patch.Request{
				patch.ReplacePatternFirst{Pattern: "never matches", Code: []string{"x"}},
				patch.Append{Code: []string{"tail"}},
			},
			expected: []string{"alpha", "beta", "tail"},
			applied:  1,
			failed:   1,
		},
		{
			name:  "same_pattern_twice_first_wins_second_rescans",
			lines: []string{"target line", "other"},
			requests: []patch.Request{
				patch.ReplacePatternFirst{Pattern: "target", Code: []string{"one"}},
				patch.ReplacePatternFirst{Pattern: "target", Code: []string{"two"}},
			},
			expected: []string{"one", "other"},
			applied:  1,
			failed:   1,
		},
		{
			name:     "range_beyond_buffer_fails_cleanly",
			lines:    []string{"a", "b"},
			requests: []patch.Request{patch.ReplaceRange{StartLine: 5, EndLine: 6, Code: []string{"x"}}},
			expected: []string{"a", "b"},
			failed:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher := match.NewMatcher(0)
			got, results := patch.ApplyToLines(ctx, tt.lines, tt.requests, matcher)

			require.Equal(t, tt.expected, got, "resulting buffer should match")
			applied, failed := countApplied(results)
			assert.Equal(t, tt.applied, applied, "applied count")
			assert.Equal(t, tt.failed, failed, "failed count")
		})
	}
}

func TestApplyToLinesHonorsBottomUpOrder(t *testing.T) {
	ctx := context.Background()
	lines := numberedLines(20)

	requests := []patch.Request{
		patch.InsertAtLine{Line: 5, Code: []string{"FIVE"}},
		patch.InsertAtLine{Line: 10, Code: []string{"TEN"}},
	}

	got, results := patch.ApplyToLines(ctx, lines, requests, match.NewMatcher(0))

	require.Len(t, got, 22)
	assert.Equal(t, "FIVE", got[4], "first insert should land before the original line 5")
	assert.Equal(t, "TEN", got[10], "second insert should land before the original line 10")
	assert.Equal(t, "l05", got[5], "original line 5 should sit right after the insertion")
	assert.Equal(t, "l10", got[11], "original line 10 should sit right after the insertion")

	// The line-10 insert must run first even though it was submitted second.
	assert.Equal(t, 1, results[0].Order)
	assert.Equal(t, 0, results[1].Order)
}

func TestApplyToLinesDoesNotMutateInput(t *testing.T) {
	ctx := context.Background()
	lines := []string{"a", "b", "c"}

	got, _ := patch.ApplyToLines(ctx, lines, []patch.Request{
		patch.ReplaceRange{StartLine: 1, EndLine: 3, Code: []string{"z"}},
	}, match.NewMatcher(0))

	require.Equal(t, []string{"z"}, got)
	assert.Equal(t, []string{"a", "b", "c"}, lines, "input buffer must stay untouched")
}

func TestAppendAlwaysAddsExactlyItsCodeLength(t *testing.T) {
	ctx := context.Background()
	code := []string{"one", "two", "three"}

	buffers := [][]string{
		nil,
		{"a"},
		{"x", "y", "z", "w"},
		{"", "", ""},
	}

	for _, buf := range buffers {
		got, results := patch.ApplyToLines(ctx, buf, []patch.Request{patch.Append{Code: code}}, match.NewMatcher(0))
		require.Len(t, got, len(buf)+len(code), "append must grow the buffer by len(code)")
		assert.True(t, results[0].Applied)
		assert.Equal(t, "three", strings.TrimSpace(got[len(got)-1]))
	}
}

func TestApplyWritesChangesWithBackup(t *testing.T) {
	ctx := context.Background()
	original := "import os\n\ndef main():\n    pass\n"
	path := writeTestFile(t, original)

	mgr, err := backup.NewManager(backup.Options{Dir: filepath.Join(filepath.Dir(path), ".patchrc-backups")})
	require.NoError(t, err)

	eng := newTestEngine(t, func(o *patch.Options) {
		o.Backups = mgr
		o.AutoBackup = true
	})

	result, err := eng.Apply(ctx, path, []patch.Request{
		patch.ReplacePatternFirst{Pattern: `^\s*pass$`, Code: []string{"return 0"}},
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Written, "file should have been replaced")
	assert.True(t, result.Success())
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 0, result.FailureCount)
	assert.Equal(t, 4, result.OriginalLineCount)
	assert.Equal(t, 4, result.NewLineCount)
	require.NotEmpty(t, result.BackupPath, "auto backup should record its path")
	require.Len(t, result.Changes, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "import os\n\ndef main():\n    return 0\n", string(data))

	backupData, err := os.ReadFile(result.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, original, string(backupData), "backup should hold the pre-patch bytes")

	assert.Contains(t, result.Diff, "-    pass")
	assert.Contains(t, result.Diff, "+    return 0")
	assert.Contains(t, result.Diff, "@@")
}

func TestApplyRejectsInvalidBatchAtomically(t *testing.T) {
	ctx := context.Background()
	original := "a\nb\nc\n"
	path := writeTestFile(t, original)

	backupDir := filepath.Join(filepath.Dir(path), ".patchrc-backups")
	mgr, err := backup.NewManager(backup.Options{Dir: backupDir})
	require.NoError(t, err)

	eng := newTestEngine(t, func(o *patch.Options) {
		o.Backups = mgr
		o.AutoBackup = true
	})

	result, err := eng.Apply(ctx, path, []patch.Request{
		patch.InsertAtLine{Line: 1, Code: []string{"valid"}},
		patch.ReplaceRange{StartLine: 10, EndLine: 12, Code: []string{"x"}},
	})
	require.Error(t, err, "one malformed request must reject the whole batch")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, patch.ErrOutOfRange)
	assert.Contains(t, err.Error(), "request 2")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data), "file must be byte-identical after a rejected batch")

	backups, err := mgr.ListAll()
	require.NoError(t, err)
	assert.Empty(t, backups, "no backup may be created for a rejected batch")
}

func TestApplyLeavesFileUntouchedWhenNothingApplies(t *testing.T) {
	ctx := context.Background()
	original := "alpha\n"
	path := writeTestFile(t, original)

	mgr, err := backup.NewManager(backup.Options{Dir: filepath.Join(filepath.Dir(path), ".patchrc-backups")})
	require.NoError(t, err)

	eng := newTestEngine(t, func(o *patch.Options) {
		o.Backups = mgr
		o.AutoBackup = true
	})

	result, err := eng.Apply(ctx, path, []patch.Request{
		patch.ReplacePatternFirst{Pattern: "does not exist", Code: []string{"x"}},
	})
	require.NoError(t, err, "a batch where nothing applies is not an error")
	require.NotNil(t, result)

	assert.False(t, result.Written)
	assert.False(t, result.Success())
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.Empty(t, result.BackupPath)
	require.Len(t, result.Requests, 1)
	assert.ErrorIs(t, result.Requests[0].Err, patch.ErrPatternNotFound)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))

	backups, err := mgr.ListAll()
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestApplyRequiresRequests(t *testing.T) {
	ctx := context.Background()
	path := writeTestFile(t, "a\n")

	eng := newTestEngine(t, nil)
	_, err := eng.Apply(ctx, path, nil)
	require.Error(t, err)
}

func TestApplyStrictBackupFailureAborts(t *testing.T) {
	ctx := context.Background()
	original := "a\nb\n"
	path := writeTestFile(t, original)

	// A regular file where the backup directory should be makes every
	// backup attempt fail.
	blocked := filepath.Join(filepath.Dir(path), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("in the way"), 0644))
	mgr, err := backup.NewManager(backup.Options{Dir: blocked})
	require.NoError(t, err)

	eng := newTestEngine(t, func(o *patch.Options) {
		o.Backups = mgr
		o.AutoBackup = true
		o.StrictBackup = true
	})

	_, err = eng.Apply(ctx, path, []patch.Request{patch.Append{Code: []string{"x"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, patch.ErrBackupFailure)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data), "strict mode must not write without a backup")
}

func TestApplyBackupFailureWithoutStrictStillWrites(t *testing.T) {
	ctx := context.Background()
	path := writeTestFile(t, "a\n")

	blocked := filepath.Join(filepath.Dir(path), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("in the way"), 0644))
	mgr, err := backup.NewManager(backup.Options{Dir: blocked})
	require.NoError(t, err)

	eng := newTestEngine(t, func(o *patch.Options) {
		o.Backups = mgr
		o.AutoBackup = true
	})

	result, err := eng.Apply(ctx, path, []patch.Request{patch.Append{Code: []string{"x"}}})
	require.NoError(t, err, "without strict mode a failed backup is only a warning")
	assert.True(t, result.Written)
	assert.Empty(t, result.BackupPath)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nx\n", string(data))
}

func TestApplyPreservesCRLF(t *testing.T) {
	ctx := context.Background()
	path := writeTestFile(t, "a\r\nb\r\n")

	eng := newTestEngine(t, nil)
	result, err := eng.Apply(ctx, path, []patch.Request{patch.Append{Code: []string{"c"}}})
	require.NoError(t, err)
	require.True(t, result.Written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\r\nb\r\nc\r\n", string(data), "line terminator style must survive a patch")
}

func TestPreviewLeavesEverythingUntouched(t *testing.T) {
	ctx := context.Background()
	original := "one\ntwo\nthree\n"
	path := writeTestFile(t, original)

	mgr, err := backup.NewManager(backup.Options{Dir: filepath.Join(filepath.Dir(path), ".patchrc-backups")})
	require.NoError(t, err)

	eng := newTestEngine(t, func(o *patch.Options) {
		o.Backups = mgr
		o.AutoBackup = true
	})

	result, err := eng.Preview(ctx, path, []patch.Request{
		patch.ReplacePatternFirst{Pattern: "^two$", Code: []string{"TWO"}},
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.False(t, result.Written)
	assert.Empty(t, result.BackupPath)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Contains(t, result.Diff, "-two")
	assert.Contains(t, result.Diff, "+TWO")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data), "preview must never write")

	backups, err := mgr.ListAll()
	require.NoError(t, err)
	assert.Empty(t, backups, "preview must never back up")
	assert.NoFileExists(t, path+".lock", "preview must not take the file lock")
}

func TestResultChangesFollowApplicationOrder(t *testing.T) {
	ctx := context.Background()
	path := writeTestFile(t, strings.Join(numberedLines(20), "\n")+"\n")

	eng := newTestEngine(t, nil)
	result, err := eng.Apply(ctx, path, []patch.Request{
		patch.InsertAtLine{Line: 5, Code: []string{"FIVE"}},
		patch.InsertAtLine{Line: 10, Code: []string{"TEN"}},
	})
	require.NoError(t, err)
	require.Len(t, result.Changes, 2)

	assert.Contains(t, result.Changes[0], "line 10", "the deeper insert applies first")
	assert.Contains(t, result.Changes[1], "line 5")
	assert.Equal(t, 22, result.NewLineCount)
}

func TestApplyPatchFileIsUnsupported(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, nil)

	err := eng.ApplyPatchFile(ctx, "some/file.py", "change.patch")
	require.Error(t, err)
	assert.ErrorIs(t, err, patch.ErrPatchFilesUnsupported)
}

func TestNewRequiresMatcher(t *testing.T) {
	_, err := patch.New(patch.Options{})
	require.Error(t, err)
}
