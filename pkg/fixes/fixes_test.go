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

package fixes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/batch"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/patch"
)

func testContext() context.Context {
	return zerolog.New(os.Stderr).WithContext(context.Background())
}

func newTestApplier(t *testing.T) *Applier {
	t.Helper()
	matcher := match.NewMatcher(0)
	engine, err := patch.New(patch.Options{Matcher: matcher})
	require.NoError(t, err, "engine should construct")
	runner, err := batch.NewRunner(batch.Options{Engine: engine, Matcher: matcher})
	require.NoError(t, err, "runner should construct")
	applier, err := NewApplier(ApplierOptions{Runner: runner, Library: NewLibrary()})
	require.NoError(t, err, "applier should construct")
	return applier
}

func TestBuiltinsAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, fix := range Builtins() {
		require.NoError(t, fix.Validate(), "builtin %s should validate", fix.ID)
		assert.False(t, seen[fix.ID], "builtin id %s should be unique", fix.ID)
		seen[fix.ID] = true
		assert.NotEqual(t, "⚪", fix.Severity.Icon(), "builtin %s should have a known severity", fix.ID)
	}
}

func TestSeverityIcon(t *testing.T) {
	tests := []struct {
		severity Severity
		icon     string
	}{
		{SeverityCritical, "🔴"},
		{SeverityHigh, "🟠"},
		{SeverityMedium, "🟡"},
		{SeverityLow, "🟢"},
		{Severity("made-up"), "⚪"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.icon, tt.severity.Icon(), "icon for %q should match", tt.severity)
	}
}

func TestFixValidate(t *testing.T) {
	tests := []struct {
		name        string
		fix         Fix
		errContains string
	}{
		{
			name:        "missing_id",
			fix:         Fix{Name: "x", Category: "c", Severity: SeverityLow},
			errContains: "id is required",
		},
		{
			name:        "unknown_severity",
			fix:         Fix{ID: "f", Name: "x", Category: "c", Severity: "urgent"},
			errContains: "unknown severity",
		},
		{
			name:        "no_patches",
			fix:         Fix{ID: "f", Name: "x", Category: "c", Severity: SeverityLow},
			errContains: "at least one patch",
		},
		{
			name: "bad_patch_type",
			fix: Fix{
				ID: "f", Name: "x", Category: "c", Severity: SeverityLow,
				Patches: []patch.Spec{{Type: "rotate_lines"}},
			},
			errContains: "unknown patch type",
		},
		{
			name: "bad_file_pattern",
			fix: Fix{
				ID: "f", Name: "x", Category: "c", Severity: SeverityLow,
				FilePatterns: []string{"[unclosed"},
				Patches:      []patch.Spec{{Type: "append", Code: []string{"x"}}},
			},
			errContains: "invalid file pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fix.Validate()
			require.Error(t, err, "validation should fail")
			assert.Contains(t, err.Error(), tt.errContains, "error should name the problem")
		})
	}
}

func TestLibraryGetAndSearch(t *testing.T) {
	lib := NewLibrary()

	fix, err := lib.Get("fix_bare_except")
	require.NoError(t, err, "builtin should be present")
	assert.Equal(t, "code_quality", fix.Category, "category should match")

	_, err = lib.Get("does_not_exist")
	require.ErrorIs(t, err, ErrUnknownFix, "missing fix should be a typed error")

	hits := lib.Search("sql")
	require.Len(t, hits, 1, "search should find the sql fix")
	assert.Equal(t, "fix_sql_injection", hits[0].ID)

	assert.NotEmpty(t, lib.Search("SECURITY"), "search should be case-insensitive")
	assert.Empty(t, lib.Search("zzzz"), "search with no hits should be empty")
}

func TestLibraryCategories(t *testing.T) {
	lib := NewLibrary()
	assert.Equal(t, []string{"code_quality", "migration", "performance", "security"}, lib.Categories(),
		"categories should be sorted and distinct")

	security := lib.ByCategory("security")
	require.NotEmpty(t, security, "security category should have fixes")
	for _, fix := range security {
		assert.Equal(t, "security", fix.Category)
	}
}

func TestLoadDirAndSaveFix(t *testing.T) {
	ctx := testContext()
	dir := t.TempDir()

	bundleYAML := `fixes:
  - id: strip_debug_prints
    name: Strip debug prints
    description: Replaces leftover debug print lines
    category: cleanup
    severity: low
    file_patterns:
      - "**/*.py"
    patches:
      - type: replace_pattern_all
        pattern: '^\s*print\("debug'
        code:
          - "pass  # debug print removed"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cleanup.yaml"), []byte(bundleYAML), 0644))

	lib := NewLibrary()
	loaded, err := lib.LoadDir(ctx, dir)
	require.NoError(t, err, "loading bundles should succeed")
	assert.Equal(t, 1, loaded, "one fix should load")

	fix, err := lib.Get("strip_debug_prints")
	require.NoError(t, err, "loaded fix should be present")
	assert.Equal(t, SeverityLow, fix.Severity)
	assert.Contains(t, lib.Categories(), "cleanup", "loaded category should appear")

	// Round-trip through export and a fresh library.
	exportPath := filepath.Join(dir, "exported", "strip.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(exportPath), 0755))
	require.NoError(t, lib.SaveFix(ctx, "strip_debug_prints", exportPath), "export should succeed")

	fresh := NewLibrary()
	loaded, err = fresh.LoadDir(ctx, filepath.Dir(exportPath))
	require.NoError(t, err, "re-loading exported bundle should succeed")
	assert.Equal(t, 1, loaded)
	refix, err := fresh.Get("strip_debug_prints")
	require.NoError(t, err)
	assert.Equal(t, fix.Patches, refix.Patches, "patches should survive the round trip")
}

func TestLoadDirRejectsInvalidBundle(t *testing.T) {
	ctx := testContext()
	dir := t.TempDir()

	bad := `fixes:
  - id: broken
    name: Broken
    category: junk
    severity: low
    patches:
      - type: rotate_lines
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0644))

	_, err := NewLibrary().LoadDir(ctx, dir)
	require.Error(t, err, "invalid bundle should be rejected")
	assert.Contains(t, err.Error(), "unknown patch type", "error should name the bad patch")
	assert.Contains(t, err.Error(), "bad.yaml", "error should name the bundle file")
}

func TestLoadDirMissingDirectory(t *testing.T) {
	loaded, err := NewLibrary().LoadDir(testContext(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err, "a missing bundle dir is not an error")
	assert.Zero(t, loaded, "nothing should load")
}

func TestApplierAppliesFixToTree(t *testing.T) {
	ctx := testContext()
	root := t.TempDir()

	content := "def f():\n    try:\n        risky()\n    except:\n        pass\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.py"), []byte(content), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("except:\n"), 0644))

	applier := newTestApplier(t)
	report, err := applier.Apply(ctx, root, "fix_bare_except")
	require.NoError(t, err, "applying the fix should succeed")

	assert.Equal(t, "fix_bare_except", report.Fix.ID)
	assert.Equal(t, 1, report.Batch.FilesScanned, "only python files should be scanned")
	assert.Equal(t, 1, report.Batch.FilesPatched, "the python file should be patched")

	got, err := os.ReadFile(filepath.Join(root, "app.py"))
	require.NoError(t, err)
	assert.Equal(t, "def f():\n    try:\n        risky()\n    except Exception:\n        pass\n", string(got),
		"bare except should be narrowed with its indentation kept")

	txt, err := os.ReadFile(filepath.Join(root, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "except:\n", string(txt), "files outside the fix globs should be untouched")
}

func TestApplierPreviewLeavesFilesAlone(t *testing.T) {
	ctx := testContext()
	root := t.TempDir()
	content := "except:\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte(content), 0644))

	applier := newTestApplier(t)
	report, err := applier.Preview(ctx, root, "fix_bare_except")
	require.NoError(t, err, "preview should succeed")
	assert.Equal(t, 1, report.Batch.FilesPatched, "preview should count the would-be patch")

	got, err := os.ReadFile(filepath.Join(root, "a.py"))
	require.NoError(t, err)
	assert.Equal(t, content, string(got), "preview must not write")
}

func TestApplierUnknownFix(t *testing.T) {
	applier := newTestApplier(t)
	_, err := applier.Apply(testContext(), t.TempDir(), "no_such_fix")
	require.ErrorIs(t, err, ErrUnknownFix, "unknown fix id should be a typed error")
}

func TestParseRepo(t *testing.T) {
	tests := []struct {
		name        string
		repo        string
		wantOwner   string
		wantName    string
		wantErr     bool
		errContains string
	}{
		{
			name:      "valid_repo",
			repo:      "github.com/acme/fix-bundles",
			wantOwner: "acme",
			wantName:  "fix-bundles",
		},
		{
			name:      "valid_repo_with_https",
			repo:      "https://github.com/acme/fix-bundles",
			wantOwner: "acme",
			wantName:  "fix-bundles",
		},
		{
			name:      "trailing_slash",
			repo:      "github.com/acme/fix-bundles/",
			wantOwner: "acme",
			wantName:  "fix-bundles",
		},
		{
			name:        "invalid_repo",
			repo:        "invalid",
			wantErr:     true,
			errContains: "invalid repository format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, name, err := parseRepo(tt.repo)
			if tt.wantErr {
				require.Error(t, err, "parseRepo should return error")
				assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				return
			}

			require.NoError(t, err, "parseRepo should succeed")
			assert.Equal(t, tt.wantOwner, owner, "owner should match")
			assert.Equal(t, tt.wantName, name, "name should match")
		})
	}
}

func TestDecodeBundleUnsupportedFormat(t *testing.T) {
	_, err := DecodeBundle("fixes.toml", []byte("x"))
	require.Error(t, err, "unknown bundle format should be rejected")
	assert.Contains(t, err.Error(), "unsupported bundle format")
}
