package ui

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/patch"
	"gitlab.com/tozd/go/errors"
)

func disableColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestRenderDiffKeepsEveryLine(t *testing.T) {
	disableColor(t)

	diff := "--- a/f.py\n+++ b/f.py\n@@ -1,2 +1,2 @@\n-old\n+new\n context\n"
	got := RenderDiff(diff)

	assert.Equal(t, diff, got, "with color disabled the diff should pass through unchanged")
	assert.Empty(t, RenderDiff(""), "empty diff should render empty")
}

func TestRenderPreview(t *testing.T) {
	disableColor(t)

	lines := []string{"alpha", "beta", "gamma", "delta"}

	full := RenderPreview(lines, 1, 0)
	assert.Equal(t, "   1 │ alpha\n   2 │ beta\n   3 │ gamma\n   4 │ delta\n", full,
		"uncapped preview should number every line")

	capped := RenderPreview(lines, 1, 2)
	assert.Contains(t, capped, "   1 │ alpha\n   2 │ beta\n", "capped preview should show the first lines")
	assert.Contains(t, capped, "(2 more line(s))", "capped preview should say how much was cut")
	assert.NotContains(t, capped, "gamma", "capped preview must not leak later lines")

	offset := RenderPreview([]string{"x"}, 10, 0)
	assert.Equal(t, "  10 │ x\n", offset, "numbering should honor the start line")
}

func TestRenderMatchMarksTheHit(t *testing.T) {
	disableColor(t)

	m := match.Match{
		LineIndex:    3,
		LineText:     "c = 3",
		MatchedText:  "c",
		ContextStart: 2,
		ContextEnd:   4,
		Context:      []string{"b = 2", "c = 3", "d = 4"},
	}

	got := RenderMatch(m)
	assert.Contains(t, got, "Line 3: c\n", "header should name the line")
	assert.Contains(t, got, " →    3 │ c = 3", "the matching line should be marked")
	assert.Contains(t, got, "   2 │ b = 2", "context lines should be numbered")
	assert.Contains(t, got, "   4 │ d = 4")
}

func TestRenderResult(t *testing.T) {
	disableColor(t)

	result := &patch.Result{
		OriginalLineCount: 5,
		NewLineCount:      6,
		SuccessCount:      1,
		FailureCount:      1,
		Requests: []patch.RequestResult{
			{Index: 0, Kind: patch.KindAppend, Applied: true, Detail: "Appended 1 line(s)"},
			{Index: 1, Kind: patch.KindReplacePatternAll, Err: errors.New("pattern not found")},
		},
	}

	got := RenderResult(result)
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, lines, 3, "two request lines plus the summary")
	assert.Equal(t, "  ✅ [1] Appended 1 line(s)", lines[0])
	assert.Contains(t, lines[1], "❌ [2] replace_pattern_all", "failures should name the kind")
	assert.Contains(t, lines[1], "pattern not found", "failures should carry the reason")
	assert.Equal(t, "1 applied, 1 failed, 5 → 6 lines", lines[2])
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size     int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatSize(tt.size), "size %d should format", tt.size)
	}
}
