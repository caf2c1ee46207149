package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/match"
)

func TestFindMatches(t *testing.T) {
	lines := []string{
		"package main",
		"",
		"func main() {",
		"	println(\"hello\")",
		"}",
	}

	tests := []struct {
		name         string
		pattern      string
		contextLines int
		wantLines    []int
		wantContext  [][]string
		wantErr      bool
	}{
		{
			name:      "single_match_no_context",
			pattern:   `func \w+\(`,
			wantLines: []int{3},
			wantContext: [][]string{
				{"func main() {"},
			},
		},
		{
			name:         "context_window_clamped_at_edges",
			pattern:      `package`,
			contextLines: 2,
			wantLines:    []int{1},
			wantContext: [][]string{
				{"package main", "", "func main() {"},
			},
		},
		{
			name:      "no_match_returns_empty",
			pattern:   `class `,
			wantLines: nil,
		},
		{
			name:    "invalid_regex_returns_typed_error",
			pattern: `[unclosed`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := match.NewMatcher(0)
			matches, err := m.FindMatches(lines, tt.pattern, tt.contextLines)

			if tt.wantErr {
				require.Error(t, err, "expected an error")
				assert.ErrorIs(t, err, match.ErrInvalidPattern, "error should be ErrInvalidPattern")
				return
			}
			require.NoError(t, err, "finding matches")

			var gotLines []int
			for _, mt := range matches {
				gotLines = append(gotLines, mt.LineIndex)
			}
			assert.Equal(t, tt.wantLines, gotLines, "matched line numbers should agree")

			for i, wantCtx := range tt.wantContext {
				assert.Equal(t, wantCtx, matches[i].Context, "context window should agree")
			}
		})
	}
}

func TestFindMatchesCaptureGroups(t *testing.T) {
	m := match.NewMatcher(0)
	matches, err := m.FindMatches([]string{"name = value"}, `(\w+) = (\w+)`, 0)
	require.NoError(t, err, "finding matches")
	require.Len(t, matches, 1, "should find one match")
	assert.Equal(t, []string{"name", "value"}, matches[0].CaptureGroups, "capture groups should be exposed")
}

func TestFirstMatch(t *testing.T) {
	m := match.NewMatcher(0)
	lines := []string{"aaa", "target one", "target two"}

	got, err := m.FirstMatch(lines, `target`)
	require.NoError(t, err, "finding first match")
	require.NotNil(t, got, "should find a match")
	assert.Equal(t, 2, got.LineIndex, "first match should win")

	got, err = m.FirstMatch(lines, `missing`)
	require.NoError(t, err, "scanning for absent pattern")
	assert.Nil(t, got, "absent pattern should return nil match")
}

func TestCompileCacheCountsHitsAndMisses(t *testing.T) {
	m := match.NewMatcher(2)

	_, err := m.Compile(`foo`)
	require.NoError(t, err, "compiling foo")
	_, err = m.Compile(`foo`)
	require.NoError(t, err, "compiling foo again")
	_, err = m.Compile(`bar`)
	require.NoError(t, err, "compiling bar")
	_, err = m.Compile(`[oops`)
	require.Error(t, err, "compiling invalid pattern")

	stats := m.Stats()
	assert.Equal(t, 1, stats.Hits, "one cache hit expected")
	assert.Equal(t, 2, stats.Misses, "two cache misses expected")
	assert.Equal(t, 1, stats.Errors, "one compile error expected")
	assert.Equal(t, 2, stats.Size, "cache should hold both valid patterns")
}

func TestCompileCacheEvictsBeyondCapacity(t *testing.T) {
	m := match.NewMatcher(2)
	for _, p := range []string{"a", "b", "c"} {
		_, err := m.Compile(p)
		require.NoError(t, err, "compiling pattern")
	}
	assert.Equal(t, 2, m.Stats().Size, "cache size should stay at capacity")
}

func TestMultiLineFindSpans(t *testing.T) {
	m := match.NewMatcher(0)
	mm := match.NewMultiLineMatcher(m, "")
	lines := []string{"begin", "alpha", "beta", "end", "begin", "gamma", "end"}

	spans, err := mm.FindSpans(lines, `(?s)begin.*?end`)
	require.NoError(t, err, "finding spans")
	require.Len(t, spans, 2, "should find two spans")

	assert.Equal(t, 1, spans[0].StartLine, "first span start")
	assert.Equal(t, 4, spans[0].EndLine, "first span end")
	assert.Equal(t, 5, spans[1].StartLine, "second span start")
	assert.Equal(t, 7, spans[1].EndLine, "second span end")
}

func TestFindCodeBlocks(t *testing.T) {
	lines := []string{"x", "// begin", "one", "two", "// end", "y"}
	m := match.NewMatcher(0)
	mm := match.NewMultiLineMatcher(m, "\n")

	inclusive, err := mm.FindCodeBlocks(lines, `^// begin`, `^// end`, true)
	require.NoError(t, err, "finding inclusive blocks")
	require.Len(t, inclusive, 1, "one block expected")
	assert.Equal(t, 2, inclusive[0].StartLine, "inclusive start")
	assert.Equal(t, 5, inclusive[0].EndLine, "inclusive end")
	assert.Equal(t, []string{"// begin", "one", "two", "// end"}, inclusive[0].Lines, "inclusive lines")

	exclusive, err := mm.FindCodeBlocks(lines, `^// begin`, `^// end`, false)
	require.NoError(t, err, "finding exclusive blocks")
	require.Len(t, exclusive, 1, "one block expected")
	assert.Equal(t, []string{"one", "two"}, exclusive[0].Lines, "exclusive lines")
	assert.Equal(t, 3, exclusive[0].StartLine, "exclusive start")
	assert.Equal(t, 4, exclusive[0].EndLine, "exclusive end")
}
