package patch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/patch"
)

func TestSpecCompile(t *testing.T) {
	tests := []struct {
		name        string
		spec        patch.Spec
		expected    patch.Request
		expectedErr error
	}{
		{
			name:     "insert_at_line",
			spec:     patch.Spec{Type: "insert_at_line", LineNumber: 3, Code: []string{"x"}},
			expected: patch.InsertAtLine{Line: 3, Code: []string{"x"}},
		},
		{
			name:     "replace_range",
			spec:     patch.Spec{Type: "replace_range", StartLine: 1, EndLine: 2, Code: []string{"x"}},
			expected: patch.ReplaceRange{StartLine: 1, EndLine: 2, Code: []string{"x"}},
		},
		{
			name:     "replace_pattern_with_hint",
			spec:     patch.Spec{Type: "replace_pattern", Pattern: "foo", MatchLine: 7, Code: []string{"bar"}},
			expected: patch.ReplacePatternFirst{Pattern: "foo", MatchLine: 7, Code: []string{"bar"}},
		},
		{
			name:     "replace_pattern_all",
			spec:     patch.Spec{Type: "replace_pattern_all", Pattern: "foo", Code: []string{"bar"}},
			expected: patch.ReplacePatternAll{Pattern: "foo", Code: []string{"bar"}},
		},
		{
			name:     "insert_after_pattern",
			spec:     patch.Spec{Type: "insert_after_pattern", Pattern: "^import", Code: []string{"import sys"}},
			expected: patch.InsertAfterPattern{Pattern: "^import", Code: []string{"import sys"}},
		},
		{
			name:     "insert_before_pattern",
			spec:     patch.Spec{Type: "insert_before_pattern", Pattern: "^def", Code: []string{"# docs"}},
			expected: patch.InsertBeforePattern{Pattern: "^def", Code: []string{"# docs"}},
		},
		{
			name:     "append",
			spec:     patch.Spec{Type: "append", Code: []string{"tail"}},
			expected: patch.Append{Code: []string{"tail"}},
		},
		{
			name:     "delete_range",
			spec:     patch.Spec{Type: "delete_range", StartLine: 4, EndLine: 6},
			expected: patch.DeleteRange{StartLine: 4, EndLine: 6},
		},
		{
			name:        "missing_type",
			spec:        patch.Spec{LineNumber: 1, Code: []string{"x"}},
			expectedErr: patch.ErrMissingField,
		},
		{
			name:        "missing_code",
			spec:        patch.Spec{Type: "append"},
			expectedErr: patch.ErrMissingField,
		},
		{
			name:        "missing_pattern",
			spec:        patch.Spec{Type: "replace_pattern_all", Code: []string{"x"}},
			expectedErr: patch.ErrMissingField,
		},
		{
			name:        "invalid_pattern_syntax",
			spec:        patch.Spec{Type: "replace_pattern", Pattern: "([unclosed", Code: []string{"x"}},
			expectedErr: patch.ErrInvalidPattern,
		},
		{
			name:        "inverted_range",
			spec:        patch.Spec{Type: "delete_range", StartLine: 9, EndLine: 2},
			expectedErr: patch.ErrOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.spec.Compile()
			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, req)
		})
	}
}

func TestSpecCompileUnknownType(t *testing.T) {
	_, err := patch.Spec{Type: "rotate_lines"}.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown patch type "rotate_lines"`)
}

func TestCompileSpecsReportsPosition(t *testing.T) {
	specs := []patch.Spec{
		{Type: "append", Code: []string{"ok"}},
		{Type: "append"},
	}

	_, err := patch.CompileSpecs(specs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "patch 2")
	assert.ErrorIs(t, err, patch.ErrMissingField)
}

func TestSpecOfRoundTrip(t *testing.T) {
	requests := []patch.Request{
		patch.InsertAtLine{Line: 5, Code: []string{"a"}},
		patch.ReplaceRange{StartLine: 2, EndLine: 3, Code: []string{"b"}},
		patch.ReplacePatternFirst{Pattern: "p", MatchLine: 4, Code: []string{"c"}},
		patch.ReplacePatternAll{Pattern: "q", Code: []string{"d"}},
		patch.InsertAfterPattern{Pattern: "r", Code: []string{"e"}},
		patch.InsertBeforePattern{Pattern: "s", Code: []string{"f"}},
		patch.Append{Code: []string{"g"}},
		patch.DeleteRange{StartLine: 7, EndLine: 9},
	}

	for _, req := range requests {
		spec := patch.SpecOf(req)
		back, err := spec.Compile()
		require.NoError(t, err, "wire form of %s should compile back", req.Kind())
		assert.Equal(t, req, back, "round trip through the wire form should be lossless")
	}
}
