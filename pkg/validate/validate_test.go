package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/patch"
	"github.com/walteh/patchrc/pkg/textfile"
	"github.com/walteh/patchrc/pkg/validate"
)

func TestRequestChecksBoundsAgainstFileInfo(t *testing.T) {
	req := patch.InsertAtLine{Line: 12, Code: []string{"x"}}

	assert.NoError(t, validate.Request(req, nil), "nil info skips bounds checks")
	assert.NoError(t, validate.Request(req, &textfile.FileInfo{Lines: 20}))

	err := validate.Request(req, &textfile.FileInfo{Lines: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, patch.ErrOutOfRange)
}

func TestBatchCollectsAllIssues(t *testing.T) {
	requests := []patch.Request{
		patch.ReplaceRange{StartLine: 2, EndLine: 1, Code: []string{"x"}},
		patch.InsertAtLine{Line: 3, Code: []string{"ok"}},
		patch.ReplacePatternFirst{Pattern: "foo", Code: nil},
	}

	issues := validate.Batch(requests, 10)
	require.Len(t, issues, 2, "both broken requests should be reported")

	assert.Equal(t, 1, issues[0].Index)
	assert.Equal(t, patch.KindReplaceRange, issues[0].Kind)
	assert.ErrorIs(t, issues[0].Err, patch.ErrOutOfRange)

	assert.Equal(t, 3, issues[1].Index)
	assert.Equal(t, patch.KindReplacePatternFirst, issues[1].Kind)
	assert.ErrorIs(t, issues[1].Err, patch.ErrMissingField)
}

func TestBatchSkipsBoundsWhenLineCountUnknown(t *testing.T) {
	requests := []patch.Request{
		patch.DeleteRange{StartLine: 90, EndLine: 95},
	}

	assert.Empty(t, validate.Batch(requests, -1), "bounds checks need a known line count")
	assert.Len(t, validate.Batch(requests, 10), 1, "the same request fails against a 10 line file")
}

func TestFirstError(t *testing.T) {
	assert.NoError(t, validate.FirstError(nil))

	issues := validate.Batch([]patch.Request{patch.Append{}}, 5)
	err := validate.FirstError(issues)
	require.Error(t, err)
	assert.ErrorIs(t, err, patch.ErrMissingField)
	assert.Contains(t, err.Error(), "patch 1")
}

func TestDetectConflicts(t *testing.T) {
	tests := []struct {
		name     string
		requests []patch.Request
		expected []validate.Conflict
	}{
		{
			name: "overlapping_ranges",
			requests: []patch.Request{
				patch.ReplaceRange{StartLine: 3, EndLine: 6, Code: []string{"a"}},
				patch.DeleteRange{StartLine: 5, EndLine: 8},
			},
			expected: []validate.Conflict{
				{First: 1, Second: 2, Reason: "lines 3-6 overlap lines 5-8"},
			},
		},
		{
			name: "disjoint_ranges",
			requests: []patch.Request{
				patch.ReplaceRange{StartLine: 1, EndLine: 2, Code: []string{"a"}},
				patch.DeleteRange{StartLine: 5, EndLine: 8},
			},
			expected: nil,
		},
		{
			name: "insert_span_reaches_into_delete",
			requests: []patch.Request{
				patch.InsertAtLine{Line: 5, Code: []string{"one", "two", "three"}},
				patch.DeleteRange{StartLine: 7, EndLine: 8},
			},
			expected: []validate.Conflict{
				{First: 1, Second: 2, Reason: "lines 5-7 overlap lines 7-8"},
			},
		},
		{
			name: "identical_patterns",
			requests: []patch.Request{
				patch.ReplacePatternFirst{Pattern: `import os`, Code: []string{"import sys"}},
				patch.InsertAfterPattern{Pattern: `import os`, Code: []string{"import json"}},
			},
			expected: []validate.Conflict{
				{First: 1, Second: 2, Reason: `both target pattern "import os"`},
			},
		},
		{
			name: "different_patterns",
			requests: []patch.Request{
				patch.ReplacePatternFirst{Pattern: `import os`, Code: []string{"import sys"}},
				patch.InsertAfterPattern{Pattern: `import re`, Code: []string{"import json"}},
			},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validate.DetectConflicts(tt.requests)
			require.Equal(t, tt.expected, got)
		})
	}
}
