// Package validate pre-flights patch batches. Unlike the engine, which
// rejects a batch on the first structural error, this package collects
// every issue so interactive callers can report them all at once, and it
// flags request pairs that are likely to collide when applied together.
package validate

import (
	"fmt"

	"github.com/walteh/patchrc/pkg/patch"
	"github.com/walteh/patchrc/pkg/textfile"
	"gitlab.com/tozd/go/errors"
)

// ✅ Issue is one structural problem found in a batch.
type Issue struct {
	Index int // 1-based position in the submitted batch
	Kind  patch.Kind
	Err   error
}

func (i Issue) String() string {
	return fmt.Sprintf("patch %d (%s): %v", i.Index, i.Kind, i.Err)
}

// ⚠️ Conflict flags two requests that touch the same lines or the same
// pattern. Conflicts are advisory: the engine still applies both, the
// later one against the already-modified buffer.
type Conflict struct {
	First  int // 1-based index of the earlier request
	Second int // 1-based index of the later request
	Reason string
}

func (c Conflict) String() string {
	return fmt.Sprintf("patch %d and patch %d: %s", c.First, c.Second, c.Reason)
}

// Request validates a single request against a file. A nil info skips
// the bounds checks, leaving only the structural ones.
func Request(req patch.Request, info *textfile.FileInfo) error {
	lineCount := -1
	if info != nil {
		lineCount = info.Lines
	}
	return req.Validate(lineCount)
}

// 🔍 Batch validates every request against the target's line count and
// returns all issues found. A negative lineCount means the target size is
// unknown and bounds checks are skipped.
func Batch(requests []patch.Request, lineCount int) []Issue {
	var issues []Issue
	for i, req := range requests {
		if err := req.Validate(lineCount); err != nil {
			issues = append(issues, Issue{Index: i + 1, Kind: req.Kind(), Err: err})
		}
	}
	return issues
}

// FirstError collapses an issue list into a single error, nil when clean.
func FirstError(issues []Issue) error {
	if len(issues) == 0 {
		return nil
	}
	first := issues[0]
	return errors.Errorf("patch %d (%s): %w", first.Index, first.Kind, first.Err)
}

// 🔍 DetectConflicts reports request pairs whose line spans overlap or
// whose patterns are identical.
func DetectConflicts(requests []patch.Request) []Conflict {
	specs := patch.SpecsOf(requests)

	var conflicts []Conflict
	for i := 0; i < len(specs); i++ {
		for j := i + 1; j < len(specs); j++ {
			if reason, ok := collide(specs[i], specs[j]); ok {
				conflicts = append(conflicts, Conflict{First: i + 1, Second: j + 1, Reason: reason})
			}
		}
	}
	return conflicts
}

func collide(a, b patch.Spec) (string, bool) {
	if s1, e1, ok1 := lineSpan(a); ok1 {
		if s2, e2, ok2 := lineSpan(b); ok2 {
			if !(e1 < s2 || e2 < s1) {
				return fmt.Sprintf("lines %d-%d overlap lines %d-%d", s1, e1, s2, e2), true
			}
		}
	}
	if a.Pattern != "" && a.Pattern == b.Pattern {
		return fmt.Sprintf("both target pattern %q", a.Pattern), true
	}
	return "", false
}

// lineSpan computes the inclusive 1-based line range a request touches.
// Pattern-anchored requests and appends have no predictable span and
// report ok=false.
func lineSpan(s patch.Spec) (start, end int, ok bool) {
	switch patch.Kind(s.Type) {
	case patch.KindInsertAtLine:
		n := len(s.Code)
		if n == 0 {
			n = 1
		}
		return s.LineNumber, s.LineNumber + n - 1, true
	case patch.KindReplaceRange, patch.KindDeleteRange:
		return s.StartLine, s.EndLine, true
	default:
		return 0, 0, false
	}
}
