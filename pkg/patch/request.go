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

package patch

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// 🏷️ Kind names a patch request variant. Values double as the wire-format
// type strings used in plans, fix bundles, and the history log.
type Kind string

const (
	KindInsertAtLine        Kind = "insert_at_line"
	KindReplaceRange        Kind = "replace_range"
	KindReplacePatternFirst Kind = "replace_pattern"
	KindReplacePatternAll   Kind = "replace_pattern_all"
	KindInsertAfterPattern  Kind = "insert_after_pattern"
	KindInsertBeforePattern Kind = "insert_before_pattern"
	KindAppend              Kind = "append"
	KindDeleteRange         Kind = "delete_range"
)

// Application phases: line-anchored requests apply first (highest line
// first), pattern-anchored and append requests second, in submission
// order. An explicit phase replaces the fragile "anchor 0 sorts last"
// convention.
const (
	phaseLine    = 0
	phasePattern = 1
)

// 🎯 Request is one declarative edit. It is immutable once submitted; the
// engine mutates only its own copy of the buffer. The interface is sealed:
// the eight variants in this package are the complete set.
type Request interface {
	// Kind identifies the variant.
	Kind() Kind

	// Validate checks structural correctness. lineCount is the target
	// file's current line count, or a negative value when unknown (bounds
	// checks are skipped then).
	Validate(lineCount int) error

	phase() int
	anchor() int
	apply(st *applyState) (string, error)
}

// 📌 InsertAtLine inserts Code before the given 1-based line. Positions
// past the end of the buffer clamp to an append.
type InsertAtLine struct {
	Line int
	Code []string
}

func (r InsertAtLine) Kind() Kind  { return KindInsertAtLine }
func (r InsertAtLine) phase() int  { return phaseLine }
func (r InsertAtLine) anchor() int { return r.Line }

func (r InsertAtLine) Validate(lineCount int) error {
	if r.Line == 0 {
		return errors.Errorf("%s: line_number is required: %w", r.Kind(), ErrMissingField)
	}
	if r.Line < 0 {
		return errors.Errorf("%s: line_number %d must be positive: %w", r.Kind(), r.Line, ErrOutOfRange)
	}
	if len(r.Code) == 0 {
		return errors.Errorf("%s: code is required: %w", r.Kind(), ErrMissingField)
	}
	if lineCount >= 0 && r.Line > lineCount+1 {
		return errors.Errorf("%s: line_number %d exceeds %d lines (+1 for end insert): %w", r.Kind(), r.Line, lineCount, ErrOutOfRange)
	}
	return nil
}

func (r InsertAtLine) apply(st *applyState) (string, error) {
	if r.Line < 1 {
		return "", errors.Errorf("line_number %d must be positive: %w", r.Line, ErrOutOfRange)
	}
	pos := r.Line - 1
	if pos > len(st.lines) {
		pos = len(st.lines)
	}
	code := ApplyIndent(r.Code, ContextIndent(st.lines, pos))
	st.lines = insertLines(st.lines, pos, code)
	return fmt.Sprintf("Inserted %d line(s) at line %d", len(code), r.Line), nil
}

// 🔁 ReplaceRange replaces the inclusive 1-based line range with Code.
type ReplaceRange struct {
	StartLine int
	EndLine   int
	Code      []string
}

func (r ReplaceRange) Kind() Kind  { return KindReplaceRange }
func (r ReplaceRange) phase() int  { return phaseLine }
func (r ReplaceRange) anchor() int { return r.StartLine }

func (r ReplaceRange) Validate(lineCount int) error {
	if err := validateRange(r.Kind(), r.StartLine, r.EndLine, lineCount); err != nil {
		return err
	}
	if len(r.Code) == 0 {
		return errors.Errorf("%s: code is required: %w", r.Kind(), ErrMissingField)
	}
	return nil
}

func (r ReplaceRange) apply(st *applyState) (string, error) {
	if err := boundsCheck(r.StartLine, r.EndLine, len(st.lines)); err != nil {
		return "", err
	}
	code := ApplyIndent(r.Code, LineIndent(st.lines[r.StartLine-1]))
	st.lines = splice(st.lines, r.StartLine-1, r.EndLine, code)
	return fmt.Sprintf("Replaced lines %d-%d with %d line(s)", r.StartLine, r.EndLine, len(code)), nil
}

// 🔍 ReplacePatternFirst replaces the first line matching Pattern with
// Code. When MatchLine is set (>0) the pattern must match at exactly that
// line or the request fails.
type ReplacePatternFirst struct {
	Pattern   string
	Code      []string
	MatchLine int
}

func (r ReplacePatternFirst) Kind() Kind  { return KindReplacePatternFirst }
func (r ReplacePatternFirst) phase() int  { return phasePattern }
func (r ReplacePatternFirst) anchor() int { return 0 }

func (r ReplacePatternFirst) Validate(lineCount int) error {
	if err := validatePattern(r.Kind(), r.Pattern); err != nil {
		return err
	}
	if len(r.Code) == 0 {
		return errors.Errorf("%s: code is required: %w", r.Kind(), ErrMissingField)
	}
	if r.MatchLine < 0 {
		return errors.Errorf("%s: match_line %d must be positive: %w", r.Kind(), r.MatchLine, ErrOutOfRange)
	}
	if lineCount >= 0 && r.MatchLine > lineCount {
		return errors.Errorf("%s: match_line %d exceeds %d lines: %w", r.Kind(), r.MatchLine, lineCount, ErrOutOfRange)
	}
	return nil
}

func (r ReplacePatternFirst) apply(st *applyState) (string, error) {
	re, err := st.matcher.Compile(r.Pattern)
	if err != nil {
		return "", err
	}

	idx := -1
	if r.MatchLine > 0 {
		if r.MatchLine > len(st.lines) {
			return "", errors.Errorf("match_line %d exceeds %d lines: %w", r.MatchLine, len(st.lines), ErrOutOfRange)
		}
		if !re.MatchString(st.lines[r.MatchLine-1]) {
			return "", errors.Errorf("%q at line %d: %w", r.Pattern, r.MatchLine, ErrPatternNotFoundAtHint)
		}
		idx = r.MatchLine - 1
	} else {
		for i, line := range st.lines {
			if re.MatchString(line) {
				idx = i
				break
			}
		}
		if idx == -1 {
			return "", errors.Errorf("%q: %w", r.Pattern, ErrPatternNotFound)
		}
	}

	code := ApplyIndent(r.Code, LineIndent(st.lines[idx]))
	st.lines = splice(st.lines, idx, idx+1, code)
	return fmt.Sprintf("Replaced first match of %q at line %d", r.Pattern, idx+1), nil
}

// 🔁 ReplacePatternAll replaces every line matching Pattern with Code,
// inferring indentation per match. Scanning resumes after each inserted
// block so replacements can never re-match themselves.
type ReplacePatternAll struct {
	Pattern string
	Code    []string
}

func (r ReplacePatternAll) Kind() Kind  { return KindReplacePatternAll }
func (r ReplacePatternAll) phase() int  { return phasePattern }
func (r ReplacePatternAll) anchor() int { return 0 }

func (r ReplacePatternAll) Validate(lineCount int) error {
	if err := validatePattern(r.Kind(), r.Pattern); err != nil {
		return err
	}
	if len(r.Code) == 0 {
		return errors.Errorf("%s: code is required: %w", r.Kind(), ErrMissingField)
	}
	return nil
}

func (r ReplacePatternAll) apply(st *applyState) (string, error) {
	re, err := st.matcher.Compile(r.Pattern)
	if err != nil {
		return "", err
	}

	count := 0
	i := 0
	for i < len(st.lines) {
		if !re.MatchString(st.lines[i]) {
			i++
			continue
		}
		code := ApplyIndent(r.Code, LineIndent(st.lines[i]))
		st.lines = splice(st.lines, i, i+1, code)
		i += len(code)
		count++
	}

	if count == 0 {
		return "", errors.Errorf("%q: %w", r.Pattern, ErrPatternNotFound)
	}
	return fmt.Sprintf("Replaced %d occurrence(s) of %q", count, r.Pattern), nil
}

// 📌 InsertAfterPattern inserts Code after the first line matching Pattern.
type InsertAfterPattern struct {
	Pattern string
	Code    []string
}

func (r InsertAfterPattern) Kind() Kind  { return KindInsertAfterPattern }
func (r InsertAfterPattern) phase() int  { return phasePattern }
func (r InsertAfterPattern) anchor() int { return 0 }

func (r InsertAfterPattern) Validate(lineCount int) error {
	return validatePatternWithCode(r.Kind(), r.Pattern, r.Code)
}

func (r InsertAfterPattern) apply(st *applyState) (string, error) {
	idx, err := firstMatchIndex(st, r.Pattern)
	if err != nil {
		return "", err
	}
	pos := idx + 1
	code := ApplyIndent(r.Code, ContextIndent(st.lines, pos))
	st.lines = insertLines(st.lines, pos, code)
	return fmt.Sprintf("Inserted %d line(s) after %q at line %d", len(code), r.Pattern, idx+1), nil
}

// 📌 InsertBeforePattern inserts Code before the first line matching
// Pattern.
type InsertBeforePattern struct {
	Pattern string
	Code    []string
}

func (r InsertBeforePattern) Kind() Kind  { return KindInsertBeforePattern }
func (r InsertBeforePattern) phase() int  { return phasePattern }
func (r InsertBeforePattern) anchor() int { return 0 }

func (r InsertBeforePattern) Validate(lineCount int) error {
	return validatePatternWithCode(r.Kind(), r.Pattern, r.Code)
}

func (r InsertBeforePattern) apply(st *applyState) (string, error) {
	idx, err := firstMatchIndex(st, r.Pattern)
	if err != nil {
		return "", err
	}
	code := ApplyIndent(r.Code, ContextIndent(st.lines, idx))
	st.lines = insertLines(st.lines, idx, code)
	return fmt.Sprintf("Inserted %d line(s) before %q at line %d", len(code), r.Pattern, idx+1), nil
}

// ➕ Append adds Code at the end of the buffer, indented like the last
// existing line.
type Append struct {
	Code []string
}

func (r Append) Kind() Kind  { return KindAppend }
func (r Append) phase() int  { return phasePattern }
func (r Append) anchor() int { return 0 }

func (r Append) Validate(lineCount int) error {
	if len(r.Code) == 0 {
		return errors.Errorf("%s: code is required: %w", r.Kind(), ErrMissingField)
	}
	return nil
}

func (r Append) apply(st *applyState) (string, error) {
	indent := ""
	if len(st.lines) > 0 {
		indent = LineIndent(st.lines[len(st.lines)-1])
	}
	code := ApplyIndent(r.Code, indent)
	st.lines = append(st.lines, code...)
	return fmt.Sprintf("Appended %d line(s)", len(code)), nil
}

// 🗑️ DeleteRange removes the inclusive 1-based line range.
type DeleteRange struct {
	StartLine int
	EndLine   int
}

func (r DeleteRange) Kind() Kind  { return KindDeleteRange }
func (r DeleteRange) phase() int  { return phaseLine }
func (r DeleteRange) anchor() int { return r.StartLine }

func (r DeleteRange) Validate(lineCount int) error {
	return validateRange(r.Kind(), r.StartLine, r.EndLine, lineCount)
}

func (r DeleteRange) apply(st *applyState) (string, error) {
	if err := boundsCheck(r.StartLine, r.EndLine, len(st.lines)); err != nil {
		return "", err
	}
	st.lines = splice(st.lines, r.StartLine-1, r.EndLine, nil)
	return fmt.Sprintf("Deleted lines %d-%d", r.StartLine, r.EndLine), nil
}

// Shared validation helpers.

func validateRange(kind Kind, start, end, lineCount int) error {
	if start == 0 {
		return errors.Errorf("%s: start_line is required: %w", kind, ErrMissingField)
	}
	if end == 0 {
		return errors.Errorf("%s: end_line is required: %w", kind, ErrMissingField)
	}
	if start < 0 || end < 0 {
		return errors.Errorf("%s: line numbers must be positive: %w", kind, ErrOutOfRange)
	}
	if start > end {
		return errors.Errorf("%s: start_line %d > end_line %d: %w", kind, start, end, ErrOutOfRange)
	}
	if lineCount >= 0 && end > lineCount {
		return errors.Errorf("%s: end_line %d exceeds %d lines: %w", kind, end, lineCount, ErrOutOfRange)
	}
	return nil
}

func validatePattern(kind Kind, pattern string) error {
	if pattern == "" {
		return errors.Errorf("%s: pattern is required: %w", kind, ErrMissingField)
	}
	if err := checkPatternSyntax(pattern); err != nil {
		return errors.Errorf("%s: %w", kind, err)
	}
	return nil
}

func validatePatternWithCode(kind Kind, pattern string, code []string) error {
	if err := validatePattern(kind, pattern); err != nil {
		return err
	}
	if len(code) == 0 {
		return errors.Errorf("%s: code is required: %w", kind, ErrMissingField)
	}
	return nil
}

func firstMatchIndex(st *applyState, pattern string) (int, error) {
	re, err := st.matcher.Compile(pattern)
	if err != nil {
		return 0, err
	}
	for i, line := range st.lines {
		if re.MatchString(line) {
			return i, nil
		}
	}
	return 0, errors.Errorf("%q: %w", pattern, ErrPatternNotFound)
}

func boundsCheck(start, end, lineCount int) error {
	if start < 1 || end > lineCount || start > end {
		return errors.Errorf("lines %d-%d out of range (file has %d lines): %w", start, end, lineCount, ErrOutOfRange)
	}
	return nil
}
