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

// Package diff renders unified diffs between line buffers. Line runs are
// computed with diffmatchpatch's line-to-rune mapping; hunk grouping and
// range formatting follow the classic unified format.
package diff

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type opKind int

const (
	opEqual opKind = iota
	opDelete
	opInsert
)

// opCode describes one run of lines: [i1,i2) in the old buffer maps to
// [j1,j2) in the new one.
type opCode struct {
	kind           opKind
	i1, i2, j1, j2 int
}

// 📊 ChangeStats summarizes a change as added, removed, and modified line
// counts. A paired delete+insert counts its overlap as modified.
type ChangeStats struct {
	Added    int
	Removed  int
	Modified int
}

// 📝 Unified renders the standard unified diff between two line buffers,
// with `--- a/<path>` / `+++ b/<path>` headers and contextLines lines of
// context per hunk. Identical buffers yield an empty string.
func Unified(oldLines, newLines []string, path string, contextLines int) string {
	if contextLines < 0 {
		contextLines = 0
	}

	groups := groupOpcodes(opcodes(oldLines, newLines), contextLines)
	if len(groups) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n", path)
	fmt.Fprintf(&b, "+++ b/%s\n", path)
	for _, group := range groups {
		renderHunk(&b, oldLines, newLines, group)
	}
	return b.String()
}

// 📊 Stats computes change statistics between two line buffers.
func Stats(oldLines, newLines []string) ChangeStats {
	var stats ChangeStats
	codes := opcodes(oldLines, newLines)
	for k := 0; k < len(codes); k++ {
		c := codes[k]
		switch c.kind {
		case opDelete:
			removed := c.i2 - c.i1
			if k+1 < len(codes) && codes[k+1].kind == opInsert {
				added := codes[k+1].j2 - codes[k+1].j1
				overlap := removed
				if added < overlap {
					overlap = added
				}
				stats.Modified += overlap
				stats.Removed += removed - overlap
				stats.Added += added - overlap
				k++
				continue
			}
			stats.Removed += removed
		case opInsert:
			stats.Added += c.j2 - c.j1
		}
	}
	return stats
}

// opcodes computes line-level runs between the buffers. Each distinct
// line becomes one rune so the diff operates on whole lines.
func opcodes(oldLines, newLines []string) []opCode {
	oldText := joinForDiff(oldLines)
	newText := joinForDiff(newLines)
	if oldText == newText {
		return nil
	}

	dmp := diffmatchpatch.New()
	rOld, rNew, _ := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffMainRunes(rOld, rNew, false)
	diffs = dmp.DiffCleanupMerge(diffs)

	var codes []opCode
	i, j := 0, 0
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		if n == 0 {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			codes = append(codes, opCode{opEqual, i, i + n, j, j + n})
			i += n
			j += n
		case diffmatchpatch.DiffDelete:
			codes = append(codes, opCode{opDelete, i, i + n, j, j})
			i += n
		case diffmatchpatch.DiffInsert:
			codes = append(codes, opCode{opInsert, i, i, j, j + n})
			j += n
		}
	}
	return codes
}

func joinForDiff(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// groupOpcodes folds equal runs down to the context width and splits the
// opcode list into per-hunk groups.
func groupOpcodes(codes []opCode, n int) [][]opCode {
	if len(codes) == 0 {
		return nil
	}

	work := make([]opCode, len(codes))
	copy(work, codes)

	if c := work[0]; c.kind == opEqual {
		work[0] = opCode{opEqual, maxInt(c.i1, c.i2-n), c.i2, maxInt(c.j1, c.j2-n), c.j2}
	}
	if c := work[len(work)-1]; c.kind == opEqual {
		work[len(work)-1] = opCode{opEqual, c.i1, minInt(c.i2, c.i1+n), c.j1, minInt(c.j2, c.j1+n)}
	}

	var groups [][]opCode
	var group []opCode
	for _, c := range work {
		if c.kind == opEqual && c.i2-c.i1 > n*2 {
			group = append(group, opCode{opEqual, c.i1, minInt(c.i2, c.i1+n), c.j1, minInt(c.j2, c.j1+n)})
			groups = append(groups, group)
			group = []opCode{{opEqual, maxInt(c.i1, c.i2-n), c.i2, maxInt(c.j1, c.j2-n), c.j2}}
			continue
		}
		group = append(group, c)
	}
	if len(group) > 0 && !(len(group) == 1 && group[0].kind == opEqual) {
		groups = append(groups, group)
	}
	return groups
}

func renderHunk(b *strings.Builder, oldLines, newLines []string, group []opCode) {
	first, last := group[0], group[len(group)-1]
	fmt.Fprintf(b, "@@ -%s +%s @@\n", formatRange(first.i1, last.i2), formatRange(first.j1, last.j2))
	for _, c := range group {
		switch c.kind {
		case opEqual:
			for _, line := range oldLines[c.i1:c.i2] {
				b.WriteString(" " + line + "\n")
			}
		case opDelete:
			for _, line := range oldLines[c.i1:c.i2] {
				b.WriteString("-" + line + "\n")
			}
		case opInsert:
			for _, line := range newLines[c.j1:c.j2] {
				b.WriteString("+" + line + "\n")
			}
		}
	}
}

// formatRange renders one side of a hunk header: "start,length" with the
// conventional single-line and zero-length shorthand.
func formatRange(start, stop int) string {
	length := stop - start
	beginning := start + 1
	if length == 1 {
		return fmt.Sprintf("%d", beginning)
	}
	if length == 0 {
		beginning--
	}
	return fmt.Sprintf("%d,%d", beginning, length)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
