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

package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/patch"
)

// 🎨 Display configuration
const (
	lineNumberWidth = 4 // width of preview line numbers
	contextIndent   = 3 // spaces before match context lines
)

// 🌈 RenderDiff colors a unified diff: additions green, removals red,
// hunk headers cyan, file headers bold.
func RenderDiff(diff string) string {
	if diff == "" {
		return ""
	}

	var b strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(color.New(color.Bold).Sprint(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(color.CyanString(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(color.GreenString(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(color.RedString(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// 📄 RenderPreview renders numbered file lines starting at the 1-based
// start line, capped at maxLines with a trailing note for what was cut.
func RenderPreview(lines []string, start, maxLines int) string {
	if start < 1 {
		start = 1
	}
	if maxLines <= 0 {
		maxLines = len(lines)
	}

	var b strings.Builder
	shown := 0
	for i, line := range lines {
		if shown >= maxLines {
			remaining := len(lines) - i
			b.WriteString(color.HiBlackString(fmt.Sprintf("... (%d more line(s))", remaining)))
			b.WriteString("\n")
			break
		}
		fmt.Fprintf(&b, "%*d │ %s\n", lineNumberWidth, start+i, line)
		shown++
	}
	return b.String()
}

// 🔍 RenderMatch renders one match with its context window, the matching
// line marked and highlighted.
func RenderMatch(m match.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Line %d: %s\n", m.LineIndex, color.YellowString(m.MatchedText))
	for i, line := range m.Context {
		lineNo := m.ContextStart + i
		marker := strings.Repeat(" ", contextIndent)
		text := line
		if lineNo == m.LineIndex {
			marker = " → "
			text = color.YellowString(line)
		}
		fmt.Fprintf(&b, "%s%*d │ %s\n", marker, lineNumberWidth, lineNo, text)
	}
	return b.String()
}

// ✅ RenderResult renders a batch outcome: one line per request in
// submission order, then the counts.
func RenderResult(result *patch.Result) string {
	var b strings.Builder
	for _, rr := range result.Requests {
		if rr.Applied {
			fmt.Fprintf(&b, "  ✅ [%d] %s\n", rr.Index+1, rr.Detail)
		} else {
			fmt.Fprintf(&b, "  ❌ [%d] %s: %v\n", rr.Index+1, rr.Kind, rr.Err)
		}
	}
	fmt.Fprintf(&b, "%d applied, %d failed, %d → %d lines\n",
		result.SuccessCount, result.FailureCount, result.OriginalLineCount, result.NewLineCount)
	return b.String()
}

// 📦 FormatSize renders a byte count in human-readable form.
func FormatSize(size int64) string {
	if size == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	value := float64(size)
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", size)
	}
	return fmt.Sprintf("%.1f %s", value, units[i])
}
