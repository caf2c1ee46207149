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
	"regexp"
	"strings"
)

var leadingWhitespace = regexp.MustCompile(`^\s*`)

// 📏 LineIndent returns the leading whitespace of a single line.
func LineIndent(line string) string {
	return leadingWhitespace.FindString(line)
}

// 📏 ContextIndent infers the indentation in effect at an insertion
// position (0-based): the indent of the nearest non-blank line walking
// backward from the position, falling back to the nearest non-blank line
// at or after it, or "" when the buffer has no non-blank lines.
func ContextIndent(lines []string, pos int) string {
	if pos > len(lines) {
		pos = len(lines)
	}
	for i := pos - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return LineIndent(lines[i])
		}
	}
	for i := pos; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return LineIndent(lines[i])
		}
	}
	return ""
}

// 📐 ApplyIndent prefixes every non-blank line of code with indent. Blank
// lines are left untouched so no trailing whitespace is injected.
func ApplyIndent(code []string, indent string) []string {
	out := make([]string, len(code))
	for i, line := range code {
		if strings.TrimSpace(line) == "" {
			out[i] = line
			continue
		}
		out[i] = indent + line
	}
	return out
}
