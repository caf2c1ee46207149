package match

import (
	"strings"
)

// 📐 Span is a pattern match that may cross line boundaries. Line numbers
// are 1-based and inclusive.
type Span struct {
	StartLine int
	EndLine   int
	Text      string
}

// 📦 Block is a run of lines delimited by a start and end pattern.
type Block struct {
	StartLine int
	EndLine   int
	Lines     []string
}

// 🎯 MultiLineMatcher joins a buffer into one string with a configurable
// joiner and maps match offsets back to line numbers, for patterns that
// span lines.
type MultiLineMatcher struct {
	matcher *Matcher
	joiner  string
}

// 🏭 NewMultiLineMatcher creates a multi-line matcher. An empty joiner
// defaults to "\n".
func NewMultiLineMatcher(m *Matcher, joiner string) *MultiLineMatcher {
	if joiner == "" {
		joiner = "\n"
	}
	return &MultiLineMatcher{matcher: m, joiner: joiner}
}

// 🔍 FindSpans returns every match of pattern against the joined buffer,
// located by the line range it covers.
func (mm *MultiLineMatcher) FindSpans(lines []string, pattern string) ([]Span, error) {
	re, err := mm.matcher.Compile(pattern)
	if err != nil {
		return nil, err
	}

	joined := strings.Join(lines, mm.joiner)
	locs := re.FindAllStringIndex(joined, -1)
	if locs == nil {
		return nil, nil
	}

	spans := make([]Span, 0, len(locs))
	for _, loc := range locs {
		spans = append(spans, Span{
			StartLine: lineAtOffset(joined, mm.joiner, loc[0]),
			EndLine:   lineAtOffset(joined, mm.joiner, loc[1]-1),
			Text:      joined[loc[0]:loc[1]],
		})
	}
	return spans, nil
}

// 🔍 FindCodeBlocks locates runs of lines opened by startPattern and closed
// by endPattern. When inclusive is true the delimiter lines are part of the
// block; otherwise only the lines between them are.
func (mm *MultiLineMatcher) FindCodeBlocks(lines []string, startPattern, endPattern string, inclusive bool) ([]Block, error) {
	startRe, err := mm.matcher.Compile(startPattern)
	if err != nil {
		return nil, err
	}
	endRe, err := mm.matcher.Compile(endPattern)
	if err != nil {
		return nil, err
	}

	var blocks []Block
	i := 0
	for i < len(lines) {
		if !startRe.MatchString(lines[i]) {
			i++
			continue
		}
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if endRe.MatchString(lines[j]) {
				end = j
				break
			}
		}
		if end == -1 {
			break
		}

		block := Block{StartLine: i + 1, EndLine: end + 1}
		if inclusive {
			block.Lines = lines[i : end+1]
		} else {
			block.StartLine = i + 2
			block.EndLine = end
			block.Lines = lines[i+1 : end]
		}
		blocks = append(blocks, block)
		i = end + 1
	}
	return blocks, nil
}

// lineAtOffset converts a byte offset in the joined string to a 1-based
// line number by counting joiners before it.
func lineAtOffset(joined, joiner string, offset int) int {
	if offset < 0 {
		return 1
	}
	if offset > len(joined) {
		offset = len(joined)
	}
	return 1 + strings.Count(joined[:offset], joiner)
}
