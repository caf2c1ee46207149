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

package match

import (
	"regexp"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrInvalidPattern is returned when a regular expression fails to compile.
	ErrInvalidPattern = errors.New("invalid pattern")
)

// DefaultCacheSize bounds the compilation cache when the caller does not
// choose a size.
const DefaultCacheSize = 128

// 🔍 Match describes one matching line, with an optional window of
// surrounding context. Line numbers are 1-based.
type Match struct {
	LineIndex     int      // 1-based index of the matching line
	LineText      string   // Full text of the matching line
	MatchedText   string   // The substring the pattern matched
	CaptureGroups []string // Submatches, if the pattern has groups
	ContextStart  int      // 1-based first line of the context window
	ContextEnd    int      // 1-based last line of the context window
	Context       []string // The context window lines
}

// 📊 CacheStats reports compilation cache behavior over the matcher's
// lifetime.
type CacheStats struct {
	Hits   int
	Misses int
	Errors int
	Size   int
}

// 🎯 Matcher compiles patterns through a bounded LRU cache so repeated use
// of the same pattern across a batch never recompiles.
type Matcher struct {
	cache *lru.Cache[string, *regexp.Regexp]

	mu    sync.Mutex
	stats CacheStats
}

// 🏭 NewMatcher creates a matcher with an LRU compilation cache of the
// given capacity. Capacity values below 1 fall back to DefaultCacheSize.
func NewMatcher(cacheSize int) *Matcher {
	if cacheSize < 1 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *regexp.Regexp](cacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size, which is guarded above.
		panic(err)
	}
	return &Matcher{cache: cache}
}

// 🔧 Compile returns the compiled form of pattern, from cache when possible.
func (m *Matcher) Compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := m.cache.Get(pattern); ok {
		m.bump(func(s *CacheStats) { s.Hits++ })
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		m.bump(func(s *CacheStats) { s.Errors++ })
		return nil, errors.Errorf("compiling %q: %w", pattern, ErrInvalidPattern)
	}

	m.cache.Add(pattern, re)
	m.bump(func(s *CacheStats) { s.Misses++ })
	return re, nil
}

// 🔍 FindMatches scans lines top-to-bottom, one search per line, returning
// every match with a context window of contextLines lines on each side.
func (m *Matcher) FindMatches(lines []string, pattern string, contextLines int) ([]Match, error) {
	re, err := m.Compile(pattern)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for i, line := range lines {
		loc := re.FindStringSubmatch(line)
		if loc == nil {
			continue
		}

		cs := i - contextLines
		if cs < 0 {
			cs = 0
		}
		ce := i + contextLines
		if ce > len(lines)-1 {
			ce = len(lines) - 1
		}

		match := Match{
			LineIndex:    i + 1,
			LineText:     line,
			MatchedText:  loc[0],
			ContextStart: cs + 1,
			ContextEnd:   ce + 1,
			Context:      lines[cs : ce+1],
		}
		if len(loc) > 1 {
			match.CaptureGroups = loc[1:]
		}
		matches = append(matches, match)
	}

	return matches, nil
}

// 🔍 FirstMatch returns the first matching line, or nil if the pattern
// matches nothing.
func (m *Matcher) FirstMatch(lines []string, pattern string) (*Match, error) {
	re, err := m.Compile(pattern)
	if err != nil {
		return nil, err
	}
	for i, line := range lines {
		if loc := re.FindStringSubmatch(line); loc != nil {
			match := &Match{
				LineIndex:    i + 1,
				LineText:     line,
				MatchedText:  loc[0],
				ContextStart: i + 1,
				ContextEnd:   i + 1,
				Context:      lines[i : i+1],
			}
			if len(loc) > 1 {
				match.CaptureGroups = loc[1:]
			}
			return match, nil
		}
	}
	return nil, nil
}

// ✅ MatchesLine reports whether pattern matches a single line.
func (m *Matcher) MatchesLine(pattern, line string) (bool, error) {
	re, err := m.Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(line), nil
}

// 📊 Stats returns a snapshot of the cache counters.
func (m *Matcher) Stats() CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.stats
	stats.Size = m.cache.Len()
	return stats
}

func (m *Matcher) bump(f func(*CacheStats)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(&m.stats)
}
