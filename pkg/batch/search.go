package batch

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/textfile"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🔍 SearchHit is one file's matches for a search pattern.
type SearchHit struct {
	Path    string // relative to the search root
	Matches []match.Match
}

// 🔎 Search scans every matching file for the pattern and returns the
// files with at least one hit, sorted by path.
func (r *Runner) Search(ctx context.Context, root string, includes []string, pattern string, contextLines int) ([]SearchHit, error) {
	if r.opts.Matcher == nil {
		return nil, errors.New("matcher is required for search")
	}
	// Fail on a bad pattern before walking the tree.
	if _, err := r.opts.Matcher.Compile(pattern); err != nil {
		return nil, err
	}

	files, err := FindFiles(root, includes, r.opts.Excludes, r.opts.ShowHidden)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, rel := range files {
		i, rel := i, rel
		g.Go(func() error {
			doc, err := textfile.Load(gctx, filepath.Join(root, rel))
			if err != nil {
				return errors.Errorf("searching %s: %w", rel, err)
			}
			matches, err := r.opts.Matcher.FindMatches(doc.Lines, pattern, contextLines)
			if err != nil {
				return err
			}
			hits[i] = SearchHit{Path: rel, Matches: matches}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := hits[:0]
	for _, hit := range hits {
		if len(hit.Matches) > 0 {
			out = append(out, hit)
		}
	}
	return out, nil
}

// 📊 Analysis summarizes a directory tree: file counts, sizes, languages,
// and optionally how often a set of patterns occurs.
type Analysis struct {
	Root        string
	Files       int
	TotalLines  int
	TotalSize   int64
	ByLanguage  map[string]int // language -> file count
	PatternHits map[string]int // pattern -> total matching lines
}

// 📈 Analyze gathers statistics for every matching file under root. When
// patterns are given, each file is also scanned for them and the per-pattern
// line counts aggregated.
func (r *Runner) Analyze(ctx context.Context, root string, includes []string, patterns []string) (*Analysis, error) {
	if len(patterns) > 0 && r.opts.Matcher == nil {
		return nil, errors.New("matcher is required for pattern analysis")
	}
	for _, pattern := range patterns {
		if _, err := r.opts.Matcher.Compile(pattern); err != nil {
			return nil, err
		}
	}

	files, err := FindFiles(root, includes, r.opts.Excludes, r.opts.ShowHidden)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{
		Root:        root,
		ByLanguage:  map[string]int{},
		PatternHits: map[string]int{},
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			info, err := textfile.Stat(gctx, filepath.Join(root, rel))
			if err != nil {
				return errors.Errorf("analyzing %s: %w", rel, err)
			}

			counts := make([]int, len(patterns))
			if len(patterns) > 0 {
				doc, err := textfile.Load(gctx, filepath.Join(root, rel))
				if err != nil {
					return errors.Errorf("analyzing %s: %w", rel, err)
				}
				for pi, pattern := range patterns {
					matches, err := r.opts.Matcher.FindMatches(doc.Lines, pattern, 0)
					if err != nil {
						return err
					}
					counts[pi] = len(matches)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			analysis.Files++
			analysis.TotalLines += info.Lines
			analysis.TotalSize += info.Size
			analysis.ByLanguage[info.Language]++
			for pi, pattern := range patterns {
				analysis.PatternHits[pattern] += counts[pi]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return analysis, nil
}
