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

// Package nav is the shell-style navigation state behind the interactive
// menus: a current directory, cd with "-" and "~" shortcuts, directory
// listings, and a small recent-files list.
package nav

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultRecentLimit caps the recent-files list.
const DefaultRecentLimit = 10

// 🔧 Options configures a Navigator.
type Options struct {
	// Start is the initial directory. Defaults to the user's home
	// directory, then to ".".
	Start string

	// ShowHidden includes dot-entries in listings and searches.
	ShowHidden bool

	// RecentLimit caps the recent-files list. Zero or negative means
	// DefaultRecentLimit.
	RecentLimit int
}

// 🧭 Navigator tracks where the interactive session is. Safe for
// concurrent use.
type Navigator struct {
	mu         sync.Mutex
	current    string
	previous   string
	showHidden bool
	recent     []string
	limit      int
}

// 🏭 New creates a Navigator rooted at the start directory.
func New(opts Options) (*Navigator, error) {
	start := opts.Start
	if start == "" {
		if home, err := os.UserHomeDir(); err == nil {
			start = home
		} else {
			start = "."
		}
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, errors.Errorf("resolving start directory: %w", err)
	}
	if fi, err := os.Stat(abs); err != nil || !fi.IsDir() {
		return nil, errors.Errorf("start directory %s does not exist", abs)
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = DefaultRecentLimit
	}
	return &Navigator{
		current:    abs,
		previous:   abs,
		showHidden: opts.ShowHidden,
		limit:      opts.RecentLimit,
	}, nil
}

// Current returns the current directory.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// SetShowHidden toggles dot-entry visibility.
func (n *Navigator) SetShowHidden(show bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.showHidden = show
}

// 🔍 Resolve turns user input into an absolute path: absolute paths pass
// through, "~" expands to the home directory, anything else is relative
// to the current directory.
func (n *Navigator) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Clean(filepath.Join(home, strings.TrimPrefix(path, "~")))
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return filepath.Clean(filepath.Join(n.current, path))
}

// 📂 ChangeDir moves the session: empty input and "~" go home, "-" swaps
// back to the previous directory, everything else resolves like Resolve.
// Returns the new current directory.
func (n *Navigator) ChangeDir(path string) (string, error) {
	var target string
	switch path {
	case "", "~":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Errorf("finding home directory: %w", err)
		}
		target = home
	case "-":
		n.mu.Lock()
		n.current, n.previous = n.previous, n.current
		current := n.current
		n.mu.Unlock()
		return current, nil
	default:
		target = n.Resolve(path)
	}

	fi, err := os.Stat(target)
	if err != nil || !fi.IsDir() {
		return "", errors.Errorf("directory not found: %s", target)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.previous = n.current
	n.current = target
	return n.current, nil
}

// 📄 Entry is one item in a directory listing.
type Entry struct {
	Name  string
	Path  string
	Dir   bool
	Size  int64 // file size; zero for directories
	Items int   // child count for directories; -1 when unreadable
}

// 📋 Listing is a directory's contents, directories and files separated,
// each sorted by name.
type Listing struct {
	Path  string
	Dirs  []Entry
	Files []Entry
}

// 📂 List returns the listing for path, or for the current directory
// when path is empty. Dot-entries are skipped unless ShowHidden is set.
func (n *Navigator) List(ctx context.Context, path string) (*Listing, error) {
	target := path
	if target == "" {
		target = n.Current()
	} else {
		target = n.Resolve(target)
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, errors.Errorf("listing %s: %w", target, err)
	}

	n.mu.Lock()
	showHidden := n.showHidden
	n.mu.Unlock()

	listing := &Listing{Path: target}
	for _, entry := range entries {
		name := entry.Name()
		if !showHidden && strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(target, name)
		if entry.IsDir() {
			items := -1
			if children, err := os.ReadDir(full); err == nil {
				items = len(children)
			}
			listing.Dirs = append(listing.Dirs, Entry{Name: name, Path: full, Dir: true, Items: items})
			continue
		}
		var size int64
		if fi, err := entry.Info(); err == nil {
			size = fi.Size()
		}
		listing.Files = append(listing.Files, Entry{Name: name, Path: full, Size: size})
	}

	sort.Slice(listing.Dirs, func(a, b int) bool { return listing.Dirs[a].Name < listing.Dirs[b].Name })
	sort.Slice(listing.Files, func(a, b int) bool { return listing.Files[a].Name < listing.Files[b].Name })

	zerolog.Ctx(ctx).Debug().
		Str("path", target).
		Int("dirs", len(listing.Dirs)).
		Int("files", len(listing.Files)).
		Msg("listed directory")

	return listing, nil
}

// ➕ Visit records a file on the recent list, newest first, deduplicated.
func (n *Navigator) Visit(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, existing := range n.recent {
		if existing == path {
			n.recent = append(n.recent[:i], n.recent[i+1:]...)
			break
		}
	}
	n.recent = append([]string{path}, n.recent...)
	if len(n.recent) > n.limit {
		n.recent = n.recent[:n.limit]
	}
}

// Recent returns the recent files, newest first.
func (n *Navigator) Recent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.recent))
	copy(out, n.recent)
	return out
}

// 🔎 FindByName walks the current directory and returns the relative
// paths of files whose name contains the substring. Hidden directories
// are pruned unless ShowHidden is set.
func (n *Navigator) FindByName(ctx context.Context, substr string) ([]string, error) {
	root := n.Current()
	n.mu.Lock()
	showHidden := n.showHidden
	n.mu.Unlock()

	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !showHidden && path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.Contains(d.Name(), substr) {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			found = append(found, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("searching %s: %w", root, err)
	}

	sort.Strings(found)
	zerolog.Ctx(ctx).Debug().Str("root", root).Str("name", substr).Int("found", len(found)).Msg("searched by name")
	return found, nil
}
