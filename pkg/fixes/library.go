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

package fixes

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFix is returned when a fix id is not in the library.
var ErrUnknownFix = errors.New("unknown fix")

// 📦 Bundle is the wire form of a fix collection, as stored in .yaml or
// .json bundle files and in remote registries.
type Bundle struct {
	Fixes []*Fix `json:"fixes" yaml:"fixes"`
}

// 📚 Library holds the available fixes: the builtin catalog plus whatever
// bundles were loaded on top. Safe for concurrent use.
type Library struct {
	mu    sync.RWMutex
	fixes map[string]*Fix
}

// 🏭 NewLibrary creates a library seeded with the builtin catalog.
func NewLibrary() *Library {
	lib := &Library{fixes: map[string]*Fix{}}
	for _, fix := range Builtins() {
		lib.fixes[fix.ID] = fix
	}
	return lib
}

// ➕ Add validates a fix and registers it, replacing any fix with the
// same id.
func (l *Library) Add(fix *Fix) error {
	if err := fix.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fixes[fix.ID] = fix
	return nil
}

// 🔍 Get returns the fix with the given id.
func (l *Library) Get(id string) (*Fix, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fix, ok := l.fixes[id]
	if !ok {
		return nil, errors.Errorf("%q: %w", id, ErrUnknownFix)
	}
	return fix, nil
}

// 📋 All returns every fix, sorted by category then id.
func (l *Library) All() []*Fix {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Fix, 0, len(l.fixes))
	for _, fix := range l.fixes {
		out = append(out, fix)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Category != out[b].Category {
			return out[a].Category < out[b].Category
		}
		return out[a].ID < out[b].ID
	})
	return out
}

// 🗂️ Categories returns the distinct categories, sorted.
func (l *Library) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := map[string]bool{}
	for _, fix := range l.fixes {
		seen[fix.Category] = true
	}
	out := make([]string, 0, len(seen))
	for category := range seen {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// 🗂️ ByCategory returns the fixes in one category, sorted by id.
func (l *Library) ByCategory(category string) []*Fix {
	var out []*Fix
	for _, fix := range l.All() {
		if fix.Category == category {
			out = append(out, fix)
		}
	}
	return out
}

// 🔎 Search returns fixes whose id, name, description, or category
// contains the query, case-insensitively.
func (l *Library) Search(query string) []*Fix {
	query = strings.ToLower(query)
	var out []*Fix
	for _, fix := range l.All() {
		haystack := strings.ToLower(fix.ID + " " + fix.Name + " " + fix.Description + " " + fix.Category)
		if strings.Contains(haystack, query) {
			out = append(out, fix)
		}
	}
	return out
}

// 📥 LoadDir reads every bundle file (.yaml, .yml, .json) in dir and adds
// its fixes. A missing directory is not an error; a malformed bundle is.
func (l *Library) LoadDir(ctx context.Context, dir string) (int, error) {
	logger := zerolog.Ctx(ctx)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Errorf("reading bundle dir: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !IsBundleFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return loaded, errors.Errorf("reading bundle: %w", err)
		}
		bundle, err := DecodeBundle(entry.Name(), data)
		if err != nil {
			return loaded, errors.Errorf("bundle %s: %w", entry.Name(), err)
		}
		for _, fix := range bundle.Fixes {
			if err := l.Add(fix); err != nil {
				return loaded, errors.Errorf("bundle %s: %w", entry.Name(), err)
			}
			loaded++
		}
	}

	logger.Debug().Str("dir", dir).Int("fixes", loaded).Msg("loaded fix bundles")
	return loaded, nil
}

// 💾 SaveFix writes one fix as a single-entry bundle, format chosen by
// the path's extension.
func (l *Library) SaveFix(ctx context.Context, id, path string) error {
	fix, err := l.Get(id)
	if err != nil {
		return err
	}

	bundle := Bundle{Fixes: []*Fix{fix}}
	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return errors.Errorf("encoding bundle: %w", err)
		}
		data = append(data, '\n')
	case ".yaml", ".yml":
		data, err = yaml.Marshal(bundle)
		if err != nil {
			return errors.Errorf("encoding bundle: %w", err)
		}
	default:
		return errors.Errorf("unsupported bundle format %q", filepath.Ext(path))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Errorf("writing bundle: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("fix", id).Str("path", path).Msg("exported fix")
	return nil
}

// IsBundleFile reports whether a file name looks like a fix bundle.
func IsBundleFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// 📦 DecodeBundle parses bundle bytes, format chosen by the file name's
// extension, and validates every fix in it.
func DecodeBundle(name string, data []byte) (*Bundle, error) {
	var bundle Bundle
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(data, &bundle); err != nil {
			return nil, errors.Errorf("parsing json bundle: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &bundle); err != nil {
			return nil, errors.Errorf("parsing yaml bundle: %w", err)
		}
	default:
		return nil, errors.Errorf("unsupported bundle format %q", filepath.Ext(name))
	}

	for _, fix := range bundle.Fixes {
		if err := fix.Validate(); err != nil {
			return nil, err
		}
	}
	return &bundle, nil
}
