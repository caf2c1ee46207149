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

// Package fixes is the predefined-fix library: named, reusable patch
// batches with metadata, applied across file trees by glob. Fixes are
// declarative — a fix is just patch specs plus the globs they target, so
// custom fixes load from YAML or JSON bundles exactly like the builtins.
package fixes

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/patchrc/pkg/patch"
	"gitlab.com/tozd/go/errors"
)

// 🏷️ Severity ranks how urgent a fix is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Icon returns the display marker for a severity.
func (s Severity) Icon() string {
	switch s {
	case SeverityCritical:
		return "🔴"
	case SeverityHigh:
		return "🟠"
	case SeverityMedium:
		return "🟡"
	case SeverityLow:
		return "🟢"
	default:
		return "⚪"
	}
}

func (s Severity) known() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// 🔧 Fix is one named patch batch with the metadata needed to browse,
// search, and target it.
type Fix struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Description  string       `json:"description" yaml:"description"`
	Category     string       `json:"category" yaml:"category"`
	Severity     Severity     `json:"severity" yaml:"severity"`
	Author       string       `json:"author,omitempty" yaml:"author,omitempty"`
	Version      string       `json:"version,omitempty" yaml:"version,omitempty"`
	FilePatterns []string     `json:"file_patterns,omitempty" yaml:"file_patterns,omitempty"`
	Patches      []patch.Spec `json:"patches" yaml:"patches"`
}

// ✅ Validate checks the fix is complete and its patches compile.
func (f *Fix) Validate() error {
	if f.ID == "" {
		return errors.New("fix id is required")
	}
	if f.Name == "" {
		return errors.Errorf("fix %s: name is required", f.ID)
	}
	if f.Category == "" {
		return errors.Errorf("fix %s: category is required", f.ID)
	}
	if !f.Severity.known() {
		return errors.Errorf("fix %s: unknown severity %q", f.ID, f.Severity)
	}
	if len(f.Patches) == 0 {
		return errors.Errorf("fix %s: at least one patch is required", f.ID)
	}
	if _, err := patch.CompileSpecs(f.Patches); err != nil {
		return errors.Errorf("fix %s: %w", f.ID, err)
	}
	for _, pattern := range f.FilePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("fix %s: invalid file pattern %q", f.ID, pattern)
		}
	}
	return nil
}

// Requests compiles the fix's patches into typed requests.
func (f *Fix) Requests() ([]patch.Request, error) {
	requests, err := patch.CompileSpecs(f.Patches)
	if err != nil {
		return nil, errors.Errorf("fix %s: %w", f.ID, err)
	}
	return requests, nil
}

// Globs returns the fix's file patterns, defaulting to every file.
func (f *Fix) Globs() []string {
	if len(f.FilePatterns) == 0 {
		return []string{"**/*"}
	}
	return f.FilePatterns
}

// 📚 Builtins returns the stock fix catalog. Each call returns fresh
// values, so callers can edit their copies freely.
//
// Patches are whole-line edits: constructs that occupy a full line are
// rewritten directly, while problems embedded inside a longer line get a
// marker comment inserted next to them instead of a blind rewrite.
func Builtins() []*Fix {
	return []*Fix{
		{
			ID:           "fix_sql_injection",
			Name:         "Flag SQL string interpolation",
			Description:  "Marks query calls built with % interpolation so they can be moved to parameterized queries",
			Category:     "security",
			Severity:     SeverityCritical,
			FilePatterns: []string{"**/*.py"},
			Patches: []patch.Spec{
				{
					Type:    string(patch.KindInsertBeforePattern),
					Pattern: `execute\(.*%`,
					Code:    []string{"# FIXME: use parameterized queries, not string interpolation"},
				},
			},
		},
		{
			ID:           "fix_hardcoded_secrets",
			Name:         "Flag hardcoded credentials",
			Description:  "Marks assignments of literal passwords, tokens, and API keys for extraction into the environment",
			Category:     "security",
			Severity:     SeverityCritical,
			FilePatterns: []string{"**/*.py"},
			Patches: []patch.Spec{
				{
					Type:    string(patch.KindInsertBeforePattern),
					Pattern: `(?i)(password|passwd|secret|api_key|token)\s*=\s*['"][^'"]+['"]`,
					Code:    []string{"# FIXME: move this credential into an environment variable"},
				},
			},
		},
		{
			ID:           "fix_ssl_verification",
			Name:         "Restore TLS verification",
			Description:  "Comments out urllib3 warning suppression and flags requests made with verify=False",
			Category:     "security",
			Severity:     SeverityHigh,
			FilePatterns: []string{"**/*.py"},
			Patches: []patch.Spec{
				{
					Type:    string(patch.KindReplacePatternAll),
					Pattern: `^\s*urllib3\.disable_warnings\(.*\)\s*$`,
					Code:    []string{"# urllib3.disable_warnings()  # FIXME: do not silence TLS warnings"},
				},
				{
					Type:    string(patch.KindInsertBeforePattern),
					Pattern: `verify\s*=\s*False`,
					Code:    []string{"# FIXME: TLS verification is disabled on the next line"},
				},
			},
		},
		{
			ID:           "fix_xss_vulnerability",
			Name:         "Flag innerHTML assignment",
			Description:  "Marks innerHTML sinks that allow script injection; textContent is the safe default",
			Category:     "security",
			Severity:     SeverityHigh,
			FilePatterns: []string{"**/*.js", "**/*.ts"},
			Patches: []patch.Spec{
				{
					Type:    string(patch.KindInsertBeforePattern),
					Pattern: `\.innerHTML\s*=`,
					Code:    []string{"// FIXME: assigning to innerHTML allows script injection, prefer textContent"},
				},
			},
		},
		{
			ID:           "add_input_validation",
			Name:         "Flag unvalidated request handlers",
			Description:  "Marks request handler entry points that use parameters without validation",
			Category:     "security",
			Severity:     SeverityMedium,
			FilePatterns: []string{"**/*.py"},
			Patches: []patch.Spec{
				{
					Type:    string(patch.KindInsertAfterPattern),
					Pattern: `def \w+\(request[,)]`,
					Code:    []string{"# FIXME: validate request parameters before use"},
				},
			},
		},
		{
			ID:           "fix_bare_except",
			Name:         "Narrow bare except clauses",
			Description:  "Rewrites bare except: to except Exception: so KeyboardInterrupt and SystemExit pass through",
			Category:     "code_quality",
			Severity:     SeverityMedium,
			FilePatterns: []string{"**/*.py"},
			Patches: []patch.Spec{
				{
					Type:    string(patch.KindReplacePatternAll),
					Pattern: `^\s*except\s*:\s*$`,
					Code:    []string{"except Exception:"},
				},
			},
		},
		{
			ID:           "fix_mutable_default_args",
			Name:         "Flag mutable default arguments",
			Description:  "Marks function signatures whose defaults are lists or dicts shared across calls",
			Category:     "code_quality",
			Severity:     SeverityMedium,
			FilePatterns: []string{"**/*.py"},
			Patches: []patch.Spec{
				{
					Type:    string(patch.KindInsertBeforePattern),
					Pattern: `def \w+\([^)]*=\s*(\[\]|\{\})`,
					Code:    []string{"# FIXME: mutable default argument is shared across calls"},
				},
			},
		},
		{
			ID:           "add_encoding_header",
			Name:         "Add encoding header",
			Description:  "Inserts the utf-8 coding header at the top of the file",
			Category:     "code_quality",
			Severity:     SeverityLow,
			FilePatterns: []string{"**/*.py"},
			Patches: []patch.Spec{
				{
					Type:       string(patch.KindInsertAtLine),
					LineNumber: 1,
					Code:       []string{"# -*- coding: utf-8 -*-"},
				},
			},
		},
		{
			ID:           "avoid_readlines",
			Name:         "Flag readlines loads",
			Description:  "Marks readlines() calls that load whole files into memory; iterating the file object streams instead",
			Category:     "performance",
			Severity:     SeverityLow,
			FilePatterns: []string{"**/*.py"},
			Patches: []patch.Spec{
				{
					Type:    string(patch.KindInsertBeforePattern),
					Pattern: `\.readlines\(\)`,
					Code:    []string{"# FIXME: iterate the file object instead of loading every line"},
				},
			},
		},
		{
			ID:           "replace_imp_module",
			Name:         "Replace deprecated imp import",
			Description:  "Rewrites import imp to import importlib; imp has been removed from the standard library",
			Category:     "migration",
			Severity:     SeverityMedium,
			FilePatterns: []string{"**/*.py"},
			Patches: []patch.Spec{
				{
					Type:    string(patch.KindReplacePatternAll),
					Pattern: `^import imp$`,
					Code:    []string{"import importlib"},
				},
			},
		},
	}
}
