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

// Package config holds patchrc's user settings. A config file can be
// JSON, YAML, or HCL; format support is pluggable through a parser
// registry, and every format decodes over the same defaults so partial
// files are fine.
package config

import (
	"fmt"
	"sort"
	"strconv"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrUnknownKey is returned when getting or setting a key that does
	// not exist.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidValue is returned when a value cannot be parsed for its
	// key or falls outside the key's allowed range.
	ErrInvalidValue = errors.New("invalid config value")
)

// 📚 Config represents the complete configuration.
type Config struct {
	AutoBackup             bool   `json:"auto_backup" yaml:"auto_backup"`
	ConfirmApplications    bool   `json:"confirm_applications" yaml:"confirm_applications"`
	MaxPreviewLines        int    `json:"max_preview_lines" yaml:"max_preview_lines"`
	EnableSyntaxHints      bool   `json:"enable_syntax_hints" yaml:"enable_syntax_hints"`
	BackupKeepDays         int    `json:"backup_keep_days" yaml:"backup_keep_days"`
	ShowHiddenFiles        bool   `json:"show_hidden_files" yaml:"show_hidden_files"`
	EnableAdvancedFeatures bool   `json:"enable_advanced_features" yaml:"enable_advanced_features"`
	BackupRotationCount    int    `json:"backup_rotation_count" yaml:"backup_rotation_count"`
	BackupDir              string `json:"backup_dir" yaml:"backup_dir"`
	DiffContextLines       int    `json:"diff_context_lines" yaml:"diff_context_lines"`
	BatchWorkers           int    `json:"batch_workers" yaml:"batch_workers"`
}

// 🏭 Default returns the settings used when no config file exists.
func Default() *Config {
	return &Config{
		AutoBackup:             true,
		ConfirmApplications:    true,
		MaxPreviewLines:        50,
		EnableSyntaxHints:      true,
		BackupKeepDays:         30,
		ShowHiddenFiles:        false,
		EnableAdvancedFeatures: false,
		BackupRotationCount:    10,
		BackupDir:              ".patchrc-backups",
		DiffContextLines:       3,
		BatchWorkers:           4,
	}
}

// intRange bounds an integer key, inclusive on both ends.
type intRange struct {
	min, max int
}

func (r intRange) check(key string, v int) error {
	if v < r.min || v > r.max {
		return errors.Errorf("%s must be between %d and %d, got %d: %w", key, r.min, r.max, v, ErrInvalidValue)
	}
	return nil
}

var intRanges = map[string]intRange{
	"max_preview_lines":     {10, 200},
	"backup_keep_days":      {1, 365},
	"backup_rotation_count": {1, 100},
	"diff_context_lines":    {0, 10},
	"batch_workers":         {1, 32},
}

// 🔍 Validate checks every bounded key, so a hand-edited file cannot
// smuggle in out-of-range values.
func (cfg *Config) Validate() error {
	checks := []struct {
		key   string
		value int
	}{
		{"max_preview_lines", cfg.MaxPreviewLines},
		{"backup_keep_days", cfg.BackupKeepDays},
		{"backup_rotation_count", cfg.BackupRotationCount},
		{"diff_context_lines", cfg.DiffContextLines},
		{"batch_workers", cfg.BatchWorkers},
	}
	for _, ck := range checks {
		if err := intRanges[ck.key].check(ck.key, ck.value); err != nil {
			return err
		}
	}
	if cfg.BackupDir == "" {
		return errors.Errorf("backup_dir must not be empty: %w", ErrInvalidValue)
	}
	return nil
}

// Keys lists every settable key, sorted.
func Keys() []string {
	keys := []string{
		"auto_backup",
		"confirm_applications",
		"max_preview_lines",
		"enable_syntax_hints",
		"backup_keep_days",
		"show_hidden_files",
		"enable_advanced_features",
		"backup_rotation_count",
		"backup_dir",
		"diff_context_lines",
		"batch_workers",
	}
	sort.Strings(keys)
	return keys
}

// 🔍 Get returns the current value of a key.
func (cfg *Config) Get(key string) (any, error) {
	switch key {
	case "auto_backup":
		return cfg.AutoBackup, nil
	case "confirm_applications":
		return cfg.ConfirmApplications, nil
	case "max_preview_lines":
		return cfg.MaxPreviewLines, nil
	case "enable_syntax_hints":
		return cfg.EnableSyntaxHints, nil
	case "backup_keep_days":
		return cfg.BackupKeepDays, nil
	case "show_hidden_files":
		return cfg.ShowHiddenFiles, nil
	case "enable_advanced_features":
		return cfg.EnableAdvancedFeatures, nil
	case "backup_rotation_count":
		return cfg.BackupRotationCount, nil
	case "backup_dir":
		return cfg.BackupDir, nil
	case "diff_context_lines":
		return cfg.DiffContextLines, nil
	case "batch_workers":
		return cfg.BatchWorkers, nil
	default:
		return nil, errors.Errorf("%q: %w", key, ErrUnknownKey)
	}
}

// 🔧 Set parses raw for the key's type, validates it, and stores it.
func (cfg *Config) Set(key, raw string) error {
	switch key {
	case "auto_backup":
		return setBool(&cfg.AutoBackup, key, raw)
	case "confirm_applications":
		return setBool(&cfg.ConfirmApplications, key, raw)
	case "enable_syntax_hints":
		return setBool(&cfg.EnableSyntaxHints, key, raw)
	case "show_hidden_files":
		return setBool(&cfg.ShowHiddenFiles, key, raw)
	case "enable_advanced_features":
		return setBool(&cfg.EnableAdvancedFeatures, key, raw)
	case "max_preview_lines":
		return setInt(&cfg.MaxPreviewLines, key, raw)
	case "backup_keep_days":
		return setInt(&cfg.BackupKeepDays, key, raw)
	case "backup_rotation_count":
		return setInt(&cfg.BackupRotationCount, key, raw)
	case "diff_context_lines":
		return setInt(&cfg.DiffContextLines, key, raw)
	case "batch_workers":
		return setInt(&cfg.BatchWorkers, key, raw)
	case "backup_dir":
		if raw == "" {
			return errors.Errorf("backup_dir must not be empty: %w", ErrInvalidValue)
		}
		cfg.BackupDir = raw
		return nil
	default:
		return errors.Errorf("%q: %w", key, ErrUnknownKey)
	}
}

// 📝 Describe renders every key and its current value, sorted by key.
func (cfg *Config) Describe() []string {
	var out []string
	for _, key := range Keys() {
		v, _ := cfg.Get(key)
		out = append(out, fmt.Sprintf("%s = %v", key, v))
	}
	return out
}

func setBool(dst *bool, key, raw string) error {
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return errors.Errorf("%s expects true or false, got %q: %w", key, raw, ErrInvalidValue)
	}
	*dst = v
	return nil
}

func setInt(dst *int, key, raw string) error {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return errors.Errorf("%s expects a number, got %q: %w", key, raw, ErrInvalidValue)
	}
	if r, ok := intRanges[key]; ok {
		if err := r.check(key, v); err != nil {
			return err
		}
	}
	*dst = v
	return nil
}
