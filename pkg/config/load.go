package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse decodes the file contents over the defaults
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// DefaultFileNames are the config files Discover looks for, in order.
var DefaultFileNames = []string{
	".patchrc.json",
	".patchrc.yaml",
	".patchrc.yml",
	".patchrc.hcl",
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Discover looks for a config file in dir, trying DefaultFileNames in
// order. When none exists it returns the defaults and an empty path.
func Discover(ctx context.Context, dir string) (*Config, string, error) {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := Load(ctx, path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("no config file found, using defaults")
	return Default(), "", nil
}

// 💾 Save writes the configuration back to path. The format follows the
// file extension; HCL files are read-only and must be edited by hand.
func (cfg *Config) Save(ctx context.Context, path string) error {
	if err := cfg.Validate(); err != nil {
		return errors.Errorf("validating config: %w", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	case ".hcl":
		return errors.Errorf("saving HCL config is not supported, edit %s directly", path)
	default:
		return errors.Errorf("no writer for config file: %s", path)
	}
	if err != nil {
		return errors.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Errorf("writing config file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("saved configuration")
	return nil
}

// 🔧 JSONParser implements the Parser interface for JSON files
type JSONParser struct{}

func init() {
	Register(&JSONParser{})
}

func (p *JSONParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".json")
}

func (p *JSONParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	cfg := Default()
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return cfg, nil
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return cfg, nil
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func init() {
	Register(&HCLParser{})
}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// hclConfig is the decode shape for HCL: every attribute is optional and
// a pointer, so absent keys keep their defaults.
type hclConfig struct {
	AutoBackup             *bool   `hcl:"auto_backup,optional"`
	ConfirmApplications    *bool   `hcl:"confirm_applications,optional"`
	MaxPreviewLines        *int    `hcl:"max_preview_lines,optional"`
	EnableSyntaxHints      *bool   `hcl:"enable_syntax_hints,optional"`
	BackupKeepDays         *int    `hcl:"backup_keep_days,optional"`
	ShowHiddenFiles        *bool   `hcl:"show_hidden_files,optional"`
	EnableAdvancedFeatures *bool   `hcl:"enable_advanced_features,optional"`
	BackupRotationCount    *int    `hcl:"backup_rotation_count,optional"`
	BackupDir              *string `hcl:"backup_dir,optional"`
	DiffContextLines       *int    `hcl:"diff_context_lines,optional"`
	BatchWorkers           *int    `hcl:"batch_workers,optional"`
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	home, _ := os.UserHomeDir()
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"home": cty.StringVal(home),
		},
	}

	var raw hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := Default()
	overlayBool(&cfg.AutoBackup, raw.AutoBackup)
	overlayBool(&cfg.ConfirmApplications, raw.ConfirmApplications)
	overlayInt(&cfg.MaxPreviewLines, raw.MaxPreviewLines)
	overlayBool(&cfg.EnableSyntaxHints, raw.EnableSyntaxHints)
	overlayInt(&cfg.BackupKeepDays, raw.BackupKeepDays)
	overlayBool(&cfg.ShowHiddenFiles, raw.ShowHiddenFiles)
	overlayBool(&cfg.EnableAdvancedFeatures, raw.EnableAdvancedFeatures)
	overlayInt(&cfg.BackupRotationCount, raw.BackupRotationCount)
	overlayString(&cfg.BackupDir, raw.BackupDir)
	overlayInt(&cfg.DiffContextLines, raw.DiffContextLines)
	overlayInt(&cfg.BatchWorkers, raw.BatchWorkers)
	return cfg, nil
}

func overlayBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func overlayInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func overlayString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
