// Package commands wires the patchrc subcommands to the library packages.
package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/walteh/patchrc/pkg/patch"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// planFile is the on-disk shape of a patch plan: a list of patch specs
// under a single "patches" key, in JSON or YAML.
type planFile struct {
	Patches []patch.Spec `json:"patches" yaml:"patches"`
}

// loadPlan reads a plan file and compiles its specs into requests. The
// format follows the file extension; anything that is not YAML is read
// as JSON.
func loadPlan(path string) ([]patch.Request, []patch.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Errorf("reading plan file: %w", err)
	}

	var plan planFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &plan); err != nil {
			return nil, nil, errors.Errorf("parsing YAML plan %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, nil, errors.Errorf("parsing JSON plan %s: %w", path, err)
		}
	}

	if len(plan.Patches) == 0 {
		return nil, nil, errors.Errorf("plan %s contains no patches", path)
	}

	requests, err := patch.CompileSpecs(plan.Patches)
	if err != nil {
		return nil, nil, errors.Errorf("compiling plan %s: %w", path, err)
	}
	return requests, plan.Patches, nil
}
