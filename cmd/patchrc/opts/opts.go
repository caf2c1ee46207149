package opts

import (
	"github.com/walteh/patchrc/pkg/backup"
	"github.com/walteh/patchrc/pkg/batch"
	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/fixes"
	"github.com/walteh/patchrc/pkg/history"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/nav"
	"github.com/walteh/patchrc/pkg/patch"
	"github.com/walteh/patchrc/pkg/ui"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Config     *config.Config
	ConfigPath string // discovered or flag-given config file; empty when running on defaults
	FixesDir   string // directory for user fix bundles, loaded on top of the builtins

	Matcher    *match.Matcher
	Engine     *patch.Engine
	Backups    *backup.Manager
	Runner     *batch.Runner
	Library    *fixes.Library
	Applier    *fixes.Applier
	History    *history.Log
	Navigator  *nav.Navigator
	UserLogger *ui.UserLogger
}

// TODO(dr.methodical): 🧪 Add tests for option validation
