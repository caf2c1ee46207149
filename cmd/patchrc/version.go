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

package main

import (
	"fmt"
	"runtime"
	runtimedebug "runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// 🚀 VersionInfo is the build metadata baked into the binary.
type VersionInfo struct {
	Version   string
	GoVersion string
	Platform  string
	Revision  string
	BuiltAt   string
	Modified  bool
}

// GetVersionInfo reads the module version and VCS details from the
// binary's build info. Binaries built outside a VCS checkout report
// "dev" with empty VCS fields.
func GetVersionInfo() *VersionInfo {
	info := &VersionInfo{
		Version:   "dev",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	buildInfo, ok := runtimedebug.ReadBuildInfo()
	if !ok {
		return info
	}

	info.Version = buildInfo.Main.Version
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Revision = setting.Value
		case "vcs.time":
			info.BuiltAt = setting.Value
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}

	return info
}

func (v *VersionInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚀 patchrc version info:\n")
	fmt.Fprintf(&b, "Version:   %s\n", v.Version)
	if v.Revision != "" {
		revision := v.Revision
		if v.Modified {
			revision += " (modified)"
		}
		fmt.Fprintf(&b, "Revision:  %s\n", revision)
	}
	if v.BuiltAt != "" {
		fmt.Fprintf(&b, "Built:     %s\n", v.BuiltAt)
	}
	fmt.Fprintf(&b, "Go:        %s\n", v.GoVersion)
	fmt.Fprintf(&b, "Platform:  %s\n", v.Platform)
	return b.String()
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(GetVersionInfo().String())
		},
	}
}
