package commands

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// NewConfigCmd creates a new config command with its subcommands
func NewConfigCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change settings",
		Long: `Config reads and writes the patchrc settings file.
Settings are discovered from .patchrc.json, .patchrc.yaml, or
.patchrc.hcl in the working directory; without one, defaults apply.`,
	}

	cmd.AddCommand(
		newConfigListCmd(opts),
		newConfigGetCmd(opts),
		newConfigSetCmd(opts),
		newConfigInitCmd(opts),
		newConfigResetCmd(opts),
	)

	return cmd
}

// newConfigListCmd prints every setting and its current value
func newConfigListCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every setting and its current value",
		RunE: func(cmd *cobra.Command, args []string) error {
			source := opts.ConfigPath
			if source == "" {
				source = "defaults (no config file)"
			}
			fmt.Printf("⚙️  Settings from %s\n", source)
			for _, line := range opts.Config.Describe() {
				fmt.Printf("   %s\n", line)
			}
			return nil
		},
	}
}

// newConfigGetCmd prints one setting
func newConfigGetCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value of one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := opts.Config.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%v\n", v)
			return nil
		},
	}
}

// newConfigSetCmd changes one setting and persists it
func newConfigSetCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change a setting and save the config file",
		Long: `Set updates one setting.
It will:
1. Parse and validate the value for the key's type
2. Write the updated config back to its file
3. Create .patchrc.json when no config file exists yet`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := opts.Config.Set(args[0], args[1]); err != nil {
				return err
			}

			path := opts.ConfigPath
			if path == "" {
				path = config.DefaultFileNames[0]
			}
			if err := opts.Config.Save(ctx, path); err != nil {
				return errors.Errorf("saving config: %w", err)
			}

			opts.UserLogger.LogSummary(fmt.Sprintf("Set %s = %s in %s", args[0], args[1], path))

			return nil
		},
	}
}

// newConfigResetCmd puts every setting back to its default
func newConfigResetCmd(opts *opts.RootOpts) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset every setting to its default",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path := opts.ConfigPath
			if path == "" {
				path = config.DefaultFileNames[0]
			}

			if !yes {
				ok, err := pterm.DefaultInteractiveConfirm.Show(fmt.Sprintf("Overwrite %s with the defaults?", path))
				if err != nil {
					return errors.Errorf("reading confirmation: %w", err)
				}
				if !ok {
					opts.UserLogger.LogSummary("Settings left untouched")
					return nil
				}
			}

			if err := config.Default().Save(ctx, path); err != nil {
				return errors.Errorf("saving config: %w", err)
			}
			*opts.Config = *config.Default()

			opts.UserLogger.LogSummary(fmt.Sprintf("Reset %s to the defaults", path))

			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// newConfigInitCmd writes a fresh default config file
func newConfigInitCmd(opts *opts.RootOpts) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var path string
			switch format {
			case "json":
				path = ".patchrc.json"
			case "yaml":
				path = ".patchrc.yaml"
			default:
				return errors.Errorf("unsupported config format %q (json or yaml)", format)
			}

			if _, err := os.Stat(path); err == nil {
				return errors.Errorf("%s already exists", path)
			}

			if err := config.Default().Save(ctx, path); err != nil {
				return errors.Errorf("writing config: %w", err)
			}

			opts.UserLogger.LogSummary(fmt.Sprintf("Wrote default settings to %s", path))

			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "config file format (json or yaml)")

	return cmd
}

// TODO(dr.methodical): 🧪 Add tests for config subcommands
