// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/env"
	coreconfig "github.com/kusari-oss/justbuilt/internal/core/config"
	"github.com/kusari-oss/justbuilt/internal/core/format"
	"github.com/kusari-oss/justbuilt/internal/defaults"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command group
func NewConfigCmd(e *env.Env) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize the configuration",
	}

	configCmd.AddCommand(newShowCmd(e))
	configCmd.AddCommand(newInitCmd(e))
	return configCmd
}

func newShowCmd(e *env.Env) *cobra.Command {
	var asJSON bool

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := format.FormatData(e.Config, !asJSON)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(text, "\n"))
			return nil
		},
	}

	showCmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return showCmd
}

func newInitCmd(e *env.Env) *cobra.Command {
	var (
		force     bool
		remoteURL string
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the global configuration and copy the default blueprints and snippets",
		Long: `Write ~/.justbuilt/config.yaml with the effective configuration and copy
the built-in blueprints and snippets into the library directory, where they
can be customized. Existing files are kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			globalPath, err := coreconfig.GlobalConfigFilePath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(globalPath); err == nil && !force {
				fmt.Fprintf(out, "Keeping existing configuration %s\n", globalPath)
			} else {
				if remoteURL != "" {
					e.Config.Defaults.DefaultsURL = remoteURL
					e.Config.Defaults.UseRemote = true
				}
				if _, err := coreconfig.SaveGlobalConfig(e.Config); err != nil {
					return err
				}
				fmt.Fprintf(out, "Configuration written to %s\n", globalPath)
			}

			defaultsConfig := e.Config.Defaults
			if remoteURL != "" {
				defaultsConfig.DefaultsURL = remoteURL
				defaultsConfig.UseRemote = true
			}
			manager := defaults.NewManager(defaultsConfig, e.Logger)
			usedRemote, err := manager.CopyDefaults(e.Config.LibraryPath, force)
			if err != nil {
				return fmt.Errorf("error copying defaults: %w", err)
			}

			fmt.Fprintf(out, "Library directory: %s\n", e.Config.LibraryPath)
			fmt.Fprintf(out, "Used remote defaults: %v\n", usedRemote)
			return nil
		},
	}

	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")
	initCmd.Flags().StringVar(&remoteURL, "remote-url", "", "Fetch defaults from this URL (expects manifest.json)")

	return initCmd
}
