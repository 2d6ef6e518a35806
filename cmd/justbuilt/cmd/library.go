// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/env"
	"github.com/kusari-oss/justbuilt/internal/core/config"
	"github.com/kusari-oss/justbuilt/internal/core/format"
	"github.com/kusari-oss/justbuilt/internal/justbuilt"
	"github.com/spf13/cobra"
)

func newLibraryCmd(e *env.Env) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect the blueprint, snippet and scan rule library",
	}

	var jsonOutput bool
	diagnoseCmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Show which library files are in use and whether they are valid",
		Long: `Show where blueprints.yaml, snippets.yaml and scan_rules.yaml are loaded
from, either the library directory or the built-in defaults, and validate them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := justbuilt.NewLibraryManager(e.Config, e.Logger)
			out := cmd.OutOrStdout()

			if jsonOutput {
				text, err := format.FormatData(manager.Diagnostics(config.HomeEnvVar), false)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, strings.TrimRight(text, "\n"))
				return nil
			}

			info := manager.Inspect()
			fmt.Fprintf(out, "Library: %s (from %s, exists: %v)\n", info.Path, info.Source, info.Exists)
			for _, f := range info.Files {
				mark := "✓"
				if !f.Valid {
					mark = "✗"
				}
				fmt.Fprintf(out, "%s %s: %s\n", mark, f.Name, f.Source)
				if f.Error != "" {
					fmt.Fprintf(out, "    %s\n", f.Error)
				}
			}

			if !info.Valid() {
				return fmt.Errorf("library at %s is not valid", info.Path)
			}
			return nil
		},
	}
	diagnoseCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	libraryCmd.AddCommand(diagnoseCmd)
	return libraryCmd
}
