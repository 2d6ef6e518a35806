// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/config"
	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/env"
	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/plan"
	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/step"
	"github.com/kusari-oss/justbuilt/internal/version"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the justbuilt command tree
func NewRootCmd() *cobra.Command {
	e := &env.Env{}

	rootCmd := &cobra.Command{
		Use:   "justbuilt",
		Short: "Plan and build software projects step by step",
		Long: `Justbuilt turns a natural language request into an ordered plan of
development steps and runs them one by one, generating code for every step
and tracking progress as it goes.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version.Version, version.Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.Setup(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&e.ConfigFile, "config", "", "config file (default is ~/.justbuilt/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&e.ProjectDir, "project-dir", "", "project directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&e.LibraryPath, "library-path", "", "directory with blueprints.yaml and snippets.yaml overriding the built-in defaults")
	rootCmd.PersistentFlags().BoolVarP(&e.Verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(plan.NewPlanCmd(e))
	rootCmd.AddCommand(step.NewStepCmd(e))
	rootCmd.AddCommand(config.NewConfigCmd(e))
	rootCmd.AddCommand(newModelsCmd(e))
	rootCmd.AddCommand(newTimelineCmd(e))
	rootCmd.AddCommand(newLibraryCmd(e))
	rootCmd.AddCommand(newBlueprintsCmd(e))
	rootCmd.AddCommand(newScanCmd(e))

	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}
