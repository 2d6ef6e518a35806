// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"fmt"
	"strings"

	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/env"
	"github.com/kusari-oss/justbuilt/internal/core/parameters"
	"github.com/kusari-oss/justbuilt/internal/justbuilt"
	"github.com/spf13/cobra"
)

func newGenerateCmd(e *env.Env) *cobra.Command {
	var (
		model         string
		params        []string
		workspace     string
		output        string
		skipInference bool
	)

	generateCmd := &cobra.Command{
		Use:   "generate <request>",
		Short: "Generate a step plan from a request",
		Long: `Generate a step plan for a natural language request such as
"Create a React todo app". The plan becomes the project's current plan
unless --output is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := strings.Join(args, " ")

			extraParams, err := parameters.ParseAssignments(params)
			if err != nil {
				return err
			}

			if model == "" {
				model = e.Config.ModelID()
			}
			if workspace == "" {
				workspace = e.ProjectDir
			}

			p, err := justbuilt.NewPlanner(e.Config, justbuilt.GenerateOptions{
				WorkspaceDir:  workspace,
				ExtraParams:   extraParams,
				SkipInference: skipInference,
			}, e.Logger)
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = e.PlanFile()
			}

			plan, err := justbuilt.GenerateAndSave(cmd.Context(), p, request, model, path)
			if err != nil {
				return err
			}
			if output == "" {
				if err := e.RecordState(plan, ""); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plan saved to %s\n", path)
			printPlan(out, plan)
			return nil
		},
	}

	generateCmd.Flags().StringVarP(&model, "model", "m", "", "Planning model (defaults to the configured model)")
	generateCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Extra parameter as key=value (repeatable)")
	generateCmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Directory inspected for project parameters (defaults to the project directory)")
	generateCmd.Flags().StringVarP(&output, "output", "o", "", "Write the plan to this file instead of the project")
	generateCmd.Flags().BoolVar(&skipInference, "skip-inference", false, "Do not inspect the workspace for parameters")

	return generateCmd
}
