// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"fmt"
	"io"
	"strings"

	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/env"
	"github.com/kusari-oss/justbuilt/internal/core/format"
	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/spf13/cobra"
)

func newShowCmd(e *env.Env) *cobra.Command {
	var asJSON, asYAML bool

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current plan and its progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := e.LoadPlan()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON || asYAML {
				text, err := format.FormatData(plan, asYAML)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, strings.TrimRight(text, "\n"))
				return nil
			}

			printPlan(out, plan)
			return nil
		},
	}

	showCmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan as JSON")
	showCmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the plan as YAML")
	showCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	return showCmd
}

var statusMarks = map[models.StepStatus]string{
	models.StatusPending:   " ",
	models.StatusRunning:   "~",
	models.StatusCompleted: "✓",
	models.StatusFailed:    "✗",
}

func printPlan(out io.Writer, plan *models.Plan) {
	fmt.Fprintf(out, "Plan %s\n", plan.ID)
	fmt.Fprintf(out, "Request: %s\n", plan.Request)
	if plan.Model != "" {
		fmt.Fprintf(out, "Model: %s\n", plan.Model)
	}
	if plan.Blueprint != "" {
		fmt.Fprintf(out, "Blueprint: %s\n", plan.Blueprint)
	}
	fmt.Fprintf(out, "Progress: %d/%d steps (%.0f%%)\n\n", plan.CompletedCount(), len(plan.Steps), plan.ProgressPercent())

	for _, step := range plan.Steps {
		fmt.Fprintf(out, "[%s] %d. %s", statusMarks[step.Status], step.ID, step.Title)
		if len(step.Dependencies) > 0 {
			deps := make([]string, len(step.Dependencies))
			for i, d := range step.Dependencies {
				deps[i] = fmt.Sprintf("%d", d)
			}
			fmt.Fprintf(out, " (after %s)", strings.Join(deps, ", "))
		}
		if step.EstimatedTime != "" {
			fmt.Fprintf(out, " ~%s", step.EstimatedTime)
		}
		fmt.Fprintln(out)
		if step.Description != "" {
			fmt.Fprintf(out, "      %s\n", step.Description)
		}
		if step.Status == models.StatusFailed && step.Error != "" {
			fmt.Fprintf(out, "      error: %s\n", step.Error)
		}
	}
}
