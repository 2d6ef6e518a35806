// SPDX-License-Identifier: Apache-2.0

package step

import (
	"fmt"
	"strconv"

	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/env"
	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/executor"
	"github.com/spf13/cobra"
)

// NewStepCmd creates the step command group
func NewStepCmd(e *env.Env) *cobra.Command {
	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "Edit and run single steps of the current plan",
	}

	stepCmd.AddCommand(newAddCmd(e))
	stepCmd.AddCommand(newEditCmd(e))
	stepCmd.AddCommand(newRemoveCmd(e))
	stepCmd.AddCommand(newRunCmd(e))
	return stepCmd
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid step id %q", arg)
	}
	return id, nil
}

func newAddCmd(e *env.Env) *cobra.Command {
	var (
		title       string
		description string
		dependsOn   []int
	)

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Append a step to the current plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := e.LoadPlan()
			if err != nil {
				return err
			}

			step, err := models.NewStep(plan.NextID(), title, description, dependsOn...)
			if err != nil {
				return err
			}
			if err := plan.AddStep(step); err != nil {
				return err
			}
			if err := e.SavePlan(plan, ""); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added step %d: %s\n", step.ID, step.Title)
			return nil
		},
	}

	addCmd.Flags().StringVarP(&title, "title", "t", "", "Step title")
	addCmd.Flags().StringVarP(&description, "description", "d", "", "Step description")
	addCmd.Flags().IntSliceVar(&dependsOn, "depends-on", nil, "Ids of steps that must complete first")
	_ = addCmd.MarkFlagRequired("title")

	return addCmd
}

func newEditCmd(e *env.Env) *cobra.Command {
	var title, description string

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title or description of a step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var edit models.StepEdit
			if cmd.Flags().Changed("title") {
				edit.Title = &title
			}
			if cmd.Flags().Changed("description") {
				edit.Description = &description
			}
			if edit.Title == nil && edit.Description == nil {
				return fmt.Errorf("nothing to edit, use --title or --description")
			}

			plan, err := e.LoadPlan()
			if err != nil {
				return err
			}
			if err := plan.EditStep(id, edit); err != nil {
				return err
			}
			if err := e.SavePlan(plan, ""); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated step %d\n", id)
			return nil
		},
	}

	editCmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	editCmd.Flags().StringVarP(&description, "description", "d", "", "New description")

	return editCmd
}

func newRemoveCmd(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a step from the current plan",
		Long: `Remove a step. Steps depending on it keep the dependency and will
not run until it is edited out or the plan is regenerated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			plan, err := e.LoadPlan()
			if err != nil {
				return err
			}
			if err := plan.RemoveStep(id); err != nil {
				return err
			}
			if err := e.SavePlan(plan, ""); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed step %d\n", id)
			for stepID, deps := range models.DanglingDependencies(plan) {
				for _, dep := range deps {
					if dep == id {
						fmt.Fprintf(out, "Warning: step %d still depends on step %d\n", stepID, id)
					}
				}
			}
			return nil
		},
	}
}

func newRunCmd(e *env.Env) *cobra.Command {
	var showCode bool

	runCmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Run a single step, retrying it if it failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			plan, err := e.LoadPlan()
			if err != nil {
				return err
			}

			exec, cleanup, err := e.Executor(cmd.OutOrStdout(), showCode, true)
			if err != nil {
				return err
			}
			defer cleanup()

			outcome, err := exec.RunStep(cmd.Context(), plan, id)
			if err != nil {
				return err
			}

			switch outcome.Kind {
			case executor.OutcomeAlreadyCompleted:
				fmt.Fprintf(cmd.OutOrStdout(), "Step %d is already completed\n", id)
				return nil
			case executor.OutcomeDependenciesUnmet:
				// The reporter already printed which steps are missing
				return nil
			}

			if err := e.SavePlan(plan, outcome.RunID); err != nil {
				return err
			}
			if outcome.Kind == executor.OutcomeFailed {
				return outcome.Err
			}
			return nil
		},
	}

	runCmd.Flags().BoolVar(&showCode, "show-code", false, "Print the generated code")

	return runCmd
}
