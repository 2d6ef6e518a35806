// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/env"
	"github.com/kusari-oss/justbuilt/internal/justbuilt"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/planner"
	"github.com/spf13/cobra"
)

func newBlueprintsCmd(e *env.Env) *cobra.Command {
	blueprintsCmd := &cobra.Command{
		Use:     "blueprints",
		Aliases: []string{"templates"},
		Short:   "Browse the plan blueprints",
	}

	var filter planner.BlueprintFilter
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the available blueprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter.Difficulty != "" && !slices.Contains(planner.Difficulties, strings.ToLower(filter.Difficulty)) {
				return fmt.Errorf("unknown difficulty %q, expected one of %s", filter.Difficulty, strings.Join(planner.Difficulties, ", "))
			}

			blueprints, err := justbuilt.LoadBlueprints(e.Config, e.Logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			matched := planner.FilterBlueprints(blueprints, filter)
			if len(matched) == 0 {
				fmt.Fprintln(out, "No blueprints match")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "NAME", "CATEGORY", "DIFFICULTY", "STEPS", "EST. TIME", "TAGS")
			for _, b := range matched {
				t.Row(b.ID, b.DisplayName(), orDash(b.Category), orDash(b.Difficulty),
					fmt.Sprintf("%d", len(b.Steps)), formatEstimate(b.EstimatedTime()), strings.Join(b.Tags, ", "))
			}
			_, err = fmt.Fprintln(out, t.Render())
			return err
		},
	}
	listCmd.Flags().StringVar(&filter.Category, "category", "", "Only list blueprints of this category")
	listCmd.Flags().StringVar(&filter.Difficulty, "difficulty", "", "Only list blueprints of this difficulty (beginner, intermediate, advanced)")
	listCmd.Flags().StringVar(&filter.Search, "search", "", "Only list blueprints whose id, name, description or tags contain this text")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the steps and parameters of a blueprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blueprints, err := justbuilt.LoadBlueprints(e.Config, e.Logger)
			if err != nil {
				return err
			}
			b, ok := planner.FindBlueprint(blueprints, args[0])
			if !ok {
				return fmt.Errorf("blueprint %q not found", args[0])
			}
			printBlueprint(cmd.OutOrStdout(), b)
			return nil
		},
	}

	blueprintsCmd.AddCommand(listCmd, showCmd)
	return blueprintsCmd
}

func printBlueprint(out io.Writer, b planner.Blueprint) {
	fmt.Fprintf(out, "%s (%s)\n", b.DisplayName(), b.ID)
	if b.Description != "" {
		fmt.Fprintf(out, "%s\n", b.Description)
	}
	if b.Category != "" || b.Difficulty != "" {
		fmt.Fprintf(out, "Category: %s, difficulty: %s\n", orDash(b.Category), orDash(b.Difficulty))
	}
	if len(b.Tags) > 0 {
		fmt.Fprintf(out, "Tags: %s\n", strings.Join(b.Tags, ", "))
	}
	if b.Condition != "" {
		fmt.Fprintf(out, "Condition: %s\n", b.Condition)
	}
	if est := b.EstimatedTime(); est > 0 {
		fmt.Fprintf(out, "Estimated time: %s\n", formatEstimate(est))
	}

	fmt.Fprintln(out, "\nSteps:")
	for i, s := range b.Steps {
		fmt.Fprintf(out, "  %d. %s", i+1, s.Title)
		if len(s.DependsOn) > 0 {
			fmt.Fprintf(out, " (after %s)", strings.Join(s.DependsOn, ", "))
		}
		fmt.Fprintln(out)
	}

	required := b.RequiredParameters()
	if len(required) == 0 && len(b.Parameters) == 0 {
		return
	}
	fmt.Fprintln(out, "\nParameters:")
	for _, name := range required {
		if v, ok := b.Parameters[name]; ok {
			fmt.Fprintf(out, "  %s (default: %v)\n", name, v)
		} else {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	// Defaults that no step text refers to may still feed conditions and snippets
	for _, name := range slices.Sorted(maps.Keys(b.Parameters)) {
		if !slices.Contains(required, name) {
			fmt.Fprintf(out, "  %s (default: %v)\n", name, b.Parameters[name])
		}
	}
	if missing := b.MissingParameters(); len(missing) > 0 {
		fmt.Fprintf(out, "\nNo default for: %s, pass them with --param\n", strings.Join(missing, ", "))
	}
}

func formatEstimate(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
