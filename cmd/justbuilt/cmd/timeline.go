// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/env"
	"github.com/kusari-oss/justbuilt/internal/justbuilt"
	"github.com/spf13/cobra"
)

func newTimelineCmd(e *env.Env) *cobra.Command {
	var (
		limit int
		all   bool
		runs  bool
	)

	timelineCmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show recorded execution events of the current plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := justbuilt.OpenTimeline(e.Config)
			if err != nil {
				return err
			}
			if db == nil {
				return fmt.Errorf("timeline is disabled, set execution.timeline_db in the configuration")
			}
			defer db.Close()

			if runs && all {
				return fmt.Errorf("--runs lists the runs of the current plan and cannot be combined with --all")
			}

			planID := ""
			if !all {
				plan, err := e.LoadPlan()
				if err != nil {
					return err
				}
				planID = plan.ID
			}

			out := cmd.OutOrStdout()
			if runs {
				ids, err := db.Runs(cmd.Context(), planID)
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			events, err := db.List(cmd.Context(), planID, limit)
			if err != nil {
				return err
			}

			if len(events) == 0 {
				fmt.Fprintln(out, "No events recorded")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("TIME", "RUN", "STEP", "EVENT", "DETAIL")
			for _, ev := range events {
				step := "-"
				if ev.StepID != 0 {
					step = fmt.Sprintf("%d", ev.StepID)
				}
				run := ev.RunID
				if len(run) > 8 {
					run = run[:8]
				}
				t.Row(ev.CreatedAt.Format(time.DateTime), run, step, ev.Kind, ev.Detail)
			}
			_, err = fmt.Fprintln(out, t.Render())
			return err
		},
	}

	timelineCmd.Flags().IntVarP(&limit, "limit", "n", 50, "Show at most this many recent events (0 for all)")
	timelineCmd.Flags().BoolVar(&all, "all", false, "Show events of every plan")
	timelineCmd.Flags().BoolVar(&runs, "runs", false, "List the run ids of the current plan, oldest first")

	return timelineCmd
}
