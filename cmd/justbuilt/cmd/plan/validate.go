// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"fmt"
	"sort"

	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/justbuilt"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <plan-file>",
		Short: "Validate a plan file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := justbuilt.LoadPlanFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			dangling := models.DanglingDependencies(plan)
			ids := make([]int, 0, len(dangling))
			for id := range dangling {
				ids = append(ids, id)
			}
			sort.Ints(ids)
			for _, id := range ids {
				fmt.Fprintf(out, "Warning: step %d depends on missing steps %v and can never run\n", id, dangling[id])
			}

			fmt.Fprintf(out, "Plan is valid: %d steps\n", len(plan.Steps))
			return nil
		},
	}
}
