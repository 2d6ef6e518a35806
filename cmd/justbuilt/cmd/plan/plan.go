// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/env"
	"github.com/spf13/cobra"
)

// NewPlanCmd creates the plan command group
func NewPlanCmd(e *env.Env) *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate, inspect and run development plans",
		Long:  `Commands for generating a step plan from a request and executing it.`,
	}

	planCmd.AddCommand(newGenerateCmd(e))
	planCmd.AddCommand(newShowCmd(e))
	planCmd.AddCommand(newRunCmd(e))
	planCmd.AddCommand(newValidateCmd())
	return planCmd
}
