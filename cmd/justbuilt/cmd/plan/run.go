// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/env"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/reporter"
	"github.com/spf13/cobra"
)

func newRunCmd(e *env.Env) *cobra.Command {
	var showCode, noDelay, scan bool

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run every step of the current plan in order",
		Long: `Run the steps of the current plan in list order. Steps whose
dependencies have not completed are skipped, failed steps do not stop the
run. Interrupting stops the run after the current step.

With --scan, or scan.auto_scan in the configuration, the completed steps are
checked against the scan rules once the run ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := e.LoadPlan()
			if err != nil {
				return err
			}

			exec, cleanup, err := e.Executor(cmd.OutOrStdout(), showCode, noDelay)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			summary := exec.RunAll(ctx, plan)

			if err := e.SavePlan(plan, summary.RunID); err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d steps failed", summary.Failed, summary.Total)
			}

			if !scan && !e.Config.Scan.AutoScan {
				return nil
			}
			report, err := e.Scan(ctx, plan, summary.RunID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			if err := reporter.WriteScanReport(out, report, report.Findings); err != nil {
				return err
			}
			return e.CheckScan(report)
		},
	}

	runCmd.Flags().BoolVar(&showCode, "show-code", false, "Print the generated code of every step")
	runCmd.Flags().BoolVar(&noDelay, "no-delay", false, "Do not wait between steps")
	runCmd.Flags().BoolVar(&scan, "scan", false, "Scan the generated code after the run")

	return runCmd
}
