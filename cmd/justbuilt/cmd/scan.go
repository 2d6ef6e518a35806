// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/kusari-oss/justbuilt/cmd/justbuilt/cmd/env"
	"github.com/kusari-oss/justbuilt/internal/core/format"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/reporter"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/scanner"
	"github.com/spf13/cobra"
)

func newScanCmd(e *env.Env) *cobra.Command {
	var (
		minSeverity string
		issueType   string
		asJSON      bool
	)

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Check the code of completed steps for security and quality issues",
		Long: `Check the code produced by every completed step of the current plan
against the scan rules. Findings are recorded in the timeline. The command
fails when a finding reaches scan.fail_on, critical by default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				sev scanner.Severity
				typ scanner.IssueType
				err error
			)
			if minSeverity != "" {
				if sev, err = scanner.ParseSeverity(minSeverity); err != nil {
					return err
				}
			}
			if issueType != "" {
				if typ, err = scanner.ParseIssueType(issueType); err != nil {
					return err
				}
			}

			plan, err := e.LoadPlan()
			if err != nil {
				return err
			}

			report, err := e.Scan(cmd.Context(), plan, "")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				filtered := *report
				filtered.Findings = report.Filter(sev, typ)
				if filtered.Findings == nil {
					filtered.Findings = []scanner.Finding{}
				}
				text, err := format.FormatData(filtered, false)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, strings.TrimRight(text, "\n"))
			} else if err := reporter.WriteScanReport(out, report, report.Filter(sev, typ)); err != nil {
				return err
			}

			return e.CheckScan(report)
		},
	}

	scanCmd.Flags().StringVar(&minSeverity, "severity", "", "Only show findings of this severity or higher")
	scanCmd.Flags().StringVar(&issueType, "type", "", "Only show findings of this type (vulnerability, code-quality, dependency, configuration, best-practice)")
	scanCmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return scanCmd
}
