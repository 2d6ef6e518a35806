// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/scanner"
)

var severityColors = map[scanner.Severity]lipgloss.Color{
	scanner.SeverityCritical: lipgloss.Color("196"),
	scanner.SeverityHigh:     lipgloss.Color("208"),
	scanner.SeverityMedium:   lipgloss.Color("220"),
	scanner.SeverityLow:      lipgloss.Color("39"),
	scanner.SeverityInfo:     lipgloss.Color("245"),
}

// WriteScanReport prints the given findings as a table followed by the
// report summary. findings is usually a filtered view of report.Findings.
func WriteScanReport(out io.Writer, report *scanner.Report, findings []scanner.Finding) error {
	r := lipgloss.NewRenderer(out)

	if len(findings) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("SEVERITY", "STEP", "RULE", "TYPE", "LOCATION", "FINDING")
		for _, f := range findings {
			location := f.File
			if location != "" && f.Line > 0 {
				location = fmt.Sprintf("%s:%d", location, f.Line)
			}
			if location == "" && f.Line > 0 {
				location = fmt.Sprintf("line %d", f.Line)
			}
			sev := r.NewStyle().Foreground(severityColors[f.Severity]).Render(string(f.Severity))
			t.Row(sev, fmt.Sprintf("%d", f.StepID), f.RuleID, string(f.Type), location, f.Title)
		}
		if _, err := fmt.Fprintln(out, t.Render()); err != nil {
			return err
		}
	}

	status := r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true).Render("✓")
	if worst := report.Worst(); worst != "" && worst.AtLeast(scanner.SeverityHigh) {
		status = r.NewStyle().Foreground(severityColors[worst]).Bold(true).Render("✗")
	}
	_, err := fmt.Fprintf(out, "%s %s\n", status, report.Summary())
	return err
}
