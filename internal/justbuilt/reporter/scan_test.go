// SPDX-License-Identifier: Apache-2.0

package reporter_test

import (
	"bytes"
	"testing"

	"github.com/kusari-oss/justbuilt/internal/justbuilt/reporter"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteScanReport(t *testing.T) {
	report := &scanner.Report{
		ScannedSteps: 2,
		Findings: []scanner.Finding{
			{RuleID: "xss-innerhtml", StepID: 1, File: "src/step-1.js", Line: 3, Severity: scanner.SeverityHigh, Type: scanner.TypeVulnerability, Title: "Cross-Site Scripting (XSS) Risk"},
			{RuleID: "console-logging", StepID: 2, Line: 4, Severity: scanner.SeverityLow, Type: scanner.TypeCodeQuality, Title: "Console Logging in Production"},
		},
		Counts: map[scanner.Severity]int{scanner.SeverityHigh: 1, scanner.SeverityLow: 1},
		Score:  88,
	}

	var buf bytes.Buffer
	require.NoError(t, reporter.WriteScanReport(&buf, report, report.Findings))
	out := buf.String()
	assert.Contains(t, out, "SEVERITY")
	assert.Contains(t, out, "src/step-1.js:3")
	assert.Contains(t, out, "line 4")
	assert.Contains(t, out, "✗ Scanned 2 steps: 1 high, 1 low, score 88/100")

	buf.Reset()
	require.NoError(t, reporter.WriteScanReport(&buf, report, report.Filter(scanner.SeverityCritical, "")))
	assert.NotContains(t, buf.String(), "SEVERITY")
	assert.Contains(t, buf.String(), "Scanned 2 steps")
}

func TestWriteScanReportClean(t *testing.T) {
	report := &scanner.Report{ScannedSteps: 1, Counts: map[scanner.Severity]int{}, Score: 100}

	var buf bytes.Buffer
	require.NoError(t, reporter.WriteScanReport(&buf, report, nil))
	assert.Equal(t, "✓ Scanned 1 steps: no findings, score 100/100\n", buf.String())
}
