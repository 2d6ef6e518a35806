// SPDX-License-Identifier: Apache-2.0

// Package reporter provides progress reporters for plan execution.
package reporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/executor"
)

const barWidth = 20

// Console prints styled progress lines. Colors are only used when the
// writer is a terminal.
type Console struct {
	out      io.Writer
	showCode bool

	running   lipgloss.Style
	completed lipgloss.Style
	failed    lipgloss.Style
	waiting   lipgloss.Style
	dim       lipgloss.Style
	bar       lipgloss.Style
	code      lipgloss.Style
}

// NewConsole creates a console reporter. With showCode the generated code
// of every completed step is printed.
func NewConsole(out io.Writer, showCode bool) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		out:       out,
		showCode:  showCode,
		running:   r.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		completed: r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		failed:    r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		waiting:   r.NewStyle().Foreground(lipgloss.Color("214")),
		dim:       r.NewStyle().Foreground(lipgloss.Color("245")),
		bar:       r.NewStyle().Foreground(lipgloss.Color("37")),
		code:      r.NewStyle().PaddingLeft(4),
	}
}

func (c *Console) OnStepStarted(run *executor.ExecutionContext, step models.Step) {
	fmt.Fprintf(c.out, "%s Step %d: %s\n", c.running.Render("▶"), step.ID, step.Title)
}

func (c *Console) OnStepCompleted(run *executor.ExecutionContext, step models.Step) {
	fmt.Fprintf(c.out, "%s Step %d: %s %s\n",
		c.completed.Render("✓"), step.ID, step.Title, c.dim.Render("("+roundDuration(step.Duration())+")"))

	if step.Result == nil {
		return
	}
	if step.Result.FilePath != "" {
		fmt.Fprintf(c.out, "  %s %s\n", c.dim.Render("wrote"), step.Result.FilePath)
	}
	if c.showCode && step.Result.Code != "" {
		fmt.Fprintln(c.out, c.code.Render(strings.TrimRight(step.Result.Code, "\n")))
	}
}

func (c *Console) OnStepFailed(run *executor.ExecutionContext, step models.Step, err error) {
	reason := step.Error
	if reason == "" && err != nil {
		reason = err.Error()
	}
	fmt.Fprintf(c.out, "%s Step %d: %s: %s\n", c.failed.Render("✗"), step.ID, step.Title, reason)
}

func (c *Console) OnDependenciesUnmet(run *executor.ExecutionContext, step models.Step, unmet []int) {
	fmt.Fprintf(c.out, "%s Step %d: %s %s\n",
		c.waiting.Render("⏸"), step.ID, step.Title, c.dim.Render("waiting on "+joinIDs(unmet)))
}

func (c *Console) OnProgress(run *executor.ExecutionContext, percent float64) {
	fmt.Fprintf(c.out, "  %s %3.0f%%\n", c.bar.Render(ProgressBar(percent, barWidth)), percent)
}

func (c *Console) OnAllFinished(run *executor.ExecutionContext, summary executor.Summary) {
	fmt.Fprintln(c.out, SummaryLine(summary))
}

// ProgressBar renders percent as a bar of width cells
func ProgressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// SummaryLine describes a finished RunAll pass
func SummaryLine(s executor.Summary) string {
	line := fmt.Sprintf("Finished %d steps in %s: %d completed, %d failed, %d skipped",
		s.Total, roundDuration(s.Duration), s.Completed, s.Failed, s.Skipped)
	if s.AlreadyCompleted > 0 {
		line += fmt.Sprintf(", %d already completed", s.AlreadyCompleted)
	}
	if s.Cancelled {
		line += fmt.Sprintf(" (cancelled, %d not visited)", s.NotVisited)
	}
	return line
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	if len(parts) == 1 {
		return "step " + parts[0]
	}
	return "steps " + strings.Join(parts, ", ")
}

func roundDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
