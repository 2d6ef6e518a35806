// SPDX-License-Identifier: Apache-2.0

// Package scanner checks the code of completed plan steps against a table of
// security and quality rules.
package scanner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/condition"
	"github.com/kusari-oss/justbuilt/internal/store"
	"github.com/sirupsen/logrus"
)

// Finding is a rule that matched the code of one step
type Finding struct {
	RuleID         string    `json:"rule_id" yaml:"rule_id"`
	StepID         int       `json:"step_id" yaml:"step_id"`
	StepTitle      string    `json:"step_title" yaml:"step_title"`
	File           string    `json:"file,omitempty" yaml:"file,omitempty"`
	Line           int       `json:"line,omitempty" yaml:"line,omitempty"`
	Severity       Severity  `json:"severity" yaml:"severity"`
	Type           IssueType `json:"type" yaml:"type"`
	Title          string    `json:"title" yaml:"title"`
	Description    string    `json:"description,omitempty" yaml:"description,omitempty"`
	CWE            string    `json:"cwe,omitempty" yaml:"cwe,omitempty"`
	Recommendation string    `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	References     []string  `json:"references,omitempty" yaml:"references,omitempty"`
}

// Report is the outcome of scanning a plan
type Report struct {
	PlanID       string           `json:"plan_id" yaml:"plan_id"`
	ScannedAt    time.Time        `json:"scanned_at" yaml:"scanned_at"`
	ScannedSteps int              `json:"scanned_steps" yaml:"scanned_steps"`
	Findings     []Finding        `json:"findings" yaml:"findings"`
	Counts       map[Severity]int `json:"counts" yaml:"counts"`
	Score        int              `json:"score" yaml:"score"`
}

// Worst returns the highest severity found, or "" for a clean report
func (r *Report) Worst() Severity {
	for _, sev := range Severities {
		if r.Counts[sev] > 0 {
			return sev
		}
	}
	return ""
}

// CountAtLeast returns the number of findings at or above threshold
func (r *Report) CountAtLeast(threshold Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity.AtLeast(threshold) {
			n++
		}
	}
	return n
}

// Filter returns the findings at or above minSeverity and, when set, of the
// given type
func (r *Report) Filter(minSeverity Severity, issueType IssueType) []Finding {
	var result []Finding
	for _, f := range r.Findings {
		if minSeverity != "" && !f.Severity.AtLeast(minSeverity) {
			continue
		}
		if issueType != "" && f.Type != issueType {
			continue
		}
		result = append(result, f)
	}
	return result
}

// Events converts the report into timeline events: one per finding and a
// closing "scanned" event carrying the summary
func (r *Report) Events(runID string) []store.Event {
	events := make([]store.Event, 0, len(r.Findings)+1)
	for _, f := range r.Findings {
		detail := fmt.Sprintf("%s %s", f.Severity, f.RuleID)
		if f.File != "" {
			detail += " in " + f.File
			if f.Line > 0 {
				detail += fmt.Sprintf(":%d", f.Line)
			}
		}
		events = append(events, store.Event{
			PlanID: r.PlanID,
			RunID:  runID,
			StepID: f.StepID,
			Kind:   "finding",
			Title:  f.Title,
			Detail: detail,
		})
	}
	events = append(events, store.Event{
		PlanID: r.PlanID,
		RunID:  runID,
		Kind:   "scanned",
		Detail: r.Summary(),
	})
	return events
}

// Summary renders the counts and score on one line
func (r *Report) Summary() string {
	parts := make([]string, 0, len(Severities))
	for _, sev := range Severities {
		if n := r.Counts[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	counts := "no findings"
	if len(parts) > 0 {
		counts = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("Scanned %d steps: %s, score %d/100", r.ScannedSteps, counts, r.Score)
}

// Scanner evaluates rules against completed steps
type Scanner struct {
	rules     []Rule
	evaluator *condition.CELEvaluator
	logger    *logrus.Logger
}

// New compiles the rule conditions. A rule that does not compile is an error
// here rather than a silent miss during a scan.
func New(rules []Rule, logger *logrus.Logger) (*Scanner, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	evaluator, err := condition.NewCELEvaluator()
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		if err := evaluator.Compile(rule.Condition); err != nil {
			return nil, fmt.Errorf("scan rule %s: %w", rule.ID, err)
		}
	}

	return &Scanner{rules: rules, evaluator: evaluator, logger: logger}, nil
}

// Rules returns the rules the scanner checks
func (s *Scanner) Rules() []Rule {
	return s.rules
}

// Scan checks every completed step that produced code. The plan is not
// modified.
func (s *Scanner) Scan(plan *models.Plan) *Report {
	report := &Report{
		PlanID:    plan.ID,
		ScannedAt: time.Now(),
		Findings:  []Finding{},
		Counts:    make(map[Severity]int),
	}

	params := plan.Parameters
	if params == nil {
		params = map[string]interface{}{}
	}

	for _, step := range plan.Steps {
		if step.Status != models.StatusCompleted || step.Result == nil || step.Result.Code == "" {
			continue
		}
		report.ScannedSteps++

		data := map[string]interface{}{
			condition.VarStep: map[string]interface{}{
				"id":          step.ID,
				"title":       step.Title,
				"description": step.Description,
				"language":    step.Result.Language,
				"code":        step.Result.Code,
				"file_path":   step.Result.FilePath,
			},
			condition.VarParams: params,
		}

		for _, rule := range s.rules {
			if !rule.appliesTo(step.Result.Language) {
				continue
			}

			matched, err := s.evaluator.EvaluateExpression(rule.Condition, data)
			if err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{"rule": rule.ID, "step_id": step.ID}).Debug("Scan rule not evaluable")
				continue
			}
			if !matched {
				continue
			}

			report.Findings = append(report.Findings, Finding{
				RuleID:         rule.ID,
				StepID:         step.ID,
				StepTitle:      step.Title,
				File:           step.Result.FilePath,
				Line:           lineOf(step.Result.Code, rule.Locate),
				Severity:       rule.Severity,
				Type:           rule.Type,
				Title:          rule.Title,
				Description:    rule.Description,
				CWE:            rule.CWE,
				Recommendation: rule.Recommendation,
				References:     rule.References,
			})
			report.Counts[rule.Severity]++
		}
	}

	sort.SliceStable(report.Findings, func(i, j int) bool {
		a, b := report.Findings[i], report.Findings[j]
		if a.Severity != b.Severity {
			return severityRank[a.Severity] > severityRank[b.Severity]
		}
		return a.StepID < b.StepID
	})

	report.Score = score(report.Findings)
	s.logger.WithFields(logrus.Fields{"plan_id": plan.ID, "findings": len(report.Findings), "score": report.Score}).Info("Scanned plan")
	return report
}

// score starts at 100 and takes a penalty per finding, never going below 0
func score(findings []Finding) int {
	total := 100
	for _, f := range findings {
		total -= severityPenalty[f.Severity]
	}
	return max(total, 0)
}

// lineOf returns the 1-based line of the first occurrence of text in code,
// or 0 when text is empty or absent
func lineOf(code, text string) int {
	if text == "" {
		return 0
	}
	i := strings.Index(code, text)
	if i < 0 {
		return 0
	}
	return strings.Count(code[:i], "\n") + 1
}
