// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Severity ranks a finding
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists every severity, most severe first
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

var severityRank = map[Severity]int{
	SeverityCritical: 5,
	SeverityHigh:     4,
	SeverityMedium:   3,
	SeverityLow:      2,
	SeverityInfo:     1,
}

// Points taken off the score of 100 for every finding
var severityPenalty = map[Severity]int{
	SeverityCritical: 20,
	SeverityHigh:     10,
	SeverityMedium:   5,
	SeverityLow:      2,
	SeverityInfo:     0,
}

// ParseSeverity accepts a severity name in any case
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := severityRank[sev]; !ok {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// AtLeast reports whether s is as severe as other or more
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// IssueType groups findings by what kind of problem they describe
type IssueType string

const (
	TypeVulnerability IssueType = "vulnerability"
	TypeCodeQuality   IssueType = "code-quality"
	TypeDependency    IssueType = "dependency"
	TypeConfiguration IssueType = "configuration"
	TypeBestPractice  IssueType = "best-practice"
)

var issueTypes = map[IssueType]bool{
	TypeVulnerability: true,
	TypeCodeQuality:   true,
	TypeDependency:    true,
	TypeConfiguration: true,
	TypeBestPractice:  true,
}

// ParseIssueType accepts an issue type name in any case
func ParseIssueType(s string) (IssueType, error) {
	t := IssueType(strings.ToLower(strings.TrimSpace(s)))
	if !issueTypes[t] {
		return "", fmt.Errorf("unknown issue type %q", s)
	}
	return t, nil
}

// Rule describes one check run against the code of every completed step
type Rule struct {
	ID             string    `yaml:"id"`
	Title          string    `yaml:"title"`
	Description    string    `yaml:"description,omitempty"`
	Severity       Severity  `yaml:"severity"`
	Type           IssueType `yaml:"type"`
	Languages      []string  `yaml:"languages,omitempty"` // Empty matches every language
	Condition      string    `yaml:"condition"`           // CEL expression over step and params
	Locate         string    `yaml:"locate,omitempty"`    // Text whose first occurrence gives the line
	CWE            string    `yaml:"cwe,omitempty"`
	Recommendation string    `yaml:"recommendation,omitempty"`
	References     []string  `yaml:"references,omitempty"`
}

// RuleConfig is the content of a scan rules file
type RuleConfig struct {
	Rules []Rule `yaml:"rules"`
}

// ParseRules parses and validates scan rules YAML. Conditions are compiled
// when the rules are handed to New.
func ParseRules(data []byte) ([]Rule, error) {
	var config RuleConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing scan rules: %w", err)
	}

	seen := make(map[string]bool)
	for i, rule := range config.Rules {
		if rule.ID == "" {
			return nil, fmt.Errorf("scan rule %d has empty id", i+1)
		}
		if seen[rule.ID] {
			return nil, fmt.Errorf("duplicate scan rule id: %s", rule.ID)
		}
		seen[rule.ID] = true

		if _, ok := severityRank[rule.Severity]; !ok {
			return nil, fmt.Errorf("scan rule %s: unknown severity %q", rule.ID, rule.Severity)
		}
		if !issueTypes[rule.Type] {
			return nil, fmt.Errorf("scan rule %s: unknown type %q", rule.ID, rule.Type)
		}
		if strings.TrimSpace(rule.Condition) == "" {
			return nil, fmt.Errorf("scan rule %s has no condition", rule.ID)
		}
	}

	return config.Rules, nil
}

func (r Rule) appliesTo(language string) bool {
	if len(r.Languages) == 0 {
		return true
	}
	for _, l := range r.Languages {
		if strings.EqualFold(l, language) {
			return true
		}
	}
	return false
}
