// SPDX-License-Identifier: Apache-2.0

package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StepStatus is the lifecycle state of a plan step
type StepStatus string

const (
	StatusPending   StepStatus = "pending"
	StatusRunning   StepStatus = "running"
	StatusCompleted StepStatus = "completed"
	StatusFailed    StepStatus = "failed"
)

// IsTerminal reports whether a run of the step has finished
func (s StepStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StepResult is the payload attached to a step once it completes
type StepResult struct {
	Code        string `json:"code,omitempty" yaml:"code,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	FilePath    string `json:"file_path,omitempty" yaml:"file_path,omitempty"` // Set when the code was written to the workspace
}

// Step is a single unit of work in a development plan
type Step struct {
	ID            int         `json:"id" yaml:"id"`
	Title         string      `json:"title" yaml:"title"`
	Description   string      `json:"description" yaml:"description"`
	Dependencies  []int       `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	EstimatedTime string      `json:"estimated_time,omitempty" yaml:"estimated_time,omitempty"`
	Status        StepStatus  `json:"status" yaml:"status"`
	Result        *StepResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error         string      `json:"error,omitempty" yaml:"error,omitempty"` // Failure reason of the last run
	Attempts      int         `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	StartedAt     time.Time   `json:"started_at,omitzero" yaml:"started_at,omitempty"`
	FinishedAt    time.Time   `json:"finished_at,omitzero" yaml:"finished_at,omitempty"`
}

// NewStep creates a pending step. Duplicate dependency ids are collapsed and
// a step may not depend on itself.
func NewStep(id int, title, description string, dependencies ...int) (Step, error) {
	deps := normalizeDependencies(dependencies)
	if err := checkStep(id, title, deps); err != nil {
		return Step{}, err
	}

	return Step{
		ID:           id,
		Title:        title,
		Description:  description,
		Dependencies: deps,
		Status:       StatusPending,
	}, nil
}

// MarkRunning moves the step into the running state and clears the previous
// failure, if any.
func (s *Step) MarkRunning() {
	s.Status = StatusRunning
	s.Error = ""
	s.Attempts++
	s.StartedAt = time.Now()
	s.FinishedAt = time.Time{}
}

// MarkCompleted attaches the result and completes the step
func (s *Step) MarkCompleted(result *StepResult) {
	s.Status = StatusCompleted
	s.Result = result
	s.Error = ""
	s.FinishedAt = time.Now()
}

// MarkFailed records the failure reason
func (s *Step) MarkFailed(reason string) {
	s.Status = StatusFailed
	s.Error = reason
	s.FinishedAt = time.Now()
}

// Duration returns how long the last run of the step took
func (s *Step) Duration() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// StepEdit holds the optional fields of an edit. Nil fields are left alone.
type StepEdit struct {
	Title       *string
	Description *string
}

// Plan is the ordered list of steps produced for one request
type Plan struct {
	ID         string                 `json:"id" yaml:"id"`
	Request    string                 `json:"request" yaml:"request"`
	Model      string                 `json:"model,omitempty" yaml:"model,omitempty"`
	Blueprint  string                 `json:"blueprint,omitempty" yaml:"blueprint,omitempty"`   // Planner rule that produced the plan
	Parameters map[string]interface{} `json:"parameters,omitempty" yaml:"parameters,omitempty"` // Values the blueprint was filled with
	CreatedAt  time.Time              `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	Steps      []Step                 `json:"steps" yaml:"steps"`
}

// NewPlan creates an empty plan with a fresh id
func NewPlan(request, model string) *Plan {
	return &Plan{
		ID:        uuid.NewString(),
		Request:   request,
		Model:     model,
		CreatedAt: time.Now(),
		Steps:     []Step{},
	}
}

// GetStep returns a pointer to the step with the given id, or nil.
// The pointer is invalidated by AddStep and RemoveStep.
func (p *Plan) GetStep(id int) *Step {
	if i := p.indexOf(id); i >= 0 {
		return &p.Steps[i]
	}
	return nil
}

func (p *Plan) indexOf(id int) int {
	for i := range p.Steps {
		if p.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// AddStep appends a step to the end of the plan
func (p *Plan) AddStep(step Step) error {
	if p.indexOf(step.ID) >= 0 {
		return &DuplicateIDError{ID: step.ID}
	}

	step.Dependencies = normalizeDependencies(step.Dependencies)
	if err := checkStep(step.ID, step.Title, step.Dependencies); err != nil {
		return err
	}
	if step.Status == "" {
		step.Status = StatusPending
	}

	p.Steps = append(p.Steps, step)
	return nil
}

// EditStep updates the title and/or description of a step. Status,
// dependencies and result are never touched. A blank title is rejected and
// leaves the step unchanged.
func (p *Plan) EditStep(id int, edit StepEdit) error {
	step := p.GetStep(id)
	if step == nil {
		return &NotFoundError{ID: id}
	}

	if edit.Title != nil {
		if strings.TrimSpace(*edit.Title) == "" {
			return &ValidationError{StepID: id, Reason: "title is required"}
		}
		step.Title = *edit.Title
	}
	if edit.Description != nil {
		step.Description = *edit.Description
	}
	return nil
}

// RemoveStep deletes a step. Other steps keep any dependency on the removed
// id; such dependencies can never be satisfied afterwards.
func (p *Plan) RemoveStep(id int) error {
	i := p.indexOf(id)
	if i < 0 {
		return &NotFoundError{ID: id}
	}
	p.Steps = slices.Delete(p.Steps, i, i+1)
	return nil
}

// NextID returns max(existing ids)+1, or 1 for an empty plan
func (p *Plan) NextID() int {
	next := 1
	for _, step := range p.Steps {
		if step.ID >= next {
			next = step.ID + 1
		}
	}
	return next
}

// CompletedCount returns the number of completed steps
func (p *Plan) CompletedCount() int {
	return p.countStatus(StatusCompleted)
}

// FailedCount returns the number of failed steps
func (p *Plan) FailedCount() int {
	return p.countStatus(StatusFailed)
}

func (p *Plan) countStatus(status StepStatus) int {
	count := 0
	for _, step := range p.Steps {
		if step.Status == status {
			count++
		}
	}
	return count
}

// ProgressPercent returns completed/total*100, or 0 for an empty plan
func (p *Plan) ProgressPercent() float64 {
	if len(p.Steps) == 0 {
		return 0
	}
	return float64(p.CompletedCount()) / float64(len(p.Steps)) * 100
}

// UnmetDependencies returns the dependencies of step that are not completed
// in this plan, in the order the step lists them. Ids that do not exist in
// the plan are always unmet.
func (p *Plan) UnmetDependencies(step *Step) []int {
	completed := make(map[int]bool)
	for _, s := range p.Steps {
		if s.Status == StatusCompleted {
			completed[s.ID] = true
		}
	}

	var unmet []int
	for _, dep := range step.Dependencies {
		if !completed[dep] {
			unmet = append(unmet, dep)
		}
	}
	return unmet
}

// ContextString renders the plan as the text handed to step producers
func (p *Plan) ContextString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Request: %s\n", p.Request)
	if p.Model != "" {
		fmt.Fprintf(&b, "Model: %s\n", p.Model)
	}
	b.WriteString("Steps:\n")
	for _, step := range p.Steps {
		fmt.Fprintf(&b, "%d. [%s] %s", step.ID, step.Status, step.Title)
		if step.Description != "" {
			fmt.Fprintf(&b, " - %s", step.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// checkStep holds the rules every persisted step satisfies
func checkStep(id int, title string, deps []int) error {
	if id <= 0 {
		return &ValidationError{StepID: id, Reason: "step ID must be positive"}
	}
	if strings.TrimSpace(title) == "" {
		return &ValidationError{StepID: id, Reason: "title is required"}
	}
	for _, dep := range deps {
		if dep <= 0 {
			return &ValidationError{StepID: id, Reason: fmt.Sprintf("dependency %d is not a valid step ID", dep)}
		}
		if dep == id {
			return &ValidationError{StepID: id, Reason: "step cannot depend on itself"}
		}
	}
	return nil
}

// normalizeDependencies drops duplicate ids while keeping first-seen order
func normalizeDependencies(deps []int) []int {
	if len(deps) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(deps))
	result := make([]int, 0, len(deps))
	for _, dep := range deps {
		if seen[dep] {
			continue
		}
		seen[dep] = true
		result = append(result, dep)
	}
	return result
}
