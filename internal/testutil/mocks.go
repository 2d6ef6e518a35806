// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"

	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/executor"
	"github.com/stretchr/testify/mock"
)

// MockProducer is a testify mock of executor.StepProducer
type MockProducer struct {
	mock.Mock
}

// Produce mocks the Produce method. Expectations are matched on the step id.
func (m *MockProducer) Produce(ctx context.Context, step models.Step, planContext string) (*models.StepResult, error) {
	args := m.Called(step.ID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StepResult), args.Error(1)
}

// MockPlanner is a testify mock of planner.Planner
type MockPlanner struct {
	mock.Mock
}

// Generate mocks the Generate method
func (m *MockPlanner) Generate(ctx context.Context, request, modelID string) (*models.Plan, error) {
	args := m.Called(request, modelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

// Event is one notification captured by RecordingReporter
type Event struct {
	Kind    string
	StepID  int
	Status  models.StepStatus
	Unmet   []int
	Percent float64
	Err     error
	Summary executor.Summary
}

// RecordingReporter captures every progress event in order
type RecordingReporter struct {
	Events []Event
}

func (r *RecordingReporter) OnStepStarted(run *executor.ExecutionContext, step models.Step) {
	r.Events = append(r.Events, Event{Kind: "started", StepID: step.ID, Status: step.Status})
}

func (r *RecordingReporter) OnStepCompleted(run *executor.ExecutionContext, step models.Step) {
	r.Events = append(r.Events, Event{Kind: "completed", StepID: step.ID, Status: step.Status})
}

func (r *RecordingReporter) OnStepFailed(run *executor.ExecutionContext, step models.Step, err error) {
	r.Events = append(r.Events, Event{Kind: "failed", StepID: step.ID, Status: step.Status, Err: err})
}

func (r *RecordingReporter) OnDependenciesUnmet(run *executor.ExecutionContext, step models.Step, unmet []int) {
	r.Events = append(r.Events, Event{Kind: "unmet", StepID: step.ID, Status: step.Status, Unmet: unmet})
}

func (r *RecordingReporter) OnProgress(run *executor.ExecutionContext, percent float64) {
	r.Events = append(r.Events, Event{Kind: "progress", Percent: percent})
}

func (r *RecordingReporter) OnAllFinished(run *executor.ExecutionContext, summary executor.Summary) {
	r.Events = append(r.Events, Event{Kind: "finished", Summary: summary})
}

// Kinds returns the event kinds in order, optionally dropping progress events
func (r *RecordingReporter) Kinds(withProgress bool) []string {
	kinds := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		if e.Kind == "progress" && !withProgress {
			continue
		}
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// NewPlan builds a plan from steps, failing the test on invalid input
func NewPlan(t interface {
	Helper()
	Fatalf(string, ...interface{})
}, steps ...models.Step) *models.Plan {
	t.Helper()
	plan := models.NewPlan("test request", "gemini")
	for _, step := range steps {
		if err := plan.AddStep(step); err != nil {
			t.Fatalf("adding step %d: %v", step.ID, err)
		}
	}
	return plan
}
