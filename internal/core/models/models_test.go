// SPDX-License-Identifier: Apache-2.0

package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewStep(t *testing.T) {
	t.Run("BasicStepCreation", func(t *testing.T) {
		step, err := NewStep(1, "Project Setup", "Initialize project structure")
		require.NoError(t, err)

		assert.Equal(t, 1, step.ID)
		assert.Equal(t, "Project Setup", step.Title)
		assert.Equal(t, StatusPending, step.Status)
		assert.Empty(t, step.Dependencies)
		assert.Nil(t, step.Result)
	})

	t.Run("DuplicateDependenciesCollapse", func(t *testing.T) {
		step, err := NewStep(3, "Core", "", 1, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, step.Dependencies)
	})

	t.Run("SelfDependencyRejected", func(t *testing.T) {
		_, err := NewStep(2, "Loop", "", 1, 2)
		require.Error(t, err)

		var validationErr *ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, 2, validationErr.StepID)
	})
}

func TestNewStepRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name   string
		id     int
		title  string
		deps   []int
		reason string
	}{
		{name: "empty title", id: 1, title: "", reason: "title is required"},
		{name: "blank title", id: 1, title: " \t", reason: "title is required"},
		{name: "zero id", id: 0, title: "Setup", reason: "step ID must be positive"},
		{name: "zero dependency", id: 2, title: "Core", deps: []int{1, 0}, reason: "dependency 0 is not a valid step ID"},
		{name: "negative dependency", id: 2, title: "Core", deps: []int{-3}, reason: "dependency -3 is not a valid step ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStep(tt.id, tt.title, "", tt.deps...)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.reason, validationErr.Reason)
		})
	}
}

func TestStepTransitions(t *testing.T) {
	step, err := NewStep(1, "Setup", "")
	require.NoError(t, err)

	step.MarkRunning()
	assert.Equal(t, StatusRunning, step.Status)
	assert.Equal(t, 1, step.Attempts)
	assert.False(t, step.StartedAt.IsZero())

	step.MarkFailed("producer timed out")
	assert.Equal(t, StatusFailed, step.Status)
	assert.Equal(t, "producer timed out", step.Error)
	assert.True(t, step.Status.IsTerminal())

	// Retry goes back through running
	step.MarkRunning()
	assert.Equal(t, StatusRunning, step.Status)
	assert.Empty(t, step.Error)
	assert.Equal(t, 2, step.Attempts)

	step.MarkCompleted(&StepResult{Code: "console.log('hi')"})
	assert.Equal(t, StatusCompleted, step.Status)
	require.NotNil(t, step.Result)
	assert.Equal(t, "console.log('hi')", step.Result.Code)
	assert.GreaterOrEqual(t, step.Duration().Nanoseconds(), int64(0))
}

func TestPlanAddStep(t *testing.T) {
	plan := NewPlan("build a todo app", "gemini")
	assert.NotEmpty(t, plan.ID)

	require.NoError(t, plan.AddStep(Step{ID: 1, Title: "Setup"}))
	assert.Equal(t, StatusPending, plan.Steps[0].Status, "empty status should default to pending")

	err := plan.AddStep(Step{ID: 1, Title: "Again"})
	var dupErr *DuplicateIDError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, 1, dupErr.ID)
	assert.Len(t, plan.Steps, 1, "failed add must not change the plan")

	err = plan.AddStep(Step{ID: 2, Title: "Self", Dependencies: []int{2}})
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Len(t, plan.Steps, 1)

	err = plan.AddStep(Step{ID: 2, Title: ""})
	assert.True(t, errors.As(err, &validationErr))
	err = plan.AddStep(Step{ID: 2, Title: "Zero", Dependencies: []int{0}})
	assert.True(t, errors.As(err, &validationErr))
	assert.Len(t, plan.Steps, 1)
}

func TestPlanEditStep(t *testing.T) {
	plan := NewPlan("req", "")
	step, _ := NewStep(1, "Setup", "old", 5)
	require.NoError(t, plan.AddStep(step))
	plan.Steps[0].MarkRunning()
	plan.Steps[0].MarkCompleted(&StepResult{Code: "x"})

	edit := StepEdit{Title: strPtr("New title"), Description: strPtr("new")}
	require.NoError(t, plan.EditStep(1, edit))
	first := plan.Steps[0]

	require.NoError(t, plan.EditStep(1, edit))
	assert.Equal(t, first, plan.Steps[0], "repeating the same edit must not change anything")

	assert.Equal(t, "New title", plan.Steps[0].Title)
	assert.Equal(t, StatusCompleted, plan.Steps[0].Status)
	assert.Equal(t, []int{5}, plan.Steps[0].Dependencies)
	assert.Equal(t, "x", plan.Steps[0].Result.Code)

	// Only description
	require.NoError(t, plan.EditStep(1, StepEdit{Description: strPtr("only desc")}))
	assert.Equal(t, "New title", plan.Steps[0].Title)
	assert.Equal(t, "only desc", plan.Steps[0].Description)

	err := plan.EditStep(42, edit)
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))

	// A blank title leaves the step untouched, description included
	err = plan.EditStep(1, StepEdit{Title: strPtr(""), Description: strPtr("ignored")})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "New title", plan.Steps[0].Title)
	assert.Equal(t, "only desc", plan.Steps[0].Description)
}

func TestPlanRemoveStepKeepsDanglingDependencies(t *testing.T) {
	plan := NewPlan("req", "")
	require.NoError(t, plan.AddStep(Step{ID: 1, Title: "a"}))
	require.NoError(t, plan.AddStep(Step{ID: 2, Title: "b", Dependencies: []int{1}}))

	require.NoError(t, plan.RemoveStep(1))
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, []int{1}, plan.Steps[0].Dependencies)
	assert.Equal(t, map[int][]int{2: {1}}, DanglingDependencies(plan))

	err := plan.RemoveStep(1)
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestPlanNextID(t *testing.T) {
	plan := NewPlan("req", "")
	assert.Equal(t, 1, plan.NextID())

	require.NoError(t, plan.AddStep(Step{ID: 5, Title: "five"}))
	assert.Equal(t, 6, plan.NextID())

	require.NoError(t, plan.AddStep(Step{ID: 2, Title: "two"}))
	assert.Equal(t, 6, plan.NextID())

	require.NoError(t, plan.RemoveStep(2))
	assert.Equal(t, 6, plan.NextID())

	require.NoError(t, plan.RemoveStep(5))
	assert.Equal(t, 1, plan.NextID(), "ids restart at 1 once the plan is empty")
}

func TestPlanProgress(t *testing.T) {
	plan := NewPlan("req", "")
	assert.Equal(t, 0.0, plan.ProgressPercent())

	for i := 1; i <= 4; i++ {
		require.NoError(t, plan.AddStep(Step{ID: i, Title: "s"}))
	}
	plan.Steps[0].Status = StatusCompleted
	plan.Steps[1].Status = StatusFailed

	assert.Equal(t, 1, plan.CompletedCount())
	assert.Equal(t, 1, plan.FailedCount())
	assert.Equal(t, 25.0, plan.ProgressPercent())
}

func TestUnmetDependencies(t *testing.T) {
	plan := NewPlan("req", "")
	require.NoError(t, plan.AddStep(Step{ID: 1, Title: "a", Status: StatusCompleted}))
	require.NoError(t, plan.AddStep(Step{ID: 2, Title: "b", Status: StatusFailed}))
	require.NoError(t, plan.AddStep(Step{ID: 3, Title: "c", Dependencies: []int{2, 1, 9}}))

	assert.Equal(t, []int{2, 9}, plan.UnmetDependencies(plan.GetStep(3)))
	assert.Empty(t, plan.UnmetDependencies(plan.GetStep(1)))
}

func TestContextString(t *testing.T) {
	plan := NewPlan("todo app", "gemini")
	require.NoError(t, plan.AddStep(Step{ID: 1, Title: "Setup", Description: "folders"}))

	ctx := plan.ContextString()
	assert.Contains(t, ctx, "Request: todo app")
	assert.Contains(t, ctx, "Model: gemini")
	assert.Contains(t, ctx, "1. [pending] Setup - folders")
}
