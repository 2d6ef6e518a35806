// SPDX-License-Identifier: Apache-2.0

package executor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/executor"
	"github.com/kusari-oss/justbuilt/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRunAllSequential(t *testing.T) {
	producer := new(testutil.MockProducer)
	producer.On("Produce", mock.Anything).Return(codeResult("code"), nil)
	reporter := &testutil.RecordingReporter{}
	exec := executor.New(producer, executor.Options{Reporter: reporter})

	plan := testutil.NewPlan(t,
		models.Step{ID: 1, Title: "Setup"},
		models.Step{ID: 2, Title: "Layout", Dependencies: []int{1}},
		models.Step{ID: 3, Title: "Styles", Dependencies: []int{1, 2}},
		models.Step{ID: 4, Title: "Tests"},
	)

	summary := exec.RunAll(context.Background(), plan)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 4, summary.Completed)
	assert.Zero(t, summary.Failed)
	assert.Zero(t, summary.Skipped)
	assert.False(t, summary.Cancelled)
	assert.Equal(t, 100.0, plan.ProgressPercent())
	producer.AssertNumberOfCalls(t, "Produce", 4)

	var percents []float64
	for _, e := range reporter.Events {
		if e.Kind == "progress" {
			percents = append(percents, e.Percent)
		}
	}
	assert.Equal(t, []float64{25, 50, 75, 100}, percents)

	last := reporter.Events[len(reporter.Events)-1]
	assert.Equal(t, "finished", last.Kind)
	assert.Equal(t, summary.RunID, last.Summary.RunID)
}

func TestRunAllContinuesAfterEveryFailure(t *testing.T) {
	producer := new(testutil.MockProducer)
	producer.On("Produce", mock.Anything).Return(nil, errors.New("offline"))
	exec := executor.New(producer, executor.Options{})

	plan := testutil.NewPlan(t,
		models.Step{ID: 1, Title: "a"},
		models.Step{ID: 2, Title: "b"},
		models.Step{ID: 3, Title: "c"},
	)

	summary := exec.RunAll(context.Background(), plan)
	assert.Equal(t, 3, summary.Failed)
	assert.Zero(t, summary.Completed)
	for _, step := range plan.Steps {
		assert.Equal(t, models.StatusFailed, step.Status)
	}
}

func TestRunAllSkipsCompletedSteps(t *testing.T) {
	producer := new(testutil.MockProducer)
	producer.On("Produce", 2).Return(codeResult("b"), nil).Once()
	exec := executor.New(producer, executor.Options{})

	plan := testutil.NewPlan(t,
		models.Step{ID: 1, Title: "a", Status: models.StatusCompleted},
		models.Step{ID: 2, Title: "b", Dependencies: []int{1}},
	)

	summary := exec.RunAll(context.Background(), plan)
	assert.Equal(t, 1, summary.AlreadyCompleted)
	assert.Equal(t, 1, summary.Completed)
	producer.AssertNumberOfCalls(t, "Produce", 1)
}

func TestRunAllMissingDependencyTerminates(t *testing.T) {
	producer := new(testutil.MockProducer)
	producer.On("Produce", 1).Return(codeResult("a"), nil).Once()
	reporter := &testutil.RecordingReporter{}
	exec := executor.New(producer, executor.Options{Reporter: reporter})

	// Step 3 does not exist and can never complete
	plan := testutil.NewPlan(t,
		models.Step{ID: 1, Title: "a"},
		models.Step{ID: 2, Title: "b", Dependencies: []int{3}},
	)

	summary := exec.RunAll(context.Background(), plan)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, models.StatusPending, plan.GetStep(2).Status)
	assert.Equal(t, []string{"started", "completed", "unmet", "finished"}, reporter.Kinds(false))
	assert.Equal(t, []int{3}, reporter.Events[3].Unmet)

	// Running it again reports the same unmet dependency
	outcome, err := exec.RunStep(context.Background(), plan, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, outcome.UnmetDependencies)
}

func TestRunAllDoesNotReorderForwardDependencies(t *testing.T) {
	producer := new(testutil.MockProducer)
	producer.On("Produce", 2).Return(codeResult("b"), nil).Once()
	exec := executor.New(producer, executor.Options{})

	// Step 1 depends on step 2, which appears later in the list
	plan := testutil.NewPlan(t,
		models.Step{ID: 1, Title: "a", Dependencies: []int{2}},
		models.Step{ID: 2, Title: "b"},
	)

	summary := exec.RunAll(context.Background(), plan)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, models.StatusPending, plan.GetStep(1).Status, "step 1 is not retried in the same pass")

	// A second pass picks it up
	producer.On("Produce", 1).Return(codeResult("a"), nil).Once()
	summary = exec.RunAll(context.Background(), plan)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 1, summary.AlreadyCompleted)
	assert.Equal(t, models.StatusCompleted, plan.GetStep(1).Status)
}

func TestRunAllEmptyPlan(t *testing.T) {
	reporter := &testutil.RecordingReporter{}
	exec := executor.New(new(testutil.MockProducer), executor.Options{Reporter: reporter})

	summary := exec.RunAll(context.Background(), testutil.NewPlan(t))
	assert.Zero(t, summary.Total)
	assert.Equal(t, []string{"finished"}, reporter.Kinds(true))
}

func TestRunAllCancelledBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	producer := executor.ProducerFunc(func(context.Context, models.Step, string) (*models.StepResult, error) {
		calls++
		cancel()
		return codeResult("x"), nil
	})
	exec := executor.New(producer, executor.Options{StepDelay: time.Hour})

	plan := testutil.NewPlan(t,
		models.Step{ID: 1, Title: "a"},
		models.Step{ID: 2, Title: "b"},
		models.Step{ID: 3, Title: "c"},
	)

	summary := exec.RunAll(ctx, plan)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 2, summary.NotVisited)
	assert.Equal(t, models.StatusCompleted, plan.GetStep(1).Status, "in-flight step still finishes")
	assert.Equal(t, models.StatusPending, plan.GetStep(2).Status)
}

func TestRunAllWaitsBetweenSteps(t *testing.T) {
	producer := new(testutil.MockProducer)
	producer.On("Produce", mock.Anything).Return(codeResult("x"), nil)
	delay := 20 * time.Millisecond
	exec := executor.New(producer, executor.Options{StepDelay: delay})

	plan := testutil.NewPlan(t,
		models.Step{ID: 1, Title: "a"},
		models.Step{ID: 2, Title: "b"},
		models.Step{ID: 3, Title: "c"},
	)

	start := time.Now()
	summary := exec.RunAll(context.Background(), plan)
	elapsed := time.Since(start)

	assert.Equal(t, 3, summary.Completed)
	// Two gaps for three steps, none after the last
	assert.GreaterOrEqual(t, elapsed, 2*delay)
}

func TestRunAllReporterOrderPerStep(t *testing.T) {
	producer := new(testutil.MockProducer)
	producer.On("Produce", 1).Return(codeResult("a"), nil)
	producer.On("Produce", 2).Return(nil, errors.New("bad"))
	reporter := &testutil.RecordingReporter{}
	exec := executor.New(producer, executor.Options{Reporter: executor.MultiReporter{reporter, executor.NopReporter{}}})

	plan := testutil.NewPlan(t,
		models.Step{ID: 1, Title: "a"},
		models.Step{ID: 2, Title: "b"},
	)
	exec.RunAll(context.Background(), plan)

	assert.Equal(t,
		[]string{"started", "completed", "progress", "started", "failed", "progress", "finished"},
		reporter.Kinds(true))
}
