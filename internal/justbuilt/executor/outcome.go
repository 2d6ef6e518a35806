// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kusari-oss/justbuilt/internal/core/models"
)

// OutcomeKind describes how a RunStep call ended
type OutcomeKind int

const (
	// OutcomeCompleted - the producer succeeded and the step is completed
	OutcomeCompleted OutcomeKind = iota

	// OutcomeFailed - the producer failed and the step is failed
	OutcomeFailed

	// OutcomeDependenciesUnmet - the step was not run, its status is unchanged
	OutcomeDependenciesUnmet

	// OutcomeAlreadyCompleted - the step was completed before the call, nothing ran
	OutcomeAlreadyCompleted
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeDependenciesUnmet:
		return "dependencies-unmet"
	case OutcomeAlreadyCompleted:
		return "already-completed"
	default:
		return "unknown"
	}
}

// Outcome is the result of running one step. Failures and unmet
// dependencies are outcomes, not errors.
type Outcome struct {
	RunID  string
	StepID int
	Kind   OutcomeKind

	// UnmetDependencies is set for OutcomeDependenciesUnmet
	UnmetDependencies []int

	// Result is set for OutcomeCompleted
	Result *models.StepResult

	// Err is the producer failure for OutcomeFailed
	Err error
}

// ProducerError wraps a failure returned by the step producer
type ProducerError struct {
	StepID int
	Err    error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("step %d: producer failed: %v", e.StepID, e.Err)
}

func (e *ProducerError) Unwrap() error {
	return e.Err
}

// Summary aggregates one RunAll pass
type Summary struct {
	RunID            string        `json:"run_id"`
	Total            int           `json:"total"`
	Completed        int           `json:"completed"`         // Completed during this pass
	Failed           int           `json:"failed"`            // Failed during this pass
	Skipped          int           `json:"skipped"`           // Dependencies unmet
	AlreadyCompleted int           `json:"already_completed"` // Completed before the pass started
	NotVisited       int           `json:"not_visited"`       // Left over after cancellation
	Cancelled        bool          `json:"cancelled"`
	Duration         time.Duration `json:"duration"`
}

// ExecutionContext tracks a single RunStep or RunAll invocation
type ExecutionContext struct {
	RunID        string
	PlanID       string
	ActiveStepID int // 0 when no step is running

	// Progress increases by one after every visited step and never goes back
	Progress int
	Percent  float64

	StartedAt time.Time
}

func newExecutionContext(plan *models.Plan) *ExecutionContext {
	return &ExecutionContext{
		RunID:     uuid.NewString(),
		PlanID:    plan.ID,
		StartedAt: time.Now(),
	}
}
