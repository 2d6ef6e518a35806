// SPDX-License-Identifier: Apache-2.0

package executor

import "github.com/kusari-oss/justbuilt/internal/core/models"

// ProgressReporter is notified synchronously as steps run. Steps are passed
// by value; reporters must not block for long since RunAll waits for them.
type ProgressReporter interface {
	OnStepStarted(run *ExecutionContext, step models.Step)
	OnStepCompleted(run *ExecutionContext, step models.Step)
	OnStepFailed(run *ExecutionContext, step models.Step, err error)
	OnDependenciesUnmet(run *ExecutionContext, step models.Step, unmet []int)
	OnProgress(run *ExecutionContext, percent float64)
	OnAllFinished(run *ExecutionContext, summary Summary)
}

// NopReporter ignores every event. Embed it to implement only some methods.
type NopReporter struct{}

func (NopReporter) OnStepStarted(*ExecutionContext, models.Step)              {}
func (NopReporter) OnStepCompleted(*ExecutionContext, models.Step)            {}
func (NopReporter) OnStepFailed(*ExecutionContext, models.Step, error)        {}
func (NopReporter) OnDependenciesUnmet(*ExecutionContext, models.Step, []int) {}
func (NopReporter) OnProgress(*ExecutionContext, float64)                     {}
func (NopReporter) OnAllFinished(*ExecutionContext, Summary)                  {}

// MultiReporter fans every event out to its reporters in order
type MultiReporter []ProgressReporter

func (m MultiReporter) OnStepStarted(run *ExecutionContext, step models.Step) {
	for _, r := range m {
		r.OnStepStarted(run, step)
	}
}

func (m MultiReporter) OnStepCompleted(run *ExecutionContext, step models.Step) {
	for _, r := range m {
		r.OnStepCompleted(run, step)
	}
}

func (m MultiReporter) OnStepFailed(run *ExecutionContext, step models.Step, err error) {
	for _, r := range m {
		r.OnStepFailed(run, step, err)
	}
}

func (m MultiReporter) OnDependenciesUnmet(run *ExecutionContext, step models.Step, unmet []int) {
	for _, r := range m {
		r.OnDependenciesUnmet(run, step, unmet)
	}
}

func (m MultiReporter) OnProgress(run *ExecutionContext, percent float64) {
	for _, r := range m {
		r.OnProgress(run, percent)
	}
}

func (m MultiReporter) OnAllFinished(run *ExecutionContext, summary Summary) {
	for _, r := range m {
		r.OnAllFinished(run, summary)
	}
}
