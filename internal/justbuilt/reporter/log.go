// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/executor"
	"github.com/sirupsen/logrus"
)

// Log writes every event as a structured log entry
type Log struct {
	logger *logrus.Logger
}

// NewLog creates a log reporter
func NewLog(logger *logrus.Logger) *Log {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Log{logger: logger}
}

func (l *Log) entry(run *executor.ExecutionContext, step models.Step) *logrus.Entry {
	return l.logger.WithFields(logrus.Fields{
		"plan_id": run.PlanID,
		"run_id":  run.RunID,
		"step_id": step.ID,
		"status":  step.Status,
	})
}

func (l *Log) OnStepStarted(run *executor.ExecutionContext, step models.Step) {
	l.entry(run, step).WithField("attempt", step.Attempts).Info("Step started")
}

func (l *Log) OnStepCompleted(run *executor.ExecutionContext, step models.Step) {
	e := l.entry(run, step).WithField("duration", step.Duration())
	if step.Result != nil && step.Result.FilePath != "" {
		e = e.WithField("path", step.Result.FilePath)
	}
	e.Info("Step completed")
}

func (l *Log) OnStepFailed(run *executor.ExecutionContext, step models.Step, err error) {
	l.entry(run, step).WithError(err).Error("Step failed")
}

func (l *Log) OnDependenciesUnmet(run *executor.ExecutionContext, step models.Step, unmet []int) {
	l.entry(run, step).WithField("unmet", unmet).Warn("Step dependencies not completed")
}

func (l *Log) OnProgress(run *executor.ExecutionContext, percent float64) {
	l.logger.WithFields(logrus.Fields{
		"plan_id":  run.PlanID,
		"run_id":   run.RunID,
		"progress": run.Progress,
		"percent":  percent,
	}).Debug("Progress")
}

func (l *Log) OnAllFinished(run *executor.ExecutionContext, summary executor.Summary) {
	l.logger.WithFields(logrus.Fields{
		"plan_id":   run.PlanID,
		"run_id":    run.RunID,
		"completed": summary.Completed,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"cancelled": summary.Cancelled,
		"duration":  summary.Duration,
	}).Info("Plan execution finished")
}
