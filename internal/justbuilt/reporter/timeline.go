// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"context"
	"fmt"

	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/executor"
	"github.com/kusari-oss/justbuilt/internal/store"
	"github.com/sirupsen/logrus"
)

// Recorder persists timeline events
type Recorder interface {
	Record(ctx context.Context, event store.Event) (int64, error)
}

// Timeline records every event in a Recorder. Recording failures are logged
// and never interrupt execution.
type Timeline struct {
	recorder Recorder
	logger   *logrus.Logger
}

// NewTimeline creates a timeline reporter
func NewTimeline(recorder Recorder, logger *logrus.Logger) *Timeline {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Timeline{recorder: recorder, logger: logger}
}

func (t *Timeline) record(run *executor.ExecutionContext, event store.Event) {
	event.PlanID = run.PlanID
	event.RunID = run.RunID
	if _, err := t.recorder.Record(context.Background(), event); err != nil {
		t.logger.WithError(err).WithField("kind", event.Kind).Warn("Failed to record timeline event")
	}
}

func (t *Timeline) OnStepStarted(run *executor.ExecutionContext, step models.Step) {
	t.record(run, store.Event{StepID: step.ID, Kind: "started", Title: step.Title,
		Detail: fmt.Sprintf("attempt %d", step.Attempts)})
}

func (t *Timeline) OnStepCompleted(run *executor.ExecutionContext, step models.Step) {
	detail := ""
	if step.Result != nil {
		detail = step.Result.FilePath
	}
	t.record(run, store.Event{StepID: step.ID, Kind: "completed", Title: step.Title, Detail: detail})
}

func (t *Timeline) OnStepFailed(run *executor.ExecutionContext, step models.Step, err error) {
	t.record(run, store.Event{StepID: step.ID, Kind: "failed", Title: step.Title, Detail: step.Error})
}

func (t *Timeline) OnDependenciesUnmet(run *executor.ExecutionContext, step models.Step, unmet []int) {
	t.record(run, store.Event{StepID: step.ID, Kind: "waiting", Title: step.Title, Detail: "waiting on " + joinIDs(unmet)})
}

func (t *Timeline) OnProgress(run *executor.ExecutionContext, percent float64) {
	t.record(run, store.Event{Kind: "progress", Detail: fmt.Sprintf("%.0f%%", percent)})
}

func (t *Timeline) OnAllFinished(run *executor.ExecutionContext, summary executor.Summary) {
	t.record(run, store.Event{Kind: "finished", Detail: SummaryLine(summary)})
}
