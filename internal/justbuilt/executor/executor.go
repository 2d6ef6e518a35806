// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/sirupsen/logrus"
)

// StepProducer turns a step into generated code. A returned error marks the
// step as failed.
type StepProducer interface {
	Produce(ctx context.Context, step models.Step, planContext string) (*models.StepResult, error)
}

// ProducerFunc adapts a function to StepProducer
type ProducerFunc func(ctx context.Context, step models.Step, planContext string) (*models.StepResult, error)

func (f ProducerFunc) Produce(ctx context.Context, step models.Step, planContext string) (*models.StepResult, error) {
	return f(ctx, step, planContext)
}

// Options configures an Executor
type Options struct {
	// StepDelay is waited between steps in RunAll
	StepDelay time.Duration

	// ProduceTimeout bounds a single Produce call. Zero means no limit.
	ProduceTimeout time.Duration

	// Reporter receives progress events. Nil means NopReporter.
	Reporter ProgressReporter

	// Logger for execution diagnostics. Nil means a Warn level logger.
	Logger *logrus.Logger
}

// Executor runs plan steps against a StepProducer, gating each step on its
// dependencies being completed. It holds no plan state between calls.
type Executor struct {
	producer       StepProducer
	reporter       ProgressReporter
	logger         *logrus.Logger
	stepDelay      time.Duration
	produceTimeout time.Duration
}

// New creates an executor
func New(producer StepProducer, options Options) *Executor {
	reporter := options.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}

	logger := options.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	return &Executor{
		producer:       producer,
		reporter:       reporter,
		logger:         logger,
		stepDelay:      options.StepDelay,
		produceTimeout: options.ProduceTimeout,
	}
}

// RunStep runs a single step. The only error returned is *models.NotFoundError;
// producer failures and unmet dependencies are reported through the Outcome.
func (e *Executor) RunStep(ctx context.Context, plan *models.Plan, stepID int) (Outcome, error) {
	run := newExecutionContext(plan)
	return e.runStep(ctx, run, plan, stepID)
}

func (e *Executor) runStep(ctx context.Context, run *ExecutionContext, plan *models.Plan, stepID int) (Outcome, error) {
	step := plan.GetStep(stepID)
	if step == nil {
		return Outcome{RunID: run.RunID, StepID: stepID}, &models.NotFoundError{ID: stepID}
	}

	log := e.logger.WithFields(logrus.Fields{
		"plan_id": plan.ID,
		"run_id":  run.RunID,
		"step_id": stepID,
	})

	if step.Status == models.StatusCompleted {
		log.Debug("Step already completed, nothing to run")
		return Outcome{RunID: run.RunID, StepID: stepID, Kind: OutcomeAlreadyCompleted, Result: step.Result}, nil
	}

	if unmet := plan.UnmetDependencies(step); len(unmet) > 0 {
		log.WithField("unmet", unmet).Info("Dependencies not completed, step not run")
		e.reporter.OnDependenciesUnmet(run, *step, unmet)
		return Outcome{RunID: run.RunID, StepID: stepID, Kind: OutcomeDependenciesUnmet, UnmetDependencies: unmet}, nil
	}

	step.MarkRunning()
	run.ActiveStepID = stepID
	log.WithField("attempt", step.Attempts).Info("Executing step")
	e.reporter.OnStepStarted(run, *step)

	// The producer gets a snapshot so it cannot change the plan behind our back
	result, err := e.produce(ctx, *step, plan.ContextString())
	run.ActiveStepID = 0

	if err != nil {
		perr := &ProducerError{StepID: stepID, Err: err}
		step.MarkFailed(err.Error())
		log.WithError(err).Warn("Step failed")
		e.reporter.OnStepFailed(run, *step, perr)
		return Outcome{RunID: run.RunID, StepID: stepID, Kind: OutcomeFailed, Err: perr}, nil
	}

	step.MarkCompleted(result)
	log.WithField("duration", step.Duration()).Info("Step completed")
	e.reporter.OnStepCompleted(run, *step)
	return Outcome{RunID: run.RunID, StepID: stepID, Kind: OutcomeCompleted, Result: result}, nil
}

// produce calls the producer with a context that ignores the caller's
// cancellation, bounded only by the produce timeout. Panics become errors.
// A result returned after the deadline is kept; the timeout only names the
// cause when the producer itself gave up.
func (e *Executor) produce(ctx context.Context, step models.Step, planContext string) (result *models.StepResult, err error) {
	produceCtx := context.WithoutCancel(ctx)
	if e.produceTimeout > 0 {
		var cancel context.CancelFunc
		produceCtx, cancel = context.WithTimeout(produceCtx, e.produceTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("producer panicked: %v", r)
		}
	}()

	result, err = e.producer.Produce(produceCtx, step, planContext)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && errors.Is(produceCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("producer exceeded timeout of %s: %w", e.produceTimeout, err)
	}
	return result, err
}

// RunAll visits the steps once in plan order and runs every step that is not
// already completed. A step whose dependencies are not completed at the time
// it is visited is skipped, even if they complete later in the same pass.
// RunAll always finishes; cancelling ctx stops it between steps.
func (e *Executor) RunAll(ctx context.Context, plan *models.Plan) Summary {
	run := newExecutionContext(plan)

	// Iterate over a snapshot of ids: the step list order at the start of the pass
	ids := make([]int, len(plan.Steps))
	for i, step := range plan.Steps {
		ids[i] = step.ID
	}

	summary := Summary{RunID: run.RunID, Total: len(ids)}
	log := e.logger.WithFields(logrus.Fields{"plan_id": plan.ID, "run_id": run.RunID})
	log.WithField("steps", len(ids)).Info("Executing plan")

	for i, id := range ids {
		if ctx.Err() != nil {
			summary.Cancelled = true
			summary.NotVisited = len(ids) - i
			break
		}

		outcome, err := e.runStep(ctx, run, plan, id)
		switch {
		case err != nil:
			// Removed from the plan while the pass was running
			log.WithError(err).Warn("Step disappeared during execution")
			summary.Skipped++
		case outcome.Kind == OutcomeCompleted:
			summary.Completed++
		case outcome.Kind == OutcomeFailed:
			summary.Failed++
		case outcome.Kind == OutcomeDependenciesUnmet:
			summary.Skipped++
		case outcome.Kind == OutcomeAlreadyCompleted:
			summary.AlreadyCompleted++
		}

		run.Progress++
		run.Percent = float64(i+1) / float64(len(ids)) * 100
		e.reporter.OnProgress(run, run.Percent)

		ran := err == nil && (outcome.Kind == OutcomeCompleted || outcome.Kind == OutcomeFailed)
		if ran && i < len(ids)-1 {
			if !e.wait(ctx) {
				summary.Cancelled = true
				summary.NotVisited = len(ids) - i - 1
				break
			}
		}
	}

	summary.Duration = time.Since(run.StartedAt)
	log.WithFields(logrus.Fields{
		"completed": summary.Completed,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"cancelled": summary.Cancelled,
	}).Info("Plan execution finished")
	e.reporter.OnAllFinished(run, summary)

	return summary
}

// wait sleeps for the step delay. It returns false if ctx was cancelled.
func (e *Executor) wait(ctx context.Context) bool {
	if e.stepDelay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(e.stepDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
