// SPDX-License-Identifier: Apache-2.0

// Package env holds the state shared by all justbuilt subcommands.
package env

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/kusari-oss/justbuilt/internal/core/config"
	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/justbuilt"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/executor"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/reporter"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/scanner"
	"github.com/kusari-oss/justbuilt/internal/version"
	"github.com/sirupsen/logrus"
)

// Env is filled from the persistent flags before any subcommand runs
type Env struct {
	ConfigFile  string
	ProjectDir  string
	LibraryPath string
	Verbose     bool

	Config *config.Config
	Logger *logrus.Logger
}

// Setup resolves the project directory, loads the configuration and
// prepares the logger
func (e *Env) Setup(stderr io.Writer) error {
	var err error
	if e.ProjectDir == "" {
		e.ProjectDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("error getting current directory: %w", err)
		}
	} else {
		e.ProjectDir, err = filepath.Abs(e.ProjectDir)
		if err != nil {
			return fmt.Errorf("error resolving project directory: %w", err)
		}
	}

	e.Config, err = config.LoadConfig(e.LibraryPath, e.ConfigFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	e.Logger = logrus.New()
	e.Logger.SetOutput(stderr)
	e.Logger.SetLevel(logrus.WarnLevel)
	if e.Verbose {
		e.Logger.SetLevel(logrus.DebugLevel)
	}
	return nil
}

// PlanFile is where the project's current plan is kept
func (e *Env) PlanFile() string {
	return config.PlanFilePath(e.ProjectDir)
}

// LoadPlan loads the project's current plan
func (e *Env) LoadPlan() (*models.Plan, error) {
	path := e.PlanFile()
	if !justbuilt.PlanExists(path) {
		return nil, fmt.Errorf("no plan found in %s, run 'justbuilt plan generate' first", e.ProjectDir)
	}
	return justbuilt.LoadPlanFile(path)
}

// SavePlan stores the plan as the project's current plan and records it in
// the project state. runID may be empty.
func (e *Env) SavePlan(plan *models.Plan, runID string) error {
	if err := justbuilt.SavePlanFile(e.PlanFile(), plan); err != nil {
		return err
	}
	return e.RecordState(plan, runID)
}

// RecordState remembers the plan and, when set, the run id in the project
// state
func (e *Env) RecordState(plan *models.Plan, runID string) error {
	state, err := config.LoadState(e.ProjectDir)
	if err != nil {
		state = config.NewState(e.ProjectDir, version.Version)
	}
	state.PlanFile = e.PlanFile()
	state.Version = version.Version
	if state.PlanID != plan.ID {
		state.LastRunID = ""
	}
	state.PlanID = plan.ID
	if runID != "" {
		state.LastRunID = runID
	}
	return config.SaveState(state, e.ProjectDir)
}

// Scan checks the completed steps of plan, records the findings in the
// timeline under runID and returns the report. When runID is empty a new
// one is used.
func (e *Env) Scan(ctx context.Context, plan *models.Plan, runID string) (*scanner.Report, error) {
	s, err := justbuilt.NewScanner(e.Config, e.Logger)
	if err != nil {
		return nil, err
	}
	report := s.Scan(plan)

	db, err := justbuilt.OpenTimeline(e.Config)
	if err != nil {
		e.Logger.WithError(err).Warn("Timeline disabled")
		return report, nil
	}
	if db == nil {
		return report, nil
	}
	defer db.Close()

	if runID == "" {
		runID = uuid.NewString()
	}
	for _, ev := range report.Events(runID) {
		if _, err := db.Record(ctx, ev); err != nil {
			e.Logger.WithError(err).Warn("Failed to record scan finding")
			break
		}
	}
	return report, nil
}

// CheckScan fails when the report has findings at or above the configured
// threshold
func (e *Env) CheckScan(report *scanner.Report) error {
	threshold, err := justbuilt.ScanThreshold(e.Config)
	if err != nil || threshold == "" {
		return err
	}
	if n := report.CountAtLeast(threshold); n > 0 {
		return fmt.Errorf("scan found %d findings of severity %s or higher", n, threshold)
	}
	return nil
}

// Executor builds an executor reporting to out, the log and, when enabled,
// the timeline. The returned function releases the timeline database.
func (e *Env) Executor(out io.Writer, showCode, noDelay bool) (*executor.Executor, func(), error) {
	cfg := *e.Config
	if noDelay {
		cfg.Execution.StepDelay = "0s"
	}
	if cfg.Execution.WorkspaceDir != "" && !filepath.IsAbs(cfg.Execution.WorkspaceDir) {
		cfg.Execution.WorkspaceDir = filepath.Join(e.ProjectDir, cfg.Execution.WorkspaceDir)
	}

	stepProducer, err := justbuilt.NewProducer(&cfg, e.Logger)
	if err != nil {
		return nil, nil, err
	}

	reporters := executor.MultiReporter{reporter.NewConsole(out, showCode)}
	if e.Verbose {
		reporters = append(reporters, reporter.NewLog(e.Logger))
	}

	cleanup := func() {}
	db, err := justbuilt.OpenTimeline(&cfg)
	if err != nil {
		e.Logger.WithError(err).Warn("Timeline disabled")
	} else if db != nil {
		reporters = append(reporters, reporter.NewTimeline(db, e.Logger))
		cleanup = func() { db.Close() }
	}

	exec, err := justbuilt.NewExecutor(&cfg, stepProducer, reporters, e.Logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return exec, cleanup, nil
}
