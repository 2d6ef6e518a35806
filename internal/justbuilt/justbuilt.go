// SPDX-License-Identifier: Apache-2.0

// Package justbuilt wires configuration, planning, code production and
// reporting together for the command line.
package justbuilt

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/kusari-oss/justbuilt/internal/core/config"
	"github.com/kusari-oss/justbuilt/internal/core/format"
	"github.com/kusari-oss/justbuilt/internal/core/library"
	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/core/schema"
	"github.com/kusari-oss/justbuilt/internal/defaults"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/executor"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/planner"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/producer"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/scanner"
	"github.com/kusari-oss/justbuilt/internal/store"
	"github.com/sirupsen/logrus"
)

//go:embed plan.schema.json
var planSchema []byte

// GenerateOptions contains options for plan generation
type GenerateOptions struct {
	WorkspaceDir  string
	ExtraParams   map[string]interface{}
	SkipInference bool
}

// LoadPlanFile loads a plan from a file (supports both YAML and JSON) and
// validates it
func LoadPlanFile(filePath string) (*models.Plan, error) {
	if err := ValidatePlanFile(filePath); err != nil {
		return nil, err
	}

	var plan models.Plan
	if err := format.ParseFile(filePath, &plan); err != nil {
		return nil, fmt.Errorf("error parsing plan file: %w", err)
	}
	for i := range plan.Steps {
		if plan.Steps[i].Status == "" {
			plan.Steps[i].Status = models.StatusPending
		}
	}
	if plan.Steps == nil {
		plan.Steps = []models.Step{}
	}

	if err := models.ValidatePlan(&plan); err != nil {
		return nil, fmt.Errorf("invalid plan in %s: %w", filePath, err)
	}
	return &plan, nil
}

// ValidatePlanFile checks the shape of a plan file against the plan schema
func ValidatePlanFile(filePath string) error {
	var doc map[string]interface{}
	if err := format.ParseFile(filePath, &doc); err != nil {
		return fmt.Errorf("error parsing plan file: %w", err)
	}
	if err := schema.ValidateDocument("plan", planSchema, doc); err != nil {
		return fmt.Errorf("invalid plan file %s: %w", filePath, err)
	}
	return nil
}

// SavePlanFile writes a plan in the format matching the file extension. The
// plan is checked the same way LoadPlanFile checks it; an invalid plan leaves
// the existing file untouched.
func SavePlanFile(filePath string, plan *models.Plan) error {
	if err := models.ValidatePlan(plan); err != nil {
		return fmt.Errorf("refusing to save invalid plan: %w", err)
	}
	if plan.Steps == nil {
		plan.Steps = []models.Step{}
	}
	if err := schema.ValidateDocument("plan", planSchema, plan); err != nil {
		return fmt.Errorf("refusing to save invalid plan: %w", err)
	}

	if err := format.WriteFile(filePath, plan); err != nil {
		return fmt.Errorf("error saving plan: %w", err)
	}
	return nil
}

// GenerateAndSave asks the planner for a plan and writes it to filePath.
// Nothing is written when generation fails.
func GenerateAndSave(ctx context.Context, p planner.Planner, request, modelID, filePath string) (*models.Plan, error) {
	plan, err := p.Generate(ctx, request, modelID)
	if err != nil {
		return nil, fmt.Errorf("error generating plan: %w", err)
	}
	if err := SavePlanFile(filePath, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// LoadBlueprints loads blueprints from the library, falling back to the
// embedded defaults
func LoadBlueprints(cfg *config.Config, logger *logrus.Logger) ([]planner.Blueprint, error) {
	data, source, err := defaults.Load(cfg.LibraryPath, defaults.BlueprintsFile)
	if err != nil {
		return nil, err
	}

	blueprints, err := planner.ParseBlueprints(data)
	if err != nil {
		return nil, fmt.Errorf("error loading blueprints from %s: %w", source, err)
	}
	if logger != nil {
		logger.WithFields(logrus.Fields{"source": source, "count": len(blueprints)}).Debug("Loaded blueprints")
	}
	return blueprints, nil
}

// NewRegistry returns the model registry with the models disabled in the
// configuration marked unavailable
func NewRegistry(cfg *config.Config) (*planner.Registry, error) {
	registry := planner.NewRegistry()
	for _, id := range cfg.LLM.DisabledModels {
		if err := registry.SetAvailable(id, false); err != nil {
			return nil, fmt.Errorf("llm.disabled_models: %w", err)
		}
	}
	return registry, nil
}

// NewPlanner builds the rule based planner from the library blueprints and
// the configured model registry
func NewPlanner(cfg *config.Config, options GenerateOptions, logger *logrus.Logger) (*planner.RuleBasedPlanner, error) {
	blueprints, err := LoadBlueprints(cfg, logger)
	if err != nil {
		return nil, err
	}

	registry, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}

	return planner.NewRuleBasedPlanner(blueprints, planner.Options{
		Registry:      registry,
		WorkspaceDir:  options.WorkspaceDir,
		SkipInference: options.SkipInference,
		ExtraParams:   options.ExtraParams,
		Logger:        logger,
	})
}

// NewProducer loads snippets from the library, falling back to the embedded
// defaults. Generated code is written below the configured workspace
// directory when one is set.
func NewProducer(cfg *config.Config, logger *logrus.Logger) (*producer.TemplateProducer, error) {
	data, source, err := defaults.Load(cfg.LibraryPath, defaults.SnippetsFile)
	if err != nil {
		return nil, err
	}

	snippets, err := producer.ParseSnippets(data)
	if err != nil {
		return nil, fmt.Errorf("error loading snippets from %s: %w", source, err)
	}

	var writer *producer.WorkspaceWriter
	if cfg.Execution.WorkspaceDir != "" {
		writer = producer.NewWorkspaceWriter(cfg.Execution.WorkspaceDir, cfg.Execution.OutputPath)
	}

	return producer.New(snippets, producer.Options{
		Writer: writer,
		Params: map[string]interface{}{
			"coding_style":   cfg.Agent.CodingStyle,
			"security_level": cfg.Agent.SecurityLevel,
			"system_prompt":  cfg.SystemPrompt(),
		},
		Logger: logger,
	}), nil
}

// NewScanner loads scan rules from the library, falling back to the
// embedded defaults
func NewScanner(cfg *config.Config, logger *logrus.Logger) (*scanner.Scanner, error) {
	data, source, err := defaults.Load(cfg.LibraryPath, defaults.ScanRulesFile)
	if err != nil {
		return nil, err
	}

	rules, err := scanner.ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("error loading scan rules from %s: %w", source, err)
	}

	s, err := scanner.New(rules, logger)
	if err != nil {
		return nil, fmt.Errorf("error loading scan rules from %s: %w", source, err)
	}
	return s, nil
}

// ScanThreshold returns the lowest severity that fails a scan, or "" when
// scans never fail
func ScanThreshold(cfg *config.Config) (scanner.Severity, error) {
	if cfg.Scan.FailOn == "" || cfg.Scan.FailOn == "none" {
		return "", nil
	}
	return scanner.ParseSeverity(cfg.Scan.FailOn)
}

// NewExecutor builds an executor using the configured delay and timeout
func NewExecutor(cfg *config.Config, stepProducer executor.StepProducer, reporter executor.ProgressReporter, logger *logrus.Logger) (*executor.Executor, error) {
	delay, err := cfg.StepDelay()
	if err != nil {
		return nil, err
	}

	return executor.New(stepProducer, executor.Options{
		StepDelay:      delay,
		ProduceTimeout: cfg.ProduceTimeout(),
		Reporter:       reporter,
		Logger:         logger,
	}), nil
}

// OpenTimeline opens the configured timeline database. It returns nil when
// the timeline is disabled.
func OpenTimeline(cfg *config.Config) (*store.Store, error) {
	if cfg.Execution.TimelineDB == "" {
		return nil, nil
	}
	return store.Open(cfg.Execution.TimelineDB)
}

// NewLibraryManager creates a library manager that checks blueprints and
// snippets the same way the planner and producer load them
func NewLibraryManager(cfg *config.Config, logger *logrus.Logger) *library.Manager {
	return library.NewManager(cfg.LibraryPath, cfg.CmdLineLibraryPath, map[string]library.Validator{
		defaults.BlueprintsFile: func(data []byte) error {
			_, err := planner.ParseBlueprints(data)
			return err
		},
		defaults.SnippetsFile: func(data []byte) error {
			_, err := producer.ParseSnippets(data)
			return err
		},
		defaults.ScanRulesFile: func(data []byte) error {
			rules, err := scanner.ParseRules(data)
			if err != nil {
				return err
			}
			_, err = scanner.New(rules, logger)
			return err
		},
	}, logger)
}

// PlanExists reports whether a plan file is present
func PlanExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
