// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"context"
	"fmt"

	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/core/parameters"
	"github.com/kusari-oss/justbuilt/internal/core/schema"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/condition"
	"github.com/sirupsen/logrus"
)

// Options configures a RuleBasedPlanner
type Options struct {
	// Registry of accepted models. Nil means DefaultModels.
	Registry *Registry

	// WorkspaceDir is inspected for project parameters unless SkipInference is set
	WorkspaceDir  string
	SkipInference bool

	// ExtraParams override every other parameter source
	ExtraParams map[string]interface{}

	Logger *logrus.Logger
}

// RuleBasedPlanner builds plans from blueprints. The first blueprint whose
// condition matches the request is used.
type RuleBasedPlanner struct {
	blueprints []Blueprint
	registry   *Registry
	evaluator  *condition.CELEvaluator
	params     *parameters.ParameterProcessor
	options    Options
	logger     *logrus.Logger
}

// NewRuleBasedPlanner creates a planner. Blueprint conditions are compiled up
// front so a bad expression fails here rather than at generation time.
func NewRuleBasedPlanner(blueprints []Blueprint, options Options) (*RuleBasedPlanner, error) {
	evaluator, err := condition.NewCELEvaluator()
	if err != nil {
		return nil, err
	}

	for _, bp := range blueprints {
		if bp.Condition == "" {
			continue
		}
		if err := evaluator.Compile(bp.Condition); err != nil {
			return nil, fmt.Errorf("blueprint %s: %w", bp.ID, err)
		}
	}

	registry := options.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	logger := options.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	return &RuleBasedPlanner{
		blueprints: blueprints,
		registry:   registry,
		evaluator:  evaluator,
		params:     parameters.NewParameterProcessor(),
		options:    options,
		logger:     logger,
	}, nil
}

// Registry returns the planner's model registry
func (p *RuleBasedPlanner) Registry() *Registry {
	return p.registry
}

// Generate creates a plan for the request
func (p *RuleBasedPlanner) Generate(ctx context.Context, text, modelID string) (*models.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := ParseRequest(text, modelID)
	if req.Text == "" {
		return nil, fmt.Errorf("%w: empty request", ErrPlannerUnavailable)
	}

	model, err := p.registry.Lookup(modelID)
	if err != nil {
		return nil, err
	}
	req.Model = model.ID

	log := p.logger.WithField("model", model.ID)

	params := p.collectParameters(ctx, req)

	bp, err := p.selectBlueprint(req, params)
	if err != nil {
		return nil, err
	}
	log = log.WithField("blueprint", bp.ID)
	log.Debug("Selected blueprint")

	params = schema.MergeWithDefaults(params, bp.Parameters)
	if bp.Schema != nil {
		params = schema.CoerceParams(params, bp.Schema)
		if err := schema.ValidateParams(bp.Schema, params); err != nil {
			return nil, fmt.Errorf("blueprint %s: %w", bp.ID, err)
		}
	}

	// Parameter values may refer to other parameters, e.g. "{{.project_name}}-api"
	params, err = p.params.ProcessMap(params, params)
	if err != nil {
		return nil, fmt.Errorf("blueprint %s: %w", bp.ID, err)
	}

	steps, err := bp.numberSteps()
	if err != nil {
		return nil, fmt.Errorf("blueprint %s: %w", bp.ID, err)
	}

	plan := models.NewPlan(req.Text, model.ID)
	plan.Blueprint = bp.ID
	plan.Parameters = params
	for _, step := range steps {
		if step.Title, err = p.params.SubstituteString(step.Title, params); err != nil {
			return nil, fmt.Errorf("blueprint %s step %d: %w", bp.ID, step.ID, err)
		}
		if step.Description, err = p.params.SubstituteString(step.Description, params); err != nil {
			return nil, fmt.Errorf("blueprint %s step %d: %w", bp.ID, step.ID, err)
		}
		if err := plan.AddStep(step); err != nil {
			return nil, err
		}
	}

	if err := models.ValidatePlan(plan); err != nil {
		return nil, fmt.Errorf("generated plan is invalid: %w", err)
	}

	log.WithFields(logrus.Fields{"plan_id": plan.ID, "steps": len(plan.Steps)}).Info("Generated plan")
	return plan, nil
}

// collectParameters merges workspace inference, request keywords and explicit
// parameters, in increasing priority
func (p *RuleBasedPlanner) collectParameters(ctx context.Context, req Request) map[string]interface{} {
	params := make(map[string]interface{})

	if !p.options.SkipInference {
		inferred, err := InferParametersFromWorkspace(ctx, p.options.WorkspaceDir)
		if err != nil {
			p.logger.WithError(err).Warn("Error inferring parameters from workspace")
		}
		for k, v := range inferred {
			params[k] = v
			p.logger.Debugf("Inferred parameter: %s = %v", k, v)
		}
	}

	for k, v := range req.KeywordParameters() {
		params[k] = v
		p.logger.Debugf("Request parameter: %s = %v", k, v)
	}

	for k, v := range p.options.ExtraParams {
		params[k] = v
		p.logger.Debugf("Explicit parameter: %s = %v", k, v)
	}

	return params
}

func (p *RuleBasedPlanner) selectBlueprint(req Request, params map[string]interface{}) (Blueprint, error) {
	data := req.celData(params)

	for _, bp := range p.blueprints {
		if bp.Condition == "" {
			return bp, nil
		}

		matches, err := p.evaluator.EvaluateExpression(bp.Condition, data)
		if err != nil {
			// A condition that cannot be evaluated for this request does not match
			p.logger.WithError(err).WithField("blueprint", bp.ID).Debug("Condition not evaluable")
			continue
		}
		if matches {
			return bp, nil
		}
	}

	return Blueprint{}, fmt.Errorf("%w: no blueprint matches the request", ErrPlannerUnavailable)
}
