// SPDX-License-Identifier: Apache-2.0

package planner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/defaults"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPlanner(t *testing.T, options planner.Options) *planner.RuleBasedPlanner {
	t.Helper()
	blueprints, err := planner.ParseBlueprints(defaults.Blueprints())
	require.NoError(t, err)

	options.SkipInference = true
	p, err := planner.NewRuleBasedPlanner(blueprints, options)
	require.NoError(t, err)
	return p
}

func titles(plan *models.Plan) []string {
	var result []string
	for _, s := range plan.Steps {
		result = append(result, s.Title)
	}
	return result
}

func TestGenerateDefaultBlueprint(t *testing.T) {
	p := defaultPlanner(t, planner.Options{})

	plan, err := p.Generate(context.Background(), "a poem generator", "gemini")
	require.NoError(t, err)

	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, "a poem generator", plan.Request)
	assert.Equal(t, "gemini", plan.Model)
	assert.Equal(t, "default", plan.Blueprint)
	assert.Equal(t, []string{"Project Setup", "Core Implementation", "Testing & Validation", "Final Polish"}, titles(plan))

	for i, step := range plan.Steps {
		assert.Equal(t, i+1, step.ID)
		assert.Equal(t, models.StatusPending, step.Status)
	}
	assert.Empty(t, plan.Steps[0].Dependencies)
	assert.Equal(t, []int{1}, plan.Steps[1].Dependencies)
	assert.Equal(t, []int{3}, plan.Steps[3].Dependencies)
	assert.Equal(t, 5, plan.NextID())
}

func TestGenerateSelectsBlueprintByKeywords(t *testing.T) {
	tests := []struct {
		request   string
		blueprint string
		firstDesc string
	}{
		{
			request:   "Build a React todo app",
			blueprint: "web-frontend",
			firstDesc: "Initialize the react project structure and dependencies for app",
		},
		{
			request:   "a REST api with express",
			blueprint: "api-service",
			firstDesc: "Initialize the javascript project for service with express",
		},
		{
			request:   "a cli tool in golang",
			blueprint: "cli-tool",
			firstDesc: "Initialize the go module for tool",
		},
		{
			request:   "my personal website",
			blueprint: "web-frontend",
			firstDesc: "Initialize the vanilla project structure and dependencies for app",
		},
	}

	p := defaultPlanner(t, planner.Options{})
	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			plan, err := p.Generate(context.Background(), tt.request, "claude")
			require.NoError(t, err)
			assert.Equal(t, tt.blueprint, plan.Blueprint)
			assert.Equal(t, tt.firstDesc, plan.Steps[0].Description)
			assert.NoError(t, models.ValidatePlan(plan))
		})
	}
}

func TestGenerateTranslatesDependencies(t *testing.T) {
	p := defaultPlanner(t, planner.Options{})

	plan, err := p.Generate(context.Background(), "react dashboard", "gemini")
	require.NoError(t, err)

	// polish depends on styles (4) and tests (5)
	polish := plan.GetStep(6)
	require.NotNil(t, polish)
	assert.Equal(t, "Final Polish", polish.Title)
	assert.Equal(t, []int{4, 5}, polish.Dependencies)
	assert.Equal(t, "15m", polish.EstimatedTime)
}

func TestGenerateExplicitParametersWin(t *testing.T) {
	p := defaultPlanner(t, planner.Options{
		ExtraParams: map[string]interface{}{"project_name": "todo", "framework": "svelte"},
	})

	plan, err := p.Generate(context.Background(), "a react app", "gemini")
	require.NoError(t, err)
	assert.Equal(t, "Initialize the svelte project structure and dependencies for todo", plan.Steps[0].Description)
}

func TestGenerateRecordsResolvedParameters(t *testing.T) {
	blueprints, err := planner.ParseBlueprints([]byte(`
blueprints:
  - id: service
    parameters:
      project_name: shop
      image: "{{.project_name}}-api"
    steps:
      - id: build
        title: Build {{.image}}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"image"}, blueprints[0].RequiredParameters())
	assert.Empty(t, blueprints[0].MissingParameters())

	p, err := planner.NewRuleBasedPlanner(blueprints, planner.Options{SkipInference: true})
	require.NoError(t, err)

	plan, err := p.Generate(context.Background(), "anything", "gemini")
	require.NoError(t, err)
	assert.Equal(t, "Build shop-api", plan.Steps[0].Title)
	assert.Equal(t, "shop-api", plan.Parameters["image"])
	assert.Equal(t, "shop", plan.Parameters["project_name"])
}

func TestGenerateParameterSchema(t *testing.T) {
	p := defaultPlanner(t, planner.Options{
		ExtraParams: map[string]interface{}{"project_name": ""},
	})

	_, err := p.Generate(context.Background(), "a react app", "gemini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "web-frontend")
}

func TestGenerateUnavailable(t *testing.T) {
	p := defaultPlanner(t, planner.Options{})

	_, err := p.Generate(context.Background(), "a todo app", "gpt-9")
	assert.True(t, errors.Is(err, planner.ErrPlannerUnavailable))

	_, err = p.Generate(context.Background(), "   ", "gemini")
	assert.True(t, errors.Is(err, planner.ErrPlannerUnavailable))

	require.NoError(t, p.Registry().SetAvailable("ollama", false))
	_, err = p.Generate(context.Background(), "a todo app", "ollama")
	assert.True(t, errors.Is(err, planner.ErrPlannerUnavailable))
}

func TestGenerateNoMatchingBlueprint(t *testing.T) {
	blueprints, err := planner.ParseBlueprints([]byte(`
blueprints:
  - id: only-cli
    condition: "'cli' in request.keywords"
    steps:
      - id: one
        title: One
`))
	require.NoError(t, err)

	p, err := planner.NewRuleBasedPlanner(blueprints, planner.Options{SkipInference: true})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "a website", "gemini")
	assert.True(t, errors.Is(err, planner.ErrPlannerUnavailable))

	plan, err := p.Generate(context.Background(), "a cli", "gemini")
	require.NoError(t, err)
	assert.Len(t, plan.Steps, 1)
}

func TestGenerateMissingParameter(t *testing.T) {
	blueprints, err := planner.ParseBlueprints([]byte(`
blueprints:
  - id: needs-param
    steps:
      - id: one
        title: Deploy to {{.target}}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"target"}, blueprints[0].RequiredParameters())
	assert.Equal(t, []string{"target"}, blueprints[0].MissingParameters())

	p, err := planner.NewRuleBasedPlanner(blueprints, planner.Options{SkipInference: true})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "anything", "gemini")
	assert.Error(t, err)

	p, err = planner.NewRuleBasedPlanner(blueprints, planner.Options{
		SkipInference: true,
		ExtraParams:   map[string]interface{}{"target": "staging"},
	})
	require.NoError(t, err)
	plan, err := p.Generate(context.Background(), "anything", "gemini")
	require.NoError(t, err)
	assert.Equal(t, "Deploy to staging", plan.Steps[0].Title)
}

func TestGenerateCancelled(t *testing.T) {
	p := defaultPlanner(t, planner.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, "a todo app", "gemini")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRuleBasedPlannerRejectsBadCondition(t *testing.T) {
	_, err := planner.NewRuleBasedPlanner([]planner.Blueprint{{
		ID:        "broken",
		Condition: "request.text ==",
		Steps:     []planner.BlueprintStep{{ID: "a", Title: "A"}},
	}}, planner.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
