// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/core/parameters"
	"gopkg.in/yaml.v3"
)

// BlueprintStep is a step template inside a blueprint
type BlueprintStep struct {
	ID            string   `yaml:"id"`
	Title         string   `yaml:"title"`
	Description   string   `yaml:"description"`
	DependsOn     []string `yaml:"depends_on,omitempty"`
	EstimatedTime string   `yaml:"estimated_time,omitempty"`
}

// Blueprint is a reusable plan shape selected by a CEL condition
type Blueprint struct {
	ID          string                 `yaml:"id"`
	Name        string                 `yaml:"name,omitempty"`
	Description string                 `yaml:"description,omitempty"`
	Category    string                 `yaml:"category,omitempty"`
	Difficulty  string                 `yaml:"difficulty,omitempty"` // beginner, intermediate or advanced
	Tags        []string               `yaml:"tags,omitempty"`
	Condition   string                 `yaml:"condition,omitempty"` // CEL expression, empty matches everything
	Parameters  map[string]interface{} `yaml:"parameters,omitempty"`
	Schema      map[string]interface{} `yaml:"schema,omitempty"` // JSON schema for the merged parameters
	Steps       []BlueprintStep        `yaml:"steps"`
}

// Difficulties a blueprint can be labelled with
var Difficulties = []string{"beginner", "intermediate", "advanced"}

// BlueprintConfig is the content of a blueprints file
type BlueprintConfig struct {
	Blueprints []Blueprint `yaml:"blueprints"`
}

// ParseBlueprints parses and validates blueprint YAML
func ParseBlueprints(data []byte) ([]Blueprint, error) {
	var config BlueprintConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing blueprints: %w", err)
	}

	seen := make(map[string]bool)
	for _, bp := range config.Blueprints {
		if seen[bp.ID] {
			return nil, fmt.Errorf("duplicate blueprint id: %s", bp.ID)
		}
		seen[bp.ID] = true

		if err := bp.Validate(); err != nil {
			return nil, err
		}
	}

	return config.Blueprints, nil
}

// Validate checks step ids, dependency references and cycles
func (b Blueprint) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("blueprint has empty id")
	}
	if len(b.Steps) == 0 {
		return fmt.Errorf("blueprint %s has no steps", b.ID)
	}
	if b.Difficulty != "" && !slices.Contains(Difficulties, b.Difficulty) {
		return fmt.Errorf("blueprint %s: unknown difficulty %q", b.ID, b.Difficulty)
	}
	for _, s := range b.Steps {
		if s.EstimatedTime == "" {
			continue
		}
		if _, err := time.ParseDuration(s.EstimatedTime); err != nil {
			return fmt.Errorf("blueprint %s step %s: invalid estimated_time %q", b.ID, s.ID, s.EstimatedTime)
		}
	}

	_, err := b.numberSteps()
	if err != nil {
		return fmt.Errorf("blueprint %s: %w", b.ID, err)
	}
	return nil
}

// RequiredParameters lists the parameters referenced by step texts
func (b Blueprint) RequiredParameters() []string {
	return parameters.NewParameterProcessor().ExtractRequiredParameters(b.texts()...)
}

// MissingParameters lists the parameters referenced by step texts that the
// blueprint has no default for. They must come from the request, the
// workspace or an explicit --param.
func (b Blueprint) MissingParameters() []string {
	return parameters.NewParameterProcessor().MissingParameters(b.Parameters, b.texts()...)
}

func (b Blueprint) texts() []string {
	var texts []string
	for _, s := range b.Steps {
		texts = append(texts, s.Title, s.Description)
	}
	return texts
}

// DisplayName returns the name, falling back to the id
func (b Blueprint) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	return b.ID
}

// EstimatedTime sums the estimates of the blueprint's steps. Steps without an
// estimate count as zero.
func (b Blueprint) EstimatedTime() time.Duration {
	var total time.Duration
	for _, s := range b.Steps {
		if d, err := time.ParseDuration(s.EstimatedTime); err == nil {
			total += d
		}
	}
	return total
}

// BlueprintFilter selects blueprints for listing. Empty fields match
// everything.
type BlueprintFilter struct {
	Category   string
	Difficulty string
	Search     string // Case-insensitive match on id, name, description and tags
}

// Matches reports whether the blueprint passes the filter
func (f BlueprintFilter) Matches(b Blueprint) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, b.Category) {
		return false
	}
	if f.Difficulty != "" && !strings.EqualFold(f.Difficulty, b.Difficulty) {
		return false
	}
	if f.Search == "" {
		return true
	}

	term := strings.ToLower(f.Search)
	for _, text := range append([]string{b.ID, b.Name, b.Description}, b.Tags...) {
		if strings.Contains(strings.ToLower(text), term) {
			return true
		}
	}
	return false
}

// FilterBlueprints returns the blueprints passing the filter, in order
func FilterBlueprints(blueprints []Blueprint, filter BlueprintFilter) []Blueprint {
	var result []Blueprint
	for _, b := range blueprints {
		if filter.Matches(b) {
			result = append(result, b)
		}
	}
	return result
}

// FindBlueprint returns the blueprint with the given id
func FindBlueprint(blueprints []Blueprint, id string) (Blueprint, bool) {
	for _, b := range blueprints {
		if b.ID == id {
			return b, true
		}
	}
	return Blueprint{}, false
}

// numberSteps assigns numeric ids 1..N in blueprint order and translates
// depends_on references
func (b Blueprint) numberSteps() ([]models.Step, error) {
	ids := make(map[string]int, len(b.Steps))
	for i, s := range b.Steps {
		if s.ID == "" {
			return nil, fmt.Errorf("step %d has empty id", i+1)
		}
		if _, dup := ids[s.ID]; dup {
			return nil, fmt.Errorf("duplicate step id: %s", s.ID)
		}
		ids[s.ID] = i + 1
	}

	steps := make([]models.Step, 0, len(b.Steps))
	for i, s := range b.Steps {
		deps := make([]int, 0, len(s.DependsOn))
		for _, dep := range s.DependsOn {
			id, ok := ids[dep]
			if !ok {
				return nil, fmt.Errorf("step '%s' depends on non-existent step '%s'", s.ID, dep)
			}
			deps = append(deps, id)
		}

		step, err := models.NewStep(i+1, s.Title, s.Description, deps...)
		if err != nil {
			return nil, fmt.Errorf("step '%s': %w", s.ID, err)
		}
		step.EstimatedTime = s.EstimatedTime
		steps = append(steps, step)
	}

	if err := models.DetectCycles(steps); err != nil {
		return nil, err
	}
	return steps, nil
}
