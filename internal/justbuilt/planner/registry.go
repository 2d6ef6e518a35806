// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"fmt"
	"sort"
	"strings"
)

// Model describes a model that plans can be generated with
type Model struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Provider    string `json:"provider" yaml:"provider"`
	Description string `json:"description" yaml:"description"`
	Endpoint    string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Local       bool   `json:"local" yaml:"local"`
	Available   bool   `json:"available" yaml:"available"`
}

// DefaultModels is the built in model list
func DefaultModels() []Model {
	return []Model{
		{ID: "gemini", Name: "Google Gemini", Provider: "Google", Description: "Fast general purpose planning", Available: true},
		{ID: "mistral", Name: "Mistral", Provider: "Mistral AI", Description: "Compact plans for small projects", Available: true},
		{ID: "groq", Name: "Groq", Provider: "Groq", Description: "Low latency planning", Available: true},
		{ID: "ollama", Name: "Ollama Local", Provider: "Ollama", Description: "Runs on the local machine", Endpoint: "http://localhost:11434", Local: true, Available: true},
		{ID: "gpt-4", Name: "OpenAI GPT-4", Provider: "OpenAI", Description: "Detailed plans for larger projects", Available: true},
		{ID: "claude", Name: "Anthropic Claude", Provider: "Anthropic", Description: "Careful step breakdowns", Available: true},
	}
}

// Registry holds the models a planner accepts
type Registry struct {
	models map[string]Model
}

// NewRegistry creates a registry. With no models it holds DefaultModels.
func NewRegistry(list ...Model) *Registry {
	if len(list) == 0 {
		list = DefaultModels()
	}

	r := &Registry{models: make(map[string]Model, len(list))}
	for _, m := range list {
		r.models[strings.ToLower(m.ID)] = m
	}
	return r
}

// Lookup returns the model with the given id. Unknown and unavailable models
// are reported as ErrPlannerUnavailable.
func (r *Registry) Lookup(id string) (Model, error) {
	m, ok := r.models[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Model{}, fmt.Errorf("%w: unknown model %q", ErrPlannerUnavailable, id)
	}
	if !m.Available {
		return Model{}, fmt.Errorf("%w: model %q is not available", ErrPlannerUnavailable, id)
	}
	return m, nil
}

// SetAvailable marks a model as available or not
func (r *Registry) SetAvailable(id string, available bool) error {
	key := strings.ToLower(id)
	m, ok := r.models[key]
	if !ok {
		return fmt.Errorf("unknown model %q", id)
	}
	m.Available = available
	r.models[key] = m
	return nil
}

// List returns all models sorted by id
func (r *Registry) List() []Model {
	list := make([]Model, 0, len(r.models))
	for _, m := range r.models {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
