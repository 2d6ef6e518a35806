// SPDX-License-Identifier: Apache-2.0

package planner_test

import (
	"testing"

	"github.com/kusari-oss/justbuilt/internal/justbuilt/planner"
	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	assert.Equal(t,
		[]string{"react", "todo", "app", "local", "storage"},
		planner.ExtractKeywords("Build a React todo app with local storage, please. React!"))

	assert.Equal(t, []string{"c++", "node.js"}, planner.ExtractKeywords("C++ and node.js."))
	assert.Empty(t, planner.ExtractKeywords("  "))
}

func TestKeywordParameters(t *testing.T) {
	req := planner.ParseRequest("  a flask backend in python  ", "gemini")
	assert.Equal(t, "a flask backend in python", req.Text)

	params := req.KeywordParameters()
	assert.Equal(t, "flask", params["framework"])
	assert.Equal(t, "python", params["language"])
	assert.Equal(t, "api", params["project_type"])

	// First keyword wins on conflicts
	params = planner.ParseRequest("vue or react", "gemini").KeywordParameters()
	assert.Equal(t, "vue", params["framework"])

	assert.Empty(t, planner.ParseRequest("a poem", "gemini").KeywordParameters())
}

func TestRegistry(t *testing.T) {
	r := planner.NewRegistry()

	ids := []string{}
	for _, m := range r.List() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"claude", "gemini", "gpt-4", "groq", "mistral", "ollama"}, ids)

	m, err := r.Lookup("GEMINI")
	assert.NoError(t, err)
	assert.Equal(t, "gemini", m.ID)

	ollama, err := r.Lookup("ollama")
	assert.NoError(t, err)
	assert.True(t, ollama.Local)
	assert.Equal(t, "http://localhost:11434", ollama.Endpoint)

	_, err = r.Lookup("unknown")
	assert.ErrorIs(t, err, planner.ErrPlannerUnavailable)

	assert.Error(t, r.SetAvailable("unknown", true))

	custom := planner.NewRegistry(planner.Model{ID: "local", Available: true})
	assert.Len(t, custom.List(), 1)
}
