// SPDX-License-Identifier: Apache-2.0

package condition_test

import (
	"testing"

	"github.com/kusari-oss/justbuilt/internal/justbuilt/condition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(text, model string, keywords ...string) map[string]interface{} {
	kw := make([]interface{}, len(keywords))
	for i, k := range keywords {
		kw[i] = k
	}
	return map[string]interface{}{
		"request": map[string]interface{}{
			"text":     text,
			"model":    model,
			"keywords": kw,
		},
	}
}

func TestCELEvaluator(t *testing.T) {
	evaluator, err := condition.NewCELEvaluator()
	require.NoError(t, err, "Error creating CEL evaluator")

	tests := []struct {
		name       string
		expression string
		data       map[string]interface{}
		expected   bool
		wantErr    bool
	}{
		{
			name:       "keyword membership - true",
			expression: "'react' in request.keywords",
			data:       request("build a react todo app", "gemini", "react", "todo"),
			expected:   true,
		},
		{
			name:       "keyword membership - false",
			expression: "'react' in request.keywords",
			data:       request("build a cli", "gemini", "cli"),
			expected:   false,
		},
		{
			name:       "text contains",
			expression: "request.text.contains('api')",
			data:       request("build a rest api", "gemini"),
			expected:   true,
		},
		{
			name:       "logical OR over keywords",
			expression: "'go' in request.keywords || 'golang' in request.keywords",
			data:       request("a golang service", "claude", "golang"),
			expected:   true,
		},
		{
			name:       "model check",
			expression: "request.model == 'ollama'",
			data:       request("anything", "ollama"),
			expected:   true,
		},
		{
			name:       "params",
			expression: "has(params.framework) && params.framework == 'vue'",
			data: map[string]interface{}{
				"params": map[string]interface{}{"framework": "vue"},
			},
			expected: true,
		},
		{
			name:       "step code",
			expression: "step.code.contains('eval(') && step.language == 'javascript'",
			data: map[string]interface{}{
				"step": map[string]interface{}{"code": "eval(input)", "language": "javascript"},
			},
			expected: true,
		},
		{
			name:       "missing variables are empty maps",
			expression: "has(params.framework)",
			data:       map[string]interface{}{},
			expected:   false,
		},
		{
			name:       "syntax error",
			expression: "request.text ==",
			data:       request("x", "gemini"),
			wantErr:    true,
		},
		{
			name:       "non-boolean result",
			expression: "request.text",
			data:       request("x", "gemini"),
			wantErr:    true,
		},
		{
			name:       "unknown variable",
			expression: "workspace.language == 'go'",
			data:       request("x", "gemini"),
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := evaluator.EvaluateExpression(tt.expression, tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCELEvaluatorCompile(t *testing.T) {
	evaluator, err := condition.NewCELEvaluator()
	require.NoError(t, err)

	assert.NoError(t, evaluator.Compile("'web' in request.keywords"))
	assert.Error(t, evaluator.Compile("'web' in"))

	// Compiled programs are reused across evaluations
	for _, kw := range []string{"web", "cli"} {
		ok, err := evaluator.EvaluateExpression("'web' in request.keywords", request("x", "gemini", kw))
		require.NoError(t, err)
		assert.Equal(t, kw == "web", ok)
	}
}
