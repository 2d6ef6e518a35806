// SPDX-License-Identifier: Apache-2.0

package parameters_test

import (
	"errors"
	"testing"

	"github.com/kusari-oss/justbuilt/internal/core/parameters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstituteString(t *testing.T) {
	p := parameters.NewParameterProcessor()

	tests := []struct {
		name     string
		template string
		data     map[string]interface{}
		expected string
		missing  []string
	}{
		{
			name:     "single parameter",
			template: "Initialize {{.framework}} project",
			data:     map[string]interface{}{"framework": "react"},
			expected: "Initialize react project",
		},
		{
			name:     "spaces inside braces",
			template: "{{ .project_name }} setup",
			data:     map[string]interface{}{"project_name": "todo"},
			expected: "todo setup",
		},
		{
			name:     "non-string value",
			template: "Port {{.port}}",
			data:     map[string]interface{}{"port": 8080},
			expected: "Port 8080",
		},
		{
			name:     "missing values are reported",
			template: "{{.a}} and {{.b}} and {{.a}}",
			data:     map[string]interface{}{},
			expected: "{{.a}} and {{.b}} and {{.a}}",
			missing:  []string{"a", "b"},
		},
		{
			name:     "no placeholders",
			template: "plain text",
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.SubstituteString(tt.template, tt.data)
			assert.Equal(t, tt.expected, result)
			if tt.missing == nil {
				require.NoError(t, err)
				return
			}
			var missingErr *parameters.MissingParametersError
			require.True(t, errors.As(err, &missingErr))
			assert.Equal(t, tt.missing, missingErr.Names)
		})
	}
}

func TestProcessMap(t *testing.T) {
	p := parameters.NewParameterProcessor()
	data := map[string]interface{}{"name": "todo", "lang": "go"}

	result, err := p.ProcessMap(map[string]interface{}{
		"title":  "{{.name}} app",
		"tags":   []interface{}{"{{.lang}}", 3},
		"nested": map[string]interface{}{"x": "{{.lang}}"},
		"count":  2,
	}, data)
	require.NoError(t, err)

	assert.Equal(t, "todo app", result["title"])
	assert.Equal(t, []interface{}{"go", 3}, result["tags"])
	assert.Equal(t, map[string]interface{}{"x": "go"}, result["nested"])
	assert.Equal(t, 2, result["count"])

	_, err = p.ProcessMap(map[string]interface{}{"t": "{{.unknown}}"}, data)
	assert.Error(t, err)
}

func TestExtractAndMissingParameters(t *testing.T) {
	p := parameters.NewParameterProcessor()

	assert.Equal(t, []string{"a", "b", "c"},
		p.ExtractRequiredParameters("{{.b}} {{.a}}", "{{.c}} {{.a}}"))
	assert.Empty(t, p.ExtractRequiredParameters("nothing here"))

	missing := p.MissingParameters(map[string]interface{}{"a": "x", "b": nil}, "{{.a}} {{.b}} {{.c}}")
	assert.Equal(t, []string{"b", "c"}, missing)
}

func TestParseAssignments(t *testing.T) {
	got, err := parameters.ParseAssignments([]string{"framework=vue", "title=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"framework": "vue", "title": "a=b"}, got)

	_, err = parameters.ParseAssignments([]string{"novalue"})
	assert.Error(t, err)
	_, err = parameters.ParseAssignments([]string{"=x"})
	assert.Error(t, err)
}
