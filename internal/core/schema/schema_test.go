// SPDX-License-Identifier: Apache-2.0

package schema_test

import (
	"errors"
	"testing"

	"github.com/kusari-oss/justbuilt/internal/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var llmSchema = []byte(`{
  "type": "object",
  "properties": {
    "temperature": {"type": "number", "minimum": 0, "maximum": 2},
    "max_tokens": {"type": "integer", "minimum": 1}
  }
}`)

func TestValidateDocument(t *testing.T) {
	type llm struct {
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	}

	require.NoError(t, schema.ValidateDocument("config", llmSchema, llm{Temperature: 0.7, MaxTokens: 2048}))

	err := schema.ValidateDocument("config", llmSchema, llm{Temperature: 3, MaxTokens: 0})
	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "config", verr.Subject)
	require.Len(t, verr.Errors, 2)

	fields := []string{verr.Errors[0].Field, verr.Errors[1].Field}
	assert.ElementsMatch(t, []string{"temperature", "max_tokens"}, fields)
	assert.Contains(t, err.Error(), "config validation failed:")
}

func TestValidateDocumentBadSchema(t *testing.T) {
	err := schema.ValidateDocument("config", []byte(`{"type": 12}`), map[string]interface{}{})
	require.Error(t, err)

	var verr *schema.ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestValidateParams(t *testing.T) {
	paramSchema := map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"framework"},
		"properties": map[string]interface{}{
			"framework": map[string]interface{}{
				"type": "string",
				"enum": []interface{}{"react", "vue", "svelte"},
			},
			"port": map[string]interface{}{"type": "integer"},
		},
	}

	tests := []struct {
		name       string
		params     map[string]interface{}
		shouldPass bool
	}{
		{"valid", map[string]interface{}{"framework": "react", "port": 3000}, true},
		{"missing required", map[string]interface{}{"port": 3000}, false},
		{"not in enum", map[string]interface{}{"framework": "angular"}, false},
		{"wrong type", map[string]interface{}{"framework": "vue", "port": "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.ValidateParams(paramSchema, tt.params)
			if tt.shouldPass {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	merged := schema.MergeWithDefaults(
		map[string]interface{}{"framework": "vue"},
		map[string]interface{}{"framework": "react", "language": "javascript"},
	)
	assert.Equal(t, map[string]interface{}{"framework": "vue", "language": "javascript"}, merged)

	assert.Empty(t, schema.MergeWithDefaults(nil, nil))
}

func TestCoerceParams(t *testing.T) {
	paramSchema := map[string]interface{}{
		"properties": map[string]interface{}{
			"port":     map[string]interface{}{"type": "integer"},
			"ratio":    map[string]interface{}{"type": "number"},
			"tests":    map[string]interface{}{"type": "boolean"},
			"features": map[string]interface{}{"type": "array"},
			"tags":     map[string]interface{}{"type": "array"},
			"name":     map[string]interface{}{"type": "string"},
		},
	}

	got := schema.CoerceParams(map[string]interface{}{
		"port":     "8080",
		"ratio":    "0.5",
		"tests":    "true",
		"features": `["auth", "db"]`,
		"tags":     "a, b",
		"name":     "42",
		"extra":    "kept",
	}, paramSchema)

	assert.Equal(t, int64(8080), got["port"])
	assert.Equal(t, 0.5, got["ratio"])
	assert.Equal(t, true, got["tests"])
	assert.Equal(t, []interface{}{"auth", "db"}, got["features"])
	assert.Equal(t, []interface{}{"a", "b"}, got["tags"])
	assert.Equal(t, "42", got["name"])
	assert.Equal(t, "kept", got["extra"])

	// Unconvertible values are left for validation
	got = schema.CoerceParams(map[string]interface{}{"port": "eighty"}, paramSchema)
	assert.Equal(t, "eighty", got["port"])

	// No schema, no changes
	got = schema.CoerceParams(map[string]interface{}{"port": "1"}, nil)
	assert.Equal(t, "1", got["port"])
}
