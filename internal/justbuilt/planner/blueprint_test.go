// SPDX-License-Identifier: Apache-2.0

package planner_test

import (
	"testing"
	"time"

	"github.com/kusari-oss/justbuilt/internal/defaults"
	"github.com/kusari-oss/justbuilt/internal/justbuilt/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaultBlueprints(t *testing.T) {
	blueprints, err := planner.ParseBlueprints(defaults.Blueprints())
	require.NoError(t, err)

	ids := make([]string, len(blueprints))
	for i, bp := range blueprints {
		ids[i] = bp.ID
	}
	assert.Equal(t, []string{"web-frontend", "api-service", "cli-tool", "default"}, ids)

	// The catch-all blueprint comes last
	assert.Empty(t, blueprints[len(blueprints)-1].Condition)
}

func TestParseBlueprintsErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown dependency",
			yaml: `
blueprints:
  - id: x
    steps:
      - {id: a, title: A, depends_on: [b]}
`,
			want: "depends on non-existent step 'b'",
		},
		{
			name: "duplicate step id",
			yaml: `
blueprints:
  - id: x
    steps:
      - {id: a, title: A}
      - {id: a, title: B}
`,
			want: "duplicate step id: a",
		},
		{
			name: "cycle",
			yaml: `
blueprints:
  - id: x
    steps:
      - {id: a, title: A, depends_on: [b]}
      - {id: b, title: B, depends_on: [a]}
`,
			want: "circular dependency detected",
		},
		{
			name: "self dependency",
			yaml: `
blueprints:
  - id: x
    steps:
      - {id: a, title: A, depends_on: [a]}
`,
			want: "cannot depend on itself",
		},
		{
			name: "difficulty",
			yaml: `
blueprints:
  - id: x
    difficulty: expert
    steps: [{id: a, title: A}]
`,
			want: `unknown difficulty "expert"`,
		},
		{
			name: "estimated time",
			yaml: `
blueprints:
  - id: x
    steps: [{id: a, title: A, estimated_time: soon}]
`,
			want: `invalid estimated_time "soon"`,
		},
		{
			name: "duplicate blueprint",
			yaml: `
blueprints:
  - id: x
    steps: [{id: a, title: A}]
  - id: x
    steps: [{id: a, title: A}]
`,
			want: "duplicate blueprint id: x",
		},
		{
			name: "no steps",
			yaml: `
blueprints:
  - id: x
`,
			want: "has no steps",
		},
		{
			name: "invalid yaml",
			yaml: "blueprints: [",
			want: "error parsing blueprints",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := planner.ParseBlueprints([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBlueprintGallery(t *testing.T) {
	blueprints, err := planner.ParseBlueprints(defaults.Blueprints())
	require.NoError(t, err)

	ids := func(list []planner.Blueprint) []string {
		var result []string
		for _, b := range list {
			result = append(result, b.ID)
		}
		return result
	}

	assert.Equal(t, []string{"web-frontend", "cli-tool"},
		ids(planner.FilterBlueprints(blueprints, planner.BlueprintFilter{Difficulty: "Beginner"})))
	assert.Equal(t, []string{"api-service"},
		ids(planner.FilterBlueprints(blueprints, planner.BlueprintFilter{Category: "api"})))
	assert.Equal(t, []string{"web-frontend"},
		ids(planner.FilterBlueprints(blueprints, planner.BlueprintFilter{Search: "LANDING"})))
	assert.Len(t, planner.FilterBlueprints(blueprints, planner.BlueprintFilter{}), len(blueprints))

	cli, ok := planner.FindBlueprint(blueprints, "cli-tool")
	require.True(t, ok)
	assert.Equal(t, "Command Line Tool", cli.DisplayName())
	assert.Equal(t, 90*time.Minute, cli.EstimatedTime())
	assert.Equal(t, []string{"language", "project_name"}, cli.RequiredParameters())
	assert.Empty(t, cli.MissingParameters())

	_, ok = planner.FindBlueprint(blueprints, "nope")
	assert.False(t, ok)
	assert.Equal(t, "x", planner.Blueprint{ID: "x"}.DisplayName())
}
