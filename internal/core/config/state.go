// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kusari-oss/justbuilt/internal/core/format"
)

const (
	DefaultStateFileName = "state.yaml"
	DefaultPlanFileName  = "plan.yaml"
)

// State holds what the CLI remembers about a project between invocations
type State struct {
	ProjectDir  string `yaml:"project_dir"`
	PlanFile    string `yaml:"plan_file"`
	PlanID      string `yaml:"plan_id,omitempty"`
	LastRunID   string `yaml:"last_run_id,omitempty"`
	LastUpdated string `yaml:"last_updated"`
	Version     string `yaml:"version"`
}

// NewState creates a new state object for the project directory
func NewState(projectDir, version string) *State {
	return &State{
		ProjectDir:  projectDir,
		PlanFile:    PlanFilePath(projectDir),
		LastUpdated: time.Now().Format(time.RFC3339),
		Version:     version,
	}
}

// PlanFilePath returns where the current plan of a project is kept
func PlanFilePath(projectDir string) string {
	return filepath.Join(projectDir, DefaultConfigDir, DefaultPlanFileName)
}

// SaveState saves the state to the project directory
func SaveState(state *State, dir string) error {
	state.LastUpdated = time.Now().Format(time.RFC3339)
	statePath := filepath.Join(dir, DefaultConfigDir, DefaultStateFileName)
	if err := format.WriteFile(statePath, state); err != nil {
		return fmt.Errorf("error writing state file: %w", err)
	}
	return nil
}

// LoadState loads the state from the project directory
func LoadState(dir string) (*State, error) {
	statePath := filepath.Join(dir, DefaultConfigDir, DefaultStateFileName)
	state := &State{}
	if err := format.ParseFile(statePath, state); err != nil {
		return nil, err
	}
	return state, nil
}
