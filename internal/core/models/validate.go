// SPDX-License-Identifier: Apache-2.0

package models

import (
	"fmt"
	"slices"
	"strings"
)

// ValidatePlan checks a whole plan: files before loading and saving, and
// planner output. Dependencies on ids missing from the plan are allowed because
// RemoveStep leaves them behind; they are reported by DanglingDependencies.
func ValidatePlan(plan *Plan) error {
	if plan == nil {
		return fmt.Errorf("plan is nil")
	}

	stepIDs := make(map[int]bool)
	for _, step := range plan.Steps {
		if err := checkStep(step.ID, step.Title, step.Dependencies); err != nil {
			return err
		}
		if stepIDs[step.ID] {
			return &DuplicateIDError{ID: step.ID}
		}
		stepIDs[step.ID] = true

		switch step.Status {
		case "", StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		default:
			return &ValidationError{StepID: step.ID, Reason: fmt.Sprintf("unknown status %q", step.Status)}
		}
	}

	return DetectCycles(plan.Steps)
}

// DanglingDependencies maps step ids to the dependencies that name no step
// in the plan
func DanglingDependencies(plan *Plan) map[int][]int {
	exists := make(map[int]bool, len(plan.Steps))
	for _, step := range plan.Steps {
		exists[step.ID] = true
	}

	dangling := make(map[int][]int)
	for _, step := range plan.Steps {
		for _, dep := range step.Dependencies {
			if !exists[dep] {
				dangling[step.ID] = append(dangling[step.ID], dep)
			}
		}
	}
	return dangling
}

// DetectCycles checks for circular dependencies in the steps
func DetectCycles(steps []Step) error {
	graph := make(map[int]Step, len(steps))
	for _, step := range steps {
		graph[step.ID] = step
	}

	visited := make(map[int]bool)
	for _, step := range steps {
		path := []int{}
		if cycle := findCycle(step.ID, graph, visited, map[int]bool{}, path); cycle != nil {
			parts := make([]string, len(cycle))
			for i, id := range cycle {
				parts[i] = fmt.Sprintf("%d", id)
			}
			return fmt.Errorf("circular dependency detected: %s", strings.Join(parts, " -> "))
		}
	}

	return nil
}

// findCycle performs DFS and returns the cycle path, if one is reachable from nodeID
func findCycle(nodeID int, graph map[int]Step, visited, onPath map[int]bool, path []int) []int {
	if onPath[nodeID] {
		start := slices.Index(path, nodeID)
		return append(slices.Clone(path[start:]), nodeID)
	}
	if visited[nodeID] {
		return nil
	}

	visited[nodeID] = true
	onPath[nodeID] = true
	path = append(path, nodeID)

	if node, exists := graph[nodeID]; exists {
		for _, depID := range node.Dependencies {
			if cycle := findCycle(depID, graph, visited, onPath, path); cycle != nil {
				return cycle
			}
		}
	}

	onPath[nodeID] = false
	return nil
}
