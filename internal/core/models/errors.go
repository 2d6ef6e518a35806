// SPDX-License-Identifier: Apache-2.0

package models

import "fmt"

// ValidationError is returned when a step is malformed
type ValidationError struct {
	StepID int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid step %d: %s", e.StepID, e.Reason)
}

// DuplicateIDError is returned when a step id is already used in the plan
type DuplicateIDError struct {
	ID int
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate step ID: %d", e.ID)
}

// NotFoundError is returned when no step has the requested id
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("step not found: %d", e.ID)
}
