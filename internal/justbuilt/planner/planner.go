// SPDX-License-Identifier: Apache-2.0

// Package planner turns a free text request into a plan of steps.
package planner

import (
	"context"
	"errors"

	"github.com/kusari-oss/justbuilt/internal/core/models"
)

// ErrPlannerUnavailable is returned when no plan can be produced for a
// request: the model is unknown or unavailable, the request is empty, or no
// blueprint applies.
var ErrPlannerUnavailable = errors.New("planner unavailable")

// Planner produces a plan for a request using the given model
type Planner interface {
	Generate(ctx context.Context, request, modelID string) (*models.Plan, error)
}
