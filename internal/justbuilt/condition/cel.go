// SPDX-License-Identifier: Apache-2.0

package condition

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Variables that conditions can reference
const (
	VarRequest = "request"
	VarParams  = "params"
	VarStep    = "step"
)

// CELEvaluator evaluates blueprint selection conditions and scan rules.
// Expressions see request (text, keywords, model), params and step (the
// completed step being scanned: id, title, language, code, file_path).
type CELEvaluator struct {
	env *cel.Env

	mu       sync.Mutex
	programs map[string]cel.Program
}

// NewCELEvaluator creates a new CEL evaluator
func NewCELEvaluator() (*CELEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable(VarRequest, cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable(VarParams, cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable(VarStep, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}

	return &CELEvaluator{env: env, programs: make(map[string]cel.Program)}, nil
}

// Compile parses and type-checks an expression without evaluating it
func (e *CELEvaluator) Compile(expression string) error {
	_, err := e.program(expression)
	return err
}

func (e *CELEvaluator) program(expression string) (cel.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if program, ok := e.programs[expression]; ok {
		return program, nil
	}

	ast, issues := e.env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("error parsing expression: %w", issues.Err())
	}

	checked, issues := e.env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("error type-checking expression: %w", issues.Err())
	}

	program, err := e.env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("error compiling expression: %w", err)
	}

	e.programs[expression] = program
	return program, nil
}

// EvaluateExpression evaluates a CEL expression against data. Missing
// variables evaluate as empty maps.
func (e *CELEvaluator) EvaluateExpression(expression string, data map[string]interface{}) (bool, error) {
	program, err := e.program(expression)
	if err != nil {
		return false, err
	}

	vars := map[string]interface{}{
		VarRequest: orEmpty(data[VarRequest]),
		VarParams:  orEmpty(data[VarParams]),
		VarStep:    orEmpty(data[VarStep]),
	}

	result, _, err := program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("error evaluating expression: %w", err)
	}

	if result.Type() != types.BoolType {
		return false, fmt.Errorf("expression did not evaluate to a boolean")
	}

	return result.Value().(bool), nil
}

func orEmpty(v interface{}) interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v
}
