// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// FieldError is one schema violation
type FieldError struct {
	Field       string
	Description string
}

// ValidationError collects every violation found in a document
type ValidationError struct {
	Subject string
	Errors  []FieldError
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s validation failed:", e.Subject)
	for _, fe := range e.Errors {
		fmt.Fprintf(&b, "\n- %s: %s", fe.Field, fe.Description)
	}
	return b.String()
}

// ValidateDocument validates doc against a JSON schema. doc may be any value
// that encodes to JSON; structs are validated through their json tags.
// Violations are returned as *ValidationError.
func ValidateDocument(subject string, schemaJSON []byte, doc interface{}) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("schema validation error: failed to serialize %s: %w", subject, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(docBytes),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Subject: subject}
	for _, re := range result.Errors() {
		verr.Errors = append(verr.Errors, FieldError{Field: re.Field(), Description: re.Description()})
	}
	return verr
}

// ValidateParams validates blueprint parameters against a JSON schema
func ValidateParams(schema map[string]interface{}, params map[string]interface{}) error {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("schema validation error: failed to serialize schema: %w", err)
	}

	return ValidateDocument("parameter", schemaBytes, params)
}

// MergeWithDefaults merges params with default values
func MergeWithDefaults(params map[string]interface{}, defaults map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(defaults)+len(params))

	for k, v := range defaults {
		result[k] = v
	}

	for k, v := range params {
		result[k] = v
	}

	return result
}
