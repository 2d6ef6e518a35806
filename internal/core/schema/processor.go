// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CoerceParams converts string parameter values to the type their schema
// property declares. Command line parameters always arrive as strings, so
// "3" becomes 3 for an integer property and "[a, b]" a list for an array.
// Values that cannot be converted are kept as they are and left for
// validation to report.
func CoerceParams(params map[string]interface{}, schema map[string]interface{}) map[string]interface{} {
	properties, _ := schema["properties"].(map[string]interface{})

	result := make(map[string]interface{}, len(params))
	for key, value := range params {
		result[key] = value

		str, ok := value.(string)
		if !ok || properties == nil {
			continue
		}
		propSchema, ok := properties[key].(map[string]interface{})
		if !ok {
			continue
		}

		if coerced, ok := coerce(str, propSchema["type"]); ok {
			result[key] = coerced
		}
	}

	return result
}

func coerce(value string, schemaType interface{}) (interface{}, bool) {
	switch schemaType {
	case "integer":
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return n, true
		}
	case "number":
		if n, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return n, true
		}
	case "boolean":
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b, true
		}
	case "array":
		trimmed := strings.TrimSpace(value)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			var arr []interface{}
			if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
				return arr, true
			}
			trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, "["), "]")
		}
		if trimmed == "" {
			return []interface{}{}, true
		}
		parts := strings.Split(trimmed, ",")
		arr := make([]interface{}, len(parts))
		for i, p := range parts {
			arr[i] = strings.TrimSpace(p)
		}
		return arr, true
	}
	return nil, false
}
