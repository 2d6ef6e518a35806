// SPDX-License-Identifier: Apache-2.0

package parameters

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// MissingParametersError lists placeholders that had no value
type MissingParametersError struct {
	Names []string
}

func (e *MissingParametersError) Error() string {
	return fmt.Sprintf("missing values for parameters: %s", strings.Join(e.Names, ", "))
}

// ParameterProcessor handles {{.name}} substitution in plan and blueprint text
type ParameterProcessor struct {
	// paramRegex matches template parameters like {{.name}}
	paramRegex *regexp.Regexp
}

// NewParameterProcessor creates a new parameter processor
func NewParameterProcessor() *ParameterProcessor {
	return &ParameterProcessor{
		paramRegex: regexp.MustCompile(`\{\{\s*\.([A-Za-z0-9_]+)\s*\}\}`),
	}
}

// SubstituteString replaces template parameters in a string with values from
// data. Placeholders without a value are left in place and reported in a
// *MissingParametersError.
func (p *ParameterProcessor) SubstituteString(template string, data map[string]interface{}) (string, error) {
	missing := make(map[string]bool)

	result := p.paramRegex.ReplaceAllStringFunc(template, func(match string) string {
		key := p.paramRegex.FindStringSubmatch(match)[1]

		value, found := data[key]
		if !found || value == nil {
			missing[key] = true
			return match
		}

		return fmt.Sprintf("%v", value)
	})

	if len(missing) > 0 {
		return result, &MissingParametersError{Names: sortedKeys(missing)}
	}

	return result, nil
}

// ProcessMap substitutes parameters in all string values in a map
func (p *ParameterProcessor) ProcessMap(params map[string]interface{}, data map[string]interface{}) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(params))

	for key, value := range params {
		switch v := value.(type) {
		case string:
			processed, err := p.SubstituteString(v, data)
			if err != nil {
				return nil, fmt.Errorf("error processing parameter %s: %w", key, err)
			}
			result[key] = processed

		case []interface{}:
			processedSlice := make([]interface{}, len(v))
			for i, item := range v {
				if str, ok := item.(string); ok {
					processed, err := p.SubstituteString(str, data)
					if err != nil {
						return nil, fmt.Errorf("error processing array item: %w", err)
					}
					processedSlice[i] = processed
				} else {
					processedSlice[i] = item
				}
			}
			result[key] = processedSlice

		case map[string]interface{}:
			processed, err := p.ProcessMap(v, data)
			if err != nil {
				return nil, fmt.Errorf("error processing nested map %s: %w", key, err)
			}
			result[key] = processed

		default:
			result[key] = value
		}
	}

	return result, nil
}

// ExtractRequiredParameters finds all parameter names referenced by the
// given templates, sorted and deduplicated
func (p *ParameterProcessor) ExtractRequiredParameters(templates ...string) []string {
	params := make(map[string]bool)

	for _, template := range templates {
		for _, match := range p.paramRegex.FindAllStringSubmatch(template, -1) {
			if len(match) > 1 {
				params[match[1]] = true
			}
		}
	}

	return sortedKeys(params)
}

// MissingParameters returns the referenced parameters that data has no value for
func (p *ParameterProcessor) MissingParameters(data map[string]interface{}, templates ...string) []string {
	var missing []string
	for _, name := range p.ExtractRequiredParameters(templates...) {
		if v, ok := data[name]; !ok || v == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// ParseAssignments parses key=value pairs as given on the command line
func ParseAssignments(pairs []string) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		result[key] = value
	}
	return result, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
