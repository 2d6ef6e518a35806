// SPDX-License-Identifier: Apache-2.0

package template

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"
)

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Funcs are available to every snippet and output path template
var Funcs = template.FuncMap{
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"trim":  strings.TrimSpace,
	// slug turns "Create HTML layout" into "create-html-layout"
	"slug": func(s string) string {
		return strings.Trim(strings.ToLower(nonIdent.ReplaceAllString(s, "-")), "-")
	},
	// ident turns "Create HTML layout" into "createHtmlLayout"
	"ident": func(s string) string {
		parts := strings.Fields(nonIdent.ReplaceAllString(s, " "))
		for i, p := range parts {
			p = strings.ToLower(p)
			if i > 0 {
				p = strings.ToUpper(p[:1]) + p[1:]
			}
			parts[i] = p
		}
		return strings.Join(parts, "")
	},
	"comment": func(prefix, s string) string {
		lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
		for i, l := range lines {
			lines[i] = strings.TrimRight(prefix+" "+l, " ")
		}
		return strings.Join(lines, "\n")
	},
}

// ProcessFile processes a template file with the given parameters
func ProcessFile(filePath string, params map[string]interface{}) ([]byte, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("template file does not exist: %s", filePath)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading template file: %w", err)
	}

	return ProcessNamed(filePath, string(content), params)
}

// ProcessString processes a template string with the given parameters
func ProcessString(text string, params map[string]interface{}) ([]byte, error) {
	return ProcessNamed("template", text, params)
}

// ProcessNamed processes a template string, using name in error messages.
// Referencing a parameter that is not set is an error.
func ProcessNamed(name, text string, params map[string]interface{}) ([]byte, error) {
	tmpl, err := template.New(name).Funcs(Funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("error parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return nil, fmt.Errorf("error executing template %s: %w", name, err)
	}

	return buf.Bytes(), nil
}
