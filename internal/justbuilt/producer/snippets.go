// SPDX-License-Identifier: Apache-2.0

package producer

import (
	"fmt"
	"strings"
	"text/template"

	tmpl "github.com/kusari-oss/justbuilt/internal/core/template"
	"gopkg.in/yaml.v3"
)

// Snippet is a code template chosen by keywords in a step's text
type Snippet struct {
	ID       string   `yaml:"id"`
	Match    []string `yaml:"match,omitempty"`
	Language string   `yaml:"language"`
	Ext      string   `yaml:"ext"`
	Template string   `yaml:"template"`
}

// SnippetConfig is the content of a snippets file
type SnippetConfig struct {
	Snippets []Snippet `yaml:"snippets"`
	Fallback *Snippet  `yaml:"fallback,omitempty"`
}

// GenericSnippet is used when no snippet matches and no fallback is configured
var GenericSnippet = Snippet{
	ID:       "generic",
	Language: "javascript",
	Ext:      ".js",
	Template: `// Step {{.id}} implementation
function step{{.id}}Implementation() {
  console.log('Executing step {{.id}}');
  // Implementation code would go here
  return 'Step {{.id}} completed successfully';
}

step{{.id}}Implementation();
`,
}

// ParseSnippets parses snippet YAML and checks that every template parses
func ParseSnippets(data []byte) (SnippetConfig, error) {
	var config SnippetConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return SnippetConfig{}, fmt.Errorf("error parsing snippets: %w", err)
	}

	all := config.Snippets
	if config.Fallback != nil {
		all = append(all[:len(all):len(all)], *config.Fallback)
	}

	for i, s := range all {
		if s.ID == "" {
			return SnippetConfig{}, fmt.Errorf("snippet %d has empty id", i+1)
		}
		if _, err := template.New(s.ID).Funcs(tmpl.Funcs).Parse(s.Template); err != nil {
			return SnippetConfig{}, fmt.Errorf("snippet %s: %w", s.ID, err)
		}
	}

	for i := range config.Snippets {
		s := &config.Snippets[i]
		if len(s.Match) == 0 {
			return SnippetConfig{}, fmt.Errorf("snippet %s has no match keywords", s.ID)
		}
		for j, kw := range s.Match {
			s.Match[j] = strings.ToLower(kw)
		}
	}

	return config, nil
}

// Select returns the first snippet with a keyword among words, else the fallback
func (c SnippetConfig) Select(words map[string]bool) Snippet {
	for _, s := range c.Snippets {
		for _, kw := range s.Match {
			if words[kw] {
				return s
			}
		}
	}

	if c.Fallback != nil {
		return *c.Fallback
	}
	return GenericSnippet
}
