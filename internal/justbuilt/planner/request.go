// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"regexp"
	"strings"
)

var wordRegex = regexp.MustCompile(`[a-z0-9][a-z0-9+#.\-]*`)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "to": true, "of": true,
	"for": true, "with": true, "in": true, "on": true, "me": true, "my": true,
	"i": true, "is": true, "it": true, "that": true, "this": true, "please": true,
	"build": true, "create": true, "make": true, "simple": true, "using": true,
	"want": true, "need": true, "some": true, "can": true, "you": true,
}

// keywordParams maps request keywords to the parameters they imply
var keywordParams = map[string]map[string]string{
	"react":      {"framework": "react", "language": "javascript", "project_type": "web"},
	"vue":        {"framework": "vue", "language": "javascript", "project_type": "web"},
	"svelte":     {"framework": "svelte", "language": "javascript", "project_type": "web"},
	"angular":    {"framework": "angular", "language": "typescript", "project_type": "web"},
	"nextjs":     {"framework": "nextjs", "language": "typescript", "project_type": "web"},
	"express":    {"framework": "express", "language": "javascript", "project_type": "api"},
	"django":     {"framework": "django", "language": "python", "project_type": "web"},
	"flask":      {"framework": "flask", "language": "python", "project_type": "api"},
	"fastapi":    {"framework": "fastapi", "language": "python", "project_type": "api"},
	"gin":        {"framework": "gin", "language": "go", "project_type": "api"},
	"javascript": {"language": "javascript"},
	"js":         {"language": "javascript"},
	"node":       {"language": "javascript"},
	"typescript": {"language": "typescript"},
	"ts":         {"language": "typescript"},
	"python":     {"language": "python"},
	"go":         {"language": "go"},
	"golang":     {"language": "go"},
	"rust":       {"language": "rust"},
	"java":       {"language": "java"},
	"api":        {"project_type": "api"},
	"rest":       {"project_type": "api"},
	"backend":    {"project_type": "api"},
	"cli":        {"project_type": "cli"},
	"command":    {"project_type": "cli"},
	"website":    {"project_type": "web"},
	"frontend":   {"project_type": "web"},
	"webpage":    {"project_type": "web"},
}

// Request is a parsed plan request
type Request struct {
	Text     string
	Model    string
	Keywords []string
}

// ParseRequest normalizes the request text and extracts its keywords
func ParseRequest(text, model string) Request {
	return Request{
		Text:     strings.TrimSpace(text),
		Model:    model,
		Keywords: ExtractKeywords(text),
	}
}

// ExtractKeywords returns the distinct lower case words of text in order of
// appearance, without stop words
func ExtractKeywords(text string) []string {
	seen := make(map[string]bool)
	var keywords []string

	for _, word := range wordRegex.FindAllString(strings.ToLower(text), -1) {
		word = strings.TrimRight(word, ".-")
		if word == "" || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
	}
	return keywords
}

// KeywordParameters infers parameters from keywords. When keywords disagree
// the first one wins.
func (r Request) KeywordParameters() map[string]interface{} {
	params := make(map[string]interface{})
	for _, kw := range r.Keywords {
		for k, v := range keywordParams[kw] {
			if _, set := params[k]; !set {
				params[k] = v
			}
		}
	}
	return params
}

// celData exposes the request to blueprint conditions
func (r Request) celData(params map[string]interface{}) map[string]interface{} {
	keywords := make([]interface{}, len(r.Keywords))
	for i, k := range r.Keywords {
		keywords[i] = k
	}

	return map[string]interface{}{
		"request": map[string]interface{}{
			"text":     strings.ToLower(r.Text),
			"model":    r.Model,
			"keywords": keywords,
		},
		"params": params,
	}
}
