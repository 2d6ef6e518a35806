// SPDX-License-Identifier: Apache-2.0

// Package producer generates code for plan steps from snippet templates.
package producer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kusari-oss/justbuilt/internal/core/models"
	"github.com/kusari-oss/justbuilt/internal/core/template"
	"github.com/sirupsen/logrus"
)

var wordRegex = regexp.MustCompile(`[a-z0-9]+`)

// Options configures a TemplateProducer
type Options struct {
	// Writer stores generated code in a workspace. Nil keeps code in memory only.
	Writer *WorkspaceWriter

	// Params are extra template parameters, e.g. the agent's coding style
	Params map[string]interface{}

	Logger *logrus.Logger
}

// TemplateProducer renders the snippet whose keywords appear in a step's
// title or description
type TemplateProducer struct {
	snippets SnippetConfig
	writer   *WorkspaceWriter
	params   map[string]interface{}
	logger   *logrus.Logger
}

// New creates a producer
func New(snippets SnippetConfig, options Options) *TemplateProducer {
	logger := options.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	return &TemplateProducer{
		snippets: snippets,
		writer:   options.Writer,
		params:   options.Params,
		logger:   logger,
	}
}

// Produce renders code for the step
func (p *TemplateProducer) Produce(ctx context.Context, step models.Step, planContext string) (*models.StepResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snippet := p.snippets.Select(words(step.Title + " " + step.Description))

	params := make(map[string]interface{}, len(p.params)+7)
	for k, v := range p.params {
		params[k] = v
	}
	params["id"] = step.ID
	params["title"] = step.Title
	params["description"] = step.Description
	params["dependencies"] = step.Dependencies
	params["plan"] = planContext
	params["language"] = snippet.Language
	params["ext"] = snippet.Ext

	code, err := template.ProcessNamed(snippet.ID, snippet.Template, params)
	if err != nil {
		return nil, fmt.Errorf("error rendering snippet %s: %w", snippet.ID, err)
	}

	result := &models.StepResult{
		Code:        string(code),
		Language:    snippet.Language,
		Explanation: fmt.Sprintf("Generated %s for step %d (%s) from the %s snippet", snippet.Language, step.ID, step.Title, snippet.ID),
	}

	log := p.logger.WithFields(logrus.Fields{"step_id": step.ID, "snippet": snippet.ID})

	if p.writer != nil {
		path, err := p.writer.Write(params, code)
		if err != nil {
			return nil, err
		}
		result.FilePath = path
		log = log.WithField("path", path)
	}

	log.Debug("Produced step code")
	return result, nil
}

func words(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range wordRegex.FindAllString(strings.ToLower(text), -1) {
		set[w] = true
	}
	return set
}
