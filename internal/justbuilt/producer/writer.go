// SPDX-License-Identifier: Apache-2.0

package producer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kusari-oss/justbuilt/internal/core/template"
)

// DefaultOutputPath places generated code under steps/ in the workspace
const DefaultOutputPath = "steps/step-{{.id}}{{.ext}}"

// WorkspaceWriter writes generated code into a workspace directory. The
// output path is a template rendered with the same parameters as the snippet.
type WorkspaceWriter struct {
	root       string
	outputPath string
}

// NewWorkspaceWriter creates a writer rooted at dir
func NewWorkspaceWriter(dir, outputPath string) *WorkspaceWriter {
	if outputPath == "" {
		outputPath = DefaultOutputPath
	}
	return &WorkspaceWriter{root: dir, outputPath: outputPath}
}

// Write renders the output path, creates directories and writes content.
// It returns the path relative to the workspace root.
func (w *WorkspaceWriter) Write(params map[string]interface{}, content []byte) (string, error) {
	rendered, err := template.ProcessNamed("output_path", w.outputPath, params)
	if err != nil {
		return "", fmt.Errorf("error processing target path: %w", err)
	}

	rel := filepath.Clean(strings.TrimSpace(string(rendered)))
	if rel == "." || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output path %q must stay inside the workspace", rel)
	}

	target := filepath.Join(w.root, rel)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("error creating directories: %w", err)
	}

	if err := os.WriteFile(target, content, 0644); err != nil {
		return "", fmt.Errorf("error writing file: %w", err)
	}

	return rel, nil
}
