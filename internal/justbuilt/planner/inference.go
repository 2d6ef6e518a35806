// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// InferParametersFromWorkspace extracts project information from a workspace
// directory: the git remote, package.json and go.mod. A directory that is not
// a git repository or has no manifests yields an empty map.
func InferParametersFromWorkspace(ctx context.Context, dir string) (map[string]interface{}, error) {
	if dir == "" {
		dir = "."
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading workspace directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", dir)
	}

	params := make(map[string]interface{})

	cmd := exec.CommandContext(ctx, "git", "config", "--get", "remote.origin.url")
	cmd.Dir = dir
	if output, err := cmd.Output(); err == nil {
		remoteURL := strings.TrimSpace(string(output))
		if remoteURL != "" {
			params["project_repo"] = remoteURL
			if org, repo, ok := splitRemote(remoteURL); ok {
				params["organization"] = org
				params["repo_name"] = repo
				params["project_name"] = repo
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
		var pkg struct {
			Name         string            `json:"name"`
			Dependencies map[string]string `json:"dependencies"`
		}
		if json.Unmarshal(data, &pkg) == nil {
			if pkg.Name != "" {
				params["project_name"] = pkg.Name
			}
			params["language"] = "javascript"
			for _, fw := range []string{"react", "vue", "svelte", "express"} {
				if _, ok := pkg.Dependencies[fw]; ok {
					params["framework"] = fw
					break
				}
			}
		}
	}

	if module := goModule(filepath.Join(dir, "go.mod")); module != "" {
		params["language"] = "go"
		params["module_path"] = module
		if _, set := params["project_name"]; !set {
			params["project_name"] = filepath.Base(module)
		}
	}

	return params, nil
}

// splitRemote extracts org and repo from https and scp style git remotes
func splitRemote(remoteURL string) (string, string, bool) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(remoteURL, "/"), ".git")
	if i := strings.Index(trimmed, ":"); i >= 0 && !strings.Contains(trimmed, "://") {
		trimmed = trimmed[i+1:]
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[len(parts)-1] == "" || parts[len(parts)-2] == "" {
		return "", "", false
	}
	return parts[len(parts)-2], parts[len(parts)-1], true
}

func goModule(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			return strings.Trim(strings.TrimSpace(rest), `"`)
		}
	}
	return ""
}
