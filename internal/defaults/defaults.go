// SPDX-License-Identifier: Apache-2.0

// Package defaults holds the blueprints and snippets built into the binary.
// A library directory can override them file by file.
package defaults

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	BlueprintsFile = "blueprints.yaml"
	SnippetsFile   = "snippets.yaml"
	ScanRulesFile  = "scan_rules.yaml"
)

// Files lists every default file a library can override
var Files = []string{BlueprintsFile, SnippetsFile, ScanRulesFile}

//go:embed blueprints.yaml snippets.yaml scan_rules.yaml
var embeddedFiles embed.FS

// DefaultsConfig stores configuration for where to fetch defaults
type DefaultsConfig struct {
	// Base URL for remote defaults
	DefaultsURL string `json:"defaults_url" yaml:"defaults_url"`

	// Whether to attempt to fetch remote defaults
	UseRemote bool `json:"use_remote" yaml:"use_remote"`

	// Timeout for remote fetch operations in seconds
	Timeout int `json:"timeout" yaml:"timeout"`
}

// NewDefaultsConfig creates a default configuration. Remote fetching is off
// unless a URL is configured.
func NewDefaultsConfig() DefaultsConfig {
	return DefaultsConfig{
		UseRemote: false,
		Timeout:   5,
	}
}

// Manager manages access to default files
type Manager struct {
	config DefaultsConfig
	client *http.Client
	logger *logrus.Logger
}

// NewManager creates a new defaults manager
func NewManager(config DefaultsConfig, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Manager{
		config: config,
		client: &http.Client{Timeout: time.Duration(config.Timeout) * time.Second},
		logger: logger,
	}
}

// Blueprints returns the embedded blueprints file
func Blueprints() []byte {
	return mustRead(BlueprintsFile)
}

// Snippets returns the embedded snippets file
func Snippets() []byte {
	return mustRead(SnippetsFile)
}

// ScanRules returns the embedded scan rules file
func ScanRules() []byte {
	return mustRead(ScanRulesFile)
}

func mustRead(name string) []byte {
	data, err := embeddedFiles.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("embedded default %s missing: %v", name, err))
	}
	return data
}

// Load returns the named default file, preferring a copy in libraryPath
func Load(libraryPath, name string) ([]byte, string, error) {
	if libraryPath != "" {
		path := filepath.Join(libraryPath, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return data, path, nil
		}
		if !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("error reading %s: %w", path, err)
		}
	}

	data, err := embeddedFiles.ReadFile(name)
	if err != nil {
		return nil, "", fmt.Errorf("no default named %s: %w", name, err)
	}
	return data, "embedded:" + name, nil
}

// CopyDefaults writes the default files into libraryDir. Existing files are
// kept unless overwrite is set. It reports whether remote defaults were used.
func (m *Manager) CopyDefaults(libraryDir string, overwrite bool) (bool, error) {
	if err := os.MkdirAll(libraryDir, 0755); err != nil {
		return false, fmt.Errorf("error creating directory %s: %w", libraryDir, err)
	}

	if m.config.UseRemote && m.config.DefaultsURL != "" {
		m.logger.WithField("url", m.config.DefaultsURL).Info("Fetching defaults from remote")
		err := m.copyRemoteDefaults(libraryDir, overwrite)
		if err == nil {
			return true, nil
		}
		m.logger.WithError(err).Warn("Failed to fetch remote defaults, falling back to embedded defaults")
	}

	for _, name := range Files {
		if err := m.copyEmbeddedFile(name, filepath.Join(libraryDir, name), overwrite); err != nil {
			return false, err
		}
	}
	return false, nil
}

// copyEmbeddedFile copies a single file from the embedded filesystem to the target path
func (m *Manager) copyEmbeddedFile(name, dstPath string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(dstPath); err == nil {
			m.logger.WithField("path", dstPath).Debug("Keeping existing file")
			return nil
		}
	}

	src, err := embeddedFiles.Open(name)
	if err != nil {
		return fmt.Errorf("error opening embedded file %s: %w", name, err)
	}
	defer src.Close()

	return writeFrom(dstPath, src)
}

// copyRemoteDefaults fetches a manifest listing default files and downloads
// each of them
func (m *Manager) copyRemoteDefaults(libraryDir string, overwrite bool) error {
	resp, err := m.client.Get(m.config.DefaultsURL + "/manifest.json")
	if err != nil {
		return fmt.Errorf("error fetching manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("manifest not found, status: %d", resp.StatusCode)
	}

	var manifest struct {
		Files []string `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return fmt.Errorf("error decoding manifest: %w", err)
	}

	for _, file := range manifest.Files {
		if !slices.Contains(Files, file) {
			return fmt.Errorf("unknown default file: %s", file)
		}

		dstPath := filepath.Join(libraryDir, file)
		if !overwrite {
			if _, err := os.Stat(dstPath); err == nil {
				continue
			}
		}
		if err := m.downloadFile(m.config.DefaultsURL+"/"+file, dstPath); err != nil {
			return fmt.Errorf("error downloading %s: %w", file, err)
		}
	}

	return nil
}

// downloadFile downloads a file from a URL to a local path
func (m *Manager) downloadFile(url, dstPath string) error {
	resp, err := m.client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("file not found, status: %d", resp.StatusCode)
	}

	return writeFrom(dstPath, resp.Body)
}

func writeFrom(dstPath string, src io.Reader) error {
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("error creating destination file %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("error copying file content: %w", err)
	}
	return nil
}

// ListEmbeddedFiles returns a list of all embedded default files
func ListEmbeddedFiles() ([]string, error) {
	var files []string

	err := fs.WalkDir(embeddedFiles, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking embedded files: %w", err)
	}

	return files, nil
}
