// SPDX-License-Identifier: Apache-2.0

// Package library inspects the directory holding user blueprints and
// snippets that override the built-in defaults.
package library

import (
	"os"
	"path/filepath"

	"github.com/kusari-oss/justbuilt/internal/defaults"
	"github.com/sirupsen/logrus"
)

// Validator checks the content of one library file
type Validator func(data []byte) error

// FileInfo describes where a library file is loaded from
type FileInfo struct {
	Name   string `json:"name" yaml:"name"`
	Source string `json:"source" yaml:"source"` // File path or "embedded:<name>"
	Custom bool   `json:"custom" yaml:"custom"`
	Valid  bool   `json:"valid" yaml:"valid"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Info contains information about a resolved library
type Info struct {
	Path   string     `json:"path" yaml:"path"`
	Source string     `json:"source" yaml:"source"` // "cmdline" or "config"
	Exists bool       `json:"exists" yaml:"exists"`
	Files  []FileInfo `json:"files" yaml:"files"`
}

// Valid reports whether every file loads and validates
func (i *Info) Valid() bool {
	for _, f := range i.Files {
		if !f.Valid {
			return false
		}
	}
	return true
}

// Manager resolves and validates the library
type Manager struct {
	libraryPath        string
	cmdLineLibraryPath string
	validators         map[string]Validator
	logger             *logrus.Logger
}

// NewManager creates a library manager. validators maps file names such as
// defaults.BlueprintsFile to the check applied to their content.
func NewManager(libraryPath, cmdLineLibraryPath string, validators map[string]Validator, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Manager{
		libraryPath:        libraryPath,
		cmdLineLibraryPath: cmdLineLibraryPath,
		validators:         validators,
		logger:             logger,
	}
}

// Inspect reports, for every default file, whether the library overrides it
// and whether the effective content is valid
func (m *Manager) Inspect() *Info {
	info := &Info{Path: m.libraryPath, Source: "config"}
	if m.cmdLineLibraryPath != "" {
		info.Source = "cmdline"
	}
	if stat, err := os.Stat(m.libraryPath); err == nil && stat.IsDir() {
		info.Exists = true
	}

	for _, name := range defaults.Files {
		info.Files = append(info.Files, m.inspectFile(name))
	}
	return info
}

func (m *Manager) inspectFile(name string) FileInfo {
	file := FileInfo{Name: name}
	log := m.logger.WithField("file", name)

	data, source, err := defaults.Load(m.libraryPath, name)
	if err != nil {
		file.Error = err.Error()
		log.WithError(err).Debug("Library file not readable")
		return file
	}
	file.Source = source
	file.Custom = source == filepath.Join(m.libraryPath, name)

	if validate, ok := m.validators[name]; ok {
		if err := validate(data); err != nil {
			file.Error = err.Error()
			log.WithError(err).Debug("Library file invalid")
			return file
		}
	}

	file.Valid = true
	log.WithField("source", source).Debug("Library file ok")
	return file
}

// Diagnostics returns the library resolution details together with the
// environment that influences them
func (m *Manager) Diagnostics(homeEnvVar string) map[string]interface{} {
	diagnostics := map[string]interface{}{
		"cmdline_library_path": m.cmdLineLibraryPath,
		"library_path":         m.libraryPath,
		homeEnvVar:             os.Getenv(homeEnvVar),
	}

	if home, err := os.UserHomeDir(); err == nil {
		diagnostics["user_home"] = home
	} else {
		diagnostics["user_home_error"] = err.Error()
	}

	info := m.Inspect()
	diagnostics["library"] = info
	diagnostics["valid"] = info.Valid()
	return diagnostics
}
