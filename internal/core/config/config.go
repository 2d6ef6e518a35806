// SPDX-License-Identifier: Apache-2.0

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kusari-oss/justbuilt/internal/core/format"
	"github.com/kusari-oss/justbuilt/internal/core/schema"
	"github.com/kusari-oss/justbuilt/internal/defaults"
)

// Constants for default paths
const (
	DefaultConfigDir      = ".justbuilt"
	DefaultGlobalLibrary  = "~/.justbuilt/library"
	DefaultTimelineDB     = "~/.justbuilt/timeline.db"
	DefaultConfigFileName = "config.yaml"
	DefaultOutputPath     = "steps/step-{{.id}}{{.ext}}"

	// HomeEnvVar overrides the home directory used for ~ expansion
	HomeEnvVar = "JUSTBUILT_HOME"
)

// CybersecurityPrompt is appended to the system prompt in cybersecurity mode
const CybersecurityPrompt = "You are operating in cybersecurity mode. Focus on defensive security practices, " +
	"ethical hacking techniques, and secure coding patterns. Always prioritize security best practices " +
	"and explain potential vulnerabilities."

//go:embed config.schema.json
var configSchema []byte

// LLMConfig holds the sampling settings of the planning model
type LLMConfig struct {
	Model             string  `yaml:"model" json:"model"`
	Temperature       float64 `yaml:"temperature" json:"temperature"`
	MaxTokens         int     `yaml:"max_tokens" json:"max_tokens"`
	TopP              float64 `yaml:"top_p" json:"top_p"`
	FrequencyPenalty  float64 `yaml:"frequency_penalty" json:"frequency_penalty"`
	PresencePenalty   float64 `yaml:"presence_penalty" json:"presence_penalty"`
	SystemPrompt      string  `yaml:"system_prompt" json:"system_prompt"`
	ContextWindow     int     `yaml:"context_window" json:"context_window"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds"`
	CybersecurityMode bool    `yaml:"cybersecurity_mode" json:"cybersecurity_mode"`

	// Models listed here are shown but refused by the planner
	DisabledModels []string `yaml:"disabled_models,omitempty" json:"disabled_models,omitempty"`
}

// CommunicationStyle tunes how an agent phrases its output. Every level is
// between 1 and 10.
type CommunicationStyle struct {
	Verbosity      int  `yaml:"verbosity" json:"verbosity"`
	Formality      int  `yaml:"formality" json:"formality"`
	TechnicalLevel int  `yaml:"technical_level" json:"technical_level"`
	UseEmojis      bool `yaml:"use_emojis" json:"use_emojis"`
}

// AgentConfig describes a custom agent persona
type AgentConfig struct {
	Name               string             `yaml:"name" json:"name"`
	Description        string             `yaml:"description" json:"description"`
	Model              string             `yaml:"model" json:"model"`
	Purpose            string             `yaml:"purpose" json:"purpose"`
	SecurityLevel      string             `yaml:"security_level" json:"security_level"`
	CustomInstructions string             `yaml:"custom_instructions" json:"custom_instructions"`
	Expertise          []string           `yaml:"expertise" json:"expertise"`
	CodingStyle        string             `yaml:"coding_style" json:"coding_style"`
	Communication      CommunicationStyle `yaml:"communication" json:"communication"`
}

// ExecutionConfig controls plan execution
type ExecutionConfig struct {
	StepDelay    string `yaml:"step_delay" json:"step_delay"`
	WorkspaceDir string `yaml:"workspace_dir" json:"workspace_dir"` // Empty disables writing generated code
	OutputPath   string `yaml:"output_path" json:"output_path"`
	TimelineDB   string `yaml:"timeline_db" json:"timeline_db"` // Empty disables the timeline
}

// ScanConfig controls the code scan of completed steps
type ScanConfig struct {
	AutoScan bool   `yaml:"auto_scan" json:"auto_scan"` // Scan after every plan run
	FailOn   string `yaml:"fail_on" json:"fail_on"`     // Lowest severity that fails a scan, or "none"
}

// Config holds the application configuration
type Config struct {
	LibraryPath string                  `yaml:"library_path" json:"library_path"`
	LLM         LLMConfig               `yaml:"llm" json:"llm"`
	Agent       AgentConfig             `yaml:"agent" json:"agent"`
	Execution   ExecutionConfig         `yaml:"execution" json:"execution"`
	Scan        ScanConfig              `yaml:"scan" json:"scan"`
	Defaults    defaults.DefaultsConfig `yaml:"defaults" json:"defaults"`

	CmdLineLibraryPath string `yaml:"-" json:"-"`
}

// NewDefaultConfig creates a default configuration
func NewDefaultConfig() *Config {
	return &Config{
		LibraryPath: ExpandPathWithTilde(DefaultGlobalLibrary),
		LLM: LLMConfig{
			Model:          "gemini",
			Temperature:    0.7,
			MaxTokens:      2048,
			TopP:           0.9,
			ContextWindow:  4096,
			TimeoutSeconds: 30,
		},
		Agent: AgentConfig{
			Purpose:       "general",
			SecurityLevel: "standard",
			Expertise:     []string{},
			CodingStyle:   "clean-readable",
			Communication: CommunicationStyle{
				Verbosity:      5,
				Formality:      5,
				TechnicalLevel: 5,
			},
		},
		Execution: ExecutionConfig{
			StepDelay:  "3s",
			OutputPath: DefaultOutputPath,
			TimelineDB: ExpandPathWithTilde(DefaultTimelineDB),
		},
		Scan: ScanConfig{
			FailOn: "critical",
		},
		Defaults: defaults.NewDefaultsConfig(),
	}
}

// ExpandPathWithTilde expands ~ to user home directory.
// It respects the JUSTBUILT_HOME environment variable.
func ExpandPathWithTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home := getHomeDir()
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

func getHomeDir() string {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// GlobalConfigFilePath returns the absolute path to the global config file
func GlobalConfigFilePath() (string, error) {
	home := getHomeDir()
	if home == "" {
		return "", fmt.Errorf("could not get user home directory")
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFileName), nil
}

// LoadConfig loads the application configuration.
// It starts with default settings and applies the global configuration file
// when present, then configPath when given. A command-line library path
// overrides any library path found in the configuration files. The merged
// result is validated.
func LoadConfig(cmdLineLibraryPath, configPath string) (*Config, error) {
	config := NewDefaultConfig()

	globalPath, err := GlobalConfigFilePath()
	if err == nil {
		if err := config.mergeFile(globalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if configPath != "" {
		if err := config.mergeFile(ExpandPathWithTilde(configPath)); err != nil {
			return nil, err
		}
	}

	if cmdLineLibraryPath != "" {
		config.LibraryPath = ExpandPathWithTilde(cmdLineLibraryPath)
		config.CmdLineLibraryPath = config.LibraryPath
	}

	config.LibraryPath = ExpandPathWithTilde(config.LibraryPath)
	config.Execution.WorkspaceDir = ExpandPathWithTilde(config.Execution.WorkspaceDir)
	config.Execution.TimelineDB = ExpandPathWithTilde(config.Execution.TimelineDB)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// mergeFile decodes a config file on top of c. Keys absent from the file
// keep their current value.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file '%s': %w", path, err)
	}

	if err := format.ParseData(data, c); err != nil {
		return fmt.Errorf("error parsing config file '%s': %w", path, err)
	}
	return nil
}

// Validate checks every setting against its allowed range
func (c *Config) Validate() error {
	if err := schema.ValidateDocument("config", configSchema, c); err != nil {
		return err
	}
	if _, err := c.StepDelay(); err != nil {
		return err
	}
	return nil
}

// StepDelay returns the pause between steps of a full run
func (c *Config) StepDelay() (time.Duration, error) {
	if c.Execution.StepDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Execution.StepDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid step_delay %q: %w", c.Execution.StepDelay, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid step_delay %q: must not be negative", c.Execution.StepDelay)
	}
	return d, nil
}

// ProduceTimeout returns the time limit for producing a single step
func (c *Config) ProduceTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// SystemPrompt returns the configured system prompt, extended with the
// cybersecurity instructions when that mode is on
func (c *Config) SystemPrompt() string {
	prompt := c.LLM.SystemPrompt
	if c.Agent.CustomInstructions != "" {
		prompt = joinPrompt(prompt, c.Agent.CustomInstructions)
	}
	if c.LLM.CybersecurityMode {
		prompt = joinPrompt(prompt, CybersecurityPrompt)
	}
	return prompt
}

func joinPrompt(prompt, extra string) string {
	if prompt == "" {
		return extra
	}
	return prompt + "\n\n" + extra
}

// ModelID returns the agent model when set, the LLM model otherwise
func (c *Config) ModelID() string {
	if c.Agent.Model != "" {
		return c.Agent.Model
	}
	return c.LLM.Model
}

// SaveConfig writes the configuration to path
func SaveConfig(config *Config, path string) error {
	if err := format.WriteFile(path, config); err != nil {
		return fmt.Errorf("error writing config file '%s': %w", path, err)
	}
	return nil
}

// SaveGlobalConfig saves the configuration to the global config path
func SaveGlobalConfig(config *Config) (string, error) {
	globalPath, err := GlobalConfigFilePath()
	if err != nil {
		return "", fmt.Errorf("could not determine global config path for saving: %w", err)
	}
	return globalPath, SaveConfig(config, globalPath)
}
