// Package config loads and validates the ConceptLens configuration.
// Configuration lives in .conceptlens/config.yaml; environment variables
// override the file, and defaults cover everything else.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all ConceptLens configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Gemini backend configuration
	Gemini GeminiConfig `yaml:"gemini"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// GeminiConfig configures the generative backend.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`

	// Models per capability
	AnalysisModel string `yaml:"analysis_model"` // structured analysis + chat
	ImageModel    string `yaml:"image_model"`    // image synthesis
	VideoModel    string `yaml:"video_model"`    // Veo video synthesis

	// Request timeout for single-shot calls (analysis, image, chat).
	// The video poll loop is deliberately not bounded by this.
	Timeout string `yaml:"timeout"`

	// Poll interval for asynchronous video jobs
	PollInterval string `yaml:"poll_interval"`
}

// LoggingConfig configures the categorized debug logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	JSONFormat bool            `yaml:"json_format"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "ConceptLens",
		Version: "1.0.0",

		Gemini: GeminiConfig{
			AnalysisModel: "gemini-2.5-flash",
			ImageModel:    "gemini-2.5-flash-image",
			VideoModel:    "veo-3.1-fast-generate-preview",
			Timeout:       "120s",
			PollInterval:  "10s",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config location under the workspace.
func DefaultPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".conceptlens", "config.yaml")
	}
	return filepath.Join(cwd, ".conceptlens", "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API key from environment (check in priority order)
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	} else if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}

	if model := os.Getenv("CONCEPTLENS_ANALYSIS_MODEL"); model != "" {
		c.Gemini.AnalysisModel = model
	}
	if model := os.Getenv("CONCEPTLENS_IMAGE_MODEL"); model != "" {
		c.Gemini.ImageModel = model
	}
	if model := os.Getenv("CONCEPTLENS_VIDEO_MODEL"); model != "" {
		c.Gemini.VideoModel = model
	}
}

// GetRequestTimeout returns the single-shot request timeout as a duration.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Gemini.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetPollInterval returns the video job poll interval as a duration.
func (c *Config) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.Gemini.PollInterval)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("Gemini API key not configured (set GEMINI_API_KEY or GOOGLE_API_KEY, or add gemini.api_key to %s)", DefaultPath())
	}
	if c.Gemini.AnalysisModel == "" || c.Gemini.ImageModel == "" || c.Gemini.VideoModel == "" {
		return fmt.Errorf("all three Gemini models must be configured (analysis, image, video)")
	}
	return nil
}
