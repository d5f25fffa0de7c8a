// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"kpii-scan/internal/paths"
)

// Environment variables read after the config file. Values from the
// environment (or a .env file in the working directory) win.
const (
	EnvCODEFClientID     = "KPII_CODEF_CLIENT_ID"
	EnvCODEFClientSecret = "KPII_CODEF_CLIENT_SECRET"
	EnvCODEFProduction   = "KPII_CODEF_PRODUCTION"
	EnvLLMBaseURL        = "KPII_LLM_BASE_URL"
	EnvLLMModel          = "KPII_LLM_MODEL"
	EnvLLMAPIKey         = "KPII_LLM_API_KEY"
	EnvLogLevel          = "KPII_LOG_LEVEL"
)

var validFormats = map[string]bool{"text": true, "json": true, "yaml": true}

// Config represents the application configuration
type Config struct {
	// Default settings
	Defaults struct {
		Format           string   `yaml:"format"`
		ConfidenceLevels string   `yaml:"confidence_levels"`
		Checks           string   `yaml:"checks"`
		Mask             bool     `yaml:"mask"`
		NoColor          bool     `yaml:"no_color"`
		Recursive        bool     `yaml:"recursive"`
		LogLevel         string   `yaml:"log_level"`
		Workers          int      `yaml:"workers"`
		ExcludePatterns  []string `yaml:"exclude_patterns"`
	} `yaml:"defaults"`

	// LLM classifier settings
	Classifier ClassifierConfig `yaml:"classifier"`

	// Identity verification API settings
	Verification VerificationConfig `yaml:"verification"`

	// User pattern store
	Patterns struct {
		File string `yaml:"file"`
	} `yaml:"patterns"`

	// Dummy-value tables; empty uses the built-in tables
	Nuisance struct {
		TablesFile string `yaml:"tables_file"`
	} `yaml:"nuisance"`

	// Bank account layouts; empty uses the built-in registry
	Banks struct {
		File string `yaml:"file"`
	} `yaml:"banks"`

	// HTTP API server
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	// Profiles for different scanning scenarios
	Profiles map[string]Profile `yaml:"profiles"`
}

// ClassifierConfig configures the LLM classifier stages
type ClassifierConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Mode             string        `yaml:"mode"` // chunk or keyword
	DocumentAnalysis bool          `yaml:"document_analysis"`
	BaseURL          string        `yaml:"base_url"`
	Model            string        `yaml:"model"`
	APIKey           string        `yaml:"api_key"`
	Timeout          time.Duration `yaml:"timeout"`
	ChunkSize        int           `yaml:"chunk_size"`
	ChunkOverlap     int           `yaml:"chunk_overlap"`
	BatchSize        int           `yaml:"batch_size"`
	Temperature      float32       `yaml:"temperature"`
}

// VerificationConfig configures the CODEF identity verification client
type VerificationConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	Production    bool   `yaml:"production"`
	RatePerMinute int    `yaml:"rate_per_minute"`
}

// Profile represents a scanning profile with specific settings
type Profile struct {
	Format           string `yaml:"format"`
	ConfidenceLevels string `yaml:"confidence_levels"`
	Checks           string `yaml:"checks"`
	Mask             bool   `yaml:"mask"`
	Classifier       *bool  `yaml:"classifier,omitempty"`
	Description      string `yaml:"description"`
}

// Default returns the built-in configuration
func Default() *Config {
	config := &Config{Profiles: make(map[string]Profile)}

	config.Defaults.Format = "text"
	config.Defaults.ConfidenceLevels = "all"
	config.Defaults.Checks = "all"
	config.Defaults.LogLevel = "info"
	config.Defaults.Workers = 4

	config.Classifier.Enabled = true
	config.Classifier.Mode = "chunk"
	config.Classifier.DocumentAnalysis = true
	config.Classifier.BaseURL = "http://localhost:11434/v1"
	config.Classifier.Model = "llama3.2:3b"
	config.Classifier.Timeout = 90 * time.Second
	config.Classifier.ChunkSize = 1500
	config.Classifier.ChunkOverlap = 150
	config.Classifier.BatchSize = 10
	config.Classifier.Temperature = 0.1

	config.Verification.RatePerMinute = 60
	config.Server.Addr = ":8080"

	disabled := false
	config.Profiles["quick"] = Profile{
		Format:           "text",
		ConfidenceLevels: "high,medium",
		Checks:           "all",
		Classifier:       &disabled,
		Description:      "Regex and checksum stages only, no classifier calls",
	}
	return config
}

// LoadConfig loads configuration from the specified file path, then applies
// environment overrides. An empty path yields the defaults plus environment.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(filepath.Clean(configPath))
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		// Store default values before unmarshaling
		defaultClassifier := config.Classifier.Enabled
		defaultDocumentAnalysis := config.Classifier.DocumentAnalysis

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		// Restore defaults for bool fields the file does not mention
		if !containsField(data, "classifier", "enabled") {
			config.Classifier.Enabled = defaultClassifier
		}
		if !containsField(data, "classifier", "document_analysis") {
			config.Classifier.DocumentAnalysis = defaultDocumentAnalysis
		}
	}

	// Best-effort: load .env from the current directory
	_ = godotenv.Load()
	ApplyEnv(config)
	ApplyPlatformDefaults(config)

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// ApplyEnv overlays credentials and endpoints from the environment
func ApplyEnv(config *Config) {
	setString := func(target *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*target = v
		}
	}
	setString(&config.Verification.ClientID, EnvCODEFClientID)
	setString(&config.Verification.ClientSecret, EnvCODEFClientSecret)
	setString(&config.Classifier.BaseURL, EnvLLMBaseURL)
	setString(&config.Classifier.Model, EnvLLMModel)
	setString(&config.Classifier.APIKey, EnvLLMAPIKey)
	setString(&config.Defaults.LogLevel, EnvLogLevel)

	if v := strings.TrimSpace(os.Getenv(EnvCODEFProduction)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Verification.Production = b
		}
	}
	// Credentials supplied through the environment switch verification on
	if os.Getenv(EnvCODEFClientID) != "" && os.Getenv(EnvCODEFClientSecret) != "" {
		config.Verification.Enabled = true
	}
}

// FindConfigFile looks for a configuration file in the working directory,
// then in the user configuration directory
func FindConfigFile() string {
	for _, name := range []string{"kpii.yaml", "kpii.yml", ".kpii-scan.yaml", ".kpii-scan.yml"} {
		if fileExists(name) {
			return name
		}
	}
	if standard := paths.GetConfigFile(); fileExists(standard) {
		return standard
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ListProfiles returns the available profile names in sorted order
func (c *Config) ListProfiles() []string {
	profiles := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		profiles = append(profiles, name)
	}
	sort.Strings(profiles)
	return profiles
}

// GetProfile returns a profile by name, or nil if not found
func (c *Config) GetProfile(name string) *Profile {
	if profile, exists := c.Profiles[name]; exists {
		return &profile
	}
	return nil
}

// ApplyProfile copies the profile's non-empty settings over the defaults
func (c *Config) ApplyProfile(name string) error {
	profile := c.GetProfile(name)
	if profile == nil {
		return fmt.Errorf("profile %q not found (available: %s)", name, strings.Join(c.ListProfiles(), ", "))
	}
	if profile.Format != "" {
		c.Defaults.Format = profile.Format
	}
	if profile.ConfidenceLevels != "" {
		c.Defaults.ConfidenceLevels = profile.ConfidenceLevels
	}
	if profile.Checks != "" {
		c.Defaults.Checks = profile.Checks
	}
	if profile.Mask {
		c.Defaults.Mask = true
	}
	if profile.Classifier != nil {
		c.Classifier.Enabled = *profile.Classifier
	}
	return ValidateConfig(c)
}

// containsField checks if a nested field exists in the YAML data
func containsField(data []byte, path ...string) bool {
	var yamlData map[string]interface{}
	err := yaml.Unmarshal(data, &yamlData)
	if err != nil {
		return false
	}

	current := yamlData
	for i, key := range path {
		if i == len(path)-1 {
			_, exists := current[key]
			return exists
		}
		if next, ok := current[key].(map[string]interface{}); ok {
			current = next
		} else {
			return false
		}
	}
	return false
}

// ValidateConfig checks value ranges and paths
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if !validFormats[config.Defaults.Format] {
		return fmt.Errorf("unknown output format %q", config.Defaults.Format)
	}
	if config.Defaults.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}

	c := config.Classifier
	if c.Mode != "" && c.Mode != "chunk" && c.Mode != "keyword" {
		return fmt.Errorf("unknown classifier mode %q (use chunk or keyword)", c.Mode)
	}
	if c.ChunkSize < 0 || c.ChunkOverlap < 0 || (c.ChunkSize > 0 && c.ChunkOverlap >= c.ChunkSize) {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.BatchSize < 0 || c.BatchSize > 10 {
		return fmt.Errorf("batch_size must be at most 10")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("classifier timeout must not be negative")
	}
	if config.Verification.RatePerMinute < 0 {
		return fmt.Errorf("rate_per_minute must not be negative")
	}

	if err := validateConfigPaths(config); err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	return nil
}

// validateConfigPaths validates all paths in the configuration
func validateConfigPaths(config *Config) error {
	for name, path := range map[string]string{
		"patterns file":        config.Patterns.File,
		"nuisance tables file": config.Nuisance.TablesFile,
		"banks file":           config.Banks.File,
	} {
		if err := paths.ValidatePath(path); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// ApplyPlatformDefaults normalizes file paths and fills in the pattern store location
func ApplyPlatformDefaults(config *Config) {
	if config == nil {
		return
	}
	if config.Patterns.File == "" {
		config.Patterns.File = paths.GetPatternsFile()
	}
	config.Patterns.File = paths.NormalizePath(config.Patterns.File)
	config.Nuisance.TablesFile = paths.NormalizePath(config.Nuisance.TablesFile)
	config.Banks.File = paths.NormalizePath(config.Banks.File)
}

// LoadConfigOrDefault loads configuration from configFile (or searches standard locations
// when configFile is empty). If loading fails, it returns a default configuration.
// This is the shared helper used by both the CLI and the web server.
func LoadConfigOrDefault(configFile string) *Config {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		// Fall back to defaults so a missing or bad config file does not stop a scan
		cfg, err = LoadConfig("")
		if err != nil {
			cfg = Default()
			ApplyPlatformDefaults(cfg)
		}
	}
	return cfg
}
