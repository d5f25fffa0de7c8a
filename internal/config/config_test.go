// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"kpii-scan/internal/paths"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(paths.ConfigDirEnv, dir)
	for _, key := range []string{
		EnvCODEFClientID, EnvCODEFClientSecret, EnvCODEFProduction,
		EnvLLMBaseURL, EnvLLMModel, EnvLLMAPIKey, EnvLogLevel,
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoadConfigOrDefault_NoFile(t *testing.T) {
	isolateEnv(t)
	// With no config file, should return defaults without error
	cfg := LoadConfigOrDefault("")
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.Defaults.Format == "" {
		t.Error("expected default format to be set")
	}
}

func TestLoadConfigOrDefault_NonexistentFile(t *testing.T) {
	isolateEnv(t)
	// A path that doesn't exist should fall back to defaults
	cfg := LoadConfigOrDefault("/nonexistent/path/config.yaml")
	if cfg == nil {
		t.Fatal("expected non-nil config (fallback to defaults)")
	}
}

func TestLoadConfigOrDefault_ValidFile(t *testing.T) {
	isolateEnv(t)
	configPath := writeConfig(t, `
defaults:
  format: json
  confidence_levels: high
  checks: RRN,CARD
classifier:
  mode: keyword
  timeout: 30s
  chunk_size: 1000
  document_analysis: false
patterns:
  file: /tmp/kpii/patterns.yaml
`)

	cfg := LoadConfigOrDefault(configPath)
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.Defaults.Format != "json" {
		t.Errorf("expected format=json, got %q", cfg.Defaults.Format)
	}
	if cfg.Defaults.ConfidenceLevels != "high" {
		t.Errorf("expected confidence_levels=high, got %q", cfg.Defaults.ConfidenceLevels)
	}
	if cfg.Classifier.Mode != "keyword" {
		t.Errorf("expected mode=keyword, got %q", cfg.Classifier.Mode)
	}
	if cfg.Classifier.Timeout != 30*time.Second {
		t.Errorf("expected timeout=30s, got %v", cfg.Classifier.Timeout)
	}
	if cfg.Classifier.ChunkSize != 1000 || cfg.Classifier.ChunkOverlap != 150 {
		t.Errorf("expected chunk 1000/150, got %d/%d", cfg.Classifier.ChunkSize, cfg.Classifier.ChunkOverlap)
	}
	if !cfg.Classifier.Enabled {
		t.Error("classifier.enabled should keep its default when not set")
	}
	if cfg.Classifier.DocumentAnalysis {
		t.Error("document_analysis=false should be honored")
	}
	if cfg.Patterns.File != filepath.Clean("/tmp/kpii/patterns.yaml") {
		t.Errorf("unexpected patterns file %q", cfg.Patterns.File)
	}
}

func TestLoadConfigOrDefault_InvalidYAML(t *testing.T) {
	isolateEnv(t)
	configPath := writeConfig(t, ":::invalid yaml:::")

	// Should fall back to defaults, not panic
	cfg := LoadConfigOrDefault(configPath)
	if cfg == nil {
		t.Fatal("expected non-nil config (fallback to defaults on parse error)")
	}
	if cfg.Defaults.Format != "text" {
		t.Errorf("expected default format after fallback, got %q", cfg.Defaults.Format)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := isolateEnv(t)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Defaults.Format != "text" {
		t.Errorf("expected default format=text, got %q", cfg.Defaults.Format)
	}
	if cfg.Defaults.ConfidenceLevels != "all" {
		t.Errorf("expected default confidence_levels=all, got %q", cfg.Defaults.ConfidenceLevels)
	}
	if !cfg.Classifier.Enabled || cfg.Classifier.Mode != "chunk" {
		t.Error("expected the chunk classifier to be enabled by default")
	}
	if cfg.Classifier.Timeout != 90*time.Second {
		t.Errorf("expected 90s classifier timeout, got %v", cfg.Classifier.Timeout)
	}
	if cfg.Verification.Enabled {
		t.Error("verification should be off without credentials")
	}
	if cfg.Patterns.File != filepath.Join(dir, "patterns.json") {
		t.Errorf("expected patterns file under the config dir, got %q", cfg.Patterns.File)
	}
}

func TestLoadConfig_ProfilesInitialized(t *testing.T) {
	isolateEnv(t)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cfg.Profiles["quick"]; !ok {
		t.Error("expected 'quick' profile to exist in defaults")
	}
	if got := cfg.ListProfiles(); len(got) != 1 || got[0] != "quick" {
		t.Errorf("unexpected profiles %v", got)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvCODEFClientID, "client")
	t.Setenv(EnvCODEFClientSecret, "secret")
	t.Setenv(EnvCODEFProduction, "true")
	t.Setenv(EnvLLMBaseURL, "http://llm:8000/v1")
	t.Setenv(EnvLLMModel, "qwen3:4b")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Verification.ClientID != "client" || cfg.Verification.ClientSecret != "secret" {
		t.Error("expected CODEF credentials from the environment")
	}
	if !cfg.Verification.Enabled || !cfg.Verification.Production {
		t.Error("expected verification enabled in production mode")
	}
	if cfg.Classifier.BaseURL != "http://llm:8000/v1" || cfg.Classifier.Model != "qwen3:4b" {
		t.Errorf("unexpected classifier endpoint %q %q", cfg.Classifier.BaseURL, cfg.Classifier.Model)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"format", func(c *Config) { c.Defaults.Format = "sarif" }},
		{"mode", func(c *Config) { c.Classifier.Mode = "stream" }},
		{"overlap", func(c *Config) { c.Classifier.ChunkOverlap = c.Classifier.ChunkSize }},
		{"batch", func(c *Config) { c.Classifier.BatchSize = 11 }},
		{"workers", func(c *Config) { c.Defaults.Workers = -1 }},
		{"path", func(c *Config) { c.Banks.File = "bad\x00path" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := ValidateConfig(cfg); err == nil {
				t.Error("expected a validation error")
			}
		})
	}

	if err := ValidateConfig(Default()); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if err := ValidateConfig(nil); err == nil {
		t.Error("nil config should not validate")
	}
}

func TestApplyProfile(t *testing.T) {
	cfg := Default()
	if err := cfg.ApplyProfile("quick"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Classifier.Enabled {
		t.Error("quick profile should disable the classifier")
	}
	if cfg.Defaults.ConfidenceLevels != "high,medium" {
		t.Errorf("unexpected confidence levels %q", cfg.Defaults.ConfidenceLevels)
	}
	if err := cfg.ApplyProfile("missing"); err == nil {
		t.Error("expected an error for an unknown profile")
	}
}
