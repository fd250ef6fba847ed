// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads engine configuration from YAML files and the
// environment. Precedence: defaults, then file, then CACM_* variables.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log          LogConfig          `koanf:"log"`
	LLM          LLMConfig          `koanf:"llm"`
	Catalog      CatalogConfig      `koanf:"catalog"`
	Skills       SkillsConfig       `koanf:"skills"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Store        StoreConfig        `koanf:"store"`
	Telemetry    TelemetryConfig    `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider string `koanf:"provider"` // ollama, mock
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
}

// CatalogConfig points at the capability catalog document.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// SkillsConfig lists directories scanned for prompt skill specs.
type SkillsConfig struct {
	Dirs []string `koanf:"dirs"`
}

type OrchestratorConfig struct {
	StepTimeoutSeconds int `koanf:"step_timeout_seconds"` // 0 disables the per-step timeout
	MaxDelegationDepth int `koanf:"max_delegation_depth"`
}

// StepTimeout returns the per-step timeout as a duration.
func (c OrchestratorConfig) StepTimeout() time.Duration {
	return time.Duration(c.StepTimeoutSeconds) * time.Second
}

// StoreConfig selects the run record backend.
type StoreConfig struct {
	Driver string `koanf:"driver"` // memory, sqlite
	Path   string `koanf:"path"`   // sqlite database file
}

type TelemetryConfig struct {
	Exporter           string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint       string `koanf:"otlp_endpoint"`
	OTLPInsecure       bool   `koanf:"otlp_insecure"`
	OTLPTimeoutSeconds int    `koanf:"otlp_timeout_seconds"`
}

func Load(path string) (*Config, error) {
	return load(path, nil)
}

func load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("llm.provider", "ollama")
	k.Set("llm.model", "qwen2.5-coder:7b-instruct-q5_K_M")
	k.Set("llm.base_url", "http://localhost:11434")
	k.Set("orchestrator.step_timeout_seconds", 0)
	k.Set("orchestrator.max_delegation_depth", 8)
	k.Set("store.driver", "memory")
	k.Set("telemetry.exporter", "stdout")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (CACM_LLM_PROVIDER -> llm.provider)
	if err := k.Load(env.Provider("CACM_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "CACM_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// 3. Command line overrides win over file and environment
	for key, value := range overrides {
		k.Set(key, value)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
