// Package config provides configuration loading and management for specboard.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete specboard configuration
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	NATS       NATSConfig       `yaml:"nats"`
	Generation GenerationConfig `yaml:"generation"`
	Projects   ProjectsConfig   `yaml:"projects"`
}

// HTTPConfig configures the HTTP/WebSocket listener
type HTTPConfig struct {
	// Addr is the listen address (default: :8080)
	Addr string `yaml:"addr"`
}

// NATSConfig configures the broker connection
type NATSConfig struct {
	// URL is the NATS server URL (default: nats://localhost:4222)
	URL string `yaml:"url"`
	// Snapshots enables JetStream KV snapshot persistence
	Snapshots bool `yaml:"snapshots"`
}

// GenerationConfig configures the generation service client
type GenerationConfig struct {
	// Provider is the generation provider name ("openai" or "ollama")
	Provider string `yaml:"provider"`
	// Endpoint is the provider base URL (empty = provider default)
	Endpoint string `yaml:"endpoint"`
	// Model is the model identifier (e.g., "qwen2.5-coder:32b")
	Model string `yaml:"model"`
	// Temperature controls randomness (0.0-1.0)
	Temperature float64 `yaml:"temperature"`
	// Timeout is the maximum time to wait for generation responses
	Timeout time.Duration `yaml:"timeout"`
	// MaxInstructionLen caps the user instruction length in characters
	MaxInstructionLen int `yaml:"max_instruction_len"`
}

// ProjectsConfig configures the project collaboration service client
type ProjectsConfig struct {
	// BaseURL is the project service base URL
	BaseURL string `yaml:"base_url"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		NATS: NATSConfig{
			URL:       "nats://localhost:4222",
			Snapshots: true,
		},
		Generation: GenerationConfig{
			Provider:          "ollama",
			Endpoint:          "",
			Model:             "qwen2.5-coder:32b",
			Temperature:       0.2,
			Timeout:           3 * time.Minute,
			MaxInstructionLen: 200,
		},
		Projects: ProjectsConfig{
			BaseURL: "http://localhost:8081",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if c.Generation.Provider == "" {
		return fmt.Errorf("generation.provider is required")
	}
	if c.Generation.Model == "" {
		return fmt.Errorf("generation.model is required")
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 1 {
		return fmt.Errorf("generation.temperature must be between 0 and 1")
	}
	if c.Generation.MaxInstructionLen <= 0 {
		return fmt.Errorf("generation.max_instruction_len must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.HTTP.Addr != "" {
		c.HTTP.Addr = other.HTTP.Addr
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}

	if other.Generation.Provider != "" {
		c.Generation.Provider = other.Generation.Provider
	}
	if other.Generation.Endpoint != "" {
		c.Generation.Endpoint = other.Generation.Endpoint
	}
	if other.Generation.Model != "" {
		c.Generation.Model = other.Generation.Model
	}
	if other.Generation.Temperature != 0 {
		c.Generation.Temperature = other.Generation.Temperature
	}
	if other.Generation.Timeout != 0 {
		c.Generation.Timeout = other.Generation.Timeout
	}
	if other.Generation.MaxInstructionLen != 0 {
		c.Generation.MaxInstructionLen = other.Generation.MaxInstructionLen
	}

	if other.Projects.BaseURL != "" {
		c.Projects.BaseURL = other.Projects.BaseURL
	}
}
