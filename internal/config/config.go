// Package config loads the research tool configuration from
// ~/.openclaw-research/config.yaml with environment variable overrides for
// API keys.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File locations under the user's home directory.
const (
	ConfigDirName  = ".openclaw-research"
	ConfigFileName = "config.yaml"
	DBFileName     = "sessions.db"
)

// Config is the on-disk configuration. Every field has a working default;
// the file and all fields are optional.
type Config struct {
	Provider       string  `yaml:"provider"` // "anthropic" or "openai"; inferred from model if empty
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	SearchProvider string  `yaml:"search_provider"` // tavily, brave, duckduckgo
	MaxIterations  int     `yaml:"max_iterations"`
	MaxSubAgents   int     `yaml:"max_sub_agents"`
	SubAgentBudget int     `yaml:"sub_agent_budget"` // seconds
	MaxResults     int     `yaml:"max_results"`
	PagesPerQuery  int     `yaml:"pages_per_query"`
	OutputRoot     string  `yaml:"output_root"`
	DBPath         string  `yaml:"db_path"`

	// API keys. Environment variables take precedence over the file so keys
	// can stay out of it entirely.
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	TavilyAPIKey    string `yaml:"tavily_api_key"`
	BraveAPIKey     string `yaml:"brave_api_key"`
}

// Load reads the config file if present, applies environment overrides, and
// fills defaults. A missing file is not an error.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return LoadFrom(filepath.Join(home, ConfigDirName, ConfigFileName))
}

// LoadFrom loads configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults(filepath.Dir(path))
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.AnthropicAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		c.TavilyAPIKey = v
	}
	if v := os.Getenv("BRAVE_SEARCH_API_KEY"); v != "" {
		c.BraveAPIKey = v
	}
}

func (c *Config) applyDefaults(configDir string) {
	if c.SearchProvider == "" {
		switch {
		case c.TavilyAPIKey != "":
			c.SearchProvider = "tavily"
		case c.BraveAPIKey != "":
			c.SearchProvider = "brave"
		default:
			c.SearchProvider = "duckduckgo"
		}
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.OutputRoot == "" {
		c.OutputRoot = "."
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(configDir, DBFileName)
	}
}

// SearchAPIKey returns the key matching the configured search provider.
func (c *Config) SearchAPIKey() string {
	switch c.SearchProvider {
	case "tavily":
		return c.TavilyAPIKey
	case "brave":
		return c.BraveAPIKey
	default:
		return ""
	}
}
