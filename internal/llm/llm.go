// Package llm wraps the Anthropic and OpenAI SDKs behind a single client
// interface used by research activities.
package llm

import (
	"context"

	"github.com/yunapotamus/openclaw-research/internal/models"
)

// Request is a single system+user prompt generation call.
type Request struct {
	Model  models.ModelConfig `json:"model"`
	System string             `json:"system"`
	User   string             `json:"user"`
}

// Response carries the generated text and token usage.
type Response struct {
	Text         string `json:"text"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Client is implemented by provider clients and the multi-provider
// dispatcher.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

const (
	defaultMaxTokens   = 4096
	defaultTemperature = 0.7
)

// maxTokensFor applies the default output cap when the config leaves it
// unset.
func maxTokensFor(cfg models.ModelConfig) int {
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return defaultMaxTokens
}

// temperatureFor applies the default sampling temperature when unset.
func temperatureFor(cfg models.ModelConfig) float64 {
	if cfg.Temperature > 0 {
		return cfg.Temperature
	}
	return defaultTemperature
}
