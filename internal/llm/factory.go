package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/yunapotamus/openclaw-research/internal/models"
)

// MultiProviderClient implements Client by dispatching to the appropriate
// provider based on the ModelConfig.Provider field.
//
// This allows a single worker to serve sessions on either provider without
// knowing which one will be used at registration time.
type MultiProviderClient struct {
	openai    Client
	anthropic Client
}

// NewMultiProviderClient creates a client that can dispatch to multiple
// providers.
func NewMultiProviderClient() *MultiProviderClient {
	return &MultiProviderClient{
		openai:    NewOpenAIClient(),
		anthropic: NewAnthropicClient(),
	}
}

// Generate dispatches based on ModelConfig.Provider, falling back to
// inference from the model name when the provider is unset.
func (c *MultiProviderClient) Generate(ctx context.Context, req Request) (Response, error) {
	provider := req.Model.Provider
	if provider == "" {
		provider = DetectProviderFromModel(req.Model.Model)
	}

	switch provider {
	case "openai":
		return c.openai.Generate(ctx, req)
	case "anthropic":
		return c.anthropic.Generate(ctx, req)
	default:
		return Response{}, fmt.Errorf("unsupported LLM provider: %s (supported: openai, anthropic)", provider)
	}
}

// DetectProviderFromModel infers the provider from the model name.
func DetectProviderFromModel(model string) string {
	if strings.HasPrefix(model, "claude") {
		return "anthropic"
	}
	return "openai"
}

// NewClient creates a single-provider client. Prefer NewMultiProviderClient
// when the provider isn't known at init time.
func NewClient(provider string) (Client, error) {
	switch provider {
	case "openai", "":
		return NewOpenAIClient(), nil
	case "anthropic":
		return NewAnthropicClient(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: openai, anthropic)", provider)
	}
}

// DefaultModelFor returns a sensible default model for a provider when the
// user doesn't specify one.
func DefaultModelFor(provider string) models.ModelConfig {
	switch provider {
	case "anthropic":
		return models.ModelConfig{Provider: "anthropic", Model: "claude-sonnet-4-20250514"}
	default:
		return models.ModelConfig{Provider: "openai", Model: "gpt-4o-mini"}
	}
}
