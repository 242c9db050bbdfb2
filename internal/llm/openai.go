package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
)

// OpenAIClient calls the OpenAI Chat Completions API. The API key is read
// from OPENAI_API_KEY by the SDK.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates an OpenAI client.
func NewOpenAIClient() *OpenAIClient {
	return &OpenAIClient{client: openai.NewClient()}
}

// Generate sends a single system+user message exchange.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (Response, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature:         openai.Float(temperatureFor(req.Model)),
		MaxCompletionTokens: openai.Int(int64(maxTokensFor(req.Model))),
	})
	if err != nil {
		return Response{}, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, errors.New("openai: response has no choices")
	}

	return Response{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}, nil
}
