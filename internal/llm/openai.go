package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// openAIClient implements Client against any OpenAI-compatible chat
// completions endpoint. With BaseURL set to OpenRouter's API, the same
// client serves the spec's "openrouter" provider option.
type openAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func newOpenAIClient(model, apiKey, baseURL string, timeout time.Duration) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: openai/openrouter API key not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAIClient{client: openai.NewClientWithConfig(cfg), model: model, timeout: timeout}, nil
}

func (c *openAIClient) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *openAIClient) Close() error { return nil }
