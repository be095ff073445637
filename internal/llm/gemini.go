package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// geminiClient implements Client against the Gemini API, requesting
// application/json output so extraction never has to strip markdown fences.
type geminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func newGeminiClient(model, apiKey string, timeout time.Duration) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: gemini API key not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &geminiClient{client: client, model: model, timeout: timeout}, nil
}

func (c *geminiClient) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini generate content: empty response")
	}
	return text, nil
}

func (c *geminiClient) Close() error { return nil }
