// Package llm wraps the section-extraction and relationship-inference model
// calls behind one provider-agnostic interface (spec.md §4.6, §4.9). Callers
// always ask for JSON: the model response is expected to already match the
// caller's schema. There is no repair or retry of a malformed response; the
// extraction package turns a section whose response fails to parse into a
// zero-confidence extraction.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/insurdocs/pipeline/internal/config"
)

// Client generates a JSON completion for a prompt under a system
// instruction. Implementations must honor ctx cancellation/deadline.
type Client interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Close() error
}

// New constructs the configured provider's client.
func New(cfg config.LLMConfig, apiKey string) (Client, error) {
	timeout, err := time.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		timeout = 60 * time.Second
	}
	switch cfg.Provider {
	case "gemini":
		return newGeminiClient(cfg.Model, apiKey, timeout)
	case "openrouter":
		return newOpenAIClient(cfg.Model, apiKey, cfg.BaseURL, timeout)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
