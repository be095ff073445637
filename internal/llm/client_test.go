package llm

import (
	"testing"

	"github.com/insurdocs/pipeline/internal/config"
)

func TestNew_unknownProvider(t *testing.T) {
	_, err := New(config.LLMConfig{Provider: "bogus", RequestTimeout: "5s"}, "key")
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNew_missingAPIKey(t *testing.T) {
	_, err := New(config.LLMConfig{Provider: "openrouter", RequestTimeout: "5s"}, "")
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}
