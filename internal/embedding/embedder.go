// Package embedding provides text embedding via a local ONNX model or a
// remote EmbeddingClient service, with LRU caching in front of either.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/insurdocs/pipeline/internal/config"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New constructs the configured embedding backend: "onnx" (default, local
// model) or "http" (remote EmbeddingClient per spec.md §6). Falls back to
// MockEmbedder when the onnx backend can't load its model, so a deployment
// missing the onnxruntime shared library still starts.
func New(cfg config.EmbeddingConfig, apiKey string) (Embedder, error) {
	switch cfg.Backend {
	case "", "onnx":
		onnxEmbedder, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
		if err != nil {
			return NewMockEmbedder(cfg.Dimensions), nil
		}
		return onnxEmbedder, nil
	case "http":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("embedding: http backend requires base_url")
		}
		timeout, err := time.ParseDuration(cfg.RequestTimeout)
		if err != nil {
			timeout = 30 * time.Second
		}
		return NewHTTPEmbedder(cfg.BaseURL, apiKey, cfg.Dimensions, timeout), nil
	default:
		return nil, fmt.Errorf("embedding: unknown backend %q", cfg.Backend)
	}
}
