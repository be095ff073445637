package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPEmbedder calls an external embedding service implementing spec.md §6's
// EmbeddingClient.embed(texts) -> [vector] interface. No embedding-provider
// client library appears anywhere in the example pack, so this talks the
// wire protocol directly over net/http rather than fabricating a dependency.
type HTTPEmbedder struct {
	baseURL    string
	apiKey     string
	dimensions int
	httpClient *http.Client
}

// NewHTTPEmbedder constructs an embedder backed by a remote service at
// baseURL. apiKey, if non-empty, is sent as a bearer token.
func NewHTTPEmbedder(baseURL, apiKey string, dimensions int, timeout time.Duration) *HTTPEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HTTPEmbedder{
		baseURL:    baseURL,
		apiKey:     apiKey,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns the embedding for a single text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("embedding: http embedder returned no vectors")
	}
	return out[0], nil
}

// EmbedBatch embeds multiple texts in one request.
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding: service returned status %d", resp.StatusCode)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("embedding: decode response: %w", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding: expected %d vectors, got %d", len(texts), len(parsed.Embeddings))
	}
	return parsed.Embeddings, nil
}

// Dimensions returns the configured embedding dimension.
func (e *HTTPEmbedder) Dimensions() int { return e.dimensions }

// Close is a no-op; the underlying http.Client needs no teardown.
func (e *HTTPEmbedder) Close() error { return nil }
