// Package keyword provides keyword (BM25) search indexing and search.
package keyword

import (
	"context"

	"github.com/insurdocs/pipeline/internal/models"
)

// KeywordIndex defines keyword search operations over hybrid chunks. It
// indexes chunk text (not whole documents): this is the internal,
// chunk-level retrieval engine that backs RAG-style Q&A, not a
// document-search HTTP surface.
type KeywordIndex interface {
	Index(ctx context.Context, id string, chunk *models.HybridChunk) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	ID    string
	Score float64
}

// SearchOptions tunes the title/content merge strategy for Search. A nil
// opts (or TitleBoost/PhraseBoost <= 1) falls back to a single match query
// over all fields.
type SearchOptions struct {
	TitleBoost  float64
	PhraseBoost float64
}
