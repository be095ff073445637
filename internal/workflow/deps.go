package workflow

import (
	"github.com/insurdocs/pipeline/internal/chunker"
	"github.com/insurdocs/pipeline/internal/config"
	"github.com/insurdocs/pipeline/internal/embedding"
	"github.com/insurdocs/pipeline/internal/entitysynthesis"
	"github.com/insurdocs/pipeline/internal/extraction"
	"github.com/insurdocs/pipeline/internal/graph"
	"github.com/insurdocs/pipeline/internal/keyword"
	"github.com/insurdocs/pipeline/internal/llm"
	"github.com/insurdocs/pipeline/internal/ocr"
	"github.com/insurdocs/pipeline/internal/vector"
)

// ActivityRegistry is the struct-of-methods whose exported methods are
// registered as Temporal activities, generalizing the teacher's
// dependency-injected Indexer (internal/indexer/indexer.go) from one
// "index a document" method into one method per pipeline stage operation.
// Long-lived clients (LLM, embedder, vector/graph/keyword indices) are
// built once at worker startup; storage.Storage is opened fresh inside each
// activity (spec.md §5's "every activity opens its own storage session").
type ActivityRegistry struct {
	cfg config.Config

	ocr          ocr.Service
	llmClient    llm.Client
	embedder     embedding.Embedder
	vectorIndex  vector.VectorIndex
	keywordIndex keyword.KeywordIndex
	graphStore   graph.Store

	chunker            *chunker.Chunker
	extractionRegistry *extraction.Registry
	entityRegistry     *entitysynthesis.Registry
	events             *EventBus
}

// NewActivityRegistry wires the worker-lifetime clients. cfg is retained so
// each activity can open its own storage.Storage session with the
// configured backend.
func NewActivityRegistry(
	cfg config.Config,
	ocrService ocr.Service,
	llmClient llm.Client,
	embedder embedding.Embedder,
	vectorIndex vector.VectorIndex,
	keywordIndex keyword.KeywordIndex,
	graphStore graph.Store,
	events *EventBus,
) (*ActivityRegistry, error) {
	chunkerCfg := chunker.DefaultConfig()
	c, err := chunker.New(chunkerCfg)
	if err != nil {
		return nil, err
	}
	return &ActivityRegistry{
		cfg:                cfg,
		ocr:                ocrService,
		llmClient:          llmClient,
		embedder:           embedder,
		vectorIndex:        vectorIndex,
		keywordIndex:       keywordIndex,
		graphStore:         graphStore,
		chunker:            c,
		extractionRegistry: extraction.NewRegistry(),
		entityRegistry:     entitysynthesis.NewRegistry(),
		events:             events,
	}, nil
}
