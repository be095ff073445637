package workflow

import (
	"context"
	"fmt"

	"github.com/insurdocs/pipeline/internal/models"
	"github.com/insurdocs/pipeline/internal/pipelineerr"
)

// EmbedChunksInput feeds the indexing activity the chunks the PROCESSED
// stage produced and the canonical entities the ENRICHED stage resolved.
type EmbedChunksInput struct {
	DocumentID string
	WorkflowID string
	Chunks     []models.HybridChunk
	Entities   []models.CanonicalEntity
}

// EmbedChunks embeds every chunk's text and every canonical entity's
// textual representation, writing both into the vector store keyed by the
// chunk's stable id or "entity:" plus the canonical id (spec.md §4.12).
// Only the id and the embedding are stored; document, section_type and
// page numbers are not recorded with a vector. This is the
// only activity allowed to write the vector index: the relational store
// stays the single source of truth and vector/graph projections are
// eventually consistent, built only once a document reaches SUMMARIZED
// (spec.md §5).
func (a *ActivityRegistry) EmbedChunks(ctx context.Context, in EmbedChunksInput) (int, error) {
	ids := make([]string, 0, len(in.Chunks)+len(in.Entities))
	texts := make([]string, 0, len(in.Chunks)+len(in.Entities))
	for _, c := range in.Chunks {
		ids = append(ids, c.StableChunkID)
		texts = append(texts, c.Text)
	}
	for _, e := range in.Entities {
		ids = append(ids, "entity:"+e.ID)
		texts = append(texts, entityText(e))
	}
	if len(ids) == 0 {
		return 0, nil
	}

	vectors, err := a.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, toApplicationError(pipelineerr.Transientf("EmbedChunks", "embed batch: %w", err))
	}
	if err := a.vectorIndex.Add(ctx, ids, vectors); err != nil {
		return 0, toApplicationError(pipelineerr.Transientf("EmbedChunks", "write vector index: %w", err))
	}

	if a.keywordIndex != nil {
		for _, c := range in.Chunks {
			chunk := c
			if err := a.keywordIndex.Index(ctx, chunk.StableChunkID, &chunk); err != nil {
				return 0, toApplicationError(pipelineerr.Transientf("EmbedChunks", "keyword index chunk %s: %w", chunk.StableChunkID, err))
			}
		}
	}

	return len(ids), nil
}

// entityText renders a canonical entity's attributes into a short string
// suitable for embedding — its canonical name plus any description-shaped
// attribute, since entity nodes don't carry free text directly.
func entityText(e models.CanonicalEntity) string {
	name, _ := e.Attributes["name"].(string)
	if name == "" {
		name = e.ID
	}
	if desc, ok := e.Attributes["description"].(string); ok && desc != "" {
		return fmt.Sprintf("%s: %s", name, desc)
	}
	return name
}

// BuildGraphInput feeds the graph-projection activity the canonical
// entities and relationships this document's run resolved.
type BuildGraphInput struct {
	DocumentID    string
	WorkflowID    string
	Entities      []models.CanonicalEntity
	Relationships []models.Relationship
}

// BuildGraph projects canonical entities and relationships into the graph
// store (spec.md §4.12). Every node carries canonical_entity_id and
// workflow_id properties so concurrent runs over overlapping entities
// don't collide; every entity node is also linked to the document node by
// a SUPPORTED_BY edge, capturing evidence provenance.
func (a *ActivityRegistry) BuildGraph(ctx context.Context, in BuildGraphInput) error {
	docNodeID := "document:" + in.DocumentID
	if err := a.graphStore.WriteNode(ctx, models.GraphNode{
		ID:     docNodeID,
		Labels: []string{"Document"},
		Properties: map[string]any{
			"document_id": in.DocumentID,
			"workflow_id": in.WorkflowID,
		},
	}); err != nil {
		return toApplicationError(pipelineerr.Transientf("BuildGraph", "write document node: %w", err))
	}

	for _, e := range in.Entities {
		node := models.GraphNode{
			ID:     e.ID,
			Labels: []string{string(e.Type)},
			Properties: map[string]any{
				"canonical_entity_id": e.ID,
				"workflow_id":         in.WorkflowID,
				"confidence":          e.Confidence,
			},
		}
		for k, v := range e.Attributes {
			node.Properties[k] = v
		}
		if err := a.graphStore.WriteNode(ctx, node); err != nil {
			return toApplicationError(pipelineerr.Transientf("BuildGraph", "write entity node %s: %w", e.ID, err))
		}
		if err := a.graphStore.WriteEdge(ctx, models.GraphEdge{
			Type:   models.RelSupportedBy,
			FromID: e.ID,
			ToID:   docNodeID,
		}); err != nil {
			return toApplicationError(pipelineerr.Transientf("BuildGraph", "write evidence edge for %s: %w", e.ID, err))
		}
	}

	for _, r := range in.Relationships {
		if err := a.graphStore.WriteEdge(ctx, models.GraphEdge{
			Type:   r.Type,
			FromID: r.SourceCanonicalID,
			ToID:   r.TargetCanonicalID,
			Properties: map[string]any{
				"confidence": r.Confidence,
			},
		}); err != nil {
			return toApplicationError(pipelineerr.Transientf("BuildGraph", "write relationship edge %s->%s: %w", r.SourceCanonicalID, r.TargetCanonicalID, err))
		}
	}

	return nil
}

func summarizedSummary(embedded int, entityCount, relCount int) map[string]any {
	return map[string]any{
		"embedded_units":  embedded,
		"graph_nodes":     entityCount,
		"graph_relations": relCount,
	}
}
