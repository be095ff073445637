package workflow

import (
	"context"

	"github.com/insurdocs/pipeline/internal/extraction"
	"github.com/insurdocs/pipeline/internal/models"
	"github.com/insurdocs/pipeline/internal/pipelineerr"
	"github.com/insurdocs/pipeline/internal/storage"
)

// ExtractSectionsInput feeds the section-extraction orchestrator the super
// chunks the PROCESSED stage's chunker produced.
type ExtractSectionsInput struct {
	DocumentID  string
	RunID       string
	SuperChunks []models.SectionSuperChunk
}

// ExtractSections runs the registry over every requires_llm super-chunk
// (spec.md §4.6), persisting one SectionExtraction row per section. A
// single section's extraction failure degrades to a zero-confidence
// SectionExtraction rather than failing the activity (spec.md §4.6/§7);
// extraction.Registry.Run already implements that degrade-and-continue loop.
func (a *ActivityRegistry) ExtractSections(ctx context.Context, in ExtractSectionsInput) ([]models.SectionExtraction, error) {
	extractions, err := a.extractionRegistry.Run(ctx, a.llmClient, in.RunID, in.SuperChunks)
	if err != nil {
		return nil, toApplicationError(pipelineerr.Transientf("ExtractSections", "run extraction registry: %w", err))
	}

	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return nil, toApplicationError(pipelineerr.Transientf("ExtractSections", "open storage: %w", err))
	}
	defer store.Close()

	for _, ex := range extractions {
		ex.DocumentID = in.DocumentID
		if err := store.PutExtraction(ctx, ex); err != nil {
			return nil, toApplicationError(pipelineerr.Transientf("ExtractSections", "persist %s extraction: %w", ex.SectionType, err))
		}
	}
	return extractions, nil
}

// SynthesizeEntitiesInput feeds the document-scoped entity-synthesis
// strategies the section extractions just persisted.
type SynthesizeEntitiesInput struct {
	DocumentID  string
	Extractions []models.SectionExtraction
}

// SynthesizeEntities runs the per-section strategies (spec.md §4.8),
// producing document-scoped CanonicalEntity candidates. These are not yet
// cross-document canonical — that merge happens in the ENRICHED stage's
// canonical.Resolver.
func (a *ActivityRegistry) SynthesizeEntities(ctx context.Context, in SynthesizeEntitiesInput) ([]models.CanonicalEntity, error) {
	var candidates []models.CanonicalEntity
	for _, ex := range in.Extractions {
		candidates = append(candidates, a.entityRegistry.Synthesize(in.DocumentID, ex)...)
	}
	return candidates, nil
}

func extractedSummary(extractions []models.SectionExtraction, candidates []models.CanonicalEntity) map[string]any {
	var totalConfidence float64
	for _, ex := range extractions {
		totalConfidence += ex.Confidence
	}
	avg := 0.0
	if len(extractions) > 0 {
		avg = totalConfidence / float64(len(extractions))
	}
	return map[string]any{
		"sections_extracted":  len(extractions),
		"entities_synthesized": len(candidates),
		"avg_confidence":       avg,
	}
}
