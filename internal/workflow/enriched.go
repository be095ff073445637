package workflow

import (
	"context"

	"github.com/insurdocs/pipeline/internal/canonical"
	"github.com/insurdocs/pipeline/internal/models"
	"github.com/insurdocs/pipeline/internal/pipelineerr"
	"github.com/insurdocs/pipeline/internal/relationships"
	"github.com/insurdocs/pipeline/internal/storage"
	"github.com/insurdocs/pipeline/internal/synthesis"
)

// ResolveCanonicalEntitiesInput feeds the resolver the document-scoped
// candidates SynthesizeEntities produced.
type ResolveCanonicalEntitiesInput struct {
	Candidates []models.CanonicalEntity
}

// ResolveCanonicalEntitiesResult carries forward the IDs the resolver
// created or touched this run, so a later failure in the ENRICHED stage
// can compensate via RollbackCanonicalEntities (spec.md §4.9's saga).
type ResolveCanonicalEntitiesResult struct {
	Resolved []models.CanonicalEntity
	SagaIDs  []string
}

// ResolveCanonicalEntities aggregates candidates by (type, normalized key)
// into the cross-document canonical set (spec.md §4.9). The resolver
// itself already rolls back its own apply failures; SagaIDs is returned
// in addition so the workflow can compensate across activities if a
// later ENRICHED-stage step fails after this one committed.
func (a *ActivityRegistry) ResolveCanonicalEntities(ctx context.Context, in ResolveCanonicalEntitiesInput) (ResolveCanonicalEntitiesResult, error) {
	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return ResolveCanonicalEntitiesResult{}, toApplicationError(pipelineerr.Transientf("ResolveCanonicalEntities", "open storage: %w", err))
	}
	defer store.Close()

	resolver := canonical.NewResolver(store)
	resolved, err := resolver.Resolve(ctx, in.Candidates)
	if err != nil {
		return ResolveCanonicalEntitiesResult{}, toApplicationError(pipelineerr.Transientf("ResolveCanonicalEntities", "resolve: %w", err))
	}

	ids := make([]string, len(resolved))
	for i, e := range resolved {
		ids[i] = e.ID
	}
	return ResolveCanonicalEntitiesResult{Resolved: resolved, SagaIDs: ids}, nil
}

// RollbackCanonicalEntitiesInput names the entities a failed ENRICHED run
// created, in the order they were created.
type RollbackCanonicalEntitiesInput struct {
	SagaIDs []string
}

// RollbackCanonicalEntities deletes the saga's tracked entities in reverse
// creation order. Idempotent and tolerant of partial deletion (spec.md
// §4.9): a missing entity's delete error is swallowed so rollback can't
// itself get stuck retrying against state that's already gone.
func (a *ActivityRegistry) RollbackCanonicalEntities(ctx context.Context, in RollbackCanonicalEntitiesInput) error {
	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return toApplicationError(pipelineerr.Transientf("RollbackCanonicalEntities", "open storage: %w", err))
	}
	defer store.Close()

	for i := len(in.SagaIDs) - 1; i >= 0; i-- {
		_ = store.DeleteCanonicalEntity(ctx, in.SagaIDs[i])
	}
	return nil
}

// ExtractRelationshipsInput feeds the pass-2 LLM relationship extractor the
// resolved canonical entity set.
type ExtractRelationshipsInput struct {
	Entities []models.CanonicalEntity
}

// ExtractRelationships runs the closed-vocabulary relationship pass
// (spec.md §4.10) and persists each inferred Relationship.
func (a *ActivityRegistry) ExtractRelationships(ctx context.Context, in ExtractRelationshipsInput) ([]models.Relationship, error) {
	rels, err := relationships.Infer(ctx, a.llmClient, in.Entities)
	if err != nil {
		return nil, toApplicationError(pipelineerr.Transientf("ExtractRelationships", "infer: %w", err))
	}

	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return nil, toApplicationError(pipelineerr.Transientf("ExtractRelationships", "open storage: %w", err))
	}
	defer store.Close()

	for _, r := range rels {
		if err := store.PutRelationship(ctx, r); err != nil {
			return nil, toApplicationError(pipelineerr.Transientf("ExtractRelationships", "persist relationship: %w", err))
		}
	}
	return rels, nil
}

// SynthesizeProvisionsInput feeds the synthesis engine the section
// extractions that carry endorsement and base-provision language, plus the
// form references the PROCESSED stage's footer scan recorded.
type SynthesizeProvisionsInput struct {
	DocumentID      string
	Extractions     []models.SectionExtraction
	FormReferences  []string
	FuzzyThreshold  float64
	GenerateDescs   bool
	InferenceClient bool
}

// SynthesizeProvisionsResult is persisted as the document's effective
// coverage/exclusion set.
type SynthesizeProvisionsResult struct {
	Coverages  []models.EffectiveCoverage
	Exclusions []models.EffectiveExclusion
}

// SynthesizeProvisions runs the full endorsement-reconciliation engine
// (spec.md §4.11): groups endorsement modifications by normalized
// provision name, determines effective state, seeds unmodified provisions
// from the base forms, and falls back to LLM inference against known form
// references when the synthesized set is empty or its average confidence
// is below synthesis.NeedsInference's threshold (spec.md §4.11
// "Fallback inference").
func (a *ActivityRegistry) SynthesizeProvisions(ctx context.Context, in SynthesizeProvisionsInput) (SynthesizeProvisionsResult, error) {
	cfg := synthesis.Config{FuzzyThreshold: in.FuzzyThreshold}
	if cfg.FuzzyThreshold == 0 {
		cfg.FuzzyThreshold = 0.85
	}

	mods := modificationsFromExtractions(in.Extractions)
	baseCoverages := baseProvisionsFromExtractions(in.Extractions, models.PageCoverages, "coverages", "coverage")
	baseExclusions := baseProvisionsFromExtractions(in.Extractions, models.PageExclusions, "exclusions", "exclusion")

	coverages := synthesis.SynthesizeCoverages(cfg, mods, baseCoverages)
	exclusions := synthesis.SynthesizeExclusions(cfg, mods, baseExclusions)

	if synthesis.NeedsInference(coverages, exclusions) && len(in.FormReferences) > 0 {
		var client = a.llmClient
		if !in.InferenceClient {
			client = nil
		}
		inferredCoverages, inferredExclusions, err := synthesis.InferMissingProvisions(ctx, client, cfg, in.FormReferences, coverages, exclusions)
		if err != nil {
			return SynthesizeProvisionsResult{}, toApplicationError(pipelineerr.Transientf("SynthesizeProvisions", "infer missing provisions: %w", err))
		}
		coverages = append(coverages, inferredCoverages...)
		exclusions = append(exclusions, inferredExclusions...)
	}

	if in.GenerateDescs {
		for i := range coverages {
			if coverages[i].Description == "" {
				coverages[i].Description = synthesis.GenerateDescription(ctx, a.llmClient, "coverage", coverages[i].Name, coverages[i].SourceText)
			}
		}
		for i := range exclusions {
			if exclusions[i].Description == "" {
				exclusions[i].Description = synthesis.GenerateDescription(ctx, a.llmClient, "exclusion", exclusions[i].Name, exclusions[i].SourceText)
			}
		}
	}

	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return SynthesizeProvisionsResult{}, toApplicationError(pipelineerr.Transientf("SynthesizeProvisions", "open storage: %w", err))
	}
	defer store.Close()

	if err := store.ReplaceEffectiveCoverages(ctx, in.DocumentID, coverages); err != nil {
		return SynthesizeProvisionsResult{}, toApplicationError(pipelineerr.Transientf("SynthesizeProvisions", "persist coverages: %w", err))
	}
	if err := store.ReplaceEffectiveExclusions(ctx, in.DocumentID, exclusions); err != nil {
		return SynthesizeProvisionsResult{}, toApplicationError(pipelineerr.Transientf("SynthesizeProvisions", "persist exclusions: %w", err))
	}

	return SynthesizeProvisionsResult{Coverages: coverages, Exclusions: exclusions}, nil
}

func enrichedSummary(resolved []models.CanonicalEntity, rels []models.Relationship, result SynthesizeProvisionsResult) map[string]any {
	return map[string]any{
		"canonical_entities": len(resolved),
		"relationships":      len(rels),
		"coverages":          len(result.Coverages),
		"exclusions":         len(result.Exclusions),
	}
}
