package workflow

import (
	"context"

	"github.com/insurdocs/pipeline/internal/models"
	"github.com/insurdocs/pipeline/internal/pipelineerr"
	"github.com/insurdocs/pipeline/internal/storage"
)

// These activities re-read already-persisted artifacts from storage so a
// later stage workflow doesn't depend on an earlier stage's child workflow
// having run within the same ProcessDocumentWorkflow execution — the
// relational store is the source of truth (spec.md §5), so a document
// that's already past a stage on entry can still drive the stages after
// it without rehydrating anything beyond what storage already holds.

// LoadChunksInput names the document whose persisted chunks to fetch.
type LoadChunksInput struct {
	DocumentID string
}

// LoadChunks returns a document's persisted HybridChunks.
func (a *ActivityRegistry) LoadChunks(ctx context.Context, in LoadChunksInput) ([]models.HybridChunk, error) {
	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return nil, toApplicationError(pipelineerr.Transientf("LoadChunks", "open storage: %w", err))
	}
	defer store.Close()

	chunks, err := store.GetChunks(ctx, in.DocumentID)
	if err != nil {
		return nil, toApplicationError(pipelineerr.Transientf("LoadChunks", "get chunks: %w", err))
	}
	return chunks, nil
}

// LoadExtractionsInput names the document whose persisted section
// extractions to fetch.
type LoadExtractionsInput struct {
	DocumentID string
}

// LoadExtractions returns a document's persisted SectionExtractions.
func (a *ActivityRegistry) LoadExtractions(ctx context.Context, in LoadExtractionsInput) ([]models.SectionExtraction, error) {
	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return nil, toApplicationError(pipelineerr.Transientf("LoadExtractions", "open storage: %w", err))
	}
	defer store.Close()

	extractions, err := store.GetExtractions(ctx, in.DocumentID)
	if err != nil {
		return nil, toApplicationError(pipelineerr.Transientf("LoadExtractions", "get extractions: %w", err))
	}
	return extractions, nil
}

// LoadCanonicalEntitiesInput is empty: the canonical entity store isn't
// document-scoped, it's the cross-document aggregate (spec.md §4.9).
type LoadCanonicalEntitiesInput struct{}

// LoadCanonicalEntities lists every canonical entity across all recognized
// types, since ListCanonicalEntities filters by a single EntityType.
func (a *ActivityRegistry) LoadCanonicalEntities(ctx context.Context, _ LoadCanonicalEntitiesInput) ([]models.CanonicalEntity, error) {
	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return nil, toApplicationError(pipelineerr.Transientf("LoadCanonicalEntities", "open storage: %w", err))
	}
	defer store.Close()

	var all []models.CanonicalEntity
	for _, t := range models.EntityTypes {
		entities, err := store.ListCanonicalEntities(ctx, t)
		if err != nil {
			return nil, toApplicationError(pipelineerr.Transientf("LoadCanonicalEntities", "list %s: %w", t, err))
		}
		all = append(all, entities...)
	}
	return all, nil
}

// LoadRelationshipsInput names the entities whose relationships to fetch.
type LoadRelationshipsInput struct {
	Entities []models.CanonicalEntity
}

// LoadRelationships collects every relationship sourced from any of the
// given entities, deduplicated by ID — the same canonical ID can appear
// more than once in Entities (resolved from separate extractions into the
// same identity), which would otherwise list its relationships twice.
func (a *ActivityRegistry) LoadRelationships(ctx context.Context, in LoadRelationshipsInput) ([]models.Relationship, error) {
	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return nil, toApplicationError(pipelineerr.Transientf("LoadRelationships", "open storage: %w", err))
	}
	defer store.Close()

	seen := make(map[string]bool)
	var out []models.Relationship
	for _, e := range in.Entities {
		rels, err := store.ListRelationships(ctx, e.ID)
		if err != nil {
			return nil, toApplicationError(pipelineerr.Transientf("LoadRelationships", "list for %s: %w", e.ID, err))
		}
		for _, r := range rels {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	return out, nil
}
