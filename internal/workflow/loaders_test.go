package workflow

import (
	"context"
	"testing"

	"github.com/insurdocs/pipeline/internal/models"
	"github.com/insurdocs/pipeline/internal/storage"
)

func TestLoadChunks(t *testing.T) {
	a := testRegistry(t)
	ctx := context.Background()

	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		t.Fatal(err)
	}
	chunks := []models.HybridChunk{
		{StableChunkID: "c1", DocumentID: "doc1", Text: "hello", SectionType: models.PageDeclarations},
	}
	if err := store.ReplaceChunks(ctx, "doc1", chunks); err != nil {
		t.Fatal(err)
	}
	store.Close()

	got, err := a.LoadChunks(ctx, LoadChunksInput{DocumentID: "doc1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].StableChunkID != "c1" {
		t.Errorf("LoadChunks = %+v", got)
	}
}

func TestLoadExtractions(t *testing.T) {
	a := testRegistry(t)
	ctx := context.Background()

	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		t.Fatal(err)
	}
	ex := models.SectionExtraction{DocumentID: "doc1", SectionType: models.PageDeclarations, RunID: "run1", Fields: map[string]any{"named_insured": "Acme"}}
	if err := store.PutExtraction(ctx, ex); err != nil {
		t.Fatal(err)
	}
	store.Close()

	got, err := a.LoadExtractions(ctx, LoadExtractionsInput{DocumentID: "doc1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].SectionType != models.PageDeclarations {
		t.Errorf("LoadExtractions = %+v", got)
	}
}

func TestLoadCanonicalEntities_spansAllTypes(t *testing.T) {
	a := testRegistry(t)
	ctx := context.Background()

	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertCanonicalEntity(ctx, models.CanonicalEntity{ID: "e1", Type: models.EntityOrganization}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertCanonicalEntity(ctx, models.CanonicalEntity{ID: "e2", Type: models.EntityCoverage}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	got, err := a.LoadCanonicalEntities(ctx, LoadCanonicalEntitiesInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("LoadCanonicalEntities returned %d entities across types, want 2", len(got))
	}
}

func TestLoadRelationships_dedupesByID(t *testing.T) {
	a := testRegistry(t)
	ctx := context.Background()

	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		t.Fatal(err)
	}
	rel := models.Relationship{ID: "r1", SourceCanonicalID: "e1", TargetCanonicalID: "e2", Type: models.RelHasCoverage}
	if err := store.PutRelationship(ctx, rel); err != nil {
		t.Fatal(err)
	}
	store.Close()

	// e1 appears twice in the entity list (e.g. resolved from two separate
	// extractions into the same canonical ID); ListRelationships filters by
	// source_canonical_id, so both lookups return r1 and LoadRelationships
	// must dedupe it down to a single row.
	entities := []models.CanonicalEntity{{ID: "e1"}, {ID: "e1"}}
	got, err := a.LoadRelationships(ctx, LoadRelationshipsInput{Entities: entities})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("LoadRelationships returned %d rows, want 1 deduped row", len(got))
	}
}
