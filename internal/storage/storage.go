// Package storage defines the persistence interface over the pipeline's
// relational schema: documents, pages, tables, chunks, extractions,
// canonical entities, relationships, synthesized provisions, and
// workflow-stage runs (spec.md §6).
package storage

import (
	"context"

	"github.com/insurdocs/pipeline/internal/models"
)

// Storage is the full persistence surface backing the four pipeline
// stages. Activities open their own Storage session per call (spec.md
// §5's "every activity opens its own storage session").
type Storage interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	UpdateDocumentStatus(ctx context.Context, id string, status models.ProcessingStatus) error
	UpdateDocumentMetadata(ctx context.Context, id string, metadata map[string]any) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)

	// Page operations (replace-then-insert on re-extraction, per I1/I2)
	ReplacePages(ctx context.Context, docID string, pages []models.Page) error
	GetPages(ctx context.Context, docID string) ([]models.Page, error)

	// Table operations
	ReplaceTables(ctx context.Context, docID string, tables []models.TableJSON) error
	GetTables(ctx context.Context, docID string) ([]models.TableJSON, error)

	// SOV/loss-run canonicalization operations (spec.md §4.4 step 4)
	ReplaceSOVItems(ctx context.Context, docID string, items []models.SOVItem) error
	GetSOVItems(ctx context.Context, docID string) ([]models.SOVItem, error)
	ReplaceLossRunClaims(ctx context.Context, docID string, claims []models.LossRunClaim) error
	GetLossRunClaims(ctx context.Context, docID string) ([]models.LossRunClaim, error)

	// Chunk operations
	ReplaceChunks(ctx context.Context, docID string, chunks []models.HybridChunk) error
	GetChunks(ctx context.Context, docID string) ([]models.HybridChunk, error)

	// Section extraction operations
	PutExtraction(ctx context.Context, ex models.SectionExtraction) error
	GetExtractions(ctx context.Context, docID string) ([]models.SectionExtraction, error)

	// Canonical entity operations (also satisfies internal/canonical.Store)
	UpsertCanonicalEntity(ctx context.Context, e models.CanonicalEntity) error
	DeleteCanonicalEntity(ctx context.Context, id string) error
	GetCanonicalEntity(ctx context.Context, id string) (models.CanonicalEntity, error)
	ListCanonicalEntities(ctx context.Context, entityType models.EntityType) ([]models.CanonicalEntity, error)

	// Relationship operations
	PutRelationship(ctx context.Context, r models.Relationship) error
	ListRelationships(ctx context.Context, canonicalID string) ([]models.Relationship, error)

	// Synthesized provision operations
	ReplaceEffectiveCoverages(ctx context.Context, docID string, coverages []models.EffectiveCoverage) error
	ReplaceEffectiveExclusions(ctx context.Context, docID string, exclusions []models.EffectiveExclusion) error
	GetEffectiveCoverages(ctx context.Context, docID string) ([]models.EffectiveCoverage, error)
	GetEffectiveExclusions(ctx context.Context, docID string) ([]models.EffectiveExclusion, error)

	// Workflow-stage run operations (stage-skip idempotence, spec.md §8)
	GetStageRun(ctx context.Context, workflowID, docID string, stage models.Stage) (*models.WorkflowStageRun, error)
	PutStageRun(ctx context.Context, run models.WorkflowStageRun) error

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
