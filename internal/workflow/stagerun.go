package workflow

import (
	"context"
	"time"

	"github.com/insurdocs/pipeline/internal/models"
	"github.com/insurdocs/pipeline/internal/pipelineerr"
	"github.com/insurdocs/pipeline/internal/storage"
)

// LoadDocumentInput names the document to fetch.
type LoadDocumentInput struct {
	DocumentID string
}

// LoadDocument fetches the document row the workflow needs the FileRef
// from before the PROCESSED stage's OCR pass can run.
func (a *ActivityRegistry) LoadDocument(ctx context.Context, in LoadDocumentInput) (*models.Document, error) {
	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return nil, toApplicationError(pipelineerr.Transientf("LoadDocument", "open storage: %w", err))
	}
	defer store.Close()

	doc, err := store.GetDocument(ctx, in.DocumentID)
	if err != nil {
		return nil, toApplicationError(pipelineerr.NotFoundf("LoadDocument", "document %s: %w", in.DocumentID, err))
	}
	return doc, nil
}

// IsCompleteInput names the (workflow, document, stage) triple to check.
type IsCompleteInput struct {
	WorkflowID string
	DocumentID string
	Stage      models.Stage
}

// IsComplete consolidates spec.md §8/§9's "facade is_complete" question
// onto storage.Storage.GetStageRun as the single source of truth: a stage
// is complete iff its row exists and is StageCompleted.
func (a *ActivityRegistry) IsComplete(ctx context.Context, in IsCompleteInput) (bool, error) {
	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return false, toApplicationError(pipelineerr.Transientf("IsComplete", "open storage: %w", err))
	}
	defer store.Close()

	run, err := store.GetStageRun(ctx, in.WorkflowID, in.DocumentID, in.Stage)
	if err != nil {
		return false, toApplicationError(pipelineerr.Transientf("IsComplete", "get stage run: %w", err))
	}
	return run != nil && run.Status == models.StageCompleted, nil
}

// RecordStageRunInput is the PutStageRun activity's payload.
type RecordStageRunInput struct {
	WorkflowID string
	DocumentID string
	Stage      models.Stage
	Status     models.StageStatus
	Summary    map[string]any
	Error      string
}

// RecordStageRun persists one (workflow, document, stage) lifecycle
// transition, the source of truth stage-skip idempotence reads back from
// (spec.md §8/I7).
func (a *ActivityRegistry) RecordStageRun(ctx context.Context, in RecordStageRunInput) error {
	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return toApplicationError(pipelineerr.Transientf("RecordStageRun", "open storage: %w", err))
	}
	defer store.Close()

	return store.PutStageRun(ctx, models.WorkflowStageRun{
		WorkflowID: in.WorkflowID,
		DocumentID: in.DocumentID,
		Stage:      in.Stage,
		Status:     in.Status,
		Summary:    in.Summary,
		Error:      in.Error,
		UpdatedAt:  time.Now(),
	})
}
