package main

import (
	"context"
	"mime"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/insurdocs/pipeline/internal/config"
	"github.com/insurdocs/pipeline/internal/fileid"
	"github.com/insurdocs/pipeline/internal/models"
	"github.com/insurdocs/pipeline/internal/storage"
)

// ingestFile registers path as a pending Document in storage (or reuses the
// existing row the same path already produced) and returns a DocumentRef
// the pipeline workflow can load by ID. Content extraction itself happens
// inside the PROCESSED stage, not here.
func ingestFile(ctx context.Context, store storage.Storage, path string) (models.DocumentRef, error) {
	id := fileid.FileDocID(path)
	if existing, err := store.GetDocument(ctx, id); err == nil && existing != nil {
		return models.DocumentRef{DocumentID: existing.ID, DocumentName: filepath.Base(path)}, nil
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	now := time.Now()
	doc := &models.Document{
		ID:        id,
		FileRef:   path,
		MimeType:  mimeType,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateDocument(ctx, doc); err != nil {
		return models.DocumentRef{}, err
	}
	return models.DocumentRef{DocumentID: doc.ID, DocumentName: filepath.Base(path)}, nil
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	return storage.Open(ctx, cfg.Storage, cfg.Postgres)
}

func newWorkflowID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
