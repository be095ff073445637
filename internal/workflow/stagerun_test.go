package workflow

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/insurdocs/pipeline/internal/config"
	"github.com/insurdocs/pipeline/internal/models"
	"github.com/insurdocs/pipeline/internal/storage"
)

func testRegistry(t *testing.T) *ActivityRegistry {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		Storage: config.StorageConfig{Backend: "sqlite", DatabasePath: filepath.Join(dir, "test.db")},
	}
	return &ActivityRegistry{cfg: cfg}
}

func TestIsComplete_noRowReportsFalse(t *testing.T) {
	a := testRegistry(t)
	ctx := context.Background()

	done, err := a.IsComplete(ctx, IsCompleteInput{WorkflowID: "wf1", DocumentID: "doc1", Stage: models.StageProcessed})
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("IsComplete = true, want false for a stage with no recorded run")
	}
}

func TestRecordStageRun_thenIsComplete(t *testing.T) {
	a := testRegistry(t)
	ctx := context.Background()

	if err := a.RecordStageRun(ctx, RecordStageRunInput{
		WorkflowID: "wf1", DocumentID: "doc1", Stage: models.StageProcessed,
		Status: models.StageCompleted, Summary: map[string]any{"pages_processed": 3},
	}); err != nil {
		t.Fatal(err)
	}

	done, err := a.IsComplete(ctx, IsCompleteInput{WorkflowID: "wf1", DocumentID: "doc1", Stage: models.StageProcessed})
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("IsComplete = false after recording a StageCompleted run")
	}
}

func TestRecordStageRun_failedStageNotComplete(t *testing.T) {
	a := testRegistry(t)
	ctx := context.Background()

	if err := a.RecordStageRun(ctx, RecordStageRunInput{
		WorkflowID: "wf1", DocumentID: "doc1", Stage: models.StageExtracted,
		Status: models.StageFailed, Error: "boom",
	}); err != nil {
		t.Fatal(err)
	}

	done, err := a.IsComplete(ctx, IsCompleteInput{WorkflowID: "wf1", DocumentID: "doc1", Stage: models.StageExtracted})
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("IsComplete = true for a StageFailed run, want false")
	}
}

func TestLoadDocument(t *testing.T) {
	a := testRegistry(t)
	ctx := context.Background()

	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.CreateDocument(ctx, &models.Document{ID: "doc1", FileRef: "s3://bucket/doc1.pdf"}); err != nil {
		t.Fatal(err)
	}

	doc, err := a.LoadDocument(ctx, LoadDocumentInput{DocumentID: "doc1"})
	if err != nil {
		t.Fatal(err)
	}
	if doc.FileRef != "s3://bucket/doc1.pdf" {
		t.Errorf("FileRef = %q", doc.FileRef)
	}
}

func TestLoadDocument_notFound(t *testing.T) {
	a := testRegistry(t)
	if _, err := a.LoadDocument(context.Background(), LoadDocumentInput{DocumentID: "missing"}); err == nil {
		t.Error("LoadDocument on a missing document should error")
	}
}
