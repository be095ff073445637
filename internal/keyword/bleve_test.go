package keyword

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/insurdocs/pipeline/internal/models"
)

func TestBleveIndex_SearchFindsContent(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "bleve")

	idx, err := NewBleveIndex(indexPath)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	defer func() {
		_ = idx.Close()
	}()

	ctx := context.Background()
	chunkID := "chunk:abc123"
	chunk := &models.HybridChunk{
		StableChunkID: chunkID,
		DocumentID:    "doc1",
		SectionType:   models.PageCoverages,
		Text:          "This endorsement mentions Omnisyan and other findings. The Bayes app is also referenced.",
	}

	if err := idx.Index(ctx, chunk.StableChunkID, chunk); err != nil {
		t.Fatalf("Index: %v", err)
	}

	results, err := idx.Search(ctx, "Omnisyan", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one keyword result for \"Omnisyan\" in chunk text")
	}
	if results[0].ID != chunkID {
		t.Errorf("first result ID = %q, want %q", results[0].ID, chunkID)
	}

	// Standard analyzer (no stemming) so "bayes" matches "Bayes" in content
	results2, err := idx.Search(ctx, "bayes", 10, nil)
	if err != nil {
		t.Fatalf("Search bayes: %v", err)
	}
	if len(results2) == 0 {
		t.Fatal("expected at least one keyword result for \"bayes\" in chunk text (standard analyzer, no stop/stem)")
	}
	if results2[0].ID != chunkID {
		t.Errorf("first result ID = %q, want %q", results2[0].ID, chunkID)
	}
}

func TestBleveIndex_SearchFindsSectionType(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "bleve")

	idx, err := NewBleveIndex(indexPath)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	defer func() {
		_ = idx.Close()
	}()

	ctx := context.Background()
	chunkID := "chunk:xyz"
	chunk := &models.HybridChunk{
		StableChunkID: chunkID,
		DocumentID:    "doc1",
		SectionType:   models.PageExclusions,
		Text:          "Some body text.",
	}

	if err := idx.Index(ctx, chunk.StableChunkID, chunk); err != nil {
		t.Fatalf("Index: %v", err)
	}

	results, err := idx.Search(ctx, "exclusions", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one keyword result for \"exclusions\" matching the section-type title field")
	}
	if results[0].ID != chunkID {
		t.Errorf("first result ID = %q, want %q", results[0].ID, chunkID)
	}
}

func TestBleveIndex_OpenExistingReusesIndex(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "bleve")

	idx1, err := NewBleveIndex(indexPath)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	ctx := context.Background()
	chunk := &models.HybridChunk{StableChunkID: "chunk1", SectionType: models.PageDeclarations, Text: "uniqueword"}
	if err := idx1.Index(ctx, chunk.StableChunkID, chunk); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := idx1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Opening an existing index reuses it, so documents indexed earlier are still found.
	idx2, err := NewBleveIndex(indexPath)
	if err != nil {
		t.Fatalf("NewBleveIndex (open existing): %v", err)
	}
	defer func() {
		_ = idx2.Close()
	}()

	results, err := idx2.Search(ctx, "uniqueword", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("after open existing, index keeps its documents; got %d results, want 1", len(results))
	}
}

func TestBleveIndex_Delete(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "bleve")

	idx, err := NewBleveIndex(indexPath)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	defer func() {
		_ = idx.Close()
	}()

	ctx := context.Background()
	chunk := &models.HybridChunk{StableChunkID: "chunk1", SectionType: models.PageDeclarations, Text: "onlyindoc1"}
	if err := idx.Index(ctx, chunk.StableChunkID, chunk); err != nil {
		t.Fatalf("Index: %v", err)
	}

	if err := idx.Delete(ctx, chunk.StableChunkID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	results, err := idx.Search(ctx, "onlyindoc1", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results after delete, got %d", len(results))
	}
}

func TestNewBleveIndex_createsDir(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "sub", "bleve")

	idx, err := NewBleveIndex(indexPath)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	_ = idx.Close()

	if _, err := os.Stat(indexPath); err != nil {
		t.Errorf("index path should exist: %v", err)
	}
}
