package chunker

import (
	"strings"
	"testing"

	"github.com/insurdocs/pipeline/internal/models"
)

func TestStableChunkID_deterministic(t *testing.T) {
	a := StableChunkID(models.PageDeclarations, "named insured acme corp")
	b := StableChunkID(models.PageDeclarations, "named insured acme corp")
	if a != b {
		t.Errorf("StableChunkID not deterministic: %q != %q", a, b)
	}
	c := StableChunkID(models.PageCoverages, "named insured acme corp")
	if a == c {
		t.Error("StableChunkID should differ by section type")
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{MinTokens: 100, TargetTokens: 50, MaxTokens: 200}).Validate(); err == nil {
		t.Error("expected error when TargetTokens <= MinTokens")
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig should validate: %v", err)
	}
}

func TestChunk_respectsSectionBoundaries(t *testing.T) {
	c := MustNew(Config{TargetTokens: 20, MaxTokens: 40, MinTokens: 5, OverlapTokens: 2})
	pages := []models.Page{
		{PageNumber: 1, PlainText: strings.Repeat("declarations word ", 30)},
		{PageNumber: 2, PlainText: strings.Repeat("coverage word ", 30)},
	}
	manifest := models.PageManifest{
		PagesToProcess: []int{1, 2},
		PageSectionMap: map[int]models.PageType{1: models.PageDeclarations, 2: models.PageCoverages},
	}
	result := c.Chunk("doc1", pages, manifest)
	if len(result.SuperChunks) != 2 {
		t.Fatalf("len(SuperChunks) = %d, want 2 (one per section)", len(result.SuperChunks))
	}
	for _, sc := range result.SuperChunks {
		for _, ch := range sc.Chunks {
			if ch.SectionType != sc.SectionType {
				t.Errorf("chunk section %v != super chunk section %v", ch.SectionType, sc.SectionType)
			}
		}
	}
}

func TestChunk_skipsPagesNotInManifest(t *testing.T) {
	c := MustNew(DefaultConfig())
	pages := []models.Page{
		{PageNumber: 1, PlainText: "declarations content here"},
		{PageNumber: 2, PlainText: "boilerplate filler content"},
	}
	manifest := models.PageManifest{
		PagesToProcess: []int{1},
		PageSectionMap: map[int]models.PageType{1: models.PageDeclarations, 2: models.PageBoilerplate},
	}
	result := c.Chunk("doc1", pages, manifest)
	for _, ch := range result.Chunks {
		for _, pn := range ch.PageRange {
			if pn == 2 {
				t.Error("chunk should not include skipped page 2")
			}
		}
	}
}
