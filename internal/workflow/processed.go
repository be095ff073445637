package workflow

import (
	"context"

	"github.com/insurdocs/pipeline/internal/models"
	"github.com/insurdocs/pipeline/internal/pageanalysis"
	"github.com/insurdocs/pipeline/internal/pipelineerr"
	"github.com/insurdocs/pipeline/internal/storage"
	"github.com/insurdocs/pipeline/internal/tables"
)

// AnalyzePagesInput is the PROCESSED stage's first activity input.
type AnalyzePagesInput struct {
	DocumentID string
	FileRef    string
}

// AnalyzePagesResult carries the manifest and the filtered pages onward so
// the OCR-extraction activity doesn't need to re-parse the source file.
type AnalyzePagesResult struct {
	Manifest models.PageManifest
	Pages    []models.Page
}

// AnalyzePages runs the page-analysis three-activity pipeline (spec.md
// §4.2) as one activity: signal extraction, classification, duplicate
// detection, and manifest construction. The source is parsed once (the
// OCR service has no page-skipping mode) and the manifest's
// pages_to_process filters the set persisted onward (spec.md §4.3
// "parses once, filters after").
func (a *ActivityRegistry) AnalyzePages(ctx context.Context, in AnalyzePagesInput) (AnalyzePagesResult, error) {
	pages, err := a.ocr.ExtractPages(in.FileRef)
	if err != nil {
		return AnalyzePagesResult{}, toApplicationError(pipelineerr.Malformedf("AnalyzePages", "extract pages from %s: %w", in.FileRef, err))
	}

	signals := make([]models.PageSignal, len(pages))
	classifications := make([]models.PageClassification, len(pages))
	for i, p := range pages {
		signals[i] = pageanalysis.ExtractSignal(in.DocumentID, p)
		classifications[i] = pageanalysis.Classify(signals[i], p)
	}
	classifications = pageanalysis.DetectDuplicates(classifications, signals)
	manifest := pageanalysis.BuildManifest(in.DocumentID, classifications)
	manifest.Profile.FormReferences = pageanalysis.ExtractFormReferences(pages)

	toProcess := make(map[int]bool, len(manifest.PagesToProcess))
	for _, p := range manifest.PagesToProcess {
		toProcess[p] = true
	}
	filtered := make([]models.Page, 0, len(toProcess))
	for _, p := range pages {
		if toProcess[p.PageNumber] {
			filtered = append(filtered, p)
		}
	}

	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return AnalyzePagesResult{}, toApplicationError(pipelineerr.Transientf("AnalyzePages", "open storage: %w", err))
	}
	defer store.Close()

	if err := store.ReplacePages(ctx, in.DocumentID, filtered); err != nil {
		return AnalyzePagesResult{}, toApplicationError(pipelineerr.Transientf("AnalyzePages", "persist pages: %w", err))
	}
	if err := store.UpdateDocumentStatus(ctx, in.DocumentID, models.StatusProcessed); err != nil {
		return AnalyzePagesResult{}, toApplicationError(pipelineerr.Transientf("AnalyzePages", "update status: %w", err))
	}

	doc, err := store.GetDocument(ctx, in.DocumentID)
	if err != nil {
		return AnalyzePagesResult{}, toApplicationError(pipelineerr.Transientf("AnalyzePages", "reload document: %w", err))
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["form_references"] = manifest.Profile.FormReferences
	if err := store.UpdateDocumentMetadata(ctx, in.DocumentID, doc.Metadata); err != nil {
		return AnalyzePagesResult{}, toApplicationError(pipelineerr.Transientf("AnalyzePages", "persist form references: %w", err))
	}

	return AnalyzePagesResult{Manifest: manifest, Pages: filtered}, nil
}

// ExtractTablesInput feeds the table-extraction activity the pages flagged
// has_tables by AnalyzePages.
type ExtractTablesInput struct {
	DocumentID string
	Pages      []models.Page
}

// ExtractTables runs spec.md §4.4's table pipeline: persist every
// structurally-captured TableJSON, classify it, and canonicalize and
// persist SOV/loss-run rows when the classification matches. Other table
// kinds are stored raw and skipped for domain-object materialization
// (step 5).
func (a *ActivityRegistry) ExtractTables(ctx context.Context, in ExtractTablesInput) (int, error) {
	var captured []models.TableJSON
	for _, p := range in.Pages {
		captured = append(captured, p.Metadata.StructuralTables...)
	}

	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return 0, toApplicationError(pipelineerr.Transientf("ExtractTables", "open storage: %w", err))
	}
	defer store.Close()

	if err := store.ReplaceTables(ctx, in.DocumentID, captured); err != nil {
		return 0, toApplicationError(pipelineerr.Transientf("ExtractTables", "persist tables: %w", err))
	}

	var sovItems []models.SOVItem
	var lossRunClaims []models.LossRunClaim
	for _, tbl := range captured {
		class := tables.Classify(tbl)
		switch class.Kind {
		case models.TablePropertySOV:
			sovItems = append(sovItems, tables.ValidateSOVItems(tables.CanonicalizeSOV(tbl))...)
		case models.TableLossRun:
			lossRunClaims = append(lossRunClaims, tables.ValidateLossRunClaims(tables.CanonicalizeLossRun(tbl))...)
		}
	}
	if err := store.ReplaceSOVItems(ctx, in.DocumentID, sovItems); err != nil {
		return 0, toApplicationError(pipelineerr.Transientf("ExtractTables", "persist sov items: %w", err))
	}
	if err := store.ReplaceLossRunClaims(ctx, in.DocumentID, lossRunClaims); err != nil {
		return 0, toApplicationError(pipelineerr.Transientf("ExtractTables", "persist loss run claims: %w", err))
	}
	return len(captured), nil
}

// ChunkDocumentInput feeds the hybrid chunker the manifest and pages the
// earlier PROCESSED activities produced.
type ChunkDocumentInput struct {
	DocumentID string
	Pages      []models.Page
	Manifest   models.PageManifest
}

// ChunkDocument runs the hybrid chunker (spec.md §4.5) and persists its
// HybridChunks, replacing any chunk set from a prior run over this document.
func (a *ActivityRegistry) ChunkDocument(ctx context.Context, in ChunkDocumentInput) (models.ChunkingResult, error) {
	result := a.chunker.Chunk(in.DocumentID, in.Pages, in.Manifest)

	store, err := storage.Open(ctx, a.cfg.Storage, a.cfg.Postgres)
	if err != nil {
		return models.ChunkingResult{}, toApplicationError(pipelineerr.Transientf("ChunkDocument", "open storage: %w", err))
	}
	defer store.Close()

	if err := store.ReplaceChunks(ctx, in.DocumentID, result.Chunks); err != nil {
		return models.ChunkingResult{}, toApplicationError(pipelineerr.Transientf("ChunkDocument", "persist chunks: %w", err))
	}
	return result, nil
}

// processedSummary is the PROCESSED stage's WorkflowStageRun.Summary payload.
func processedSummary(manifest models.PageManifest, chunking models.ChunkingResult, tableCount int) map[string]any {
	return map[string]any{
		"pages_processed": len(manifest.PagesToProcess),
		"pages_skipped":   len(manifest.PagesSkipped),
		"document_type":   manifest.Profile.DocumentType,
		"chunk_count":     chunking.Statistics.ChunkCount,
		"super_chunks":    chunking.Statistics.SuperChunkCount,
		"table_count":     tableCount,
	}
}
