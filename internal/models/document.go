// Package models defines the core domain types shared across the pipeline:
// documents, pages, tables, chunks, extractions, entities, and synthesized
// provisions. It generalizes the teacher's flat Document/DocumentChunk pair
// into the full entity set the staged pipeline produces.
package models

import "time"

// ProcessingStatus is the lifecycle state of a Document as it moves through
// the four pipeline stages.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessed  ProcessingStatus = "processed"
	StatusExtracted  ProcessingStatus = "extracted"
	StatusEnriched   ProcessingStatus = "enriched"
	StatusSummarized ProcessingStatus = "summarized"
	StatusFailed     ProcessingStatus = "failed"
)

// Document is an ingested source file (policy, quote, schedule, loss run).
// It is never deleted by the pipeline; only its status and derived rows are
// mutated or replaced across runs.
type Document struct {
	ID        string           `json:"id" db:"id"`
	FileRef   string           `json:"file_ref" db:"file_ref"` // opaque reference resolved by an external StorageService
	MimeType  string           `json:"mime_type" db:"mime_type"`
	PageCount int              `json:"page_count" db:"page_count"`
	Status    ProcessingStatus `json:"status" db:"status"`
	Metadata  map[string]any   `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// PageDimensions describes a page's physical layout.
type PageDimensions struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation int     `json:"rotation"`
}

// PageMetadata is the metadata bag attached to a Page.
type PageMetadata struct {
	HasTables        bool        `json:"has_tables"`
	StructuralTables []TableJSON `json:"structural_tables,omitempty"`
	Source           string      `json:"source"` // e.g. "structural", "markdown-fallback"
}

// Page is one OCR'd page of a Document. Pages are replaced wholesale (not
// merged) on re-extraction, matching the "delete-then-insert for the
// document scope" idempotence rule used throughout the pipeline.
type Page struct {
	DocumentID string         `json:"document_id" db:"document_id"`
	PageNumber int            `json:"page_number" db:"page_number"` // 1-indexed; I1
	PlainText  string         `json:"plain_text" db:"plain_text"`
	Markdown   string         `json:"markdown" db:"markdown"`
	Dimensions PageDimensions `json:"dimensions" db:"dimensions"`
	Metadata   PageMetadata   `json:"metadata" db:"metadata"`
}

// PageType classifies the semantic role of a page.
type PageType string

const (
	PageDeclarations PageType = "declarations"
	PageCoverages    PageType = "coverages"
	PageConditions   PageType = "conditions"
	PageExclusions   PageType = "exclusions"
	PageEndorsements PageType = "endorsements"
	PageSchedule     PageType = "schedule"
	PageBoilerplate  PageType = "boilerplate"
	PageDuplicate    PageType = "duplicate"
)

// PageSignal holds coarse per-page features computed without full OCR.
type PageSignal struct {
	DocumentID         string  `json:"document_id"`
	PageNumber         int     `json:"page_number"`
	TextDensity        float64 `json:"text_density"`
	HasTables          bool    `json:"has_tables"`
	VisualFingerprint  string  `json:"visual_fingerprint"` // perceptual hash for duplicate detection
	LexicalFingerprint string  `json:"lexical_fingerprint"`
}

// PageClassification is the classifier's verdict for one page.
type PageClassification struct {
	DocumentID    string   `json:"document_id"`
	PageNumber    int      `json:"page_number"`
	PageType      PageType `json:"page_type"`
	Confidence    float64  `json:"confidence"`
	ShouldProcess bool     `json:"should_process"`
	DuplicateOf   int      `json:"duplicate_of,omitempty"` // page_number, 0 if not a duplicate
}

// SectionBoundary is a contiguous run of pages sharing a section type.
type SectionBoundary struct {
	StartPage  int      `json:"start_page"`
	EndPage    int      `json:"end_page"`
	Type       PageType `json:"type"`
	Confidence float64  `json:"confidence"`
	Anchor     string   `json:"anchor,omitempty"` // anchor text that triggered the boundary
}

// DocumentProfile is the document-level classification summary.
type DocumentProfile struct {
	DocumentType      string            `json:"document_type"` // e.g. "commercial_auto_policy"
	Subtype           string            `json:"subtype,omitempty"`
	Confidence        float64           `json:"confidence"`
	SectionBoundaries []SectionBoundary `json:"section_boundaries"`
	FormReferences    []string          `json:"form_references,omitempty"` // ISO form ids found in footers, e.g. "CA 00 01"
}

// PageManifest is the authoritative per-document processing plan. Downstream
// OCR/chunking/extraction consume PageSectionMap rather than re-detecting
// sections (spec.md §4.2 "key design choice").
type PageManifest struct {
	DocumentID      string           `json:"document_id"`
	PagesToProcess  []int            `json:"pages_to_process"` // I2: disjoint from PagesSkipped
	PagesSkipped    []int            `json:"pages_skipped"`
	ProcessingRatio float64          `json:"processing_ratio"`
	Profile         DocumentProfile  `json:"profile"`
	PageSectionMap  map[int]PageType `json:"page_section_map"`
}
