package models

// HybridChunk is a paragraph/heading-aware slice of page text, carrying a
// content-hash stable ID so re-runs over identical text reproduce the same
// chunk id (spec.md §8 idempotence law). Generalizes the teacher's
// word-window DocumentChunk.
type HybridChunk struct {
	StableChunkID string   `json:"stable_chunk_id"` // "chunk:" + hex(sha256(section_type + "|" + text))
	DocumentID    string   `json:"document_id"`
	Text          string   `json:"text"`
	TokenCount    int      `json:"token_count"`
	SectionType   PageType `json:"section_type"`
	PageRange     []int    `json:"page_range"` // source page numbers, ascending; subset of I3
}

// SectionSuperChunk groups contiguous same-section HybridChunks under a
// token budget, the unit fed to section-specific LLM extractors.
type SectionSuperChunk struct {
	SectionType        PageType      `json:"section_type"`
	Chunks             []HybridChunk `json:"chunks"`
	TotalTokens         int          `json:"total_tokens"`
	ProcessingPriority  int          `json:"processing_priority"` // lower runs first
	RequiresLLM         bool         `json:"requires_llm"`
}

// ChunkingStatistics summarizes one chunking run.
type ChunkingStatistics struct {
	ChunkCount      int `json:"chunk_count"`
	SuperChunkCount int `json:"super_chunk_count"`
	SkippedPages    int `json:"skipped_pages"`
}

// ChunkingResult is the persisted output of the hybrid chunker.
type ChunkingResult struct {
	DocumentID  string              `json:"document_id"`
	Chunks      []HybridChunk       `json:"chunks"`
	SuperChunks []SectionSuperChunk `json:"super_chunks"`
	SectionMap  map[int]PageType    `json:"section_map"`
	TotalTokens int                 `json:"total_tokens"`
	Statistics  ChunkingStatistics  `json:"statistics"`
}

// SectionProcessingPriority ranks section types for super-chunk ordering;
// lower values process first (declarations before endorsements, etc).
var SectionProcessingPriority = map[PageType]int{
	PageDeclarations: 0,
	PageCoverages:    1,
	PageConditions:   2,
	PageExclusions:   3,
	PageEndorsements: 4,
	PageSchedule:     5,
	PageBoilerplate:  9,
	PageDuplicate:    9,
}
