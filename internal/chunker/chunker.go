// Package chunker builds HybridChunks and SectionSuperChunks from a
// document's processed pages, keyed by the manifest's page->section map
// (spec.md §4.5). Chunk IDs are content-addressed so re-chunking identical
// text always yields the same ID (I4).
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/insurdocs/pipeline/internal/models"
)

// charsPerToken approximates a GPT-style tokenizer without pulling in a
// full BPE implementation; good enough for budget splitting decisions.
const charsPerToken = 4

// Config holds chunking configuration, validated the same way as a token
// budget elsewhere in the pipeline: Min < Target <= Max.
type Config struct {
	TargetTokens   int
	MaxTokens      int
	MinTokens      int
	OverlapTokens  int
}

// DefaultConfig returns sensible chunking defaults for policy-length prose.
func DefaultConfig() Config {
	return Config{TargetTokens: 500, MaxTokens: 800, MinTokens: 80, OverlapTokens: 50}
}

func (c Config) Validate() error {
	if c.MinTokens <= 0 {
		return fmt.Errorf("MinTokens must be positive, got %d", c.MinTokens)
	}
	if c.TargetTokens <= c.MinTokens {
		return fmt.Errorf("TargetTokens (%d) must exceed MinTokens (%d)", c.TargetTokens, c.MinTokens)
	}
	if c.MaxTokens < c.TargetTokens {
		return fmt.Errorf("MaxTokens (%d) must be >= TargetTokens (%d)", c.MaxTokens, c.TargetTokens)
	}
	return nil
}

// Chunker groups a document's pages into HybridChunks, then SectionSuperChunks.
type Chunker struct {
	config Config
}

func New(cfg Config) (*Chunker, error) {
	if cfg.TargetTokens == 0 {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{config: cfg}, nil
}

func MustNew(cfg Config) *Chunker {
	c, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

func estimateTokens(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && s != "" {
		n = 1
	}
	return n
}

// StableChunkID derives a content-addressed ID: same section type and text
// always produce the same ID, across runs and across documents (I4).
func StableChunkID(sectionType models.PageType, text string) string {
	sum := sha256.Sum256([]byte(string(sectionType) + "|" + text))
	return "chunk:" + hex.EncodeToString(sum[:])
}

// Chunk splits a document's processed pages into HybridChunks, one run of
// same-section pages at a time so a chunk never straddles a section
// boundary, then groups same-section chunks into a SectionSuperChunk.
func (c *Chunker) Chunk(documentID string, pages []models.Page, manifest models.PageManifest) models.ChunkingResult {
	toProcess := make(map[int]bool, len(manifest.PagesToProcess))
	for _, p := range manifest.PagesToProcess {
		toProcess[p] = true
	}

	type run struct {
		sectionType models.PageType
		pages       []models.Page
	}
	var runs []run
	for _, page := range pages {
		if !toProcess[page.PageNumber] {
			continue
		}
		sectionType := manifest.PageSectionMap[page.PageNumber]
		if len(runs) > 0 && runs[len(runs)-1].sectionType == sectionType {
			runs[len(runs)-1].pages = append(runs[len(runs)-1].pages, page)
			continue
		}
		runs = append(runs, run{sectionType: sectionType, pages: []models.Page{page}})
	}

	var allChunks []models.HybridChunk
	superChunksBySection := make(map[models.PageType]*models.SectionSuperChunk)
	sectionMap := make(map[int]models.PageType, len(pages))
	var totalTokens int

	for _, r := range runs {
		chunks := c.chunkRun(documentID, r.sectionType, r.pages)
		allChunks = append(allChunks, chunks...)

		sc, ok := superChunksBySection[r.sectionType]
		if !ok {
			priority, known := models.SectionProcessingPriority[r.sectionType]
			if !known {
				priority = 9
			}
			sc = &models.SectionSuperChunk{
				SectionType:        r.sectionType,
				ProcessingPriority:  priority,
				RequiresLLM:        r.sectionType != models.PageBoilerplate && r.sectionType != models.PageDuplicate,
			}
			superChunksBySection[r.sectionType] = sc
		}
		for _, ch := range chunks {
			sc.Chunks = append(sc.Chunks, ch)
			sc.TotalTokens += ch.TokenCount
			totalTokens += ch.TokenCount
			for _, pn := range ch.PageRange {
				sectionMap[pn] = r.sectionType
			}
		}
	}

	superChunks := groupIntoSuperChunks(superChunksBySection, c.config.MaxTokens)

	stats := models.ChunkingStatistics{
		ChunkCount:      len(allChunks),
		SuperChunkCount: len(superChunks),
		SkippedPages:    len(manifest.PagesSkipped),
	}

	return models.ChunkingResult{
		DocumentID:  documentID,
		Chunks:      allChunks,
		SuperChunks: superChunks,
		SectionMap:  sectionMap,
		TotalTokens: totalTokens,
		Statistics:  stats,
	}
}

// groupIntoSuperChunks flattens a per-section map into a token-bounded
// SectionSuperChunk slice, splitting any section whose accumulated chunks
// exceed maxTokens.
func groupIntoSuperChunks(bySection map[models.PageType]*models.SectionSuperChunk, maxTokens int) []models.SectionSuperChunk {
	out := make([]models.SectionSuperChunk, 0, len(bySection))
	for _, sc := range bySection {
		out = append(out, *splitIfOversized(sc, maxTokens)...)
	}
	return out
}

// GroupSuperChunks re-derives SectionSuperChunks from a document's already
// persisted HybridChunks, for a stage that resumes without having run
// Chunk in this execution (e.g. EXTRACTED re-running against chunks a
// prior PROCESSED run already committed). Chunks are grouped by section
// type in the order storage returns them: insertion order for the SQLite
// backend (ORDER BY rowid); the Postgres backend's query sets no order.
func GroupSuperChunks(chunks []models.HybridChunk, maxTokensPerSuperChunk int) []models.SectionSuperChunk {
	bySection := make(map[models.PageType]*models.SectionSuperChunk)
	for _, ch := range chunks {
		sc, ok := bySection[ch.SectionType]
		if !ok {
			priority, known := models.SectionProcessingPriority[ch.SectionType]
			if !known {
				priority = 9
			}
			sc = &models.SectionSuperChunk{
				SectionType:        ch.SectionType,
				ProcessingPriority: priority,
				RequiresLLM:        ch.SectionType != models.PageBoilerplate && ch.SectionType != models.PageDuplicate,
			}
			bySection[ch.SectionType] = sc
		}
		sc.Chunks = append(sc.Chunks, ch)
		sc.TotalTokens += ch.TokenCount
	}
	return groupIntoSuperChunks(bySection, maxTokensPerSuperChunk)
}

// chunkRun splits one section's concatenated page text into overlapping
// word-window chunks sized to the token budget, recording the page range
// each chunk actually spans.
func (c *Chunker) chunkRun(documentID string, sectionType models.PageType, pages []models.Page) []models.HybridChunk {
	type word struct {
		text string
		page int
	}
	var words []word
	for _, p := range pages {
		for _, w := range strings.Fields(p.PlainText) {
			words = append(words, word{text: w, page: p.PageNumber})
		}
	}
	if len(words) == 0 {
		return nil
	}

	targetWords := c.config.TargetTokens * charsPerToken / 6 // ~6 chars/word average
	if targetWords <= 0 {
		targetWords = 1
	}
	overlapWords := c.config.OverlapTokens * charsPerToken / 6
	step := targetWords - overlapWords
	if step <= 0 {
		step = targetWords
	}

	var chunks []models.HybridChunk
	for i := 0; i < len(words); i += step {
		end := i + targetWords
		if end > len(words) {
			end = len(words)
		}
		slice := words[i:end]
		var sb strings.Builder
		minPage, maxPage := slice[0].page, slice[0].page
		for idx, w := range slice {
			if idx > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(w.text)
			if w.page < minPage {
				minPage = w.page
			}
			if w.page > maxPage {
				maxPage = w.page
			}
		}
		text := sb.String()
		pageRange := make([]int, 0, maxPage-minPage+1)
		for p := minPage; p <= maxPage; p++ {
			pageRange = append(pageRange, p)
		}
		chunks = append(chunks, models.HybridChunk{
			StableChunkID: StableChunkID(sectionType, text),
			DocumentID:    documentID,
			Text:          text,
			TokenCount:    estimateTokens(text),
			SectionType:   sectionType,
			PageRange:     pageRange,
		})
		if end >= len(words) {
			break
		}
	}
	return chunks
}

// splitIfOversized divides a super-chunk exceeding maxTokens into multiple
// super-chunks of the same section type, so no single LLM call for a
// section ever exceeds the product's configured token ceiling.
func splitIfOversized(sc *models.SectionSuperChunk, maxTokens int) *[]models.SectionSuperChunk {
	if sc.TotalTokens <= maxTokens || len(sc.Chunks) <= 1 {
		return &[]models.SectionSuperChunk{*sc}
	}
	var out []models.SectionSuperChunk
	cur := models.SectionSuperChunk{SectionType: sc.SectionType, ProcessingPriority: sc.ProcessingPriority, RequiresLLM: sc.RequiresLLM}
	for _, ch := range sc.Chunks {
		if cur.TotalTokens+ch.TokenCount > maxTokens && len(cur.Chunks) > 0 {
			out = append(out, cur)
			cur = models.SectionSuperChunk{SectionType: sc.SectionType, ProcessingPriority: sc.ProcessingPriority, RequiresLLM: sc.RequiresLLM}
		}
		cur.Chunks = append(cur.Chunks, ch)
		cur.TotalTokens += ch.TokenCount
	}
	if len(cur.Chunks) > 0 {
		out = append(out, cur)
	}
	return &out
}
