// Package extraction runs the EXTRACTED stage: one registered extractor per
// section type turns a SectionSuperChunk into a SectionExtraction, via an
// LLM call for prose sections and deterministic parsing for structured ones
// (spec.md §4.6).
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/insurdocs/pipeline/internal/llm"
	"github.com/insurdocs/pipeline/internal/models"
	"github.com/insurdocs/pipeline/internal/pipelineerr"
)

// sectionAliases normalizes section-type spellings seen across form
// vendors (e.g. "conditions" vs "general conditions") onto the registry key.
var sectionAliases = map[models.PageType]models.PageType{
	models.PageDeclarations: models.PageDeclarations,
	models.PageCoverages:    models.PageCoverages,
	models.PageConditions:   models.PageConditions,
	models.PageExclusions:   models.PageExclusions,
	models.PageEndorsements: models.PageEndorsements,
	models.PageSchedule:     models.PageSchedule,
}

// Extractor turns a super-chunk's text into structured fields and entity
// mentions for its section type.
type Extractor interface {
	Extract(ctx context.Context, client llm.Client, sc models.SectionSuperChunk) (models.SectionExtraction, error)
}

// Registry dispatches by normalized section type.
type Registry struct {
	extractors map[models.PageType]Extractor
}

// NewRegistry builds the default registry: an LLM-backed extractor per
// prose section, sharing one JSON-schema prompt template parameterized by
// section-specific instructions.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[models.PageType]Extractor)}
	r.extractors[models.PageDeclarations] = &llmExtractor{instructions: declarationsInstructions}
	r.extractors[models.PageCoverages] = &llmExtractor{instructions: coveragesInstructions}
	r.extractors[models.PageConditions] = &llmExtractor{instructions: conditionsInstructions}
	r.extractors[models.PageExclusions] = &llmExtractor{instructions: exclusionsInstructions}
	r.extractors[models.PageEndorsements] = &llmExtractor{instructions: endorsementsInstructions}
	r.extractors[models.PageSchedule] = &scheduleExtractor{}
	return r
}

// Run extracts every super-chunk that RequiresLLM, skipping
// boilerplate/duplicate sections. A
// single section's extraction failure degrades to a zero-confidence
// SectionExtraction carrying the error rather than failing the whole run
// (spec.md §4.6): one malformed or unreachable section shouldn't block
// every other section in the document from extracting.
func (r *Registry) Run(ctx context.Context, client llm.Client, runID string, superChunks []models.SectionSuperChunk) ([]models.SectionExtraction, error) {
	var out []models.SectionExtraction
	for _, sc := range superChunks {
		if !sc.RequiresLLM || len(sc.Chunks) == 0 {
			continue
		}
		sectionType, ok := sectionAliases[sc.SectionType]
		if !ok {
			continue
		}
		extractor, ok := r.extractors[sectionType]
		if !ok {
			continue
		}
		result, err := extractor.Extract(ctx, client, sc)
		if err != nil {
			result = models.SectionExtraction{
				Fields:       map[string]any{"error": err.Error()},
				Confidence:   0,
				SourceChunks: sourceChunksOf(sc),
			}
		}
		result.DocumentID = sc.Chunks[0].DocumentID
		result.RunID = runID
		result.SectionType = sc.SectionType
		out = append(out, result)
	}
	return out, nil
}

type llmExtractor struct {
	instructions string
}

func (e *llmExtractor) Extract(ctx context.Context, client llm.Client, sc models.SectionSuperChunk) (models.SectionExtraction, error) {
	if client == nil {
		return models.SectionExtraction{}, pipelineerr.Invariantf("extraction.Extract", "no LLM client configured for section %s", sc.SectionType)
	}
	text := concatChunks(sc)
	raw, err := client.GenerateJSON(ctx, e.instructions, text)
	if err != nil {
		return models.SectionExtraction{}, pipelineerr.Transientf("extraction.Extract", "llm call failed: %w", err)
	}

	var payload struct {
		Fields   map[string]any         `json:"fields"`
		Entities []models.EntityMention `json:"entities"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return models.SectionExtraction{}, pipelineerr.SchemaMismatchf("extraction.Extract", "section %s: invalid JSON: %w", sc.SectionType, err)
	}

	for i := range payload.Entities {
		payload.Entities[i].Source = models.MentionSourceLLM
	}

	var deterministic []models.EntityMention
	for _, ch := range sc.Chunks {
		deterministic = append(deterministic, ExtractDeterministic(sc.SectionType, ch.StableChunkID, ch.Text)...)
	}

	return models.SectionExtraction{
		Fields:       payload.Fields,
		Entities:     Reconcile(payload.Entities, deterministic),
		Confidence:   confidenceFromCompleteness(payload.Fields),
		SourceChunks: sourceChunksOf(sc),
	}, nil
}

// scheduleExtractor bypasses the LLM entirely: schedule/SOV/loss-run
// sections are already captured as structured TableJSON by the tables
// stage, so extraction here only records provenance.
type scheduleExtractor struct{}

func (e *scheduleExtractor) Extract(_ context.Context, _ llm.Client, sc models.SectionSuperChunk) (models.SectionExtraction, error) {
	return models.SectionExtraction{
		Fields:       map[string]any{"note": "structured via tables stage"},
		Confidence:   1.0,
		SourceChunks: sourceChunksOf(sc),
	}, nil
}

func concatChunks(sc models.SectionSuperChunk) string {
	var b strings.Builder
	for i, ch := range sc.Chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(ch.Text)
	}
	return b.String()
}

func sourceChunksOf(sc models.SectionSuperChunk) models.SourceChunks {
	sources := models.SourceChunks{}
	pageSet := make(map[int]bool)
	for _, ch := range sc.Chunks {
		sources.StableChunkIDs = append(sources.StableChunkIDs, ch.StableChunkID)
		for _, p := range ch.PageRange {
			pageSet[p] = true
		}
	}
	for p := range pageSet {
		sources.PageRange = append(sources.PageRange, p)
	}
	return sources
}

// confidenceFromCompleteness is a floor confidence heuristic: extractions
// with more non-empty fields are more likely faithful renderings of the
// source text rather than a sparse, possibly-hallucinated guess.
func confidenceFromCompleteness(fields map[string]any) float64 {
	if len(fields) == 0 {
		return 0.3
	}
	nonEmpty := 0
	for _, v := range fields {
		if v != nil && fmt.Sprint(v) != "" {
			nonEmpty++
		}
	}
	ratio := float64(nonEmpty) / float64(len(fields))
	return 0.5 + 0.5*ratio
}

// newRunID generates a run identifier for a single EXTRACTED-stage attempt.
func newRunID() string { return uuid.New().String() }
