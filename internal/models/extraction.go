package models

// SourceChunks is the citation anchor for a SectionExtraction: which chunks
// and pages it was derived from, kept for later provenance lookups.
type SourceChunks struct {
	StableChunkIDs []string `json:"stable_chunk_ids"`
	PageRange      []int    `json:"page_range"`
}

// SectionExtraction is the persisted, schema-mapped output of one
// section-specific LLM extractor run over one SectionSuperChunk.
type SectionExtraction struct {
	DocumentID   string         `json:"document_id"`
	SectionType  PageType       `json:"section_type"`
	RunID        string         `json:"run_id"`
	Fields       map[string]any `json:"fields"` // schema-mapped per section type
	Entities     []EntityMention `json:"entities"`
	Confidence   float64        `json:"confidence"`
	SourceChunks SourceChunks   `json:"source_chunks"`
	ModelVersion string         `json:"model_version"`
}

// EntityMentionSource records whether a mention came from the LLM or the
// deterministic regex parser.
type EntityMentionSource string

const (
	MentionSourceLLM          EntityMentionSource = "llm"
	MentionSourceDeterministic EntityMentionSource = "deterministic"
)

// EntityType enumerates the domain entity kinds this system recognizes.
type EntityType string

const (
	EntityPolicy       EntityType = "Policy"
	EntityOrganization EntityType = "Organization"
	EntityCoverage     EntityType = "Coverage"
	EntityCondition    EntityType = "Condition"
	EntityExclusion    EntityType = "Exclusion"
	EntityEndorsement  EntityType = "Endorsement"
	EntityLocation     EntityType = "Location"
	EntityClaim        EntityType = "Claim"
	EntityDefinition   EntityType = "Definition"
	EntityForm         EntityType = "Form"
	EntityVehicle      EntityType = "Vehicle"
	EntityDriver       EntityType = "Driver"
)

// EntityTypes lists every recognized entity kind, for callers that need to
// enumerate the canonical entity store across all types (it has no
// per-type filter of its own).
var EntityTypes = []EntityType{
	EntityPolicy, EntityOrganization, EntityCoverage, EntityCondition,
	EntityExclusion, EntityEndorsement, EntityLocation, EntityClaim,
	EntityDefinition, EntityForm, EntityVehicle, EntityDriver,
}

// EntityMention is a transient, chunk-scoped sighting of an entity before
// cross-chunk aggregation and canonicalization.
type EntityMention struct {
	Type            EntityType          `json:"type"`
	RawText         string              `json:"raw_text"`
	NormalizedValue string              `json:"normalized_value"`
	Confidence      float64             `json:"confidence"`
	SpanStart       int                 `json:"span_start"`
	SpanEnd         int                 `json:"span_end"`
	SourceChunkID   string              `json:"source_chunk_id"`
	Source          EntityMentionSource `json:"source"`
	Attributes      map[string]any      `json:"attributes,omitempty"`
}
