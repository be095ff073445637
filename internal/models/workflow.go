package models

import "time"

// Stage is one of the four pipeline stages, run in dependency order.
type Stage string

const (
	StageProcessed  Stage = "PROCESSED"
	StageExtracted  Stage = "EXTRACTED"
	StageEnriched   Stage = "ENRICHED"
	StageSummarized Stage = "SUMMARIZED"
)

// Stages lists the pipeline's stage order; StageDependencies[s] must all be
// StageStatusCompleted before s runs.
var Stages = []Stage{StageProcessed, StageExtracted, StageEnriched, StageSummarized}

// StageDependencies declares, for each stage, the stages that must already
// be complete before it may run.
var StageDependencies = map[Stage][]Stage{
	StageProcessed:  nil,
	StageExtracted:  {StageProcessed},
	StageEnriched:   {StageExtracted},
	StageSummarized: {StageEnriched},
}

// StageStatus is the lifecycle of one (workflow, document, stage) row.
type StageStatus string

const (
	StageNotStarted StageStatus = "not_started"
	StageRunning    StageStatus = "running"
	StageCompleted  StageStatus = "completed"
	StageFailed     StageStatus = "failed"
)

// WorkflowStageRun is the source of truth for stage skipping: at most one
// row per (WorkflowID, DocumentID, Stage); transitions are monotone except
// retries, which reset Completed/Failed back to Running.
type WorkflowStageRun struct {
	WorkflowID string      `json:"workflow_id"`
	DocumentID string      `json:"document_id"`
	Stage      Stage       `json:"stage"`
	Status     StageStatus `json:"status"`
	Summary    map[string]any `json:"summary,omitempty"`
	Error      string      `json:"error,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// DocumentRef names one document within a workflow run payload.
type DocumentRef struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name,omitempty"`
}

// ProcessDocumentInput is the workflow entrypoint payload (spec.md §6 run(payload)).
type ProcessDocumentInput struct {
	WorkflowID           string         `json:"workflow_id"`
	WorkflowDefinitionID string         `json:"workflow_definition_id"`
	WorkflowName         string         `json:"workflow_name"`
	Documents            []DocumentRef  `json:"documents"`
	Metadata             map[string]any `json:"metadata,omitempty"`
	Config               ProductConfig  `json:"config"`
}

// ProductConfig declares per-product pipeline requirements.
type ProductConfig struct {
	RequiredSections    []PageType `json:"required_sections"`
	RequiredEntities    []EntityType `json:"required_entities"`
	ChunkMaxTokens         int       `json:"chunk_max_tokens"`
	ChunkOverlapTokens     int       `json:"chunk_overlap_tokens"`
	MaxTokensPerSuperChunk int       `json:"max_tokens_per_super_chunk"`
	ConfidenceThreshold    float64   `json:"confidence_threshold"`
	LLMProvider            string    `json:"llm_provider"` // "gemini" | "openrouter"
	LLMModel               string    `json:"llm_model"`
	SkipStages             []Stage   `json:"skip_stages,omitempty"`
	GenerateDescriptions   bool      `json:"generate_descriptions"`
}

// StageResults maps a completed stage to its summary, the workflow's return value.
type StageResults map[Stage]map[string]any

// WorkflowStatus is the synchronous get_status() query response.
type WorkflowStatus struct {
	Status       string   `json:"status"` // "running" | "completed" | "failed"
	CurrentStep  string   `json:"current_step,omitempty"`
	Progress     float64  `json:"progress"` // 0..1
	DocumentType string   `json:"document_type,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// WorkflowEventKind enumerates the progress event stream's event types.
type WorkflowEventKind string

const (
	EventProgress WorkflowEventKind = "workflow:progress"
	EventWarning  WorkflowEventKind = "workflow:warning"
)

// WorkflowEvent is one emitted event for downstream UIs.
type WorkflowEvent struct {
	Kind      WorkflowEventKind `json:"kind"`
	WorkflowID string           `json:"workflow_id"`
	DocumentID string           `json:"document_id,omitempty"`
	Stage      Stage            `json:"stage,omitempty"`
	Message    string           `json:"message"`
	Timestamp  time.Time        `json:"timestamp"`
}
