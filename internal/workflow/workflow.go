package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/insurdocs/pipeline/internal/chunker"
	"github.com/insurdocs/pipeline/internal/models"
)

// ProcessDocumentWorkflow is the pipeline entrypoint matching spec.md §6's
// run(payload) contract. It walks models.Stages in dependency order for
// every document in the run, skipping a document's stage if
// ProductConfig.SkipStages names it or IsComplete already reports it done,
// and running the matching per-stage child workflow otherwise.
func ProcessDocumentWorkflow(ctx workflow.Context, in models.ProcessDocumentInput) (models.StageResults, error) {
	status := &runStatus{Status: "running"}
	if err := workflow.SetQueryHandler(ctx, "get_status", func() (models.WorkflowStatus, error) {
		return status.snapshot(), nil
	}); err != nil {
		return nil, fmt.Errorf("set query handler: %w", err)
	}

	skip := make(map[models.Stage]bool, len(in.Config.SkipStages))
	for _, s := range in.Config.SkipStages {
		skip[s] = true
	}

	results := make(models.StageResults)
	for _, stage := range models.Stages {
		results[stage] = map[string]any{"documents": map[string]any{}}
	}

	for _, doc := range in.Documents {
		for _, stage := range models.Stages {
			status.CurrentStep = string(stage)

			if skip[stage] {
				continue
			}

			done, err := checkComplete(ctx, in.WorkflowID, doc.DocumentID, stage)
			if err != nil {
				status.fail(err)
				return results, err
			}
			if done {
				continue
			}

			summary, err := runStage(ctx, in, doc, stage)
			if err != nil {
				_ = recordStageRun(ctx, in.WorkflowID, doc.DocumentID, stage, models.StageFailed, nil, err.Error())
				status.fail(err)
				return results, err
			}
			if err := recordStageRun(ctx, in.WorkflowID, doc.DocumentID, stage, models.StageCompleted, summary, ""); err != nil {
				status.fail(err)
				return results, err
			}
			results[stage]["documents"].(map[string]any)[doc.DocumentID] = summary
			status.Progress = progressOf(stage)
		}
	}

	status.Status = "completed"
	status.Progress = 1
	return results, nil
}

// runStage dispatches one document's stage to its child workflow.
func runStage(ctx workflow.Context, in models.ProcessDocumentInput, doc models.DocumentRef, stage models.Stage) (map[string]any, error) {
	opts := workflow.ChildWorkflowOptions{
		WorkflowID: fmt.Sprintf("%s-%s-%s", in.WorkflowID, doc.DocumentID, stage),
	}
	cctx := workflow.WithChildOptions(ctx, opts)

	var summary map[string]any
	var err error
	switch stage {
	case models.StageProcessed:
		err = workflow.ExecuteChildWorkflow(cctx, ProcessedStageWorkflow, in, doc).Get(cctx, &summary)
	case models.StageExtracted:
		err = workflow.ExecuteChildWorkflow(cctx, ExtractedStageWorkflow, in, doc).Get(cctx, &summary)
	case models.StageEnriched:
		err = workflow.ExecuteChildWorkflow(cctx, EnrichedStageWorkflow, in, doc).Get(cctx, &summary)
	case models.StageSummarized:
		err = workflow.ExecuteChildWorkflow(cctx, SummarizedStageWorkflow, in, doc).Get(cctx, &summary)
	default:
		err = fmt.Errorf("unknown stage %q", stage)
	}
	return summary, err
}

func checkComplete(ctx workflow.Context, workflowID, documentID string, stage models.Stage) (bool, error) {
	ao := workflow.ActivityOptions{StartToCloseTimeout: 30 * time.Second, RetryPolicy: cpuRetryPolicy()}
	actx := workflow.WithActivityOptions(ctx, ao)
	var done bool
	err := workflow.ExecuteActivity(actx, activities.IsComplete, IsCompleteInput{
		WorkflowID: workflowID, DocumentID: documentID, Stage: stage,
	}).Get(actx, &done)
	return done, err
}

func recordStageRun(ctx workflow.Context, workflowID, documentID string, stage models.Stage, status models.StageStatus, summary map[string]any, errMsg string) error {
	ao := workflow.ActivityOptions{StartToCloseTimeout: 30 * time.Second, RetryPolicy: cpuRetryPolicy()}
	actx := workflow.WithActivityOptions(ctx, ao)
	return workflow.ExecuteActivity(actx, activities.RecordStageRun, RecordStageRunInput{
		WorkflowID: workflowID, DocumentID: documentID, Stage: stage,
		Status: status, Summary: summary, Error: errMsg,
	}).Get(actx, nil)
}

func progressOf(stage models.Stage) float64 {
	for i, s := range models.Stages {
		if s == stage {
			return float64(i+1) / float64(len(models.Stages))
		}
	}
	return 0
}

// runStatus is the workflow-local state backing the get_status query.
type runStatus struct {
	Status      string
	CurrentStep string
	Progress    float64
	Error       string
}

func (s *runStatus) fail(err error) {
	s.Status = "failed"
	s.Error = err.Error()
}

func (s *runStatus) snapshot() models.WorkflowStatus {
	return models.WorkflowStatus{
		Status:      s.Status,
		CurrentStep: s.CurrentStep,
		Progress:    s.Progress,
		Error:       s.Error,
	}
}

// ProcessedStageWorkflow runs the PROCESSED stage's three activities in
// sequence: page analysis, table extraction, and chunking.
func ProcessedStageWorkflow(ctx workflow.Context, in models.ProcessDocumentInput, doc models.DocumentRef) (map[string]any, error) {
	ioOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy:         ioRetryPolicy(),
	}
	cpuOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy:         cpuRetryPolicy(),
	}

	var document *models.Document
	ioCtx := workflow.WithActivityOptions(ctx, ioOpts)
	if err := workflow.ExecuteActivity(ioCtx, activities.LoadDocument, LoadDocumentInput{DocumentID: doc.DocumentID}).Get(ioCtx, &document); err != nil {
		return nil, err
	}

	var analyzed AnalyzePagesResult
	if err := workflow.ExecuteActivity(ioCtx, activities.AnalyzePages, AnalyzePagesInput{
		DocumentID: doc.DocumentID, FileRef: document.FileRef,
	}).Get(ioCtx, &analyzed); err != nil {
		return nil, err
	}

	cpuCtx := workflow.WithActivityOptions(ctx, cpuOpts)
	var tableCount int
	if err := workflow.ExecuteActivity(cpuCtx, activities.ExtractTables, ExtractTablesInput{
		DocumentID: doc.DocumentID, Pages: analyzed.Pages,
	}).Get(cpuCtx, &tableCount); err != nil {
		return nil, err
	}

	var chunkResult models.ChunkingResult
	if err := workflow.ExecuteActivity(cpuCtx, activities.ChunkDocument, ChunkDocumentInput{
		DocumentID: doc.DocumentID, Pages: analyzed.Pages, Manifest: analyzed.Manifest,
	}).Get(cpuCtx, &chunkResult); err != nil {
		return nil, err
	}

	return processedSummary(analyzed.Manifest, chunkResult, tableCount), nil
}

// ExtractedStageWorkflow runs section extraction and entity synthesis over
// the chunks the PROCESSED stage persisted, re-grouping them into
// SectionSuperChunks rather than depending on ProcessedStageWorkflow's
// in-memory result (spec.md §5: the relational store is the source of
// truth, so a document already at EXTRACTED-or-later on a fresh run can
// still reach this stage without PROCESSED having executed in this run).
func ExtractedStageWorkflow(ctx workflow.Context, in models.ProcessDocumentInput, doc models.DocumentRef) (map[string]any, error) {
	cpuOpts := workflow.ActivityOptions{StartToCloseTimeout: 5 * time.Minute, RetryPolicy: cpuRetryPolicy()}
	cpuCtx := workflow.WithActivityOptions(ctx, cpuOpts)

	var chunks []models.HybridChunk
	if err := workflow.ExecuteActivity(cpuCtx, activities.LoadChunks, LoadChunksInput{DocumentID: doc.DocumentID}).Get(cpuCtx, &chunks); err != nil {
		return nil, err
	}
	maxTokens := in.Config.MaxTokensPerSuperChunk
	if maxTokens == 0 {
		maxTokens = chunker.DefaultConfig().MaxTokens
	}
	superChunks := chunker.GroupSuperChunks(chunks, maxTokens)

	ioOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy:         ioRetryPolicy(),
	}
	ioCtx := workflow.WithActivityOptions(ctx, ioOpts)

	var extractions []models.SectionExtraction
	if err := workflow.ExecuteActivity(ioCtx, activities.ExtractSections, ExtractSectionsInput{
		DocumentID: doc.DocumentID, RunID: in.WorkflowID, SuperChunks: superChunks,
	}).Get(ioCtx, &extractions); err != nil {
		return nil, err
	}

	var candidates []models.CanonicalEntity
	if err := workflow.ExecuteActivity(cpuCtx, activities.SynthesizeEntities, SynthesizeEntitiesInput{
		DocumentID: doc.DocumentID, Extractions: extractions,
	}).Get(cpuCtx, &candidates); err != nil {
		return nil, err
	}

	return extractedSummary(extractions, candidates), nil
}

// EnrichedStageWorkflow resolves canonical entities across the document,
// extracts relationships between them, and runs the endorsement/base-form
// synthesis engine. A ResolveCanonicalEntities/RollbackCanonicalEntities
// saga pair compensates a failure partway through the stage (spec.md
// §4.9): the resolved entity IDs are tracked locally and, if a later
// activity in this stage fails, rolled back via a disconnected context so
// the compensation still runs even though the parent context is the one
// that's failing.
func EnrichedStageWorkflow(ctx workflow.Context, in models.ProcessDocumentInput, doc models.DocumentRef) (result map[string]any, err error) {
	cpuOpts := workflow.ActivityOptions{StartToCloseTimeout: 5 * time.Minute, RetryPolicy: cpuRetryPolicy()}
	cpuCtx := workflow.WithActivityOptions(ctx, cpuOpts)
	ioOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 3 * time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy:         ioRetryPolicy(),
	}
	ioCtx := workflow.WithActivityOptions(ctx, ioOpts)

	var document *models.Document
	if err := workflow.ExecuteActivity(cpuCtx, activities.LoadDocument, LoadDocumentInput{DocumentID: doc.DocumentID}).Get(cpuCtx, &document); err != nil {
		return nil, err
	}

	var extractions []models.SectionExtraction
	if err := workflow.ExecuteActivity(cpuCtx, activities.LoadExtractions, LoadExtractionsInput{DocumentID: doc.DocumentID}).Get(cpuCtx, &extractions); err != nil {
		return nil, err
	}
	var candidates []models.CanonicalEntity
	if err := workflow.ExecuteActivity(cpuCtx, activities.SynthesizeEntities, SynthesizeEntitiesInput{
		DocumentID: doc.DocumentID, Extractions: extractions,
	}).Get(cpuCtx, &candidates); err != nil {
		return nil, err
	}

	var resolved ResolveCanonicalEntitiesResult
	if err := workflow.ExecuteActivity(cpuCtx, activities.ResolveCanonicalEntities, ResolveCanonicalEntitiesInput{
		Candidates: candidates,
	}).Get(cpuCtx, &resolved); err != nil {
		return nil, err
	}

	defer func() {
		if err == nil {
			return
		}
		dctx, cancel := workflow.NewDisconnectedContext(ctx)
		defer cancel()
		rctx := workflow.WithActivityOptions(dctx, ioOpts)
		_ = workflow.ExecuteActivity(rctx, activities.RollbackCanonicalEntities, RollbackCanonicalEntitiesInput{
			SagaIDs: resolved.SagaIDs,
		}).Get(rctx, nil)
	}()

	var rels []models.Relationship
	if err = workflow.ExecuteActivity(ioCtx, activities.ExtractRelationships, ExtractRelationshipsInput{
		Entities: resolved.Resolved,
	}).Get(ioCtx, &rels); err != nil {
		return nil, err
	}

	var provisions SynthesizeProvisionsResult
	if err = workflow.ExecuteActivity(cpuCtx, activities.SynthesizeProvisions, SynthesizeProvisionsInput{
		DocumentID:      doc.DocumentID,
		Extractions:     extractions,
		FormReferences:  formReferencesFromMetadata(document.Metadata),
		FuzzyThreshold:  in.Config.ConfidenceThreshold,
		GenerateDescs:   in.Config.GenerateDescriptions,
		InferenceClient: true,
	}).Get(cpuCtx, &provisions); err != nil {
		return nil, err
	}

	return enrichedSummary(resolved.Resolved, rels, provisions), nil
}

// SummarizedStageWorkflow embeds every chunk and canonical entity and
// projects the resolved graph, the pipeline's terminal stage.
func SummarizedStageWorkflow(ctx workflow.Context, in models.ProcessDocumentInput, doc models.DocumentRef) (map[string]any, error) {
	cpuOpts := workflow.ActivityOptions{StartToCloseTimeout: 5 * time.Minute, RetryPolicy: cpuRetryPolicy()}
	cpuCtx := workflow.WithActivityOptions(ctx, cpuOpts)
	ioOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy:         ioRetryPolicy(),
	}
	ioCtx := workflow.WithActivityOptions(ctx, ioOpts)

	var chunks []models.HybridChunk
	if err := workflow.ExecuteActivity(cpuCtx, activities.LoadChunks, LoadChunksInput{DocumentID: doc.DocumentID}).Get(cpuCtx, &chunks); err != nil {
		return nil, err
	}
	var entities []models.CanonicalEntity
	if err := workflow.ExecuteActivity(cpuCtx, activities.LoadCanonicalEntities, LoadCanonicalEntitiesInput{}).Get(cpuCtx, &entities); err != nil {
		return nil, err
	}
	var rels []models.Relationship
	if err := workflow.ExecuteActivity(cpuCtx, activities.LoadRelationships, LoadRelationshipsInput{Entities: entities}).Get(cpuCtx, &rels); err != nil {
		return nil, err
	}

	var embedded int
	if err := workflow.ExecuteActivity(ioCtx, activities.EmbedChunks, EmbedChunksInput{
		DocumentID: doc.DocumentID, WorkflowID: in.WorkflowID, Chunks: chunks, Entities: entities,
	}).Get(ioCtx, &embedded); err != nil {
		return nil, err
	}

	if err := workflow.ExecuteActivity(cpuCtx, activities.BuildGraph, BuildGraphInput{
		DocumentID: doc.DocumentID, WorkflowID: in.WorkflowID, Entities: entities, Relationships: rels,
	}).Get(cpuCtx, nil); err != nil {
		return nil, err
	}

	return summarizedSummary(embedded, len(entities), len(rels)), nil
}
