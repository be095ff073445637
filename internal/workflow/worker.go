package workflow

import (
	"fmt"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/insurdocs/pipeline/internal/config"
	"github.com/insurdocs/pipeline/internal/embedding"
	"github.com/insurdocs/pipeline/internal/graph"
	"github.com/insurdocs/pipeline/internal/keyword"
	"github.com/insurdocs/pipeline/internal/llm"
	"github.com/insurdocs/pipeline/internal/ocr"
	"github.com/insurdocs/pipeline/internal/vector"
)

// activities is the package-level registry workflow code references activity
// methods on (activities.AnalyzePages, activities.IsComplete, ...). Temporal
// extracts each activity's registered name from the method value via
// reflection; it never calls the method body directly from workflow code —
// the worker built by NewWorker dispatches the real call out-of-process.
var activities *ActivityRegistry

// NewWorker builds the Temporal client and worker for cfg.Workflow's task
// queue, registers every stage workflow and product workflow plus every
// ActivityRegistry method, and sets the package-level activities registry
// stage workflows dispatch against. Concurrency limits follow spec.md §5's
// per-worker model: bounded activity and workflow-task concurrency so one
// worker process can run many documents' pipelines without overrunning the
// LLM/OCR backends' own rate limits.
func NewWorker(
	cfg config.Config,
	logger *zap.Logger,
	ocrService ocr.Service,
	llmClient llm.Client,
	embedder embedding.Embedder,
	vectorIndex vector.VectorIndex,
	keywordIndex keyword.KeywordIndex,
	graphStore graph.Store,
	events *EventBus,
) (client.Client, worker.Worker, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Workflow.HostPort,
		Namespace: cfg.Workflow.Namespace,
		Logger:    zapAdapter{logger},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial temporal: %w", err)
	}

	registry, err := NewActivityRegistry(cfg, ocrService, llmClient, embedder, vectorIndex, keywordIndex, graphStore, events)
	if err != nil {
		c.Close()
		return nil, nil, fmt.Errorf("build activity registry: %w", err)
	}
	activities = registry

	maxRuns := cfg.Workflow.MaxConcurrentRuns
	if maxRuns == 0 {
		maxRuns = 10
	}
	w := worker.New(c, cfg.Workflow.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     maxRuns,
		MaxConcurrentWorkflowTaskExecutionSize: maxRuns * 2,
	})

	w.RegisterWorkflow(ProcessDocumentWorkflow)
	w.RegisterWorkflow(ProcessedStageWorkflow)
	w.RegisterWorkflow(ExtractedStageWorkflow)
	w.RegisterWorkflow(EnrichedStageWorkflow)
	w.RegisterWorkflow(SummarizedStageWorkflow)
	w.RegisterWorkflow(PolicyComparisonWorkflow)
	w.RegisterWorkflow(QuoteComparisonWorkflow)
	w.RegisterWorkflow(ProposalGenerationWorkflow)

	w.RegisterActivity(activities.LoadDocument)
	w.RegisterActivity(activities.AnalyzePages)
	w.RegisterActivity(activities.ExtractTables)
	w.RegisterActivity(activities.ChunkDocument)
	w.RegisterActivity(activities.LoadChunks)
	w.RegisterActivity(activities.ExtractSections)
	w.RegisterActivity(activities.SynthesizeEntities)
	w.RegisterActivity(activities.LoadExtractions)
	w.RegisterActivity(activities.ResolveCanonicalEntities)
	w.RegisterActivity(activities.RollbackCanonicalEntities)
	w.RegisterActivity(activities.ExtractRelationships)
	w.RegisterActivity(activities.SynthesizeProvisions)
	w.RegisterActivity(activities.LoadCanonicalEntities)
	w.RegisterActivity(activities.LoadRelationships)
	w.RegisterActivity(activities.EmbedChunks)
	w.RegisterActivity(activities.BuildGraph)
	w.RegisterActivity(activities.IsComplete)
	w.RegisterActivity(activities.RecordStageRun)
	w.RegisterActivity(activities.PublishEvent)

	return c, w, nil
}

// zapAdapter satisfies the Temporal SDK's minimal log.Logger interface with
// a *zap.Logger, the same logger the rest of the pipeline uses.
type zapAdapter struct{ l *zap.Logger }

func (z zapAdapter) Debug(msg string, keyvals ...interface{}) { z.l.Sugar().Debugw(msg, keyvals...) }
func (z zapAdapter) Info(msg string, keyvals ...interface{})  { z.l.Sugar().Infow(msg, keyvals...) }
func (z zapAdapter) Warn(msg string, keyvals ...interface{})  { z.l.Sugar().Warnw(msg, keyvals...) }
func (z zapAdapter) Error(msg string, keyvals ...interface{}) { z.l.Sugar().Errorw(msg, keyvals...) }
