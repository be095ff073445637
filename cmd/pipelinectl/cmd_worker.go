package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insurdocs/pipeline/internal/embedding"
	"github.com/insurdocs/pipeline/internal/graph"
	"github.com/insurdocs/pipeline/internal/keyword"
	"github.com/insurdocs/pipeline/internal/llm"
	"github.com/insurdocs/pipeline/internal/ocr"
	"github.com/insurdocs/pipeline/internal/vector"
	"github.com/insurdocs/pipeline/internal/workflow"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a Temporal worker hosting the document pipeline's workflows and activities",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ocrService := ocr.NewService()

	llmClient, err := llm.New(cfg.LLM, os.Getenv(cfg.LLM.APIKeyEnv))
	if err != nil {
		return fmt.Errorf("build llm client: %w", err)
	}
	defer llmClient.Close()

	embedder, err := embedding.New(cfg.Embedding, os.Getenv(cfg.Embedding.APIKeyEnv))
	if err != nil {
		return fmt.Errorf("build embedder: %w", err)
	}
	defer embedder.Close()

	var vectorIndex vector.VectorIndex
	if cfg.Storage.Backend == "postgres" {
		vectorIndex, err = vector.NewPostgresVectorIndex(ctx, cfg.Postgres.DSN, cfg.Postgres.VectorDimensions, "chunk_embeddings")
	} else {
		vectorIndex, err = vector.NewVectorIndex("memory", cfg.Embedding.Dimensions)
	}
	if err != nil {
		return fmt.Errorf("build vector index: %w", err)
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return fmt.Errorf("build keyword index: %w", err)
	}

	graphStore, err := graph.New(ctx, cfg.GraphStore, os.Getenv(cfg.GraphStore.Password))
	if err != nil {
		return fmt.Errorf("build graph store: %w", err)
	}
	defer graphStore.Close()

	events := workflow.NewEventBus()

	temporalClient, w, err := workflow.NewWorker(*cfg, logger, ocrService, llmClient, embedder, vectorIndex, keywordIndex, graphStore, events)
	if err != nil {
		return fmt.Errorf("build worker: %w", err)
	}
	defer temporalClient.Close()

	logger.Info("worker starting", zap.String("task_queue", cfg.Workflow.TaskQueue))
	if err := w.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	defer w.Stop()

	<-ctx.Done()
	logger.Info("worker shutting down")
	return nil
}
