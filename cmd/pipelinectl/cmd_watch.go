package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/insurdocs/pipeline/internal/models"
	"github.com/insurdocs/pipeline/internal/watcher"
	"github.com/insurdocs/pipeline/internal/workflow"
)

var watchProduct string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch config.yaml's directories and submit a pipeline run for every new or changed file",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchProduct, "product", "", "product config name to submit new files under (required)")
	watchCmd.MarkFlagRequired("product")
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	temporalClient, err := client.Dial(client.Options{HostPort: cfg.Workflow.HostPort, Namespace: cfg.Workflow.Namespace})
	if err != nil {
		return fmt.Errorf("dial temporal: %w", err)
	}
	defer temporalClient.Close()

	productCfg, err := workflow.ProductConfigFromYAML(*cfg, watchProduct)
	if err != nil {
		return err
	}

	onIndex := func(path string) {
		ref, err := ingestFile(ctx, store, path)
		if err != nil {
			logger.Error("ingest failed", zap.String("path", path), zap.Error(err))
			return
		}
		workflowID := newWorkflowID(watchProduct)
		in := models.ProcessDocumentInput{
			WorkflowID: workflowID,
			Documents:  []models.DocumentRef{ref},
			Config:     productCfg,
		}
		_, err = temporalClient.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: cfg.Workflow.TaskQueue,
		}, workflowForProduct(watchProduct), in)
		if err != nil {
			logger.Error("start workflow failed", zap.String("path", path), zap.Error(err))
			return
		}
		logger.Info("submitted workflow", zap.String("path", path), zap.String("workflow_id", workflowID))
	}
	onRemove := func(path string) {
		logger.Info("file removed, no pipeline action taken", zap.String("path", path))
	}

	w := watcher.NewWatcher(cfg.Watch.Directories, cfg.Watch.Extensions, cfg.Watch.RecursiveOrDefault(), onIndex, onRemove, watcher.WithLogger(logger))
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	<-ctx.Done()
	logger.Info("watcher shutting down")
	return nil
}
