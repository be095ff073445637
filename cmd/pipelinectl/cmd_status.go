package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/insurdocs/pipeline/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status <workflow-id>",
	Short: "Query a running workflow's get_status handler",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	temporalClient, err := client.Dial(client.Options{HostPort: cfg.Workflow.HostPort, Namespace: cfg.Workflow.Namespace})
	if err != nil {
		return fmt.Errorf("dial temporal: %w", err)
	}
	defer temporalClient.Close()

	val, err := temporalClient.QueryWorkflow(ctx, args[0], "", "get_status")
	if err != nil {
		return fmt.Errorf("query get_status: %w", err)
	}
	var status models.WorkflowStatus
	if err := val.Get(&status); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(status)
}
