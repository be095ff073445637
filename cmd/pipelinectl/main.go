// Package main implements pipelinectl, the operator CLI for the insurance
// document pipeline. It replaces the old sagasu CLI's direct
// index/search/serve commands with Temporal-shaped ones: start a worker,
// start the status server, submit a document set for processing, and
// query a running workflow.
//
// This file is the entry point and command registration hub; each
// subcommand's implementation lives in its own cmd_*.go file.
//
//   - cmd_worker.go  - workerCmd, runWorker()  (wires activities + starts a Temporal worker)
//   - cmd_server.go  - serverCmd, runServer()  (starts the /healthz, /metrics, status HTTP surface)
//   - cmd_submit.go  - submitCmd, runSubmit()  (starts a ProcessDocumentWorkflow run)
//   - cmd_status.go  - statusCmd, runStatus()  (queries get_status on a running workflow)
//   - cmd_watch.go   - watchCmd, runWatch()    (watches directories, submits a run per new file)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insurdocs/pipeline/internal/config"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/pipelinectl/config.yaml"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:     "pipelinectl",
		Short:   "Operate the insurance document processing pipeline",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to config.yaml")

	rootCmd.AddCommand(workerCmd, serverCmd, submitCmd, statusCmd, watchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads config from configPath, falling back to ./config.yaml
// in the current directory when the default path doesn't exist (same
// development convenience the old sagasu entrypoint offered).
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if configPath == defaultConfigPath {
			if _, statErr := os.Stat("config.yaml"); statErr == nil {
				return config.Load("config.yaml")
			}
		}
		return nil, err
	}
	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
