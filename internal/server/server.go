// Package server provides the pipeline's operational HTTP surface:
// liveness, Prometheus metrics, and a thin proxy onto each running
// workflow's get_status query. The document CRUD/search API the teacher
// shipped here is deleted — the HTTP API layer is an external collaborator
// (spec.md §1/§12), not something this repo implements.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/insurdocs/pipeline/internal/config"
	"github.com/insurdocs/pipeline/internal/storage"
)

// Server exposes /healthz, /metrics, and the workflow status proxy.
type Server struct {
	workflows    WorkflowQuerier
	config       *config.ServerConfig
	storagePaths []string
	logger       *zap.Logger
	server       *http.Server
}

// NewServer creates a server backed by a Temporal client (or a narrower
// WorkflowQuerier fake in tests). storagePaths lists the on-disk database
// and index paths /healthz reports disk usage for; with a nil or empty slice
// disk_usage_bytes is reported as 0 rather than failing the check.
func NewServer(workflows WorkflowQuerier, cfg *config.ServerConfig, storagePaths []string, logger *zap.Logger) *Server {
	return &Server{workflows: workflows, config: cfg, storagePaths: storagePaths, logger: logger}
}

// diskUsageBytes reports the combined size of the server's storage paths,
// logging rather than failing the healthz check when a path can't be
// walked (an index directory torn down mid-rebuild, for example).
func (s *Server) diskUsageBytes() int64 {
	if len(s.storagePaths) == 0 {
		return 0
	}
	n, err := storage.DiskUsageBytes(s.storagePaths...)
	if err != nil {
		s.logger.Warn("disk usage check failed", zap.Error(err))
		return 0
	}
	return n
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/v1/workflows/{workflow_id}/status", s.handleWorkflowStatus)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
