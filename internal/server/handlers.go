package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.temporal.io/sdk/converter"
	"go.uber.org/zap"

	"github.com/insurdocs/pipeline/internal/models"
)

// WorkflowQuerier is the subset of go.temporal.io/sdk/client.Client the
// status proxy needs; client.Client satisfies it structurally, and tests
// substitute a fake without dialing a real Temporal server.
type WorkflowQuerier interface {
	QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"disk_usage_bytes": s.diskUsageBytes(),
	})
}

// handleWorkflowStatus proxies the get_status query spec.md §6 exposes on
// every ProcessDocumentWorkflow run, the one synchronous read this surface
// offers into an otherwise fire-and-forget pipeline.
func (s *Server) handleWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflow_id")
	val, err := s.workflows.QueryWorkflow(r.Context(), workflowID, "", "get_status")
	if err != nil {
		s.logger.Error("get_status query failed", zap.String("workflow_id", workflowID), zap.Error(err))
		s.respondError(w, http.StatusNotFound, "workflow not found or not queryable")
		return
	}
	var status models.WorkflowStatus
	if err := val.Get(&status); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
