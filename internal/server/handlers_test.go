package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.temporal.io/sdk/converter"
	"go.uber.org/zap"

	"github.com/insurdocs/pipeline/internal/config"
	"github.com/insurdocs/pipeline/internal/models"
)

// withChiParam attaches a chi URL parameter to req the way the router
// would, so a handler can be unit tested without a live mux.
func withChiParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// fakeQuerier implements WorkflowQuerier without dialing a real Temporal
// server; it either errors or hands back a JSON-roundtrip EncodedValue.
type fakeQuerier struct {
	result interface{}
	err    error
}

func (f *fakeQuerier) QueryWorkflow(_ context.Context, _, _, _ string, _ ...interface{}) (converter.EncodedValue, error) {
	if f.err != nil {
		return nil, f.err
	}
	return fakeEncodedValue{v: f.result}, nil
}

type fakeEncodedValue struct{ v interface{} }

func (f fakeEncodedValue) HasValue() bool { return f.v != nil }

func (f fakeEncodedValue) Get(valuePtr interface{}) error {
	b, err := json.Marshal(f.v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, valuePtr)
}

func testServer(t *testing.T, q WorkflowQuerier) *Server {
	t.Helper()
	return NewServer(q, &config.ServerConfig{Host: "localhost", Port: 0}, nil, zap.NewNop())
}

func TestHandleHealthz(t *testing.T) {
	s := testServer(t, &fakeQuerier{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.handleHealthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %+v", body)
	}
	if _, ok := body["disk_usage_bytes"]; !ok {
		t.Errorf("body missing disk_usage_bytes: %+v", body)
	}
}

func TestHandleWorkflowStatus(t *testing.T) {
	q := &fakeQuerier{result: models.WorkflowStatus{Status: "running", CurrentStep: "EXTRACTED", Progress: 0.5}}
	s := testServer(t, q)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/workflows/wf1/status", nil)
	req = withChiParam(req, "workflow_id", "wf1")
	rec := httptest.NewRecorder()

	s.handleWorkflowStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var status models.WorkflowStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Status != "running" || status.CurrentStep != "EXTRACTED" {
		t.Errorf("status = %+v", status)
	}
}

func TestHandleWorkflowStatus_queryError(t *testing.T) {
	q := &fakeQuerier{err: errors.New("workflow not found")}
	s := testServer(t, q)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/workflows/missing/status", nil)
	req = withChiParam(req, "workflow_id", "missing")
	rec := httptest.NewRecorder()

	s.handleWorkflowStatus(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
