package workflow

import (
	"errors"
	"testing"

	"github.com/insurdocs/pipeline/internal/models"
)

func TestProgressOf(t *testing.T) {
	tests := []struct {
		stage models.Stage
		want  float64
	}{
		{models.StageProcessed, 0.25},
		{models.StageExtracted, 0.5},
		{models.StageEnriched, 0.75},
		{models.StageSummarized, 1.0},
		{models.Stage("UNKNOWN"), 0},
	}
	for _, tt := range tests {
		if got := progressOf(tt.stage); got != tt.want {
			t.Errorf("progressOf(%q) = %v, want %v", tt.stage, got, tt.want)
		}
	}
}

func TestRunStatus_failSetsErrorAndStatus(t *testing.T) {
	s := &runStatus{Status: "running", CurrentStep: "EXTRACTED", Progress: 0.5}
	s.fail(errors.New("boom"))

	snap := s.snapshot()
	if snap.Status != "failed" {
		t.Errorf("Status = %q, want failed", snap.Status)
	}
	if snap.Error != "boom" {
		t.Errorf("Error = %q, want boom", snap.Error)
	}
	if snap.CurrentStep != "EXTRACTED" {
		t.Errorf("CurrentStep = %q, want unchanged EXTRACTED", snap.CurrentStep)
	}
}

func TestRunStatus_snapshotReflectsFields(t *testing.T) {
	s := &runStatus{Status: "running", CurrentStep: "PROCESSED", Progress: 0.25}
	snap := s.snapshot()
	if snap.Status != "running" || snap.CurrentStep != "PROCESSED" || snap.Progress != 0.25 {
		t.Errorf("snapshot() = %+v", snap)
	}
}
