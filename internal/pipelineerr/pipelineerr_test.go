package pipelineerr

import (
	"errors"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"transient wrapped", Transientf("fetch", "timeout"), Transient},
		{"malformed wrapped", Malformedf("parse", "bad pdf"), Malformed},
		{"invariant wrapped", Invariantf("synthesize", "no sources"), Invariant},
		{"plain error defaults transient", errors.New("boom"), Transient},
		{"nil-ish plain error", errors.New(""), Transient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if !Transientf("op", "x").Retryable() {
		t.Error("transient error should be retryable")
	}
	if Malformedf("op", "x").Retryable() {
		t.Error("malformed error should not be retryable")
	}
}

func TestWithStage(t *testing.T) {
	err := WithStage(Malformedf("extract", "bad table"), "PROCESSED")
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatal("expected *Error")
	}
	if pe.Stage != "PROCESSED" {
		t.Errorf("Stage = %q, want PROCESSED", pe.Stage)
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("root cause")
	wrapped := New(Transient, "op", inner)
	if !errors.Is(wrapped, inner) {
		t.Error("expected errors.Is to unwrap to inner error")
	}
}
