// Package workflow hosts the Temporal workflow/activity definitions that
// orchestrate the four pipeline stages (spec.md §4.1/§5), generalizing the
// teacher's synchronous Indexer call chain into a durable, replay-safe
// workflow with per-activity retry policies and heartbeating.
package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/insurdocs/pipeline/internal/pipelineerr"
)

// defaultRetryPolicy matches spec.md §4.1/§5 exactly: 5s initial backoff,
// coefficient 2, capped at 60s, with per-activity-class attempt limits.
func defaultRetryPolicy(maxAttempts int32) *temporal.RetryPolicy {
	return &temporal.RetryPolicy{
		InitialInterval:    5 * time.Second,
		BackoffCoefficient: 2,
		MaximumInterval:    60 * time.Second,
		MaximumAttempts:    maxAttempts,
		NonRetryableErrorTypes: []string{
			string(pipelineerr.Invariant),
			string(pipelineerr.NotFound),
			string(pipelineerr.SchemaMismatch),
		},
	}
}

// ioRetryPolicy covers activities dominated by external I/O (OCR, LLM calls,
// storage, embedding) — allowed the full 5 attempts since these are the
// activities most likely to hit a transient provider/network blip.
func ioRetryPolicy() *temporal.RetryPolicy { return defaultRetryPolicy(5) }

// cpuRetryPolicy covers in-process, deterministic work (chunking,
// classification, synthesis) where a failure is far more likely to be a bug
// than a transient condition, so retries are capped tighter.
func cpuRetryPolicy() *temporal.RetryPolicy { return defaultRetryPolicy(3) }

// toApplicationError wraps a *pipelineerr.Error as a temporal.ApplicationError
// with NonRetryable set for every kind but Transient (a superset of the
// retry policy's NonRetryableErrorTypes, which omits Malformed), so the
// classification is enforced even if an activity is invoked outside its
// usual ActivityOptions (e.g. from a test harness).
func toApplicationError(err error) error {
	if err == nil {
		return nil
	}
	kind := pipelineerr.KindOf(err)
	nonRetryable := kind != pipelineerr.Transient
	return temporal.NewApplicationErrorWithCause(err.Error(), string(kind), err, nonRetryable)
}
