package workflow

import (
	"go.temporal.io/sdk/workflow"

	"github.com/insurdocs/pipeline/internal/models"
)

// productSummary wraps a product workflow's StageResults with the product
// name. The comparison/narrative logic that consumes the
// EffectiveCoverage/EffectiveExclusion rows these stages persist is a
// downstream, out-of-repo concern (spec.md §1, §12): these workflows exist
// only to give each product its own workflow type and task-queue identity,
// matching the `product/...` tree the source splits on.
func productSummary(product string, results models.StageResults) map[string]any {
	return map[string]any{"product": product, "stages": results}
}

// runCore executes the shared processing core as a child workflow under id,
// so each product workflow's history stays separate from the core's.
func runCore(ctx workflow.Context, id string, in models.ProcessDocumentInput) (models.StageResults, error) {
	cctx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{WorkflowID: id})
	var results models.StageResults
	err := workflow.ExecuteChildWorkflow(cctx, ProcessDocumentWorkflow, in).Get(cctx, &results)
	return results, err
}

// PolicyComparisonWorkflow runs the shared processing core over every
// document in the payload (typically two or more revisions of the same
// policy) so their EffectiveCoverage/EffectiveExclusion rows land in
// storage for a downstream comparison consumer to diff.
func PolicyComparisonWorkflow(ctx workflow.Context, in models.ProcessDocumentInput) (map[string]any, error) {
	results, err := runCore(ctx, in.WorkflowID+"-core", in)
	if err != nil {
		return nil, err
	}
	return productSummary("policy_comparison", results), nil
}

// QuoteComparisonWorkflow runs the shared processing core over a set of
// competing quotes so their effective provisions can be diffed downstream.
func QuoteComparisonWorkflow(ctx workflow.Context, in models.ProcessDocumentInput) (map[string]any, error) {
	results, err := runCore(ctx, in.WorkflowID+"-core", in)
	if err != nil {
		return nil, err
	}
	return productSummary("quote_comparison", results), nil
}

// ProposalGenerationWorkflow runs the shared processing core ahead of a
// downstream narrative/PDF-rendering step that has no presence in this repo.
func ProposalGenerationWorkflow(ctx workflow.Context, in models.ProcessDocumentInput) (map[string]any, error) {
	results, err := runCore(ctx, in.WorkflowID+"-core", in)
	if err != nil {
		return nil, err
	}
	return productSummary("proposal_generation", results), nil
}
