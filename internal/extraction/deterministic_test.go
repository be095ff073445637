package extraction

import (
	"testing"

	"github.com/insurdocs/pipeline/internal/models"
)

func TestExtractDeterministic_formNumber(t *testing.T) {
	text := "This endorsement CG 20 10 04 13 modifies the commercial general liability coverage form."
	mentions := ExtractDeterministic(models.PageEndorsements, "chunk1", text)
	found := false
	for _, m := range mentions {
		if m.Type == models.EntityForm {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a Form mention, got %+v", mentions)
	}
}

func TestExtractDeterministic_policyNumber(t *testing.T) {
	text := "Policy Number: ABC-1234567"
	mentions := ExtractDeterministic(models.PageDeclarations, "chunk1", text)
	var got *models.EntityMention
	for i, m := range mentions {
		if m.Type == models.EntityPolicy {
			got = &mentions[i]
		}
	}
	if got == nil {
		t.Fatalf("expected a Policy mention, got %+v", mentions)
	}
	if got.NormalizedValue != "ABC-1234567" {
		t.Errorf("NormalizedValue = %q", got.NormalizedValue)
	}
}

func TestExtractDollarAmounts(t *testing.T) {
	amounts := ExtractDollarAmounts("Limit of $1,000,000 per occurrence, $2,000,000 aggregate")
	if len(amounts) != 2 {
		t.Fatalf("len(amounts) = %d, want 2", len(amounts))
	}
}
