package relationships

import (
	"context"
	"testing"

	"github.com/insurdocs/pipeline/internal/models"
)

type fakeClient struct{ response string }

func (f *fakeClient) GenerateJSON(_ context.Context, _, _ string) (string, error) {
	return f.response, nil
}
func (f *fakeClient) Close() error { return nil }

func TestInfer_filtersUnknownEntitiesAndTypes(t *testing.T) {
	entities := []models.CanonicalEntity{
		{ID: "canonical:acme-corp", Type: models.EntityOrganization},
		{ID: "canonical:bodily-injury", Type: models.EntityCoverage},
	}
	client := &fakeClient{response: `{"relationships": [
		{"source_id":"canonical:acme-corp","target_id":"canonical:bodily-injury","type":"HAS_COVERAGE","confidence":0.8},
		{"source_id":"canonical:acme-corp","target_id":"canonical:unknown","type":"HAS_COVERAGE","confidence":0.8},
		{"source_id":"canonical:acme-corp","target_id":"canonical:bodily-injury","type":"BOGUS_TYPE","confidence":0.8}
	]}`}

	rels, err := Infer(context.Background(), client, entities)
	if err != nil {
		t.Fatal(err)
	}
	if len(rels) != 1 {
		t.Fatalf("len(rels) = %d, want 1", len(rels))
	}
	if rels[0].Type != models.RelHasCoverage {
		t.Errorf("Type = %v", rels[0].Type)
	}
}

func TestInfer_tooFewEntitiesSkipsCall(t *testing.T) {
	rels, err := Infer(context.Background(), &fakeClient{response: "should not be parsed"}, []models.CanonicalEntity{{ID: "a"}})
	if err != nil || rels != nil {
		t.Errorf("expected nil, nil for <2 entities; got %v, %v", rels, err)
	}
}
