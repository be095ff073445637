package canonical

import (
	"context"
	"errors"
	"testing"

	"github.com/insurdocs/pipeline/internal/models"
)

type memStore struct {
	entities map[string]models.CanonicalEntity
	failOn   string
}

func newMemStore() *memStore { return &memStore{entities: map[string]models.CanonicalEntity{}} }

func (m *memStore) UpsertCanonicalEntity(_ context.Context, e models.CanonicalEntity) error {
	if m.failOn != "" && e.ID == m.failOn {
		return errors.New("simulated write failure")
	}
	m.entities[e.ID] = e
	return nil
}

func (m *memStore) DeleteCanonicalEntity(_ context.Context, id string) error {
	delete(m.entities, id)
	return nil
}

func (m *memStore) GetCanonicalEntity(_ context.Context, id string) (models.CanonicalEntity, error) {
	e, ok := m.entities[id]
	if !ok {
		return models.CanonicalEntity{}, errors.New("not found")
	}
	return e, nil
}

func TestResolve_mergesByFingerprint(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store)
	candidates := []models.CanonicalEntity{
		{Type: models.EntityOrganization, Attributes: map[string]any{"name": "Acme Corp"}, Confidence: 0.6},
		{Type: models.EntityOrganization, Attributes: map[string]any{"name": "Acme Corp", "address": "1 Main St"}, Confidence: 0.9},
	}
	merged, err := r.Resolve(context.Background(), candidates)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 1 {
		t.Fatalf("len(merged) = %d, want 1", len(merged))
	}
	if merged[0].Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9 (highest-confidence wins)", merged[0].Confidence)
	}
	if merged[0].Attributes["address"] != "1 Main St" {
		t.Errorf("expected address attribute to survive merge")
	}
}

func TestResolve_rollsBackOnFailure(t *testing.T) {
	store := newMemStore()
	r := NewResolver(store)
	candidates := []models.CanonicalEntity{
		{Type: models.EntityOrganization, Attributes: map[string]any{"name": "Acme Corp"}, Confidence: 0.6},
		{Type: models.EntityPolicy, Attributes: map[string]any{"policy_number": "ABC-1"}, Confidence: 0.6},
	}
	failID := mergeGroup(Fingerprint(candidates[1]), candidates[1:2]).ID
	store.failOn = failID

	_, err := r.Resolve(context.Background(), candidates)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.entities) != 0 {
		t.Errorf("expected rollback to remove all writes, got %d entities", len(store.entities))
	}
}
