// Package canonical merges document-scoped entity candidates into
// cross-document CanonicalEntities (spec.md §4.8, invariant I5). Matching is
// a same-type fingerprint join today; a confidence-weighted merge keeps the
// highest-confidence attribute value per field when candidates collide.
package canonical

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/insurdocs/pipeline/internal/entitysynthesis"
	"github.com/insurdocs/pipeline/internal/models"
	"github.com/insurdocs/pipeline/internal/pipelineerr"
)

// Store persists canonical entities; implemented by internal/storage.
type Store interface {
	UpsertCanonicalEntity(ctx context.Context, e models.CanonicalEntity) error
	DeleteCanonicalEntity(ctx context.Context, id string) error
	GetCanonicalEntity(ctx context.Context, id string) (models.CanonicalEntity, error)
}

// Resolver aggregates candidates by fingerprint and writes through Store,
// recording a saga log of applied upserts so a failed run's partial writes
// can be rolled back (I5: canonicalization is all-or-nothing per run).
type Resolver struct {
	store Store
	mu    sync.Mutex
	log   []sagaEntry
}

type sagaEntry struct {
	id       string
	existed  bool
	previous models.CanonicalEntity
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Fingerprint derives the join key for cross-document entity matching: type
// plus a normalized name/identifier field, mirroring the slug technique
// entitysynthesis uses for document-scoped IDs.
func Fingerprint(e models.CanonicalEntity) string {
	name, _ := e.Attributes["name"].(string)
	if name == "" {
		name, _ = e.Attributes["policy_number"].(string)
	}
	if name == "" {
		name, _ = e.Attributes["endorsement_ref"].(string)
	}
	return fmt.Sprintf("%s:%s", e.Type, entitysynthesis.Slugify(name))
}

// Resolve merges candidates sharing a fingerprint, writes each merged entity
// through Store, and returns the merged set. On any write failure it rolls
// back every write already applied in this call before returning the error.
func (r *Resolver) Resolve(ctx context.Context, candidates []models.CanonicalEntity) ([]models.CanonicalEntity, error) {
	groups := make(map[string][]models.CanonicalEntity)
	order := make([]string, 0)
	for _, c := range candidates {
		fp := Fingerprint(c)
		if _, ok := groups[fp]; !ok {
			order = append(order, fp)
		}
		groups[fp] = append(groups[fp], c)
	}

	merged := make([]models.CanonicalEntity, 0, len(order))
	for _, fp := range order {
		m := mergeGroup(fp, groups[fp])
		if err := r.apply(ctx, m); err != nil {
			r.rollback(ctx)
			return nil, pipelineerr.WithStage(err, "ENRICHED")
		}
		merged = append(merged, m)
	}
	return merged, nil
}

func mergeGroup(fingerprintKey string, group []models.CanonicalEntity) models.CanonicalEntity {
	best := group[0]
	attrs := make(map[string]any)
	attrConf := make(map[string]float64)
	for _, c := range group {
		if c.Confidence > best.Confidence {
			best = c
		}
		for k, v := range c.Attributes {
			if prev, exists := attrConf[k]; !exists || c.Confidence > prev {
				attrs[k] = v
				attrConf[k] = c.Confidence
			}
		}
	}
	return models.CanonicalEntity{
		ID:         "canonical:" + entitysynthesis.Slugify(strings.ReplaceAll(fingerprintKey, ":", " ")),
		Type:       best.Type,
		Attributes: attrs,
		Confidence: best.Confidence,
	}
}

// apply upserts e through Store, recording the prior state (or absence of
// one) for a possible rollback.
func (r *Resolver) apply(ctx context.Context, e models.CanonicalEntity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, err := r.store.GetCanonicalEntity(ctx, e.ID)
	existed := err == nil
	if err := r.store.UpsertCanonicalEntity(ctx, e); err != nil {
		return pipelineerr.Transientf("canonical.apply", "upsert %s: %w", e.ID, err)
	}
	r.log = append(r.log, sagaEntry{id: e.ID, existed: existed, previous: prev})
	return nil
}

// rollback undoes every write this Resolver has applied, in reverse order,
// restoring prior entities or deleting ones that didn't previously exist.
// Activities invoking this must run it from a disconnected context so
// workflow cancellation doesn't also cancel the compensation itself.
func (r *Resolver) rollback(ctx context.Context) {
	r.mu.Lock()
	entries := r.log
	r.log = nil
	r.mu.Unlock()

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.existed {
			_ = r.store.UpsertCanonicalEntity(ctx, e.previous)
		} else {
			_ = r.store.DeleteCanonicalEntity(ctx, e.id)
		}
	}
}
