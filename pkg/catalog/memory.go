package catalog

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// inMemCatalog implements Catalog from in-memory maps. It is the
// canonical catalog for tests and for services that load their plan
// catalog once at startup (e.g., from a YAML file).
type inMemCatalog struct {
	mu             sync.RWMutex
	plansByID      map[uuid.UUID]Plan
	plansBySlug    map[string]uuid.UUID
	featuresByID   map[uuid.UUID]Feature
	featuresBySlug map[string]uuid.UUID
}

// NewInMemCatalog returns an in-memory Catalog holding deep copies of
// the given plans and features.
func NewInMemCatalog(plans []Plan, features []Feature) Catalog {
	c := &inMemCatalog{
		plansByID:      make(map[uuid.UUID]Plan, len(plans)),
		plansBySlug:    make(map[string]uuid.UUID, len(plans)),
		featuresByID:   make(map[uuid.UUID]Feature, len(features)),
		featuresBySlug: make(map[string]uuid.UUID, len(features)),
	}

	for _, p := range plans {
		p.Features = slices.Clone(p.Features)
		c.plansByID[p.ID] = p
		if p.Slug != "" {
			c.plansBySlug[p.Slug] = p.ID
		}
	}
	for _, f := range features {
		c.featuresByID[f.ID] = f
		if f.Slug != "" {
			c.featuresBySlug[f.Slug] = f.ID
		}
	}

	return c
}

func (c *inMemCatalog) ResolveFeature(ctx context.Context, ref FeatureRef) (*Feature, error) {
	if f, ok := ref.Resolved(); ok {
		return &f, nil
	}
	if ref.IsZero() {
		return nil, ErrEmptyRef
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if id, ok := ref.ID(); ok {
		if f, found := c.featuresByID[id]; found {
			return &f, nil
		}
		return nil, ErrFeatureNotFound
	}

	slug, _ := ref.Slug()
	id, found := c.featuresBySlug[slug]
	if !found {
		return nil, ErrFeatureNotFound
	}
	f := c.featuresByID[id]
	return &f, nil
}

func (c *inMemCatalog) ResolvePlan(ctx context.Context, ref PlanRef) (*Plan, error) {
	if p, ok := ref.Resolved(); ok {
		return &p, nil
	}
	if ref.IsZero() {
		return nil, ErrEmptyRef
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if id, ok := ref.ID(); ok {
		if p, found := c.plansByID[id]; found {
			p.Features = slices.Clone(p.Features)
			return &p, nil
		}
		return nil, ErrPlanNotFound
	}

	slug, _ := ref.Slug()
	id, found := c.plansBySlug[slug]
	if !found {
		return nil, ErrPlanNotFound
	}
	p := c.plansByID[id]
	p.Features = slices.Clone(p.Features)
	return &p, nil
}
