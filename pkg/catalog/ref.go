package catalog

import "github.com/google/uuid"

// FeatureRef identifies a feature loosely: by ID, by slug, or as an
// already-resolved Feature. Code that accepts a "feature" normalizes
// through Catalog.ResolveFeature exactly once at the API boundary.
type FeatureRef struct {
	id       uuid.UUID
	slug     string
	resolved *Feature
}

// FeatureByID references a feature by its ID.
func FeatureByID(id uuid.UUID) FeatureRef {
	return FeatureRef{id: id}
}

// FeatureBySlug references a feature by its slug.
func FeatureBySlug(slug string) FeatureRef {
	return FeatureRef{slug: slug}
}

// ResolvedFeature wraps an already-loaded feature so it can be passed
// where a FeatureRef is expected without another lookup.
func ResolvedFeature(f Feature) FeatureRef {
	return FeatureRef{resolved: &f}
}

// ID returns the referenced ID and whether one was set.
func (r FeatureRef) ID() (uuid.UUID, bool) {
	return r.id, r.id != uuid.Nil
}

// Slug returns the referenced slug and whether one was set.
func (r FeatureRef) Slug() (string, bool) {
	return r.slug, r.slug != ""
}

// Resolved returns the embedded feature and whether the ref carries one.
func (r FeatureRef) Resolved() (Feature, bool) {
	if r.resolved == nil {
		return Feature{}, false
	}
	return *r.resolved, true
}

// IsZero reports whether the ref carries no identity at all.
func (r FeatureRef) IsZero() bool {
	return r.id == uuid.Nil && r.slug == "" && r.resolved == nil
}

// PlanRef identifies a plan by ID, by slug, or as a resolved Plan.
type PlanRef struct {
	id       uuid.UUID
	slug     string
	resolved *Plan
}

// PlanByID references a plan by its ID.
func PlanByID(id uuid.UUID) PlanRef {
	return PlanRef{id: id}
}

// PlanBySlug references a plan by its slug.
func PlanBySlug(slug string) PlanRef {
	return PlanRef{slug: slug}
}

// ResolvedPlan wraps an already-loaded plan.
func ResolvedPlan(p Plan) PlanRef {
	return PlanRef{resolved: &p}
}

// ID returns the referenced ID and whether one was set.
func (r PlanRef) ID() (uuid.UUID, bool) {
	return r.id, r.id != uuid.Nil
}

// Slug returns the referenced slug and whether one was set.
func (r PlanRef) Slug() (string, bool) {
	return r.slug, r.slug != ""
}

// Resolved returns the embedded plan and whether the ref carries one.
func (r PlanRef) Resolved() (Plan, bool) {
	if r.resolved == nil {
		return Plan{}, false
	}
	return *r.resolved, true
}

// IsZero reports whether the ref carries no identity at all.
func (r PlanRef) IsZero() bool {
	return r.id == uuid.Nil && r.slug == "" && r.resolved == nil
}
