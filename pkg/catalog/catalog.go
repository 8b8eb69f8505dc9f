package catalog

import "context"

// Catalog resolves loose feature and plan references to their
// definitions. Not-found is a normal outcome reported with
// ErrFeatureNotFound / ErrPlanNotFound, never a panic: callers decide
// whether a missing definition fails the operation.
type Catalog interface {
	// ResolveFeature normalizes a FeatureRef to a feature definition.
	// Returns ErrFeatureNotFound when no feature matches and ErrEmptyRef
	// when the ref carries no identity.
	ResolveFeature(ctx context.Context, ref FeatureRef) (*Feature, error)

	// ResolvePlan normalizes a PlanRef to a plan definition.
	// Returns ErrPlanNotFound when no plan matches and ErrEmptyRef when
	// the ref carries no identity.
	ResolvePlan(ctx context.Context, ref PlanRef) (*Plan, error)
}
