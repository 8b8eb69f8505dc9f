// Package catalog defines subscription plans, features, and the lookup
// used to normalize loose feature/plan references.
//
// A Feature is a named capability or quota ("api-calls", "sso"); a Plan
// bundles feature grants (PlanFeature values) with a billing cadence and
// optional trial and grace windows. Code throughout the module accepts
// features and plans loosely, as an ID, a slug, or an already-loaded
// definition; the FeatureRef/PlanRef types make that explicit, and the
// Catalog interface resolves them exactly once at the API boundary:
//
//	f, err := cat.ResolveFeature(ctx, catalog.FeatureBySlug("api-calls"))
//	if errors.Is(err, catalog.ErrFeatureNotFound) {
//		// normal outcome, not a failure of the catalog itself
//	}
//
// # Catalog sources
//
// NewInMemCatalog builds a catalog from plain slices, which suits tests
// and services that define plans in code. LoadFile/Parse build one from
// a YAML document:
//
//	features:
//	  - name: API calls
//	    resettable_period: 1
//	    resettable_interval: month
//	plans:
//	  - name: Pro
//	    price: {amount: 990, currency: USD}
//	    trial_period: 7
//	    trial_interval: day
//	    invoice_period: 1
//	    invoice_interval: month
//	    features:
//	      - {feature: api-calls, value: "5000"}
//
// NewCachedCatalog wraps a database-backed catalog with a read-through
// Redis cache; cache failures fall back to the wrapped catalog.
package catalog
