// Package usage tracks metered feature consumption per subscription.
//
// Each (subscription, feature) pair owns at most one Record: a counter
// with an optional expiry (ValidUntil). The Ledger service applies the
// reset-cycle policy on top of a Store:
//
//   - The first recorded use of a resettable feature sets ValidUntil one
//     reset cycle past the subscription creation time, keeping reset
//     boundaries aligned with the billing cycle.
//   - Once ValidUntil passes, the next write rolls the record over:
//     the counter returns to zero and ValidUntil advances one cycle from
//     its previous value (not from "now"), so boundaries never drift.
//   - Counters clamp at zero; reductions can never push them negative.
//   - Reads are side-effect free: an expired record reads as zero
//     without being mutated.
//
// # Usage
//
//	ledger := usage.NewLedger(store, cat)
//
//	rec, err := ledger.Record(ctx, subID, sub.CreatedAt,
//		catalog.FeatureBySlug("api-calls"), 3, true)
//
//	used, err := ledger.Consumed(ctx, subID, catalog.FeatureBySlug("api-calls"))
//
// Atomicity is the caller's concern: hand the Ledger a transaction-scoped
// Store when a sequence of calls must commit or roll back together.
package usage
