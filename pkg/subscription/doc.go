// Package subscription manages plan subscriptions for any subscriber
// entity: trials, billing periods, scheduled and immediate
// cancellation, plan changes, renewals, and metered feature usage.
//
// A subscriber is identified by a SubscriberRef (a type tag plus UUID),
// so users, teams, and organizations can all hold subscriptions without
// the package knowing about them. Each subscriber may hold several
// subscriptions distinguished by name ("main", "addon-seats"), with at
// most one live subscription per (subscriber, name) pair.
//
// Key concepts:
//
//   - Subscription: a subscriber's enrollment in a plan, with a trial
//     window and a billing period derived from the plan's cadence
//   - Service: the high-level API covering the whole lifecycle plus
//     feature usage and entitlement checks
//   - Ability: a point-in-time entitlement view of one subscription,
//     answering "can this subscriber use feature X right now?"
//   - Store: the persistence boundary; an in-memory implementation
//     ships here, a PostgreSQL one lives in pgstore
//
// Basic usage:
//
//	cat := catalog.NewInMemCatalog(plans, features)
//	svc := subscription.NewService(subscription.NewMemoryStore(), cat)
//
//	sub, err := svc.Subscribe(ctx, subscriber, "main", catalog.PlanBySlug("pro"))
//	if err != nil {
//	    return err
//	}
//
//	// Meter feature usage against the plan's quota.
//	if err := svc.RecordFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("api-calls"), 1, true); err != nil {
//	    return err
//	}
//
//	ability, err := svc.Ability(ctx, sub.ID)
//	if err != nil {
//	    return err
//	}
//	if !ability.CanUse(ctx, catalog.FeatureBySlug("api-calls")) {
//	    // Quota exhausted or feature disabled on this plan.
//	}
//
// Usage quotas reset on a per-feature cadence anchored at the
// subscription's creation time. Lifecycle mutations run inside store
// transactions, and an optional EventHandler receives cancellation,
// plan-change, and renewal events after the transaction commits.
package subscription
