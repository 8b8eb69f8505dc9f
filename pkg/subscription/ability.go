package subscription

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/subkit/subkit/pkg/catalog"
	"github.com/subkit/subkit/pkg/usage"
)

// Ability answers feature-access questions for one subscription by
// combining the plan's feature grants with the usage ledger. All boolean
// queries fail closed: any lookup problem reads as "not allowed" so a
// degraded catalog or store can never widen access.
type Ability struct {
	sub      *Subscription
	plan     catalog.Plan
	cat      catalog.Catalog
	store    usage.Store
	positive map[string]struct{}
	now      func() time.Time
}

// NewAbility builds an evaluator for a subscription on its current plan.
// The positive-word set comes from the injected Config, not from any
// process-wide state.
func NewAbility(sub *Subscription, plan catalog.Plan, store usage.Store, cat catalog.Catalog, cfg Config) *Ability {
	return &Ability{
		sub:      sub,
		plan:     plan,
		cat:      cat,
		store:    store,
		positive: cfg.positiveSet(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Value returns the raw value the plan grants for a feature. The second
// result is false when the plan does not grant the feature at all, or
// when the reference cannot be resolved.
func (a *Ability) Value(ctx context.Context, ref catalog.FeatureRef) (string, bool) {
	feature, err := a.cat.ResolveFeature(ctx, ref)
	if err != nil {
		return "", false
	}
	return a.plan.FeatureValue(feature.ID)
}

// Enabled reports whether the feature value is a boolean-style "on"
// flag: the upper-cased value must match one of the configured positive
// words (default Y, YES, TRUE, UNLIMITED).
func (a *Ability) Enabled(ctx context.Context, ref catalog.FeatureRef) bool {
	value, ok := a.Value(ctx, ref)
	if !ok {
		return false
	}
	_, positive := a.positive[strings.ToUpper(value)]
	return positive
}

// CanUse reports whether the feature is enabled and has uses available.
// A plan value of "0" or "false" denies access even with zero usage,
// and an expired usage record denies access until the next write rolls
// it over: both are deliberate fail-closed choices for countable
// features.
func (a *Ability) CanUse(ctx context.Context, ref catalog.FeatureRef) bool {
	value, ok := a.Value(ctx, ref)
	if !ok {
		return false
	}

	if a.Enabled(ctx, ref) {
		return true
	}

	if value == "0" || value == "false" {
		return false
	}

	if a.usageExpired(ctx, ref) {
		return false
	}

	return a.Remaining(ctx, ref) > 0
}

// Consumed returns how many uses have been recorded in the current
// reset window. Missing or expired records read as zero. The ledger is
// built per call so it reads expiry against the same clock as CanUse;
// the two must never disagree on what "now" is.
func (a *Ability) Consumed(ctx context.Context, ref catalog.FeatureRef) int64 {
	ledger := usage.NewLedger(a.store, a.cat, usage.WithClock(a.now))
	used, err := ledger.Consumed(ctx, a.sub.ID, ref)
	if err != nil {
		return 0
	}
	return used
}

// Remaining returns the quota left in the current window. The result
// can be negative when usage exceeds the quota, e.g. after a plan
// downgrade; callers treat anything non-positive as "no remaining uses"
// rather than clamping here.
func (a *Ability) Remaining(ctx context.Context, ref catalog.FeatureRef) int64 {
	value, ok := a.Value(ctx, ref)
	if !ok {
		return 0
	}
	return parseQuota(value) - a.Consumed(ctx, ref)
}

// usageExpired reports whether the stored usage record exists and has
// passed its reset boundary. The check must look at the raw record:
// Consumed reads an expired record as zero, which would otherwise make
// the feature look fully available.
func (a *Ability) usageExpired(ctx context.Context, ref catalog.FeatureRef) bool {
	feature, err := a.cat.ResolveFeature(ctx, ref)
	if err != nil {
		return false
	}

	// A missing record means the window has not started, which is not
	// expiry; other store errors read the same way and the quota check
	// downstream fails closed on its own.
	rec, err := a.store.Find(ctx, a.sub.ID, feature.ID)
	if err != nil {
		return false
	}
	return rec.ExpiredAt(a.now())
}

// parseQuota interprets a plan value as a numeric quota; anything
// non-numeric reads as zero.
func parseQuota(value string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
