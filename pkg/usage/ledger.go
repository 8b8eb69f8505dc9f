package usage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/subkit/subkit/pkg/catalog"
)

// Ledger maintains per-feature usage counters for subscriptions. All
// mutations go through the Store handed in at construction; to make a
// sequence of ledger calls atomic, construct the Ledger over a
// transaction-scoped store.
type Ledger struct {
	store Store
	cat   catalog.Catalog
	log   *slog.Logger
	now   func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// WithClock overrides the time source, primarily for tests that need to
// cross reset boundaries deterministically.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger creates a usage ledger over the given store and catalog.
// Panics if either is nil to fail fast during initialization.
func NewLedger(store Store, cat catalog.Catalog, opts ...Option) *Ledger {
	if store == nil {
		panic("usage: Store is required")
	}
	if cat == nil {
		panic("usage: Catalog is required")
	}

	l := &Ledger{
		store: store,
		cat:   cat,
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record creates or updates the usage record for a feature. When
// incremental is true the delta is added to the current counter,
// otherwise the counter is set to the delta; either way the result is
// clamped at zero.
//
// For resettable features the first recorded use initializes ValidUntil
// one reset cycle past the anchor, which callers set to the subscription
// creation time so reset boundaries stay aligned with the billing cycle.
// An expired record is rolled over before the delta applies: the counter
// returns to zero and ValidUntil advances one cycle from its previous
// value rather than from "now", so boundaries never drift.
func (l *Ledger) Record(ctx context.Context, subscriptionID uuid.UUID, anchor time.Time, ref catalog.FeatureRef, delta int64, incremental bool) (*Record, error) {
	feature, err := l.cat.ResolveFeature(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := l.now()

	rec, err := l.store.Find(ctx, subscriptionID, feature.ID)
	switch {
	case errors.Is(err, ErrUsageNotFound):
		rec = &Record{
			SubscriptionID: subscriptionID,
			FeatureID:      feature.ID,
			CreatedAt:      now,
		}
	case err != nil:
		return nil, errors.Join(ErrFailedToRecord, err)
	}

	if feature.IsResettable() {
		switch {
		case rec.ValidUntil == nil:
			validUntil, err := feature.ResetTime(anchor)
			if err != nil {
				return nil, errors.Join(ErrFailedToRecord, err)
			}
			rec.ValidUntil = &validUntil
		case rec.ExpiredAt(now):
			validUntil, err := feature.ResetTime(*rec.ValidUntil)
			if err != nil {
				return nil, errors.Join(ErrFailedToRecord, err)
			}
			rec.ValidUntil = &validUntil
			rec.Used = 0
		}
	}

	if incremental {
		rec.Used += delta
	} else {
		rec.Used = delta
	}
	rec.Used = max(rec.Used, 0)
	rec.UpdatedAt = now

	if err := l.store.Save(ctx, rec); err != nil {
		return nil, errors.Join(ErrFailedToRecord, err)
	}

	l.log.DebugContext(ctx, "recorded feature usage",
		"subscription_id", subscriptionID,
		"feature", feature.Slug,
		"used", rec.Used,
	)

	return rec, nil
}

// Reduce decrements the usage counter by amount, clamping at zero.
func (l *Ledger) Reduce(ctx context.Context, subscriptionID uuid.UUID, anchor time.Time, ref catalog.FeatureRef, amount int64) (*Record, error) {
	return l.Record(ctx, subscriptionID, anchor, ref, -amount, true)
}

// Consumed returns the current counter value, or zero when no record
// exists or the record has expired. The read path never mutates storage;
// an expired-but-unrolled record simply reads as zero until the next
// Record call rolls it over.
func (l *Ledger) Consumed(ctx context.Context, subscriptionID uuid.UUID, ref catalog.FeatureRef) (int64, error) {
	feature, err := l.cat.ResolveFeature(ctx, ref)
	if err != nil {
		return 0, err
	}

	rec, err := l.store.Find(ctx, subscriptionID, feature.ID)
	if errors.Is(err, ErrUsageNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	if rec.ExpiredAt(l.now()) {
		return 0, nil
	}
	return rec.Used, nil
}

// Clear deletes every usage record of a subscription. Used on renew and
// on plan changes that start a fresh billing cycle.
func (l *Ledger) Clear(ctx context.Context, subscriptionID uuid.UUID) error {
	return l.store.DeleteBySubscription(ctx, subscriptionID)
}
