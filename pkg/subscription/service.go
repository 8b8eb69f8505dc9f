package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/subkit/subkit/pkg/catalog"
	"github.com/subkit/subkit/pkg/period"
	"github.com/subkit/subkit/pkg/usage"
)

// Service is the public interface for subscription lifecycle and
// metered feature usage.
type Service interface {
	// Lifecycle
	Subscribe(ctx context.Context, subscriber SubscriberRef, name string, plan catalog.PlanRef, opts ...SubscribeOption) (*Subscription, error)
	Cancel(ctx context.Context, id uuid.UUID, immediately bool) (*Subscription, error)
	ChangePlan(ctx context.Context, id uuid.UUID, plan catalog.PlanRef) (*Subscription, error)
	Renew(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// Queries
	GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error)
	GetSubscriptionByName(ctx context.Context, subscriber SubscriberRef, name string) (*Subscription, error)
	Subscribed(ctx context.Context, subscriber SubscriberRef, name string) bool
	SubscribedTo(ctx context.Context, subscriber SubscriberRef, name string, plan catalog.PlanRef) bool
	Ability(ctx context.Context, id uuid.UUID) (*Ability, error)

	// Metered usage
	RecordFeatureUsage(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef, uses int64, incremental bool) (*usage.Record, error)
	ReduceFeatureUsage(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef, uses int64) (*usage.Record, error)
	FeatureConsumed(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef) (int64, error)
	FeatureRemaining(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef) (int64, error)
	FeatureValue(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef) (string, bool)
	FeatureEnabled(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef) bool
	CanUseFeature(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef) bool

	// Scheduler sweeps: point-in-time reads meant to be polled by an
	// external scheduler, no background work happens here.
	FindEndingTrial(ctx context.Context, within time.Duration) ([]Subscription, error)
	FindEndedTrial(ctx context.Context) ([]Subscription, error)
	FindEndingPeriod(ctx context.Context, within time.Duration) ([]Subscription, error)
	FindEndedPeriod(ctx context.Context) ([]Subscription, error)
}

type service struct {
	store   Store
	cat     catalog.Catalog
	cfg     Config
	log     *slog.Logger
	handler EventHandler
	now     func() time.Time
}

// NewService creates a subscription service over the given store and
// plan catalog. Panics if either is nil to fail fast during
// initialization.
func NewService(store Store, cat catalog.Catalog, opts ...ServiceOption) Service {
	if store == nil {
		panic("subscription: Store is required")
	}
	if cat == nil {
		panic("subscription: Catalog is required")
	}

	s := &service{
		store: store,
		cat:   cat,
		cfg:   DefaultConfig(),
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe creates a subscription for a subscriber on the given plan.
// The trial window comes from an explicit WithTrial override or the
// plan's trial settings unless SkipTrial is given; the first billing
// period is anchored at the trial end (or now, without a trial) so the
// paid window starts when the trial stops.
func (s *service) Subscribe(ctx context.Context, subscriber SubscriberRef, name string, planRef catalog.PlanRef, opts ...SubscribeOption) (*Subscription, error) {
	var cfg subscribeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.trialPeriod > 0 && !cfg.trialInterval.Valid() {
		return nil, period.ErrInvalidInterval
	}

	plan, err := s.cat.ResolvePlan(ctx, planRef)
	if err != nil {
		return nil, err
	}

	now := s.now()

	var trialEndsAt *time.Time
	if !cfg.skipTrial {
		switch {
		case cfg.trialPeriod > 0:
			trial, err := period.New(cfg.trialInterval, cfg.trialPeriod, now)
			if err != nil {
				return nil, err
			}
			end := trial.EndAt()
			trialEndsAt = &end
		case plan.HasTrial():
			trial, err := period.New(plan.TrialInterval, plan.TrialPeriod, now)
			if err != nil {
				return nil, err
			}
			end := trial.EndAt()
			trialEndsAt = &end
		}
	}

	anchor := now
	if trialEndsAt != nil {
		anchor = *trialEndsAt
	}
	billing, err := period.New(plan.InvoiceInterval, plan.InvoicePeriod, anchor)
	if err != nil {
		return nil, errors.Join(ErrFailedToSubscribe, err)
	}

	sub := &Subscription{
		ID:          uuid.New(),
		Subscriber:  subscriber,
		PlanID:      plan.ID,
		Name:        name,
		TrialEndsAt: trialEndsAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	sub.SetPeriod(billing)

	// The duplicate check and the save share one transaction so two
	// concurrent subscribes for the same (subscriber, name) pair cannot
	// both pass the check and both insert.
	err = s.store.RunInTransaction(ctx, func(tx Store) error {
		if existing, err := tx.GetSubscriptionByName(ctx, subscriber, name); err == nil && existing.IsActiveAt(now) {
			return ErrSubscriptionAlreadyExists
		} else if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
			return err
		}
		return tx.SaveSubscription(ctx, sub)
	})
	if err != nil {
		if errors.Is(err, ErrSubscriptionAlreadyExists) {
			return nil, ErrSubscriptionAlreadyExists
		}
		return nil, errors.Join(ErrFailedToSubscribe, err)
	}

	s.log.InfoContext(ctx, "subscription created",
		"subscription_id", sub.ID,
		"subscriber_type", subscriber.Type,
		"subscriber_id", subscriber.ID,
		"plan", plan.Slug,
		"trial", trialEndsAt != nil,
	)

	return sub, nil
}

// Cancel marks the subscription as canceling now. With immediately set,
// access ends right away; otherwise the subscriber keeps access until
// the current period runs out. Always emits SubscriptionCanceled.
func (s *service) Cancel(ctx context.Context, id uuid.UUID, immediately bool) (*Subscription, error) {
	var sub *Subscription

	err := s.store.RunInTransaction(ctx, func(tx Store) error {
		var err error
		sub, err = tx.GetSubscription(ctx, id)
		if err != nil {
			return err
		}

		now := s.now()
		sub.CancelsAt = &now
		if immediately {
			sub.CanceledAt = &now
			sub.EndsAt = now
		}
		sub.UpdatedAt = now

		return tx.SaveSubscription(ctx, sub)
	})
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return nil, err
		}
		return nil, errors.Join(ErrFailedToCancel, err)
	}

	s.log.InfoContext(ctx, "subscription canceled",
		"subscription_id", sub.ID,
		"immediately", immediately,
	)
	s.emit(ctx, Event{
		Type:         EventSubscriptionCanceled,
		Subscription: *sub,
		OccurredAt:   s.now(),
	})

	return sub, nil
}

// ChangePlan moves the subscription to another plan. Plans sharing the
// current billing cadence swap in place, keeping the window and usage;
// a cadence change starts a fresh cycle from now and clears all usage
// records, with both steps in one transaction. Partial-cycle usage is
// not prorated.
func (s *service) ChangePlan(ctx context.Context, id uuid.UUID, planRef catalog.PlanRef) (*Subscription, error) {
	newPlan, err := s.cat.ResolvePlan(ctx, planRef)
	if err != nil {
		return nil, err
	}

	var (
		sub        *Subscription
		prevPlanID uuid.UUID
	)

	err = s.store.RunInTransaction(ctx, func(tx Store) error {
		var err error
		sub, err = tx.GetSubscription(ctx, id)
		if err != nil {
			return err
		}

		currentPlan, err := s.cat.ResolvePlan(ctx, catalog.PlanByID(sub.PlanID))
		if err != nil {
			return err
		}
		prevPlanID = currentPlan.ID

		if !currentPlan.SameBillingCadence(*newPlan) {
			billing, err := period.New(newPlan.InvoiceInterval, newPlan.InvoicePeriod, s.now())
			if err != nil {
				return err
			}
			sub.SetPeriod(billing)

			if err := tx.DeleteBySubscription(ctx, sub.ID); err != nil {
				return err
			}
		}

		sub.PlanID = newPlan.ID
		sub.UpdatedAt = s.now()

		return tx.SaveSubscription(ctx, sub)
	})
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) || errors.Is(err, catalog.ErrPlanNotFound) {
			return nil, err
		}
		return nil, errors.Join(ErrFailedToChangePlan, err)
	}

	s.log.InfoContext(ctx, "subscription plan changed",
		"subscription_id", sub.ID,
		"plan", newPlan.Slug,
	)
	s.emit(ctx, Event{
		Type:           EventSubscriptionPlanChanged,
		Subscription:   *sub,
		PreviousPlanID: prevPlanID,
		OccurredAt:     s.now(),
	})

	return sub, nil
}

// Renew starts a fresh billing cycle: usage records are cleared, the
// window is recomputed from the plan's cadence anchored at now, and a
// pending cancellation is lifted. The steps run in one transaction; a
// failure leaves the prior state untouched. A subscription that is both
// ended and canceled cannot be renewed.
func (s *service) Renew(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	var sub *Subscription

	err := s.store.RunInTransaction(ctx, func(tx Store) error {
		var err error
		sub, err = tx.GetSubscription(ctx, id)
		if err != nil {
			return err
		}

		now := s.now()
		if sub.IsEndedAt(now) && sub.IsCanceledAt(now) {
			return ErrCannotRenew
		}

		plan, err := s.cat.ResolvePlan(ctx, catalog.PlanByID(sub.PlanID))
		if err != nil {
			return err
		}

		if err := tx.DeleteBySubscription(ctx, sub.ID); err != nil {
			return err
		}

		billing, err := period.New(plan.InvoiceInterval, plan.InvoicePeriod, now)
		if err != nil {
			return err
		}
		sub.SetPeriod(billing)
		sub.CanceledAt = nil
		sub.UpdatedAt = now

		return tx.SaveSubscription(ctx, sub)
	})
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) || errors.Is(err, ErrCannotRenew) {
			return nil, err
		}
		return nil, errors.Join(ErrFailedToRenew, err)
	}

	s.log.InfoContext(ctx, "subscription renewed",
		"subscription_id", sub.ID,
		"ends_at", sub.EndsAt,
	)
	s.emit(ctx, Event{
		Type:         EventSubscriptionRenewed,
		Subscription: *sub,
		OccurredAt:   s.now(),
	})

	return sub, nil
}

// GetSubscription loads a subscription by ID.
func (s *service) GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return s.store.GetSubscription(ctx, id)
}

// GetSubscriptionByName loads a subscriber's subscription by name.
func (s *service) GetSubscriptionByName(ctx context.Context, subscriber SubscriberRef, name string) (*Subscription, error) {
	return s.store.GetSubscriptionByName(ctx, subscriber, name)
}

// Subscribed reports whether the subscriber holds a usable subscription
// with the given name. Fails closed on lookup errors.
func (s *service) Subscribed(ctx context.Context, subscriber SubscriberRef, name string) bool {
	sub, err := s.store.GetSubscriptionByName(ctx, subscriber, name)
	if err != nil {
		return false
	}
	return sub.IsActiveAt(s.now())
}

// SubscribedTo reports whether the subscriber holds a usable
// subscription with the given name on a specific plan.
func (s *service) SubscribedTo(ctx context.Context, subscriber SubscriberRef, name string, planRef catalog.PlanRef) bool {
	sub, err := s.store.GetSubscriptionByName(ctx, subscriber, name)
	if err != nil || !sub.IsActiveAt(s.now()) {
		return false
	}

	plan, err := s.cat.ResolvePlan(ctx, planRef)
	if err != nil {
		return false
	}
	return sub.PlanID == plan.ID
}

// Ability builds the feature-access evaluator for a subscription on its
// current plan.
func (s *service) Ability(ctx context.Context, id uuid.UUID) (*Ability, error) {
	sub, err := s.store.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	plan, err := s.cat.ResolvePlan(ctx, catalog.PlanByID(sub.PlanID))
	if err != nil {
		return nil, err
	}

	a := NewAbility(sub, *plan, s.store, s.cat, s.cfg)
	a.now = s.now
	return a, nil
}

// RecordFeatureUsage records consumption of a feature, applying the
// reset-cycle policy anchored at the subscription creation time. The
// read-modify-write runs in one transaction so concurrent increments on
// the same feature serialize.
func (s *service) RecordFeatureUsage(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef, uses int64, incremental bool) (*usage.Record, error) {
	var rec *usage.Record

	err := s.store.RunInTransaction(ctx, func(tx Store) error {
		sub, err := tx.GetSubscription(ctx, id)
		if err != nil {
			return err
		}

		ledger := usage.NewLedger(tx, s.cat, usage.WithLogger(s.log), usage.WithClock(s.now))
		rec, err = ledger.Record(ctx, sub.ID, sub.CreatedAt, feature, uses, incremental)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ReduceFeatureUsage decrements a feature's usage counter, clamping at
// zero.
func (s *service) ReduceFeatureUsage(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef, uses int64) (*usage.Record, error) {
	return s.RecordFeatureUsage(ctx, id, feature, -uses, true)
}

// FeatureConsumed returns the usage counter for the current reset
// window; missing or expired records read as zero.
func (s *service) FeatureConsumed(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef) (int64, error) {
	ledger := usage.NewLedger(s.store, s.cat, usage.WithLogger(s.log), usage.WithClock(s.now))
	return ledger.Consumed(ctx, id, feature)
}

// FeatureRemaining returns the quota left for a feature; negative when
// usage exceeds the quota.
func (s *service) FeatureRemaining(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef) (int64, error) {
	ability, err := s.Ability(ctx, id)
	if err != nil {
		return 0, err
	}
	return ability.Remaining(ctx, feature), nil
}

// FeatureValue returns the raw plan value granted for a feature. The
// second return is false when the plan does not grant the feature at
// all or the subscription cannot be loaded.
func (s *service) FeatureValue(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef) (string, bool) {
	ability, err := s.Ability(ctx, id)
	if err != nil {
		return "", false
	}
	return ability.Value(ctx, feature)
}

// FeatureEnabled reports whether the feature is granted as a
// boolean-style flag, that is, whether its plan value is one of the
// configured positive words.
func (s *service) FeatureEnabled(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef) bool {
	ability, err := s.Ability(ctx, id)
	if err != nil {
		return false
	}
	return ability.Enabled(ctx, feature)
}

// CanUseFeature reports whether the subscription may consume the
// feature right now. Fails closed on any error.
func (s *service) CanUseFeature(ctx context.Context, id uuid.UUID, feature catalog.FeatureRef) bool {
	ability, err := s.Ability(ctx, id)
	if err != nil {
		return false
	}
	return ability.CanUse(ctx, feature)
}

// FindEndingTrial returns subscriptions whose trial ends within the
// given window from now. A non-positive window defaults to three days.
func (s *service) FindEndingTrial(ctx context.Context, within time.Duration) ([]Subscription, error) {
	from := s.now()
	return s.store.FindEndingTrial(ctx, from, from.Add(normalizeWindow(within)))
}

// FindEndedTrial returns subscriptions whose trial has already ended.
func (s *service) FindEndedTrial(ctx context.Context) ([]Subscription, error) {
	return s.store.FindEndedTrial(ctx, s.now())
}

// FindEndingPeriod returns subscriptions whose billing period ends
// within the given window from now. A non-positive window defaults to
// three days.
func (s *service) FindEndingPeriod(ctx context.Context, within time.Duration) ([]Subscription, error) {
	from := s.now()
	return s.store.FindEndingPeriod(ctx, from, from.Add(normalizeWindow(within)))
}

// FindEndedPeriod returns subscriptions whose billing period has ended.
func (s *service) FindEndedPeriod(ctx context.Context) ([]Subscription, error) {
	return s.store.FindEndedPeriod(ctx, s.now())
}

func (s *service) emit(ctx context.Context, event Event) {
	if s.handler == nil {
		return
	}
	s.handler(ctx, event)
}

func normalizeWindow(within time.Duration) time.Duration {
	if within <= 0 {
		return 72 * time.Hour
	}
	return within
}
