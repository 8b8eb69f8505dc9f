package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/subkit/subkit/pkg/period"
)

// SubscriberRef identifies the owning entity of a subscription. The
// owner type keeps the association polymorphic without reflection: any
// entity kind (user, team, organization) can hold subscriptions.
type SubscriberRef struct {
	Type string
	ID   uuid.UUID
}

// Subscription ties a subscriber to a plan for a billing window.
// A subscriber can hold several subscriptions distinguished by Name
// ("main", "addon-seats"); the store enforces that one
// (subscriber, name) pair has at most one live subscription.
//
// Lifecycle state is derived from the timestamps, never stored:
// a subscription is on trial while TrialEndsAt lies ahead, canceled once
// CanceledAt has passed, ended once EndsAt has passed, and usable while
// it is not ended or still on trial.
type Subscription struct {
	ID          uuid.UUID
	Subscriber  SubscriberRef
	PlanID      uuid.UUID
	Name        string
	TrialEndsAt *time.Time
	StartsAt    time.Time
	EndsAt      time.Time
	CancelsAt   *time.Time
	CanceledAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OnTrialAt reports whether the subscription is in its trial window at
// the given instant. Useful for testing with fixed time values.
func (s *Subscription) OnTrialAt(now time.Time) bool {
	if s.TrialEndsAt == nil {
		return false
	}
	return now.Before(*s.TrialEndsAt)
}

// OnTrial reports whether the subscription is currently in its trial window.
func (s *Subscription) OnTrial() bool {
	return s.OnTrialAt(time.Now().UTC())
}

// IsCanceledAt reports whether the cancellation has taken effect at the
// given instant. A scheduled cancellation (CancelsAt set, CanceledAt
// unset) does not count until it lands.
func (s *Subscription) IsCanceledAt(now time.Time) bool {
	if s.CanceledAt == nil {
		return false
	}
	return !now.Before(*s.CanceledAt)
}

// IsCanceled reports whether the cancellation has taken effect.
func (s *Subscription) IsCanceled() bool {
	return s.IsCanceledAt(time.Now().UTC())
}

// IsEndedAt reports whether the billing period has ended at the given instant.
func (s *Subscription) IsEndedAt(now time.Time) bool {
	if s.EndsAt.IsZero() {
		return false
	}
	return !now.Before(s.EndsAt)
}

// IsEnded reports whether the billing period has ended.
func (s *Subscription) IsEnded() bool {
	return s.IsEndedAt(time.Now().UTC())
}

// IsActiveAt reports whether the subscription grants access at the given
// instant: either the period has not ended, or the trial is still
// running. Trial access deliberately survives a nominal period end, and
// a scheduled cancellation keeps access until it takes effect.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	return !s.IsEndedAt(now) || s.OnTrialAt(now)
}

// IsActive reports whether the subscription currently grants access.
func (s *Subscription) IsActive() bool {
	return s.IsActiveAt(time.Now().UTC())
}

// IsInactive is the negation of IsActive.
func (s *Subscription) IsInactive() bool {
	return !s.IsActive()
}

// SetPeriod applies a computed billing window to the subscription.
func (s *Subscription) SetPeriod(p period.Period) {
	s.StartsAt = p.StartAt()
	s.EndsAt = p.EndAt()
}
