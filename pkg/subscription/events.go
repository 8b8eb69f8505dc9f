package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a subscription lifecycle notification.
type EventType string

const (
	EventSubscriptionCanceled    EventType = "subscription.canceled"
	EventSubscriptionPlanChanged EventType = "subscription.plan_changed"
	EventSubscriptionRenewed     EventType = "subscription.renewed"
)

// Event is a lifecycle notification carrying the subscription state
// after the transition committed. The external system may use it to
// trigger emails, analytics, or billing-provider sync.
type Event struct {
	Type         EventType
	Subscription Subscription
	// PreviousPlanID is set for plan-change events.
	PreviousPlanID uuid.UUID
	OccurredAt     time.Time
}

// EventHandler receives lifecycle events. Handlers run synchronously
// after the owning transaction commits; slow consumers should hand the
// event off to their own queue.
type EventHandler func(ctx context.Context, event Event)
