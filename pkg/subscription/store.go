package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/subkit/subkit/pkg/usage"
)

// Store persists subscriptions and their usage records. Implementations
// back the single-writer-per-subscription discipline: every mutating
// service operation runs inside RunInTransaction, so the store must hand
// the callback a transaction-scoped view whose reads and writes commit
// or roll back together.
//
// usage.Store is embedded so a usage.Ledger can run over the same
// transaction scope as the subscription writes.
type Store interface {
	usage.Store

	// GetSubscription loads a subscription by ID.
	// Returns ErrSubscriptionNotFound when it does not exist.
	GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// GetSubscriptionByName loads a subscriber's subscription by name.
	// Returns ErrSubscriptionNotFound when it does not exist.
	GetSubscriptionByName(ctx context.Context, subscriber SubscriberRef, name string) (*Subscription, error)

	// SaveSubscription creates or updates a subscription. Creation must
	// fail with ErrSubscriptionAlreadyExists when another live
	// subscription holds the same (subscriber, name) pair.
	SaveSubscription(ctx context.Context, sub *Subscription) error

	// DeleteSubscription removes a subscription and, by cascade, all of
	// its usage records.
	DeleteSubscription(ctx context.Context, id uuid.UUID) error

	// FindEndingTrial returns subscriptions whose trial ends inside
	// [from, to]. Intended for periodic "trial ending soon" sweeps by an
	// external scheduler.
	FindEndingTrial(ctx context.Context, from, to time.Time) ([]Subscription, error)

	// FindEndedTrial returns subscriptions whose trial ended at or
	// before the given instant.
	FindEndedTrial(ctx context.Context, at time.Time) ([]Subscription, error)

	// FindEndingPeriod returns subscriptions whose billing period ends
	// inside [from, to].
	FindEndingPeriod(ctx context.Context, from, to time.Time) ([]Subscription, error)

	// FindEndedPeriod returns subscriptions whose billing period ended
	// at or before the given instant.
	FindEndedPeriod(ctx context.Context, at time.Time) ([]Subscription, error)

	// RunInTransaction executes fn against a transaction-scoped store.
	// Any error from fn rolls the transaction back and is returned; the
	// prior committed state stays intact.
	RunInTransaction(ctx context.Context, fn func(Store) error) error
}
