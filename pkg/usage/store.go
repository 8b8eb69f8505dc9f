package usage

import (
	"context"

	"github.com/google/uuid"
)

// Store persists usage records. Implementations must upsert on the
// (subscription, feature) pair and are expected to serialize concurrent
// writers on the same pair, e.g. with row-level locking, so that
// read-modify-write cycles through the Ledger do not lose updates.
type Store interface {
	// Find returns the record for a (subscription, feature) pair.
	// Returns ErrUsageNotFound when no record exists yet.
	Find(ctx context.Context, subscriptionID, featureID uuid.UUID) (*Record, error)

	// Save creates or updates a record.
	Save(ctx context.Context, record *Record) error

	// DeleteBySubscription removes every record of a subscription.
	DeleteBySubscription(ctx context.Context, subscriptionID uuid.UUID) error
}
