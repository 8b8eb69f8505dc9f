package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/subkit/subkit/pkg/pg"
	"github.com/subkit/subkit/pkg/usage"
)

// Find loads the usage counter for one feature of one subscription.
// Inside a transaction the row is locked, so the ledger's
// read-modify-write cycle cannot race a concurrent writer.
func (s *Store) Find(ctx context.Context, subscriptionID, featureID uuid.UUID) (*usage.Record, error) {
	query := fmt.Sprintf(`SELECT subscription_id, feature_id, used, valid_until, created_at, updated_at
		FROM %s
		WHERE subscription_id = $1 AND feature_id = $2`, s.cfg.UsagesTable)
	if s.inTx {
		query += " FOR UPDATE"
	}

	var rec usage.Record
	err := s.db.QueryRow(ctx, query, subscriptionID, featureID).Scan(
		&rec.SubscriptionID,
		&rec.FeatureID,
		&rec.Used,
		&rec.ValidUntil,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, usage.ErrUsageNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Save upserts the usage counter keyed by (subscription, feature).
func (s *Store) Save(ctx context.Context, rec *usage.Record) error {
	query := fmt.Sprintf(`INSERT INTO %s (subscription_id, feature_id, used, valid_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (subscription_id, feature_id) DO UPDATE SET
			used = EXCLUDED.used,
			valid_until = EXCLUDED.valid_until,
			updated_at = EXCLUDED.updated_at`, s.cfg.UsagesTable)

	_, err := s.db.Exec(ctx, query,
		rec.SubscriptionID,
		rec.FeatureID,
		rec.Used,
		rec.ValidUntil,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

// DeleteBySubscription removes all usage counters of a subscription.
func (s *Store) DeleteBySubscription(ctx context.Context, subscriptionID uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE subscription_id = $1`, s.cfg.UsagesTable)
	_, err := s.db.Exec(ctx, query, subscriptionID)
	return err
}
