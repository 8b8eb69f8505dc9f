package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/subkit/subkit/pkg/pg"
	"github.com/subkit/subkit/pkg/subscription"
)

const subscriptionColumns = `id, subscriber_type, subscriber_id, plan_id, name,
	trial_ends_at, starts_at, ends_at, cancels_at, canceled_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.Subscriber.Type,
		&sub.Subscriber.ID,
		&sub.PlanID,
		&sub.Name,
		&sub.TrialEndsAt,
		&sub.StartsAt,
		&sub.EndsAt,
		&sub.CancelsAt,
		&sub.CanceledAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *Store) GetSubscription(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL`,
		subscriptionColumns, s.cfg.SubscriptionsTable)
	return scanSubscription(s.db.QueryRow(ctx, query, id))
}

func (s *Store) GetSubscriptionByName(ctx context.Context, subscriber subscription.SubscriberRef, name string) (*subscription.Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE subscriber_type = $1 AND subscriber_id = $2 AND name = $3 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`,
		subscriptionColumns, s.cfg.SubscriptionsTable)
	return scanSubscription(s.db.QueryRow(ctx, query, subscriber.Type, subscriber.ID, name))
}

// SaveSubscription upserts by ID. On insert it rejects a second live
// subscription for the same (subscriber, name) pair; liveness mirrors
// Subscription.IsActiveAt evaluated in SQL. Inside a transaction the
// pair is serialized with an advisory lock, so two concurrent saves
// cannot both pass the guard before either row lands.
func (s *Store) SaveSubscription(ctx context.Context, sub *subscription.Subscription) error {
	if s.inTx {
		lock := `SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2::text || ':' || $3::text, 0))`
		if _, err := s.db.Exec(ctx, lock, sub.Subscriber.Type, sub.Subscriber.ID, sub.Name); err != nil {
			return err
		}
	}

	guard := fmt.Sprintf(`SELECT EXISTS (
		SELECT 1 FROM %s
		WHERE subscriber_type = $1 AND subscriber_id = $2 AND name = $3
			AND id <> $4 AND deleted_at IS NULL
			AND (ends_at > now() OR (trial_ends_at IS NOT NULL AND trial_ends_at > now()))
	)`, s.cfg.SubscriptionsTable)

	var liveDuplicate bool
	if err := s.db.QueryRow(ctx, guard,
		sub.Subscriber.Type, sub.Subscriber.ID, sub.Name, sub.ID,
	).Scan(&liveDuplicate); err != nil {
		return err
	}
	if liveDuplicate {
		return subscription.ErrSubscriptionAlreadyExists
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			trial_ends_at = EXCLUDED.trial_ends_at,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at,
			cancels_at = EXCLUDED.cancels_at,
			canceled_at = EXCLUDED.canceled_at,
			updated_at = EXCLUDED.updated_at`,
		s.cfg.SubscriptionsTable, subscriptionColumns)

	_, err := s.db.Exec(ctx, query,
		sub.ID,
		sub.Subscriber.Type,
		sub.Subscriber.ID,
		sub.PlanID,
		sub.Name,
		sub.TrialEndsAt,
		sub.StartsAt,
		sub.EndsAt,
		sub.CancelsAt,
		sub.CanceledAt,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	return err
}

// DeleteSubscription soft-deletes the subscription and removes its
// usage rows. Keeping the subscription row preserves billing history;
// usage counters have no value once the subscription is gone.
func (s *Store) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	return s.RunInTransaction(ctx, func(tx subscription.Store) error {
		txs := tx.(*Store)

		query := fmt.Sprintf(`UPDATE %s SET deleted_at = now(), updated_at = now()
			WHERE id = $1 AND deleted_at IS NULL`, txs.cfg.SubscriptionsTable)
		tag, err := txs.db.Exec(ctx, query, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return subscription.ErrSubscriptionNotFound
		}

		return txs.DeleteBySubscription(ctx, id)
	})
}

func (s *Store) FindEndingTrial(ctx context.Context, from, to time.Time) ([]subscription.Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE trial_ends_at >= $1 AND trial_ends_at <= $2 AND deleted_at IS NULL`,
		subscriptionColumns, s.cfg.SubscriptionsTable)
	return s.selectSubscriptions(ctx, query, from, to)
}

func (s *Store) FindEndedTrial(ctx context.Context, at time.Time) ([]subscription.Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE trial_ends_at <= $1 AND deleted_at IS NULL`,
		subscriptionColumns, s.cfg.SubscriptionsTable)
	return s.selectSubscriptions(ctx, query, at)
}

func (s *Store) FindEndingPeriod(ctx context.Context, from, to time.Time) ([]subscription.Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE ends_at >= $1 AND ends_at <= $2 AND deleted_at IS NULL`,
		subscriptionColumns, s.cfg.SubscriptionsTable)
	return s.selectSubscriptions(ctx, query, from, to)
}

func (s *Store) FindEndedPeriod(ctx context.Context, at time.Time) ([]subscription.Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE ends_at <= $1 AND deleted_at IS NULL`,
		subscriptionColumns, s.cfg.SubscriptionsTable)
	return s.selectSubscriptions(ctx, query, at)
}

func (s *Store) selectSubscriptions(ctx context.Context, query string, args ...any) ([]subscription.Subscription, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}
