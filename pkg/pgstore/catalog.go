package pgstore

import (
	"context"
	"fmt"

	"github.com/subkit/subkit/pkg/catalog"
	"github.com/subkit/subkit/pkg/pg"
)

const featureColumns = `id, slug, name, description, resettable_period, resettable_interval,
	sort_order, created_at, updated_at`

const planColumns = `id, slug, name, description, active,
	price_amount, price_currency, signup_fee_amount, signup_fee_currency,
	trial_period, trial_interval, invoice_period, invoice_interval,
	grace_period, grace_interval, subscribers_limit, sort_order, created_at, updated_at`

// ResolveFeature implements catalog.Catalog against the features table.
// Soft-deleted features resolve as not found.
func (s *Store) ResolveFeature(ctx context.Context, ref catalog.FeatureRef) (*catalog.Feature, error) {
	if f, ok := ref.Resolved(); ok {
		return &f, nil
	}
	if ref.IsZero() {
		return nil, catalog.ErrEmptyRef
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE deleted_at IS NULL AND `,
		featureColumns, s.cfg.FeaturesTable)

	var arg any
	if id, ok := ref.ID(); ok {
		query += "id = $1"
		arg = id
	} else {
		slug, _ := ref.Slug()
		query += "slug = $1"
		arg = slug
	}

	var f catalog.Feature
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&f.ID,
		&f.Slug,
		&f.Name,
		&f.Description,
		&f.ResettablePeriod,
		&f.ResettableInterval,
		&f.SortOrder,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, catalog.ErrFeatureNotFound
		}
		return nil, err
	}
	return &f, nil
}

// ResolvePlan implements catalog.Catalog against the plans table,
// loading the plan's feature grants alongside.
func (s *Store) ResolvePlan(ctx context.Context, ref catalog.PlanRef) (*catalog.Plan, error) {
	if p, ok := ref.Resolved(); ok {
		return &p, nil
	}
	if ref.IsZero() {
		return nil, catalog.ErrEmptyRef
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE deleted_at IS NULL AND `,
		planColumns, s.cfg.PlansTable)

	var arg any
	if id, ok := ref.ID(); ok {
		query += "id = $1"
		arg = id
	} else {
		slug, _ := ref.Slug()
		query += "slug = $1"
		arg = slug
	}

	var p catalog.Plan
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&p.ID,
		&p.Slug,
		&p.Name,
		&p.Description,
		&p.Active,
		&p.Price.Amount,
		&p.Price.Currency,
		&p.SignupFee.Amount,
		&p.SignupFee.Currency,
		&p.TrialPeriod,
		&p.TrialInterval,
		&p.InvoicePeriod,
		&p.InvoiceInterval,
		&p.GracePeriod,
		&p.GraceInterval,
		&p.SubscribersLimit,
		&p.SortOrder,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, catalog.ErrPlanNotFound
		}
		return nil, err
	}

	features, err := s.planFeatures(ctx, p)
	if err != nil {
		return nil, err
	}
	p.Features = features

	return &p, nil
}

func (s *Store) planFeatures(ctx context.Context, p catalog.Plan) ([]catalog.PlanFeature, error) {
	query := fmt.Sprintf(`SELECT pf.feature_id, f.slug, pf.value, pf.sort_order
		FROM %s pf
		JOIN %s f ON f.id = pf.feature_id
		WHERE pf.plan_id = $1
		ORDER BY pf.sort_order`, s.cfg.PlanFeaturesTable, s.cfg.FeaturesTable)

	rows, err := s.db.Query(ctx, query, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.PlanFeature
	for rows.Next() {
		var pf catalog.PlanFeature
		if err := rows.Scan(&pf.FeatureID, &pf.Slug, &pf.Value, &pf.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, pf)
	}
	return out, rows.Err()
}
