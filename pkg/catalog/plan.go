package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/subkit/subkit/pkg/period"
	"github.com/subkit/subkit/pkg/slug"
)

// Money represents a monetary amount in the smallest currency unit.
// For example, $10.99 USD is Amount: 1099, Currency: "USD".
type Money struct {
	Amount   int64  `yaml:"amount"`
	Currency string `yaml:"currency"` // ISO 4217 code
}

// IsZero reports whether the amount is zero or negative.
func (m Money) IsZero() bool {
	return m.Amount <= 0
}

// Plan is a priced bundle of feature grants with a billing cadence.
type Plan struct {
	ID          uuid.UUID
	Slug        string
	Name        string
	Description string
	Active      bool
	Price       Money
	SignupFee   Money

	// Trial window granted on subscribe, unless skipped or overridden.
	TrialPeriod   int
	TrialInterval period.Interval

	// Billing cadence: each billing window spans InvoicePeriod units of
	// InvoiceInterval.
	InvoicePeriod   int
	InvoiceInterval period.Interval

	// Grace window after the period ends before access is revoked.
	GracePeriod   int
	GraceInterval period.Interval

	SubscribersLimit int
	SortOrder        int
	Features         []PlanFeature
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PlanFeature is the grant of one feature by one plan. The value string
// is interpreted by the ability evaluator: a configured positive word
// means a boolean "enabled" flag, a number means a quota, and "0" or
// "false" disables the feature.
type PlanFeature struct {
	FeatureID uuid.UUID
	Slug      string // denormalized feature slug
	Value     string
	SortOrder int
}

// NewPlan creates an active monthly plan with a fresh ID and a slug
// derived from the name.
func NewPlan(name string) Plan {
	now := time.Now().UTC()
	return Plan{
		ID:              uuid.New(),
		Slug:            slug.Make(name),
		Name:            name,
		Active:          true,
		InvoicePeriod:   1,
		InvoiceInterval: period.Month,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsFree reports whether the plan has no recurring price.
func (p Plan) IsFree() bool {
	return p.Price.IsZero()
}

// HasTrial reports whether the plan grants a trial window.
func (p Plan) HasTrial() bool {
	return p.TrialPeriod > 0 && p.TrialInterval.Valid()
}

// HasGrace reports whether the plan grants a grace window.
func (p Plan) HasGrace() bool {
	return p.GracePeriod > 0 && p.GraceInterval.Valid()
}

// SameBillingCadence reports whether two plans bill on the same
// interval and period, meaning a subscription can move between them
// without starting a fresh billing cycle.
func (p Plan) SameBillingCadence(other Plan) bool {
	return p.InvoiceInterval == other.InvoiceInterval && p.InvoicePeriod == other.InvoicePeriod
}

// FeatureValue returns the value this plan grants for a feature, or
// false if the plan does not grant the feature at all.
func (p Plan) FeatureValue(featureID uuid.UUID) (string, bool) {
	for _, pf := range p.Features {
		if pf.FeatureID == featureID {
			return pf.Value, true
		}
	}
	return "", false
}

// FeatureValueBySlug returns the value granted for a feature slug.
func (p Plan) FeatureValueBySlug(featureSlug string) (string, bool) {
	for _, pf := range p.Features {
		if pf.Slug == featureSlug {
			return pf.Value, true
		}
	}
	return "", false
}
