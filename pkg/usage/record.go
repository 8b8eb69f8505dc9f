package usage

import (
	"time"

	"github.com/google/uuid"
)

// Record is the consumption counter of one feature by one subscription.
// Each (subscription, feature) pair has at most one record. Used never
// goes negative: reductions clamp at zero. ValidUntil is nil until the
// first recorded use of a resettable feature initializes it; once set it
// governs when the counter expires and rolls over.
type Record struct {
	SubscriptionID uuid.UUID
	FeatureID      uuid.UUID
	Used           int64
	ValidUntil     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ExpiredAt reports whether the record's reset window has passed at the
// given instant. Records without a ValidUntil never expire.
func (r *Record) ExpiredAt(now time.Time) bool {
	if r.ValidUntil == nil {
		return false
	}
	return !now.Before(*r.ValidUntil)
}

// Expired reports whether the record's reset window has passed.
func (r *Record) Expired() bool {
	return r.ExpiredAt(time.Now().UTC())
}
