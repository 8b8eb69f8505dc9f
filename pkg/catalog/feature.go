package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/subkit/subkit/pkg/period"
	"github.com/subkit/subkit/pkg/slug"
)

// Feature is a named capability or quota that a plan can grant, such as
// "api-calls" or "sso". Resettable features carry their own reset cycle
// configuration; a zero ResettablePeriod means the quota never resets
// (lifetime cap).
type Feature struct {
	ID                 uuid.UUID
	Slug               string
	Name               string
	Description        string
	ResettablePeriod   int
	ResettableInterval period.Interval
	SortOrder          int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewFeature creates a feature with a fresh ID and a slug derived from
// the name. The returned feature is not resettable; set ResettablePeriod
// and ResettableInterval for metered features.
func NewFeature(name string) Feature {
	now := time.Now().UTC()
	return Feature{
		ID:        uuid.New(),
		Slug:      slug.Make(name),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsResettable reports whether usage of this feature periodically
// returns to zero.
func (f Feature) IsResettable() bool {
	return f.ResettablePeriod > 0 && f.ResettableInterval.Valid()
}

// ResetTime returns the end of one reset cycle anchored at from. Callers
// anchor the first cycle at the subscription creation time so reset
// boundaries stay aligned with the billing cycle, and subsequent cycles
// at the previous expiry to avoid drift.
func (f Feature) ResetTime(from time.Time) (time.Time, error) {
	p, err := period.New(f.ResettableInterval, f.ResettablePeriod, from)
	if err != nil {
		return time.Time{}, err
	}
	return p.EndAt(), nil
}
