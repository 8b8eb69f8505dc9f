package period

import (
	"errors"
	"time"
)

// Interval represents a calendar interval unit used for billing and
// usage-reset cycles.
type Interval string

const (
	Day   Interval = "day"
	Week  Interval = "week"
	Month Interval = "month"
	Year  Interval = "year"
)

// ErrInvalidInterval is returned when an interval unit is not one of
// day, week, month or year. Construction never silently corrects it.
var ErrInvalidInterval = errors.New("invalid period interval unit")

// Valid reports whether the interval is a recognized unit.
func (i Interval) Valid() bool {
	switch i {
	case Day, Week, Month, Year:
		return true
	}
	return false
}

// String returns the interval unit as a string.
func (i Interval) String() string {
	return string(i)
}

// ParseInterval validates a raw string as an Interval.
// Returns ErrInvalidInterval for anything outside the known units,
// including plural forms like "days".
func ParseInterval(s string) (Interval, error) {
	i := Interval(s)
	if !i.Valid() {
		return "", ErrInvalidInterval
	}
	return i, nil
}

// Period is an immutable half-open calendar interval [start, end).
// The end instant is the moment of expiry, not the last covered moment.
type Period struct {
	start    time.Time
	end      time.Time
	interval Interval
	count    int
}

// New creates a Period of count interval units anchored at start.
// A zero start anchors the period at the current time. A count of zero
// or less is coerced to one unit, matching the "use minimum 1 unit"
// policy; an unrecognized interval fails with ErrInvalidInterval.
//
// The end is computed by calendar-aware addition, so "1 month" from
// Jan 31 follows the calendar's normalization rules rather than a fixed
// number of hours.
func New(interval Interval, count int, start time.Time) (Period, error) {
	if !interval.Valid() {
		return Period{}, ErrInvalidInterval
	}

	if start.IsZero() {
		start = time.Now().UTC()
	}

	if count <= 0 {
		count = 1
	}

	return Period{
		start:    start,
		end:      advance(start, interval, count),
		interval: interval,
		count:    count,
	}, nil
}

// FromUnix creates a Period anchored at a Unix timestamp in seconds.
func FromUnix(interval Interval, count int, sec int64) (Period, error) {
	return New(interval, count, time.Unix(sec, 0).UTC())
}

// StartAt returns the period start instant.
func (p Period) StartAt() time.Time { return p.start }

// EndAt returns the exclusive period end instant.
func (p Period) EndAt() time.Time { return p.end }

// Interval returns the interval unit the period was built from.
func (p Period) Interval() Interval { return p.interval }

// Count returns the effective interval count (always >= 1).
func (p Period) Count() int { return p.count }

// Contains reports whether t falls inside the half-open interval.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.start) && t.Before(p.end)
}

// advance adds count interval units to t using calendar arithmetic.
func advance(t time.Time, interval Interval, count int) time.Time {
	switch interval {
	case Day:
		return t.AddDate(0, 0, count)
	case Week:
		return t.AddDate(0, 0, 7*count)
	case Month:
		return t.AddDate(0, count, 0)
	case Year:
		return t.AddDate(count, 0, 0)
	}
	return t
}
