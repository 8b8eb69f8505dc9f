// Package period provides an immutable calendar interval value type used
// to compute billing windows and usage-reset boundaries.
//
// A Period is a half-open interval [start, end) built from an interval
// unit (day, week, month, year) and a positive count. The end instant is
// computed with calendar-aware arithmetic rather than fixed durations, so
// monthly periods track month lengths and daylight-saving shifts the way
// a billing system is expected to.
//
// # Usage
//
//	p, err := period.New(period.Month, 1, time.Now().UTC())
//	if err != nil {
//		// only ErrInvalidInterval is possible
//	}
//	fmt.Println(p.StartAt(), p.EndAt())
//
// A zero anchor time means "now"; a non-positive count is coerced to 1.
// Periods are plain values: once constructed they cannot be mutated, and
// the accessors always return consistent instants.
package period
