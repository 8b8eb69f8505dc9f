package usage

import "errors"

var (
	ErrUsageNotFound  = errors.New("usage record not found")
	ErrFailedToRecord = errors.New("failed to record feature usage")
)
