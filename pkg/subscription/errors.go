package subscription

import "errors"

var (
	ErrSubscriptionNotFound      = errors.New("subscription not found")
	ErrSubscriptionAlreadyExists = errors.New("subscription already exists")

	// ErrCannotRenew is returned when a subscription is both ended and
	// canceled; such subscriptions must be recreated, not renewed.
	ErrCannotRenew = errors.New("unable to renew canceled ended subscription")

	ErrFailedToSubscribe  = errors.New("failed to create subscription")
	ErrFailedToCancel     = errors.New("failed to cancel subscription")
	ErrFailedToChangePlan = errors.New("failed to change subscription plan")
	ErrFailedToRenew      = errors.New("failed to renew subscription")

	ErrInvalidConfig = errors.New("invalid subscription configuration")
)
