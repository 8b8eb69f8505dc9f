package subscription

import (
	"log/slog"
	"time"

	"github.com/subkit/subkit/pkg/period"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithConfig sets the evaluator configuration (positive words).
func WithConfig(cfg Config) ServiceOption {
	return func(s *service) {
		s.cfg = cfg
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithEventHandler registers the lifecycle event consumer. Without one,
// events are dropped.
func WithEventHandler(handler EventHandler) ServiceOption {
	return func(s *service) {
		s.handler = handler
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// SubscribeOption adjusts how a new subscription is created.
type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	trialPeriod   int
	trialInterval period.Interval
	skipTrial     bool
}

// WithTrial overrides the plan's trial settings for this subscription.
// The interval is validated when Subscribe runs; an unknown unit fails
// the whole call with period.ErrInvalidInterval.
func WithTrial(count int, interval period.Interval) SubscribeOption {
	return func(c *subscribeConfig) {
		c.trialPeriod = count
		c.trialInterval = interval
	}
}

// SkipTrial creates the subscription without any trial window,
// regardless of the plan's trial settings.
func SkipTrial() SubscribeOption {
	return func(c *subscribeConfig) {
		c.skipTrial = true
	}
}
