package subscription_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subkit/subkit/pkg/catalog"
	"github.com/subkit/subkit/pkg/period"
	"github.com/subkit/subkit/pkg/subscription"
)

// testClock is a mutable time source so tests can cross trial, period,
// and usage-reset boundaries deterministically.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixtures struct {
	svc    subscription.Service
	store  subscription.Store
	clock  *testClock
	events *[]subscription.Event

	apiCalls catalog.Feature
	sso      catalog.Feature
	export   catalog.Feature

	pro        catalog.Plan // monthly, 7-day trial
	proPlus    catalog.Plan // monthly, same cadence as pro
	basic      catalog.Plan // monthly, no trial
	enterprise catalog.Plan // yearly
}

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newFixtures(t *testing.T) *fixtures {
	t.Helper()

	apiCalls := catalog.NewFeature("API Calls")
	apiCalls.ResettablePeriod = 1
	apiCalls.ResettableInterval = period.Month

	sso := catalog.NewFeature("SSO")
	export := catalog.NewFeature("Data Export")

	pro := catalog.NewPlan("Pro")
	pro.TrialPeriod = 7
	pro.TrialInterval = period.Day
	pro.Features = []catalog.PlanFeature{
		{FeatureID: apiCalls.ID, Slug: apiCalls.Slug, Value: "100"},
		{FeatureID: sso.ID, Slug: sso.Slug, Value: "Y"},
		{FeatureID: export.ID, Slug: export.Slug, Value: "0"},
	}

	proPlus := catalog.NewPlan("Pro Plus")
	proPlus.Features = []catalog.PlanFeature{
		{FeatureID: apiCalls.ID, Slug: apiCalls.Slug, Value: "200"},
		{FeatureID: sso.ID, Slug: sso.Slug, Value: "Y"},
	}

	basic := catalog.NewPlan("Basic")
	basic.Features = []catalog.PlanFeature{
		{FeatureID: apiCalls.ID, Slug: apiCalls.Slug, Value: "10"},
	}

	enterprise := catalog.NewPlan("Enterprise")
	enterprise.InvoicePeriod = 1
	enterprise.InvoiceInterval = period.Year
	enterprise.Features = []catalog.PlanFeature{
		{FeatureID: apiCalls.ID, Slug: apiCalls.Slug, Value: "1000"},
		{FeatureID: sso.ID, Slug: sso.Slug, Value: "Y"},
	}

	cat := catalog.NewInMemCatalog(
		[]catalog.Plan{pro, proPlus, basic, enterprise},
		[]catalog.Feature{apiCalls, sso, export},
	)

	clock := newTestClock(testStart)
	store := subscription.NewMemoryStore()
	events := &[]subscription.Event{}

	svc := subscription.NewService(store, cat,
		subscription.WithClock(clock.Now),
		subscription.WithEventHandler(func(ctx context.Context, e subscription.Event) {
			*events = append(*events, e)
		}),
	)

	return &fixtures{
		svc:        svc,
		store:      store,
		clock:      clock,
		events:     events,
		apiCalls:   apiCalls,
		sso:        sso,
		export:     export,
		pro:        pro,
		proPlus:    proPlus,
		basic:      basic,
		enterprise: enterprise,
	}
}

func subscriber() subscription.SubscriberRef {
	return subscription.SubscriberRef{Type: "user", ID: uuid.New()}
}

func TestService_Subscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("plan trial applies", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("pro"))
		require.NoError(t, err)

		require.NotNil(t, sub.TrialEndsAt)
		trialEnd := testStart.AddDate(0, 0, 7)
		assert.Equal(t, trialEnd, *sub.TrialEndsAt)
		assert.Equal(t, trialEnd, sub.StartsAt, "paid period starts when trial stops")
		assert.Equal(t, trialEnd.AddDate(0, 1, 0), sub.EndsAt)
		assert.Equal(t, f.pro.ID, sub.PlanID)
		assert.True(t, sub.OnTrialAt(testStart))
		assert.True(t, sub.IsActiveAt(testStart))
	})

	t.Run("no trial on plan without one", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		assert.Nil(t, sub.TrialEndsAt)
		assert.Equal(t, testStart, sub.StartsAt)
		assert.Equal(t, testStart.AddDate(0, 1, 0), sub.EndsAt)
	})

	t.Run("skip trial", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main",
			catalog.PlanBySlug("pro"), subscription.SkipTrial())
		require.NoError(t, err)

		assert.Nil(t, sub.TrialEndsAt)
		assert.Equal(t, testStart, sub.StartsAt)
	})

	t.Run("trial override wins over plan trial", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main",
			catalog.PlanBySlug("pro"), subscription.WithTrial(2, period.Week))
		require.NoError(t, err)

		require.NotNil(t, sub.TrialEndsAt)
		assert.Equal(t, testStart.AddDate(0, 0, 14), *sub.TrialEndsAt)
	})

	t.Run("invalid trial interval rejected", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		_, err := f.svc.Subscribe(ctx, subscriber(), "main",
			catalog.PlanBySlug("pro"), subscription.WithTrial(5, "fortnight"))
		require.ErrorIs(t, err, period.ErrInvalidInterval)
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		_, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("no-such"))
		require.ErrorIs(t, err, catalog.ErrPlanNotFound)
	})

	t.Run("duplicate live subscription rejected", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)
		owner := subscriber()

		_, err := f.svc.Subscribe(ctx, owner, "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		_, err = f.svc.Subscribe(ctx, owner, "main", catalog.PlanBySlug("pro"))
		require.ErrorIs(t, err, subscription.ErrSubscriptionAlreadyExists)

		// A different name is a separate subscription.
		_, err = f.svc.Subscribe(ctx, owner, "addon-seats", catalog.PlanBySlug("basic"))
		require.NoError(t, err)
	})

	t.Run("concurrent subscribes admit exactly one", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)
		owner := subscriber()

		// The duplicate check and the save run in one transaction, so
		// racing subscribes for the same pair must not both land.
		errs := make([]error, 4)
		var wg sync.WaitGroup
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.svc.Subscribe(ctx, owner, "main", catalog.PlanBySlug("basic"))
			}(i)
		}
		wg.Wait()

		var created, rejected int
		for _, err := range errs {
			switch {
			case err == nil:
				created++
			case errors.Is(err, subscription.ErrSubscriptionAlreadyExists):
				rejected++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, created)
		assert.Equal(t, 3, rejected)
	})

	t.Run("resubscribe after the old one ended", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)
		owner := subscriber()

		first, err := f.svc.Subscribe(ctx, owner, "main",
			catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, first.ID, true)
		require.NoError(t, err)

		second, err := f.svc.Subscribe(ctx, owner, "main", catalog.PlanBySlug("pro"))
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestService_Cancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("scheduled cancellation keeps access", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)
		originalEnd := sub.EndsAt

		canceled, err := f.svc.Cancel(ctx, sub.ID, false)
		require.NoError(t, err)

		require.NotNil(t, canceled.CancelsAt)
		assert.Equal(t, testStart, *canceled.CancelsAt)
		assert.Nil(t, canceled.CanceledAt)
		assert.Equal(t, originalEnd, canceled.EndsAt, "period end untouched")
		assert.True(t, canceled.IsActiveAt(f.clock.Now()))
	})

	t.Run("immediate cancellation ends access now", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		canceled, err := f.svc.Cancel(ctx, sub.ID, true)
		require.NoError(t, err)

		require.NotNil(t, canceled.CanceledAt)
		assert.Equal(t, testStart, *canceled.CanceledAt)
		assert.Equal(t, testStart, canceled.EndsAt)
		assert.False(t, canceled.IsActiveAt(f.clock.Now()))
	})

	t.Run("emits cancellation event", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, sub.ID, false)
		require.NoError(t, err)

		require.Len(t, *f.events, 1)
		event := (*f.events)[0]
		assert.Equal(t, subscription.EventSubscriptionCanceled, event.Type)
		assert.Equal(t, sub.ID, event.Subscription.ID)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		_, err := f.svc.Cancel(ctx, uuid.New(), false)
		require.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})
}

func TestService_ChangePlan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("same cadence keeps period and usage", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)
		originalStart := sub.StartsAt
		originalEnd := sub.EndsAt

		_, err = f.svc.RecordFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("api-calls"), 5, true)
		require.NoError(t, err)

		changed, err := f.svc.ChangePlan(ctx, sub.ID, catalog.PlanBySlug("pro-plus"))
		require.NoError(t, err)

		assert.Equal(t, f.proPlus.ID, changed.PlanID)
		assert.Equal(t, originalStart, changed.StartsAt)
		assert.Equal(t, originalEnd, changed.EndsAt)

		used, err := f.svc.FeatureConsumed(ctx, sub.ID, catalog.FeatureBySlug("api-calls"))
		require.NoError(t, err)
		assert.EqualValues(t, 5, used, "usage carries over within the same cadence")
	})

	t.Run("different cadence resets period and usage", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		_, err = f.svc.RecordFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("api-calls"), 5, true)
		require.NoError(t, err)

		f.clock.Advance(10 * 24 * time.Hour) // Jan 11

		changed, err := f.svc.ChangePlan(ctx, sub.ID, catalog.PlanBySlug("enterprise"))
		require.NoError(t, err)

		now := f.clock.Now()
		assert.Equal(t, f.enterprise.ID, changed.PlanID)
		assert.Equal(t, now, changed.StartsAt, "fresh cycle starts at the change")
		assert.Equal(t, now.AddDate(1, 0, 0), changed.EndsAt)

		used, err := f.svc.FeatureConsumed(ctx, sub.ID, catalog.FeatureBySlug("api-calls"))
		require.NoError(t, err)
		assert.Zero(t, used, "usage cleared on cadence change")
	})

	t.Run("emits plan change event with previous plan", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		_, err = f.svc.ChangePlan(ctx, sub.ID, catalog.PlanBySlug("pro-plus"))
		require.NoError(t, err)

		require.Len(t, *f.events, 1)
		event := (*f.events)[0]
		assert.Equal(t, subscription.EventSubscriptionPlanChanged, event.Type)
		assert.Equal(t, f.basic.ID, event.PreviousPlanID)
	})

	t.Run("unknown plan leaves subscription untouched", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		_, err = f.svc.ChangePlan(ctx, sub.ID, catalog.PlanBySlug("no-such"))
		require.ErrorIs(t, err, catalog.ErrPlanNotFound)

		got, err := f.svc.GetSubscription(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, f.basic.ID, got.PlanID)
	})
}

func TestService_Renew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("fresh cycle clears usage and lifts cancellation", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		_, err = f.svc.RecordFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("api-calls"), 7, true)
		require.NoError(t, err)

		f.clock.Set(time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC))

		renewed, err := f.svc.Renew(ctx, sub.ID)
		require.NoError(t, err)

		now := f.clock.Now()
		assert.Equal(t, now, renewed.StartsAt)
		assert.Equal(t, now.AddDate(0, 1, 0), renewed.EndsAt)
		assert.Nil(t, renewed.CanceledAt)

		used, err := f.svc.FeatureConsumed(ctx, sub.ID, catalog.FeatureBySlug("api-calls"))
		require.NoError(t, err)
		assert.Zero(t, used)
	})

	t.Run("renew after period end works when not canceled", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		f.clock.Set(sub.EndsAt.Add(24 * time.Hour))

		renewed, err := f.svc.Renew(ctx, sub.ID)
		require.NoError(t, err)
		assert.True(t, renewed.IsActiveAt(f.clock.Now()))
	})

	t.Run("ended and canceled cannot renew", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, sub.ID, true)
		require.NoError(t, err)

		_, err = f.svc.Renew(ctx, sub.ID)
		require.ErrorIs(t, err, subscription.ErrCannotRenew)

		got, err := f.svc.GetSubscription(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, testStart, got.EndsAt, "failed renew mutates nothing")
		require.NotNil(t, got.CanceledAt)
	})

	t.Run("emits renewal event", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		_, err = f.svc.Renew(ctx, sub.ID)
		require.NoError(t, err)

		require.Len(t, *f.events, 1)
		assert.Equal(t, subscription.EventSubscriptionRenewed, (*f.events)[0].Type)
	})
}

func TestService_Queries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("subscribed", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)
		owner := subscriber()

		assert.False(t, f.svc.Subscribed(ctx, owner, "main"))

		sub, err := f.svc.Subscribe(ctx, owner, "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)
		assert.True(t, f.svc.Subscribed(ctx, owner, "main"))

		_, err = f.svc.Cancel(ctx, sub.ID, true)
		require.NoError(t, err)
		assert.False(t, f.svc.Subscribed(ctx, owner, "main"))
	})

	t.Run("subscribed to a specific plan", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)
		owner := subscriber()

		_, err := f.svc.Subscribe(ctx, owner, "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		assert.True(t, f.svc.SubscribedTo(ctx, owner, "main", catalog.PlanBySlug("basic")))
		assert.False(t, f.svc.SubscribedTo(ctx, owner, "main", catalog.PlanBySlug("pro")))
		assert.False(t, f.svc.SubscribedTo(ctx, owner, "main", catalog.PlanBySlug("no-such")))
	})

	t.Run("get by name", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)
		owner := subscriber()

		created, err := f.svc.Subscribe(ctx, owner, "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		got, err := f.svc.GetSubscriptionByName(ctx, owner, "main")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)

		_, err = f.svc.GetSubscriptionByName(ctx, owner, "other")
		require.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})
}

func TestService_FeatureUsage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("incremental and absolute recording", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		rec, err := f.svc.RecordFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("api-calls"), 3, true)
		require.NoError(t, err)
		assert.EqualValues(t, 3, rec.Used)
		require.NotNil(t, rec.ValidUntil)
		assert.Equal(t, testStart.AddDate(0, 1, 0), *rec.ValidUntil,
			"reset boundary anchored at subscription creation")

		rec, err = f.svc.RecordFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("api-calls"), 2, true)
		require.NoError(t, err)
		assert.EqualValues(t, 5, rec.Used)

		rec, err = f.svc.RecordFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("api-calls"), 8, false)
		require.NoError(t, err)
		assert.EqualValues(t, 8, rec.Used, "absolute write overwrites")
	})

	t.Run("reduce clamps at zero", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		_, err = f.svc.RecordFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("api-calls"), 6, true)
		require.NoError(t, err)

		rec, err := f.svc.ReduceFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("api-calls"), 2)
		require.NoError(t, err)
		assert.EqualValues(t, 4, rec.Used)

		rec, err = f.svc.ReduceFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("api-calls"), 100)
		require.NoError(t, err)
		assert.Zero(t, rec.Used)
	})

	t.Run("usage rolls over past the reset boundary", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		_, err = f.svc.RecordFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("api-calls"), 3, true)
		require.NoError(t, err)

		f.clock.Set(time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC))

		rec, err := f.svc.RecordFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("api-calls"), 4, true)
		require.NoError(t, err)
		assert.EqualValues(t, 4, rec.Used, "window reset before the new write")
		require.NotNil(t, rec.ValidUntil)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *rec.ValidUntil,
			"boundary advances from the previous boundary, not from now")
	})

	t.Run("remaining and can-use", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		remaining, err := f.svc.FeatureRemaining(ctx, sub.ID, catalog.FeatureBySlug("api-calls"))
		require.NoError(t, err)
		assert.EqualValues(t, 10, remaining)
		assert.True(t, f.svc.CanUseFeature(ctx, sub.ID, catalog.FeatureBySlug("api-calls")))

		_, err = f.svc.RecordFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("api-calls"), 10, true)
		require.NoError(t, err)

		remaining, err = f.svc.FeatureRemaining(ctx, sub.ID, catalog.FeatureBySlug("api-calls"))
		require.NoError(t, err)
		assert.Zero(t, remaining)
		assert.False(t, f.svc.CanUseFeature(ctx, sub.ID, catalog.FeatureBySlug("api-calls")))
	})

	t.Run("value and enabled flags", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("pro"))
		require.NoError(t, err)

		value, ok := f.svc.FeatureValue(ctx, sub.ID, catalog.FeatureBySlug("sso"))
		require.True(t, ok)
		assert.Equal(t, "Y", value)
		assert.True(t, f.svc.FeatureEnabled(ctx, sub.ID, catalog.FeatureBySlug("sso")))

		value, ok = f.svc.FeatureValue(ctx, sub.ID, catalog.FeatureBySlug("api-calls"))
		require.True(t, ok)
		assert.Equal(t, "100", value)
		assert.False(t, f.svc.FeatureEnabled(ctx, sub.ID, catalog.FeatureBySlug("api-calls")),
			"numeric quotas are not boolean grants")

		_, ok = f.svc.FeatureValue(ctx, sub.ID, catalog.FeatureBySlug("no-such"))
		assert.False(t, ok)
		assert.False(t, f.svc.FeatureEnabled(ctx, uuid.New(), catalog.FeatureBySlug("sso")),
			"unknown subscription fails closed")
	})

	t.Run("unknown feature", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		_, err = f.svc.RecordFeatureUsage(ctx, sub.ID, catalog.FeatureBySlug("no-such"), 1, true)
		require.ErrorIs(t, err, catalog.ErrFeatureNotFound)

		assert.False(t, f.svc.CanUseFeature(ctx, sub.ID, catalog.FeatureBySlug("no-such")))
	})
}

func TestService_SchedulerSweeps(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("ending trial", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("pro"))
		require.NoError(t, err)

		// Trial ends in 7 days: outside a 1-day window, inside 8 days.
		found, err := f.svc.FindEndingTrial(ctx, 24*time.Hour)
		require.NoError(t, err)
		assert.Empty(t, found)

		found, err = f.svc.FindEndingTrial(ctx, 8*24*time.Hour)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, sub.ID, found[0].ID)
	})

	t.Run("ended trial", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("pro"))
		require.NoError(t, err)

		found, err := f.svc.FindEndedTrial(ctx)
		require.NoError(t, err)
		assert.Empty(t, found)

		f.clock.Set(sub.TrialEndsAt.Add(time.Hour))

		found, err = f.svc.FindEndedTrial(ctx)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, sub.ID, found[0].ID)
	})

	t.Run("ending and ended period", func(t *testing.T) {
		t.Parallel()
		f := newFixtures(t)

		sub, err := f.svc.Subscribe(ctx, subscriber(), "main", catalog.PlanBySlug("basic"))
		require.NoError(t, err)

		found, err := f.svc.FindEndingPeriod(ctx, 72*time.Hour)
		require.NoError(t, err)
		assert.Empty(t, found)

		f.clock.Set(sub.EndsAt.Add(-48 * time.Hour))

		found, err = f.svc.FindEndingPeriod(ctx, 72*time.Hour)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, sub.ID, found[0].ID)

		f.clock.Set(sub.EndsAt.Add(time.Hour))

		found, err = f.svc.FindEndedPeriod(ctx)
		require.NoError(t, err)
		require.Len(t, found, 1)
	})
}
