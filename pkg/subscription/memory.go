package subscription

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/subkit/subkit/pkg/usage"
)

type nameKey struct {
	subscriberType string
	subscriberID   uuid.UUID
	name           string
}

type usageKey struct {
	subscriptionID uuid.UUID
	featureID      uuid.UUID
}

// memState holds the raw maps without locking; memoryStore and its
// transaction views layer synchronization on top.
type memState struct {
	subs   map[uuid.UUID]Subscription
	byName map[nameKey]uuid.UUID
	usages map[usageKey]usage.Record
}

func newMemState() *memState {
	return &memState{
		subs:   make(map[uuid.UUID]Subscription),
		byName: make(map[nameKey]uuid.UUID),
		usages: make(map[usageKey]usage.Record),
	}
}

func (st *memState) clone() *memState {
	return &memState{
		subs:   maps.Clone(st.subs),
		byName: maps.Clone(st.byName),
		usages: maps.Clone(st.usages),
	}
}

func keyFor(sub *Subscription) nameKey {
	return nameKey{
		subscriberType: sub.Subscriber.Type,
		subscriberID:   sub.Subscriber.ID,
		name:           sub.Name,
	}
}

func (st *memState) getSubscription(id uuid.UUID) (*Subscription, error) {
	sub, ok := st.subs[id]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (st *memState) getSubscriptionByName(subscriber SubscriberRef, name string) (*Subscription, error) {
	id, ok := st.byName[nameKey{subscriber.Type, subscriber.ID, name}]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	sub := st.subs[id]
	return &sub, nil
}

func (st *memState) saveSubscription(sub *Subscription, now time.Time) error {
	key := keyFor(sub)
	if existingID, ok := st.byName[key]; ok && existingID != sub.ID {
		existing := st.subs[existingID]
		if existing.IsActiveAt(now) {
			return ErrSubscriptionAlreadyExists
		}
	}
	st.subs[sub.ID] = *sub
	st.byName[key] = sub.ID
	return nil
}

func (st *memState) deleteSubscription(id uuid.UUID) error {
	sub, ok := st.subs[id]
	if !ok {
		return ErrSubscriptionNotFound
	}
	delete(st.subs, id)
	delete(st.byName, keyFor(&sub))
	st.deleteUsages(id)
	return nil
}

func (st *memState) findUsage(subscriptionID, featureID uuid.UUID) (*usage.Record, error) {
	rec, ok := st.usages[usageKey{subscriptionID, featureID}]
	if !ok {
		return nil, usage.ErrUsageNotFound
	}
	return &rec, nil
}

func (st *memState) saveUsage(rec *usage.Record) {
	st.usages[usageKey{rec.SubscriptionID, rec.FeatureID}] = *rec
}

func (st *memState) deleteUsages(subscriptionID uuid.UUID) {
	for key := range st.usages {
		if key.subscriptionID == subscriptionID {
			delete(st.usages, key)
		}
	}
}

func (st *memState) selectSubs(match func(Subscription) bool) []Subscription {
	var out []Subscription
	for _, sub := range st.subs {
		if match(sub) {
			out = append(out, sub)
		}
	}
	return out
}

// memoryStore is an in-memory Store guarded by a mutex. Transactions
// take the write lock for their whole scope and roll back by restoring
// a snapshot, which gives the same single-writer-per-subscription
// guarantees a database store provides with row locks.
type memoryStore struct {
	mu    sync.RWMutex
	state *memState
}

// NewMemoryStore returns an empty in-memory Store. It backs tests and
// single-process setups; production deployments use pgstore.
func NewMemoryStore() Store {
	return &memoryStore{state: newMemState()}
}

func (s *memoryStore) GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.getSubscription(id)
}

func (s *memoryStore) GetSubscriptionByName(ctx context.Context, subscriber SubscriberRef, name string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.getSubscriptionByName(subscriber, name)
}

func (s *memoryStore) SaveSubscription(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.saveSubscription(sub, time.Now().UTC())
}

func (s *memoryStore) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.deleteSubscription(id)
}

func (s *memoryStore) Find(ctx context.Context, subscriptionID, featureID uuid.UUID) (*usage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.findUsage(subscriptionID, featureID)
}

func (s *memoryStore) Save(ctx context.Context, rec *usage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.saveUsage(rec)
	return nil
}

func (s *memoryStore) DeleteBySubscription(ctx context.Context, subscriptionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.deleteUsages(subscriptionID)
	return nil
}

func (s *memoryStore) FindEndingTrial(ctx context.Context, from, to time.Time) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.selectSubs(func(sub Subscription) bool {
		return sub.TrialEndsAt != nil && !sub.TrialEndsAt.Before(from) && !sub.TrialEndsAt.After(to)
	}), nil
}

func (s *memoryStore) FindEndedTrial(ctx context.Context, at time.Time) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.selectSubs(func(sub Subscription) bool {
		return sub.TrialEndsAt != nil && !sub.TrialEndsAt.After(at)
	}), nil
}

func (s *memoryStore) FindEndingPeriod(ctx context.Context, from, to time.Time) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.selectSubs(func(sub Subscription) bool {
		return !sub.EndsAt.IsZero() && !sub.EndsAt.Before(from) && !sub.EndsAt.After(to)
	}), nil
}

func (s *memoryStore) FindEndedPeriod(ctx context.Context, at time.Time) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.selectSubs(func(sub Subscription) bool {
		return !sub.EndsAt.IsZero() && !sub.EndsAt.After(at)
	}), nil
}

// RunInTransaction holds the write lock for the whole callback and
// restores a snapshot of the state when the callback fails, so partial
// writes never become visible.
func (s *memoryStore) RunInTransaction(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&txStore{state: s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// txStore is the transaction-scoped view handed to RunInTransaction
// callbacks. The owning store already holds the write lock, so methods
// hit the state directly; a nested RunInTransaction joins the ambient
// transaction.
type txStore struct {
	state *memState
}

func (t *txStore) GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return t.state.getSubscription(id)
}

func (t *txStore) GetSubscriptionByName(ctx context.Context, subscriber SubscriberRef, name string) (*Subscription, error) {
	return t.state.getSubscriptionByName(subscriber, name)
}

func (t *txStore) SaveSubscription(ctx context.Context, sub *Subscription) error {
	return t.state.saveSubscription(sub, time.Now().UTC())
}

func (t *txStore) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	return t.state.deleteSubscription(id)
}

func (t *txStore) Find(ctx context.Context, subscriptionID, featureID uuid.UUID) (*usage.Record, error) {
	return t.state.findUsage(subscriptionID, featureID)
}

func (t *txStore) Save(ctx context.Context, rec *usage.Record) error {
	t.state.saveUsage(rec)
	return nil
}

func (t *txStore) DeleteBySubscription(ctx context.Context, subscriptionID uuid.UUID) error {
	t.state.deleteUsages(subscriptionID)
	return nil
}

func (t *txStore) FindEndingTrial(ctx context.Context, from, to time.Time) ([]Subscription, error) {
	return t.state.selectSubs(func(sub Subscription) bool {
		return sub.TrialEndsAt != nil && !sub.TrialEndsAt.Before(from) && !sub.TrialEndsAt.After(to)
	}), nil
}

func (t *txStore) FindEndedTrial(ctx context.Context, at time.Time) ([]Subscription, error) {
	return t.state.selectSubs(func(sub Subscription) bool {
		return sub.TrialEndsAt != nil && !sub.TrialEndsAt.After(at)
	}), nil
}

func (t *txStore) FindEndingPeriod(ctx context.Context, from, to time.Time) ([]Subscription, error) {
	return t.state.selectSubs(func(sub Subscription) bool {
		return !sub.EndsAt.IsZero() && !sub.EndsAt.Before(from) && !sub.EndsAt.After(to)
	}), nil
}

func (t *txStore) FindEndedPeriod(ctx context.Context, at time.Time) ([]Subscription, error) {
	return t.state.selectSubs(func(sub Subscription) bool {
		return !sub.EndsAt.IsZero() && !sub.EndsAt.After(at)
	}), nil
}

func (t *txStore) RunInTransaction(ctx context.Context, fn func(Store) error) error {
	return fn(t)
}
