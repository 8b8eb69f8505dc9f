package usage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type recordKey struct {
	subscriptionID uuid.UUID
	featureID      uuid.UUID
}

// memStore is an in-memory Store guarded by a RWMutex. Suits tests and
// single-process setups; production deployments use a database-backed
// store so counters survive restarts.
type memStore struct {
	mu      sync.RWMutex
	records map[recordKey]Record
}

// NewMemStore returns an empty in-memory usage store.
func NewMemStore() Store {
	return &memStore{
		records: make(map[recordKey]Record),
	}
}

func (s *memStore) Find(ctx context.Context, subscriptionID, featureID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordKey{subscriptionID, featureID}]
	if !ok {
		return nil, ErrUsageNotFound
	}
	return &rec, nil
}

func (s *memStore) Save(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[recordKey{record.SubscriptionID, record.FeatureID}] = *record
	return nil
}

func (s *memStore) DeleteBySubscription(ctx context.Context, subscriptionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.records {
		if key.subscriptionID == subscriptionID {
			delete(s.records, key)
		}
	}
	return nil
}
