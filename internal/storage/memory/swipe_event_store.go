package memory

import (
	"context"
	"sort"
	"sync"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

// SwipeEventStore is an in-memory implementation of storage.SwipeEventStore.
// Events are sharded by account so concurrent appends from independent
// accounts never contend on the same lock.
type SwipeEventStore struct {
	mu       sync.RWMutex
	accounts map[int64]*accountShard
}

type accountShard struct {
	mu   sync.RWMutex
	data map[string]*domain.SwipeEvent // keyed by event_id
}

// NewSwipeEventStore creates a new in-memory swipe event store.
func NewSwipeEventStore() *SwipeEventStore {
	return &SwipeEventStore{
		accounts: make(map[int64]*accountShard),
	}
}

func (s *SwipeEventStore) shard(accountID int64) *accountShard {
	s.mu.RLock()
	sh, ok := s.accounts[accountID]
	s.mu.RUnlock()
	if ok {
		return sh
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sh, ok = s.accounts[accountID]; ok {
		return sh
	}
	sh = &accountShard{data: make(map[string]*domain.SwipeEvent)}
	s.accounts[accountID] = sh
	return sh
}

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *SwipeEventStore) Insert(_ context.Context, e *domain.SwipeEvent) error {
	if e == nil || e.EventID == "" || e.DatingAccountID == 0 {
		return storage.ErrInvalidInput
	}

	sh := s.shard(e.DatingAccountID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.data[e.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *e
	sh.data[e.EventID] = &copy
	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
// All events in a batch must belong to the same account.
func (s *SwipeEventStore) InsertBulk(_ context.Context, events []*domain.SwipeEvent) error {
	if len(events) == 0 {
		return nil
	}

	accountID := events[0].DatingAccountID
	for _, e := range events {
		if e == nil || e.EventID == "" || e.DatingAccountID == 0 {
			return storage.ErrInvalidInput
		}
		if e.DatingAccountID != accountID {
			return storage.ErrInvalidInput
		}
	}

	sh := s.shard(accountID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	// First pass: check duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(events))
	for _, e := range events {
		if _, exists := sh.data[e.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[e.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[e.EventID] = struct{}{}
	}

	// Second pass: insert all
	for _, e := range events {
		copy := *e
		sh.data[e.EventID] = &copy
	}

	return nil
}

// Query retrieves events matching the filter, ordered by (swiped_at, event_id) ASC.
func (s *SwipeEventStore) Query(_ context.Context, f storage.EventFilter) ([]*domain.SwipeEvent, error) {
	if f.AccountID == 0 {
		return nil, storage.ErrInvalidInput
	}

	sh := s.shard(f.AccountID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	var result []*domain.SwipeEvent
	for _, e := range sh.data {
		if f.Matches(e) {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortEventsAsc(result)
	return result, nil
}

// Count returns the number of events matching the filter.
func (s *SwipeEventStore) Count(_ context.Context, f storage.EventFilter) (int64, error) {
	if f.AccountID == 0 {
		return 0, storage.ErrInvalidInput
	}

	sh := s.shard(f.AccountID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	var n int64
	for _, e := range sh.data {
		if f.Matches(e) {
			n++
		}
	}
	return n, nil
}

// GetRecent retrieves the most recent events for an account, newest first.
func (s *SwipeEventStore) GetRecent(_ context.Context, accountID int64, limit int) ([]*domain.SwipeEvent, error) {
	if accountID == 0 {
		return nil, storage.ErrInvalidInput
	}
	if limit <= 0 {
		return nil, nil
	}

	sh := s.shard(accountID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	result := make([]*domain.SwipeEvent, 0, len(sh.data))
	for _, e := range sh.data {
		copy := *e
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].SwipedAt != result[j].SwipedAt {
			return result[i].SwipedAt > result[j].SwipedAt
		}
		return result[i].EventID > result[j].EventID
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func sortEventsAsc(events []*domain.SwipeEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].SwipedAt != events[j].SwipedAt {
			return events[i].SwipedAt < events[j].SwipedAt
		}
		return events[i].EventID < events[j].EventID
	})
}

var _ storage.SwipeEventStore = (*SwipeEventStore)(nil)
