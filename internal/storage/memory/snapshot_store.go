package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
// Upsert is last-writer-wins: finalization is idempotent, so concurrent
// builder runs for the same bucket converge on identical rows.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AnalyticsSnapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.AnalyticsSnapshot),
	}
}

// snapshotKey generates a unique key for a snapshot row.
func snapshotKey(accountID int64, profileID, abTestID *int64, g domain.Granularity, bucketStart int64) string {
	pid := int64(0)
	if profileID != nil {
		pid = *profileID
	}
	tid := int64(0)
	if abTestID != nil {
		tid = *abTestID
	}
	return fmt.Sprintf("%d|%d|%d|%s|%d", accountID, pid, tid, g, bucketStart)
}

// Upsert writes a snapshot row, overwriting any existing row for the same key.
func (s *SnapshotStore) Upsert(_ context.Context, snap *domain.AnalyticsSnapshot) error {
	if snap == nil || snap.DatingAccountID == 0 || !snap.Granularity.IsValid() {
		return storage.ErrInvalidInput
	}
	if snap.BucketEnd <= snap.BucketStart {
		return storage.ErrInvalidInput
	}

	key := snapshotKey(snap.DatingAccountID, snap.ProfileID, snap.ABTestID, snap.Granularity, snap.BucketStart)

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *snap
	s.data[key] = &copy
	return nil
}

// Get retrieves one snapshot row. Returns ErrNotFound if not exists.
func (s *SnapshotStore) Get(_ context.Context, accountID int64, profileID, abTestID *int64, g domain.Granularity, bucketStart int64) (*domain.AnalyticsSnapshot, error) {
	key := snapshotKey(accountID, profileID, abTestID, g, bucketStart)

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, exists := s.data[key]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *snap
	return &copy, nil
}

// GetRecent retrieves the most recent finalized account-level snapshots,
// newest bucket first.
func (s *SnapshotStore) GetRecent(_ context.Context, accountID int64, g domain.Granularity, limit int) ([]*domain.AnalyticsSnapshot, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AnalyticsSnapshot
	for _, snap := range s.data {
		if snap.DatingAccountID == accountID && snap.Granularity == g &&
			snap.ProfileID == nil && snap.ABTestID == nil && snap.Final {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BucketStart > result[j].BucketStart
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
