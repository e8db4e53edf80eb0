package memory

import (
	"context"
	"sort"
	"sync"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

// ABTestStore is an in-memory implementation of storage.ABTestStore.
type ABTestStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.ABTest
}

// NewABTestStore creates a new in-memory A/B test store.
func NewABTestStore() *ABTestStore {
	return &ABTestStore{
		data: make(map[int64]*domain.ABTest),
	}
}

// Insert adds a new test. Returns ErrInvalidInput when the two variants are
// the same profile, ErrDuplicateKey if ab_test_id exists.
func (s *ABTestStore) Insert(_ context.Context, t *domain.ABTest) error {
	if t == nil || t.ABTestID == 0 || t.DatingAccountID == 0 {
		return storage.ErrInvalidInput
	}
	if t.ProfileAID == t.ProfileBID {
		return storage.ErrInvalidInput
	}
	if !t.Status.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ABTestID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	s.data[t.ABTestID] = &copy
	return nil
}

// GetByID retrieves a test by its ID. Returns ErrNotFound if not exists.
func (s *ABTestStore) GetByID(_ context.Context, abTestID int64) (*domain.ABTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[abTestID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *t
	return &copy, nil
}

// GetByAccount retrieves all tests for an account, ordered by start_date ASC.
func (s *ABTestStore) GetByAccount(_ context.Context, accountID int64) ([]*domain.ABTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ABTest
	for _, t := range s.data {
		if t.DatingAccountID == accountID {
			copy := *t
			result = append(result, &copy)
		}
	}

	sortTestsByStart(result)
	return result, nil
}

// GetRunningByAccount retrieves running tests for an account, ordered by start_date ASC.
func (s *ABTestStore) GetRunningByAccount(_ context.Context, accountID int64) ([]*domain.ABTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ABTest
	for _, t := range s.data {
		if t.DatingAccountID == accountID && t.Status == domain.ABTestStatusRunning {
			copy := *t
			result = append(result, &copy)
		}
	}

	sortTestsByStart(result)
	return result, nil
}

// UpdateStatus transitions a test's status. Terminal states are immutable.
func (s *ABTestStore) UpdateStatus(_ context.Context, abTestID int64, status domain.ABTestStatus, endDate *int64) error {
	if !status.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[abTestID]
	if !exists {
		return storage.ErrNotFound
	}
	if t.Status.IsTerminal() {
		return storage.ErrTerminalStatus
	}

	t.Status = status
	if endDate != nil {
		end := *endDate
		t.EndDate = &end
	}
	return nil
}

func sortTestsByStart(tests []*domain.ABTest) {
	sort.Slice(tests, func(i, j int) bool {
		if tests[i].StartDate != tests[j].StartDate {
			return tests[i].StartDate < tests[j].StartDate
		}
		return tests[i].ABTestID < tests[j].ABTestID
	})
}

var _ storage.ABTestStore = (*ABTestStore)(nil)
