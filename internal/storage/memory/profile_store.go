package memory

import (
	"context"
	"sort"
	"sync"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

// ProfileStore is an in-memory implementation of storage.ProfileStore.
type ProfileStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.Profile
}

// NewProfileStore creates a new in-memory profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		data: make(map[int64]*domain.Profile),
	}
}

// Insert adds a new profile. Returns ErrDuplicateKey if profile_id exists.
func (s *ProfileStore) Insert(_ context.Context, p *domain.Profile) error {
	if p == nil || p.ProfileID == 0 || p.DatingAccountID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ProfileID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *p
	s.data[p.ProfileID] = &copy
	return nil
}

// GetByID retrieves a profile by its ID. Returns ErrNotFound if not exists.
func (s *ProfileStore) GetByID(_ context.Context, profileID int64) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[profileID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

// GetActiveByAccount retrieves active profiles for an account, ordered by profile_id ASC.
func (s *ProfileStore) GetActiveByAccount(_ context.Context, accountID int64) ([]*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Profile
	for _, p := range s.data {
		if p.DatingAccountID == accountID && p.IsActive {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ProfileID < result[j].ProfileID
	})
	return result, nil
}

// CountActiveByAccount returns the number of active profiles for an account.
func (s *ProfileStore) CountActiveByAccount(ctx context.Context, accountID int64) (int, error) {
	profiles, err := s.GetActiveByAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return len(profiles), nil
}

// ListAccountIDs returns the distinct account ids that own at least one
// profile, ordered ASC.
func (s *ProfileStore) ListAccountIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]bool)
	var ids []int64
	for _, p := range s.data {
		if !seen[p.DatingAccountID] {
			seen[p.DatingAccountID] = true
			ids = append(ids, p.DatingAccountID)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

var _ storage.ProfileStore = (*ProfileStore)(nil)
