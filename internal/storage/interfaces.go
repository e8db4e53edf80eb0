package storage

import (
	"context"

	"swipe-analytics-lab/internal/domain"
)

// EventFilter narrows a swipe event query. AccountID is required; the
// optional fields restrict further. The time range is half-open:
// Since <= SwipedAt < Until.
type EventFilter struct {
	AccountID int64
	ProfileID *int64
	ABTestID  *int64
	Since     *int64 // Unix ms, inclusive
	Until     *int64 // Unix ms, exclusive
}

// Matches reports whether an event satisfies the filter.
func (f EventFilter) Matches(e *domain.SwipeEvent) bool {
	if e.DatingAccountID != f.AccountID {
		return false
	}
	if f.ProfileID != nil && (e.ProfileID == nil || *e.ProfileID != *f.ProfileID) {
		return false
	}
	if f.ABTestID != nil && (e.ABTestID == nil || *e.ABTestID != *f.ABTestID) {
		return false
	}
	if f.Since != nil && e.SwipedAt < *f.Since {
		return false
	}
	if f.Until != nil && e.SwipedAt >= *f.Until {
		return false
	}
	return true
}

// SwipeEventStore provides access to the append-only swipe ledger.
type SwipeEventStore interface {
	// Insert adds a new event atomically. Returns ErrDuplicateKey if
	// event_id exists (a replayed fact is never double-counted).
	Insert(ctx context.Context, e *domain.SwipeEvent) error

	// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, events []*domain.SwipeEvent) error

	// Query retrieves events matching the filter, ordered by (swiped_at, event_id) ASC.
	Query(ctx context.Context, f EventFilter) ([]*domain.SwipeEvent, error)

	// Count returns the number of events matching the filter.
	Count(ctx context.Context, f EventFilter) (int64, error)

	// GetRecent retrieves the most recent events for an account,
	// ordered by (swiped_at, event_id) DESC, at most limit rows.
	GetRecent(ctx context.Context, accountID int64, limit int) ([]*domain.SwipeEvent, error)
}

// ProfileStore provides access to profile variant metadata.
// CRUD is owned by an external collaborator; the engine reads identity
// and activity and seeds rows in tests and memory mode.
type ProfileStore interface {
	// Insert adds a new profile. Returns ErrDuplicateKey if profile_id exists.
	Insert(ctx context.Context, p *domain.Profile) error

	// GetByID retrieves a profile. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, profileID int64) (*domain.Profile, error)

	// GetActiveByAccount retrieves active profiles for an account, ordered by profile_id ASC.
	GetActiveByAccount(ctx context.Context, accountID int64) ([]*domain.Profile, error)

	// CountActiveByAccount returns the number of active profiles for an account.
	CountActiveByAccount(ctx context.Context, accountID int64) (int, error)

	// ListAccountIDs returns the distinct account ids that own at least
	// one profile, ordered ASC. Used by schedulers to walk all accounts.
	ListAccountIDs(ctx context.Context) ([]int64, error)
}

// ABTestStore provides access to A/B test metadata.
type ABTestStore interface {
	// Insert adds a new test. Returns ErrInvalidInput when
	// profile_a_id == profile_b_id, ErrDuplicateKey if ab_test_id exists.
	Insert(ctx context.Context, t *domain.ABTest) error

	// GetByID retrieves a test. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, abTestID int64) (*domain.ABTest, error)

	// GetByAccount retrieves all tests for an account, ordered by start_date ASC.
	GetByAccount(ctx context.Context, accountID int64) ([]*domain.ABTest, error)

	// GetRunningByAccount retrieves running tests for an account, ordered by start_date ASC.
	GetRunningByAccount(ctx context.Context, accountID int64) ([]*domain.ABTest, error)

	// UpdateStatus transitions a test's status and sets end_date when the
	// new status is terminal. Returns ErrTerminalStatus when the current
	// status is already completed or cancelled.
	UpdateStatus(ctx context.Context, abTestID int64, status domain.ABTestStatus, endDate *int64) error
}

// SwipeArchiveStore provides access to the raw event archive used for
// heavy/offline analytics. The archive is append-only and deduplicates
// replayed event ids at merge time rather than at insert time.
type SwipeArchiveStore interface {
	// ArchiveBulk appends a batch of events tagged with an ingest batch id.
	ArchiveBulk(ctx context.Context, batchID string, events []*domain.SwipeEvent) error

	// CountByAccount returns distinct archived events for an account
	// within the half-open range [since, until).
	CountByAccount(ctx context.Context, accountID int64, since, until int64) (int64, error)

	// GetByTimeRange retrieves archived events for an account within
	// [since, until), ordered by (swiped_at, event_id) ASC.
	GetByTimeRange(ctx context.Context, accountID int64, since, until int64) ([]*domain.SwipeEvent, error)
}

// SnapshotStore provides access to materialized analytics rollups.
// Finalization is idempotent, so the write discipline is last-writer-wins.
type SnapshotStore interface {
	// Upsert writes a snapshot row, overwriting any existing row for the
	// same (account, profile, ab_test, granularity, bucket_start).
	Upsert(ctx context.Context, s *domain.AnalyticsSnapshot) error

	// Get retrieves one snapshot row. Returns ErrNotFound if not exists.
	Get(ctx context.Context, accountID int64, profileID, abTestID *int64, g domain.Granularity, bucketStart int64) (*domain.AnalyticsSnapshot, error)

	// GetRecent retrieves the most recent finalized account-level snapshots
	// for a granularity, ordered by bucket_start DESC, at most limit rows.
	GetRecent(ctx context.Context, accountID int64, g domain.Granularity, limit int) ([]*domain.AnalyticsSnapshot, error)
}
