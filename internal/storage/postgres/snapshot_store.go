package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// Rows are keyed by (account, profile, ab_test, granularity, bucket_start);
// nullable dimensions are stored as 0 in the key columns so the unique
// index covers account-level rollups too.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `
	dating_account_id, profile_id, ab_test_id, granularity, bucket_start, bucket_end,
	total_swipes, right_swipes, left_swipes, super_swipes, matches_count,
	match_rate, avg_ai_score, message_response_rate, is_final, created_at
`

func keyDim(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func dimPtr(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

// Upsert writes a snapshot row, overwriting any existing row for the same
// key. Finalization is idempotent, so last-writer-wins is safe.
func (s *SnapshotStore) Upsert(ctx context.Context, snap *domain.AnalyticsSnapshot) error {
	if snap.DatingAccountID == 0 || !snap.Granularity.IsValid() || snap.BucketEnd <= snap.BucketStart {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO analytics_snapshots (
			dating_account_id, profile_id, ab_test_id, granularity, bucket_start, bucket_end,
			total_swipes, right_swipes, left_swipes, super_swipes, matches_count,
			match_rate, avg_ai_score, message_response_rate, is_final
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (dating_account_id, profile_id, ab_test_id, granularity, bucket_start)
		DO UPDATE SET
			bucket_end = EXCLUDED.bucket_end,
			total_swipes = EXCLUDED.total_swipes,
			right_swipes = EXCLUDED.right_swipes,
			left_swipes = EXCLUDED.left_swipes,
			super_swipes = EXCLUDED.super_swipes,
			matches_count = EXCLUDED.matches_count,
			match_rate = EXCLUDED.match_rate,
			avg_ai_score = EXCLUDED.avg_ai_score,
			message_response_rate = EXCLUDED.message_response_rate,
			is_final = EXCLUDED.is_final
	`

	_, err := s.pool.Exec(ctx, query,
		snap.DatingAccountID,
		keyDim(snap.ProfileID),
		keyDim(snap.ABTestID),
		snap.Granularity,
		snap.BucketStart,
		snap.BucketEnd,
		snap.TotalSwipes,
		snap.RightSwipes,
		snap.LeftSwipes,
		snap.SuperSwipes,
		snap.MatchesCount,
		snap.MatchRate,
		snap.AvgAIScore,
		snap.MessageResponseRate,
		snap.Final,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Get retrieves one snapshot row. Returns ErrNotFound if not exists.
func (s *SnapshotStore) Get(ctx context.Context, accountID int64, profileID, abTestID *int64, g domain.Granularity, bucketStart int64) (*domain.AnalyticsSnapshot, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM analytics_snapshots
		WHERE dating_account_id = $1 AND profile_id = $2 AND ab_test_id = $3
		  AND granularity = $4 AND bucket_start = $5
	`, snapshotColumns)

	rows, err := s.pool.Query(ctx, query, accountID, keyDim(profileID), keyDim(abTestID), g, bucketStart)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	defer rows.Close()

	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, storage.ErrNotFound
	}
	return snaps[0], nil
}

// GetRecent retrieves the most recent finalized account-level snapshots,
// newest bucket first.
func (s *SnapshotStore) GetRecent(ctx context.Context, accountID int64, g domain.Granularity, limit int) ([]*domain.AnalyticsSnapshot, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM analytics_snapshots
		WHERE dating_account_id = $1 AND profile_id = 0 AND ab_test_id = 0
		  AND granularity = $2 AND is_final
		ORDER BY bucket_start DESC
		LIMIT $3
	`, snapshotColumns)

	rows, err := s.pool.Query(ctx, query, accountID, g, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// scanSnapshots scans multiple rows into a slice of AnalyticsSnapshot.
func scanSnapshots(rows pgx.Rows) ([]*domain.AnalyticsSnapshot, error) {
	var snaps []*domain.AnalyticsSnapshot

	for rows.Next() {
		var snap domain.AnalyticsSnapshot
		var profileID, abTestID int64

		err := rows.Scan(
			&snap.DatingAccountID,
			&profileID,
			&abTestID,
			&snap.Granularity,
			&snap.BucketStart,
			&snap.BucketEnd,
			&snap.TotalSwipes,
			&snap.RightSwipes,
			&snap.LeftSwipes,
			&snap.SuperSwipes,
			&snap.MatchesCount,
			&snap.MatchRate,
			&snap.AvgAIScore,
			&snap.MessageResponseRate,
			&snap.Final,
			&snap.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snap.ProfileID = dimPtr(profileID)
		snap.ABTestID = dimPtr(abTestID)
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snaps, nil
}
