package clickhouse

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

// SwipeArchiveStore implements storage.SwipeArchiveStore using ClickHouse.
// The archive keeps raw swipe facts for heavy/offline analytics; the
// ReplacingMergeTree engine deduplicates replayed event ids at merge
// time, so distinct counts go through count(DISTINCT event_id).
type SwipeArchiveStore struct {
	conn *Conn
}

// NewSwipeArchiveStore creates a new SwipeArchiveStore.
func NewSwipeArchiveStore(conn *Conn) *SwipeArchiveStore {
	return &SwipeArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SwipeArchiveStore = (*SwipeArchiveStore)(nil)

// ArchiveBulk appends a batch of events tagged with an ingest batch id.
func (s *SwipeArchiveStore) ArchiveBulk(ctx context.Context, batchID string, events []*domain.SwipeEvent) error {
	if len(events) == 0 {
		return nil
	}

	id, err := uuid.Parse(batchID)
	if err != nil {
		return fmt.Errorf("parse batch id: %w", storage.ErrInvalidInput)
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO swipe_event_archive (
			event_id, ingest_batch_id, dating_account_id, profile_id, ab_test_id,
			direction, is_match, ai_score, has_ai_score,
			target_age, target_distance, swiped_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		var profileID, abTestID int64
		if e.ProfileID != nil {
			profileID = *e.ProfileID
		}
		if e.ABTestID != nil {
			abTestID = *e.ABTestID
		}

		var aiScore float64
		var hasAIScore uint8
		if e.AIScore != nil {
			aiScore = *e.AIScore
			hasAIScore = 1
		}

		var isMatch uint8
		if e.IsMatch {
			isMatch = 1
		}

		err = batch.Append(
			e.EventID, id, e.DatingAccountID, profileID, abTestID,
			string(e.Direction), isMatch, aiScore, hasAIScore,
			int32(e.TargetAge), int32(e.TargetDistance), e.SwipedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// CountByAccount returns distinct archived events for an account within
// [since, until).
func (s *SwipeArchiveStore) CountByAccount(ctx context.Context, accountID int64, since, until int64) (int64, error) {
	query := `
		SELECT count(DISTINCT event_id) FROM swipe_event_archive
		WHERE dating_account_id = ? AND swiped_at >= ? AND swiped_at < ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, accountID, since, until).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count archived events: %w", err)
	}
	return int64(count), nil
}

// GetByTimeRange retrieves archived events for an account within
// [since, until), ordered by (swiped_at, event_id) ASC. Replayed rows
// not yet merged are collapsed with FINAL semantics via GROUP BY.
func (s *SwipeArchiveStore) GetByTimeRange(ctx context.Context, accountID int64, since, until int64) ([]*domain.SwipeEvent, error) {
	query := `
		SELECT
			event_id,
			any(dating_account_id),
			any(profile_id),
			any(ab_test_id),
			any(direction),
			any(is_match),
			any(ai_score),
			any(has_ai_score),
			any(target_age),
			any(target_distance),
			any(swiped_at) AS at
		FROM swipe_event_archive
		WHERE dating_account_id = ? AND swiped_at >= ? AND swiped_at < ?
		GROUP BY event_id
		ORDER BY at ASC, event_id ASC
	`

	rows, err := s.conn.Query(ctx, query, accountID, since, until)
	if err != nil {
		return nil, fmt.Errorf("query archive by time range: %w", err)
	}
	defer rows.Close()

	var events []*domain.SwipeEvent
	for rows.Next() {
		var e domain.SwipeEvent
		var profileID, abTestID int64
		var direction string
		var isMatch, hasAIScore uint8
		var aiScore float64
		var targetAge, targetDistance int32

		err := rows.Scan(
			&e.EventID, &e.DatingAccountID, &profileID, &abTestID,
			&direction, &isMatch, &aiScore, &hasAIScore,
			&targetAge, &targetDistance, &e.SwipedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}

		if profileID != 0 {
			e.ProfileID = &profileID
		}
		if abTestID != 0 {
			e.ABTestID = &abTestID
		}
		e.Direction = domain.Direction(direction)
		e.IsMatch = isMatch != 0
		if hasAIScore != 0 {
			score := aiScore
			e.AIScore = &score
		}
		e.TargetAge = int(targetAge)
		e.TargetDistance = int(targetDistance)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive rows: %w", err)
	}

	return events, nil
}
