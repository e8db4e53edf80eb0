package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

// SwipeEventStore implements storage.SwipeEventStore using PostgreSQL.
type SwipeEventStore struct {
	pool *Pool
}

// NewSwipeEventStore creates a new SwipeEventStore.
func NewSwipeEventStore(pool *Pool) *SwipeEventStore {
	return &SwipeEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwipeEventStore = (*SwipeEventStore)(nil)

const swipeEventColumns = `
	event_id, dating_account_id, profile_id, ab_test_id,
	target_name, target_age, target_bio, target_distance,
	direction, is_match, ai_score, decision_reason, swiped_at, created_at
`

const insertSwipeEventQuery = `
	INSERT INTO swipe_events (
		event_id, dating_account_id, profile_id, ab_test_id,
		target_name, target_age, target_bio, target_distance,
		direction, is_match, ai_score, decision_reason, swiped_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *SwipeEventStore) Insert(ctx context.Context, e *domain.SwipeEvent) error {
	_, err := s.pool.Exec(ctx, insertSwipeEventQuery,
		e.EventID,
		e.DatingAccountID,
		e.ProfileID,
		e.ABTestID,
		e.TargetName,
		e.TargetAge,
		e.TargetBio,
		e.TargetDistance,
		e.Direction,
		e.IsMatch,
		e.AIScore,
		e.DecisionReason,
		e.SwipedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert swipe event: %w", err)
	}
	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *SwipeEventStore) InsertBulk(ctx context.Context, events []*domain.SwipeEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range events {
		_, err := tx.Exec(ctx, insertSwipeEventQuery,
			e.EventID,
			e.DatingAccountID,
			e.ProfileID,
			e.ABTestID,
			e.TargetName,
			e.TargetAge,
			e.TargetBio,
			e.TargetDistance,
			e.Direction,
			e.IsMatch,
			e.AIScore,
			e.DecisionReason,
			e.SwipedAt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert swipe event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// filterClause builds the WHERE clause and args for an EventFilter.
func filterClause(f storage.EventFilter) (string, []any) {
	conds := []string{"dating_account_id = $1"}
	args := []any{f.AccountID}

	if f.ProfileID != nil {
		args = append(args, *f.ProfileID)
		conds = append(conds, fmt.Sprintf("profile_id = $%d", len(args)))
	}
	if f.ABTestID != nil {
		args = append(args, *f.ABTestID)
		conds = append(conds, fmt.Sprintf("ab_test_id = $%d", len(args)))
	}
	if f.Since != nil {
		args = append(args, *f.Since)
		conds = append(conds, fmt.Sprintf("swiped_at >= $%d", len(args)))
	}
	if f.Until != nil {
		args = append(args, *f.Until)
		conds = append(conds, fmt.Sprintf("swiped_at < $%d", len(args)))
	}

	return strings.Join(conds, " AND "), args
}

// Query retrieves events matching the filter, ordered by (swiped_at, event_id) ASC.
func (s *SwipeEventStore) Query(ctx context.Context, f storage.EventFilter) ([]*domain.SwipeEvent, error) {
	if f.AccountID == 0 {
		return nil, storage.ErrInvalidInput
	}

	where, args := filterClause(f)
	query := fmt.Sprintf(`
		SELECT %s
		FROM swipe_events
		WHERE %s
		ORDER BY swiped_at ASC, event_id ASC
	`, swipeEventColumns, where)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query swipe events: %w", err)
	}
	defer rows.Close()

	return scanSwipeEvents(rows)
}

// Count returns the number of events matching the filter.
func (s *SwipeEventStore) Count(ctx context.Context, f storage.EventFilter) (int64, error) {
	if f.AccountID == 0 {
		return 0, storage.ErrInvalidInput
	}

	where, args := filterClause(f)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM swipe_events WHERE %s`, where)

	var n int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count swipe events: %w", err)
	}
	return n, nil
}

// GetRecent retrieves the most recent events for an account, newest first.
func (s *SwipeEventStore) GetRecent(ctx context.Context, accountID int64, limit int) ([]*domain.SwipeEvent, error) {
	if accountID == 0 {
		return nil, storage.ErrInvalidInput
	}
	if limit <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM swipe_events
		WHERE dating_account_id = $1
		ORDER BY swiped_at DESC, event_id DESC
		LIMIT $2
	`, swipeEventColumns)

	rows, err := s.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent swipe events: %w", err)
	}
	defer rows.Close()

	return scanSwipeEvents(rows)
}

// scanSwipeEvents scans multiple rows into a slice of SwipeEvent.
func scanSwipeEvents(rows pgx.Rows) ([]*domain.SwipeEvent, error) {
	var events []*domain.SwipeEvent

	for rows.Next() {
		var e domain.SwipeEvent

		err := rows.Scan(
			&e.EventID,
			&e.DatingAccountID,
			&e.ProfileID,
			&e.ABTestID,
			&e.TargetName,
			&e.TargetAge,
			&e.TargetBio,
			&e.TargetDistance,
			&e.Direction,
			&e.IsMatch,
			&e.AIScore,
			&e.DecisionReason,
			&e.SwipedAt,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swipe event row: %w", err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swipe event rows: %w", err)
	}

	return events, nil
}
