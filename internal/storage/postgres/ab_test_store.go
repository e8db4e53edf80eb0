package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

// ABTestStore implements storage.ABTestStore using PostgreSQL.
type ABTestStore struct {
	pool *Pool
}

// NewABTestStore creates a new ABTestStore.
func NewABTestStore(pool *Pool) *ABTestStore {
	return &ABTestStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ABTestStore = (*ABTestStore)(nil)

const abTestColumns = `
	ab_test_id, dating_account_id, test_name, profile_a_id, profile_b_id,
	start_date, end_date, status, swipes_per_profile, created_at
`

// Insert adds a new test. Returns ErrInvalidInput when the two variants are
// the same profile, ErrDuplicateKey if ab_test_id exists.
func (s *ABTestStore) Insert(ctx context.Context, t *domain.ABTest) error {
	if t.ProfileAID == t.ProfileBID || !t.Status.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO ab_tests (
			ab_test_id, dating_account_id, test_name, profile_a_id, profile_b_id,
			start_date, end_date, status, swipes_per_profile
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		t.ABTestID,
		t.DatingAccountID,
		t.TestName,
		t.ProfileAID,
		t.ProfileBID,
		t.StartDate,
		t.EndDate,
		t.Status,
		t.SwipesPerProfile,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert ab test: %w", err)
	}
	return nil
}

// GetByID retrieves a test by its ID. Returns ErrNotFound if not exists.
func (s *ABTestStore) GetByID(ctx context.Context, abTestID int64) (*domain.ABTest, error) {
	query := fmt.Sprintf(`SELECT %s FROM ab_tests WHERE ab_test_id = $1`, abTestColumns)

	var t domain.ABTest
	err := s.pool.QueryRow(ctx, query, abTestID).Scan(
		&t.ABTestID,
		&t.DatingAccountID,
		&t.TestName,
		&t.ProfileAID,
		&t.ProfileBID,
		&t.StartDate,
		&t.EndDate,
		&t.Status,
		&t.SwipesPerProfile,
		&t.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ab test by id: %w", err)
	}
	return &t, nil
}

// GetByAccount retrieves all tests for an account, ordered by start_date ASC.
func (s *ABTestStore) GetByAccount(ctx context.Context, accountID int64) ([]*domain.ABTest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM ab_tests
		WHERE dating_account_id = $1
		ORDER BY start_date ASC, ab_test_id ASC
	`, abTestColumns)

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("get ab tests by account: %w", err)
	}
	defer rows.Close()

	return scanABTests(rows)
}

// GetRunningByAccount retrieves running tests for an account, ordered by start_date ASC.
func (s *ABTestStore) GetRunningByAccount(ctx context.Context, accountID int64) ([]*domain.ABTest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM ab_tests
		WHERE dating_account_id = $1 AND status = $2
		ORDER BY start_date ASC, ab_test_id ASC
	`, abTestColumns)

	rows, err := s.pool.Query(ctx, query, accountID, domain.ABTestStatusRunning)
	if err != nil {
		return nil, fmt.Errorf("get running ab tests: %w", err)
	}
	defer rows.Close()

	return scanABTests(rows)
}

// UpdateStatus transitions a test's status. Terminal states are immutable;
// the guard is enforced in the UPDATE predicate so concurrent transitions
// cannot race past it.
func (s *ABTestStore) UpdateStatus(ctx context.Context, abTestID int64, status domain.ABTestStatus, endDate *int64) error {
	if !status.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE ab_tests
		SET status = $2, end_date = COALESCE($3, end_date)
		WHERE ab_test_id = $1 AND status NOT IN ($4, $5)
	`

	tag, err := s.pool.Exec(ctx, query,
		abTestID,
		status,
		endDate,
		domain.ABTestStatusCompleted,
		domain.ABTestStatusCancelled,
	)
	if err != nil {
		return fmt.Errorf("update ab test status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a terminal one.
		if _, err := s.GetByID(ctx, abTestID); err != nil {
			return err
		}
		return storage.ErrTerminalStatus
	}
	return nil
}

// scanABTests scans multiple rows into a slice of ABTest.
func scanABTests(rows pgx.Rows) ([]*domain.ABTest, error) {
	var tests []*domain.ABTest

	for rows.Next() {
		var t domain.ABTest

		err := rows.Scan(
			&t.ABTestID,
			&t.DatingAccountID,
			&t.TestName,
			&t.ProfileAID,
			&t.ProfileBID,
			&t.StartDate,
			&t.EndDate,
			&t.Status,
			&t.SwipesPerProfile,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ab test row: %w", err)
		}

		tests = append(tests, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ab test rows: %w", err)
	}

	return tests, nil
}
