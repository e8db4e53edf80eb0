package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

// ProfileStore implements storage.ProfileStore using PostgreSQL.
type ProfileStore struct {
	pool *Pool
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(pool *Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProfileStore = (*ProfileStore)(nil)

// Insert adds a new profile. Returns ErrDuplicateKey if profile_id exists.
func (s *ProfileStore) Insert(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (
			profile_id, dating_account_id, profile_name, bio, age, is_active
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		p.ProfileID,
		p.DatingAccountID,
		p.ProfileName,
		p.Bio,
		p.Age,
		p.IsActive,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by its ID. Returns ErrNotFound if not exists.
func (s *ProfileStore) GetByID(ctx context.Context, profileID int64) (*domain.Profile, error) {
	query := `
		SELECT profile_id, dating_account_id, profile_name, bio, age, is_active, created_at
		FROM profiles
		WHERE profile_id = $1
	`

	var p domain.Profile
	err := s.pool.QueryRow(ctx, query, profileID).Scan(
		&p.ProfileID,
		&p.DatingAccountID,
		&p.ProfileName,
		&p.Bio,
		&p.Age,
		&p.IsActive,
		&p.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get profile by id: %w", err)
	}
	return &p, nil
}

// GetActiveByAccount retrieves active profiles for an account, ordered by profile_id ASC.
func (s *ProfileStore) GetActiveByAccount(ctx context.Context, accountID int64) ([]*domain.Profile, error) {
	query := `
		SELECT profile_id, dating_account_id, profile_name, bio, age, is_active, created_at
		FROM profiles
		WHERE dating_account_id = $1 AND is_active
		ORDER BY profile_id ASC
	`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("get active profiles: %w", err)
	}
	defer rows.Close()

	return scanProfiles(rows)
}

// CountActiveByAccount returns the number of active profiles for an account.
func (s *ProfileStore) CountActiveByAccount(ctx context.Context, accountID int64) (int, error) {
	query := `SELECT COUNT(*) FROM profiles WHERE dating_account_id = $1 AND is_active`

	var n int
	if err := s.pool.QueryRow(ctx, query, accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active profiles: %w", err)
	}
	return n, nil
}

// ListAccountIDs returns the distinct account ids that own at least one
// profile, ordered ASC.
func (s *ProfileStore) ListAccountIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT DISTINCT dating_account_id FROM profiles ORDER BY dating_account_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list account ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account ids: %w", err)
	}
	return ids, nil
}

// scanProfiles scans multiple rows into a slice of Profile.
func scanProfiles(rows pgx.Rows) ([]*domain.Profile, error) {
	var profiles []*domain.Profile

	for rows.Next() {
		var p domain.Profile

		err := rows.Scan(
			&p.ProfileID,
			&p.DatingAccountID,
			&p.ProfileName,
			&p.Bio,
			&p.Age,
			&p.IsActive,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}

		profiles = append(profiles, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile rows: %w", err)
	}

	return profiles, nil
}
