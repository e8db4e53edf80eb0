package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

func testABTest(id, accountID, startDate int64) *domain.ABTest {
	return &domain.ABTest{
		ABTestID:         id,
		DatingAccountID:  accountID,
		TestName:         "bio rewrite",
		ProfileAID:       10,
		ProfileBID:       11,
		StartDate:        startDate,
		Status:           domain.ABTestStatusRunning,
		SwipesPerProfile: 100,
	}
}

func TestABTestStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewABTestStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testABTest(1, 1, 1000)))

	got, err := store.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "bio rewrite", got.TestName)
	assert.Equal(t, int64(10), got.ProfileAID)
	assert.Equal(t, int64(11), got.ProfileBID)
	assert.Equal(t, domain.ABTestStatusRunning, got.Status)
	assert.Nil(t, got.EndDate)
	assert.NotZero(t, got.CreatedAt)

	_, err = store.GetByID(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestABTestStore_RejectsSameVariant(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewABTestStore(pool)

	test := testABTest(1, 1, 1000)
	test.ProfileBID = test.ProfileAID
	err := store.Insert(context.Background(), test)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestABTestStore_DuplicateID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewABTestStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testABTest(1, 1, 1000)))
	err := store.Insert(ctx, testABTest(1, 1, 2000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestABTestStore_GetByAccount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewABTestStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testABTest(2, 1, 2000)))
	require.NoError(t, store.Insert(ctx, testABTest(1, 1, 1000)))
	require.NoError(t, store.Insert(ctx, testABTest(3, 2, 500)))

	got, err := store.GetByAccount(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ABTestID)
	assert.Equal(t, int64(2), got[1].ABTestID)
}

func TestABTestStore_GetRunningByAccount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewABTestStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testABTest(1, 1, 1000)))
	require.NoError(t, store.Insert(ctx, testABTest(2, 1, 2000)))
	require.NoError(t, store.UpdateStatus(ctx, 2, domain.ABTestStatusCompleted, ptr(int64(3000))))

	got, err := store.GetRunningByAccount(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ABTestID)
}

func TestABTestStore_TerminalStatusImmutable(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewABTestStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testABTest(1, 1, 1000)))
	require.NoError(t, store.UpdateStatus(ctx, 1, domain.ABTestStatusCompleted, ptr(int64(5000))))

	got, err := store.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ABTestStatusCompleted, got.Status)
	require.NotNil(t, got.EndDate)
	assert.Equal(t, int64(5000), *got.EndDate)

	// Completed and cancelled tests cannot transition again.
	err = store.UpdateStatus(ctx, 1, domain.ABTestStatusCancelled, nil)
	assert.ErrorIs(t, err, storage.ErrTerminalStatus)

	err = store.UpdateStatus(ctx, 1, domain.ABTestStatusRunning, nil)
	assert.ErrorIs(t, err, storage.ErrTerminalStatus)
}

func TestABTestStore_UpdateStatusNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewABTestStore(pool)
	err := store.UpdateStatus(context.Background(), 999, domain.ABTestStatusCompleted, nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
