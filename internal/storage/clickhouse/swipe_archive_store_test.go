package clickhouse

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

func archiveEvent(id string, accountID, swipedAt int64) *domain.SwipeEvent {
	return &domain.SwipeEvent{
		EventID:         id,
		DatingAccountID: accountID,
		ProfileID:       ptr(int64(10)),
		Direction:       domain.DirectionRight,
		IsMatch:         true,
		AIScore:         ptr(0.87),
		TargetAge:       27,
		TargetDistance:  12,
		SwipedAt:        swipedAt,
	}
}

func TestSwipeArchiveStore_ArchiveAndRead(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwipeArchiveStore(conn)
	ctx := context.Background()
	batchID := uuid.NewString()

	events := []*domain.SwipeEvent{
		archiveEvent("ev-1", 1, 1000),
		archiveEvent("ev-2", 1, 2000),
		archiveEvent("ev-3", 2, 1500),
	}
	require.NoError(t, store.ArchiveBulk(ctx, batchID, events))

	got, err := store.GetByTimeRange(ctx, 1, 0, 3000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ev-1", got[0].EventID)
	assert.Equal(t, "ev-2", got[1].EventID)
	require.NotNil(t, got[0].ProfileID)
	assert.Equal(t, int64(10), *got[0].ProfileID)
	assert.Nil(t, got[0].ABTestID)
	require.NotNil(t, got[0].AIScore)
	assert.InDelta(t, 0.87, *got[0].AIScore, 1e-9)
	assert.True(t, got[0].IsMatch)
	assert.Equal(t, 27, got[0].TargetAge)
}

func TestSwipeArchiveStore_HalfOpenRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwipeArchiveStore(conn)
	ctx := context.Background()

	require.NoError(t, store.ArchiveBulk(ctx, uuid.NewString(), []*domain.SwipeEvent{
		archiveEvent("ev-1", 1, 1000),
		archiveEvent("ev-2", 1, 2000),
	}))

	// Until is exclusive.
	got, err := store.GetByTimeRange(ctx, 1, 1000, 2000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ev-1", got[0].EventID)

	count, err := store.CountByAccount(ctx, 1, 1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSwipeArchiveStore_ReplayedEventCountedOnce(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwipeArchiveStore(conn)
	ctx := context.Background()

	ev := archiveEvent("ev-replay", 1, 1000)
	require.NoError(t, store.ArchiveBulk(ctx, uuid.NewString(), []*domain.SwipeEvent{ev}))
	require.NoError(t, store.ArchiveBulk(ctx, uuid.NewString(), []*domain.SwipeEvent{ev}))

	count, err := store.CountByAccount(ctx, 1, 0, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := store.GetByTimeRange(ctx, 1, 0, 2000)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSwipeArchiveStore_InvalidBatchID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwipeArchiveStore(conn)
	err := store.ArchiveBulk(context.Background(), "not-a-uuid", []*domain.SwipeEvent{
		archiveEvent("ev-1", 1, 1000),
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestSwipeArchiveStore_EmptyBatchIsNoop(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwipeArchiveStore(conn)
	require.NoError(t, store.ArchiveBulk(context.Background(), uuid.NewString(), nil))
}
