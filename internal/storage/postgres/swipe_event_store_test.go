package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

func testEvent(id string, accountID, swipedAt int64) *domain.SwipeEvent {
	return &domain.SwipeEvent{
		EventID:         id,
		DatingAccountID: accountID,
		ProfileID:       ptr(int64(10)),
		TargetName:      "Alex",
		TargetAge:       28,
		TargetDistance:  5,
		Direction:       domain.DirectionRight,
		IsMatch:         false,
		AIScore:         ptr(0.72),
		DecisionReason:  "score above threshold",
		SwipedAt:        swipedAt,
	}
}

func TestSwipeEventStore_InsertAndQuery(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwipeEventStore(pool)
	ctx := context.Background()

	ev := testEvent("ev-1", 1, 1000)
	require.NoError(t, store.Insert(ctx, ev))

	got, err := store.Query(ctx, storage.EventFilter{AccountID: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ev-1", got[0].EventID)
	assert.Equal(t, domain.DirectionRight, got[0].Direction)
	require.NotNil(t, got[0].AIScore)
	assert.InDelta(t, 0.72, *got[0].AIScore, 1e-9)
	assert.Equal(t, "score above threshold", got[0].DecisionReason)
	assert.NotZero(t, got[0].CreatedAt)
}

func TestSwipeEventStore_DuplicateEventID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwipeEventStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testEvent("ev-1", 1, 1000)))

	err := store.Insert(ctx, testEvent("ev-1", 1, 1000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	n, err := store.Count(ctx, storage.EventFilter{AccountID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSwipeEventStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwipeEventStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testEvent("ev-2", 1, 2000)))

	// Batch contains a duplicate; nothing from it may land.
	err := store.InsertBulk(ctx, []*domain.SwipeEvent{
		testEvent("ev-1", 1, 1000),
		testEvent("ev-2", 1, 2000),
		testEvent("ev-3", 1, 3000),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	n, err := store.Count(ctx, storage.EventFilter{AccountID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSwipeEventStore_QueryFilters(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwipeEventStore(pool)
	ctx := context.Background()

	events := []*domain.SwipeEvent{
		{EventID: "ev-1", DatingAccountID: 1, ProfileID: ptr(int64(10)), Direction: domain.DirectionRight, SwipedAt: 1000},
		{EventID: "ev-2", DatingAccountID: 1, ProfileID: ptr(int64(11)), ABTestID: ptr(int64(5)), Direction: domain.DirectionLeft, SwipedAt: 2000},
		{EventID: "ev-3", DatingAccountID: 1, Direction: domain.DirectionSuper, IsMatch: true, SwipedAt: 3000},
		{EventID: "ev-4", DatingAccountID: 2, ProfileID: ptr(int64(10)), Direction: domain.DirectionRight, SwipedAt: 1500},
	}
	require.NoError(t, store.InsertBulk(ctx, events))

	tests := []struct {
		name    string
		filter  storage.EventFilter
		wantIDs []string
	}{
		{"account only", storage.EventFilter{AccountID: 1}, []string{"ev-1", "ev-2", "ev-3"}},
		{"by profile", storage.EventFilter{AccountID: 1, ProfileID: ptr(int64(11))}, []string{"ev-2"}},
		{"by ab test", storage.EventFilter{AccountID: 1, ABTestID: ptr(int64(5))}, []string{"ev-2"}},
		{"half-open range", storage.EventFilter{AccountID: 1, Since: ptr(int64(1000)), Until: ptr(int64(3000))}, []string{"ev-1", "ev-2"}},
		{"other account", storage.EventFilter{AccountID: 2}, []string{"ev-4"}},
		{"empty range", storage.EventFilter{AccountID: 1, Since: ptr(int64(5000))}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			require.NoError(t, err)

			var ids []string
			for _, e := range got {
				ids = append(ids, e.EventID)
			}
			assert.Equal(t, tt.wantIDs, ids)

			n, err := store.Count(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.wantIDs)), n)
		})
	}
}

func TestSwipeEventStore_QueryOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwipeEventStore(pool)
	ctx := context.Background()

	// Same timestamp ties break on event_id.
	require.NoError(t, store.InsertBulk(ctx, []*domain.SwipeEvent{
		testEvent("ev-b", 1, 2000),
		testEvent("ev-a", 1, 2000),
		testEvent("ev-c", 1, 1000),
	}))

	got, err := store.Query(ctx, storage.EventFilter{AccountID: 1})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "ev-c", got[0].EventID)
	assert.Equal(t, "ev-a", got[1].EventID)
	assert.Equal(t, "ev-b", got[2].EventID)
}

func TestSwipeEventStore_GetRecent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwipeEventStore(pool)
	ctx := context.Background()

	var events []*domain.SwipeEvent
	for i := 1; i <= 5; i++ {
		events = append(events, testEvent(fmt.Sprintf("ev-%d", i), 1, int64(i*1000)))
	}
	require.NoError(t, store.InsertBulk(ctx, events))

	got, err := store.GetRecent(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "ev-5", got[0].EventID)
	assert.Equal(t, "ev-4", got[1].EventID)
	assert.Equal(t, "ev-3", got[2].EventID)

	got, err = store.GetRecent(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSwipeEventStore_NullableDimensions(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwipeEventStore(pool)
	ctx := context.Background()

	ev := &domain.SwipeEvent{
		EventID:         "ev-bare",
		DatingAccountID: 1,
		Direction:       domain.DirectionLeft,
		SwipedAt:        1000,
	}
	require.NoError(t, store.Insert(ctx, ev))

	got, err := store.Query(ctx, storage.EventFilter{AccountID: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].ProfileID)
	assert.Nil(t, got[0].ABTestID)
	assert.Nil(t, got[0].AIScore)
}
