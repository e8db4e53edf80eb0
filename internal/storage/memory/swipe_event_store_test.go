package memory

import (
	"context"
	"errors"
	"testing"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

func ptr[T any](v T) *T { return &v }

func TestSwipeEventStore_InsertAndQuery(t *testing.T) {
	store := NewSwipeEventStore()
	ctx := context.Background()

	event := &domain.SwipeEvent{
		EventID:         "ev1",
		DatingAccountID: 1,
		ProfileID:       ptr(int64(10)),
		Direction:       domain.DirectionRight,
		IsMatch:         true,
		AIScore:         ptr(0.82),
		SwipedAt:        1704067200000,
	}

	if err := store.Insert(ctx, event); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	result, err := store.Query(ctx, storage.EventFilter{AccountID: 1})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(result))
	}
	if result[0].Direction != domain.DirectionRight {
		t.Errorf("Direction mismatch: got %s", result[0].Direction)
	}
	if !result[0].IsMatch {
		t.Error("Expected IsMatch true")
	}
}

func TestSwipeEventStore_DuplicateKey(t *testing.T) {
	store := NewSwipeEventStore()
	ctx := context.Background()

	event := &domain.SwipeEvent{
		EventID:         "ev1",
		DatingAccountID: 1,
		Direction:       domain.DirectionLeft,
		SwipedAt:        1000,
	}

	if err := store.Insert(ctx, event); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, event)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestSwipeEventStore_InsertBulkPartialDuplicate(t *testing.T) {
	store := NewSwipeEventStore()
	ctx := context.Background()

	first := &domain.SwipeEvent{EventID: "ev1", DatingAccountID: 1, Direction: domain.DirectionLeft, SwipedAt: 1000}
	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	events := []*domain.SwipeEvent{
		{EventID: "ev2", DatingAccountID: 1, Direction: domain.DirectionRight, SwipedAt: 1001}, // new
		{EventID: "ev1", DatingAccountID: 1, Direction: domain.DirectionLeft, SwipedAt: 1000},  // duplicate
	}

	err := store.InsertBulk(ctx, events)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Verify no partial insert
	count, _ := store.Count(ctx, storage.EventFilter{AccountID: 1})
	if count != 1 {
		t.Errorf("Expected 1 event (rollback), got %d", count)
	}
}

func TestSwipeEventStore_QueryFilter(t *testing.T) {
	store := NewSwipeEventStore()
	ctx := context.Background()

	events := []*domain.SwipeEvent{
		{EventID: "a", DatingAccountID: 1, ProfileID: ptr(int64(10)), Direction: domain.DirectionRight, SwipedAt: 1000},
		{EventID: "b", DatingAccountID: 1, ProfileID: ptr(int64(20)), Direction: domain.DirectionLeft, SwipedAt: 2000},
		{EventID: "c", DatingAccountID: 1, ProfileID: ptr(int64(10)), ABTestID: ptr(int64(5)), Direction: domain.DirectionRight, SwipedAt: 3000},
		{EventID: "d", DatingAccountID: 1, Direction: domain.DirectionSuper, SwipedAt: 4000},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// By profile
	result, err := store.Query(ctx, storage.EventFilter{AccountID: 1, ProfileID: ptr(int64(10))})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("Expected 2 events for profile 10, got %d", len(result))
	}

	// By test
	result, _ = store.Query(ctx, storage.EventFilter{AccountID: 1, ABTestID: ptr(int64(5))})
	if len(result) != 1 {
		t.Errorf("Expected 1 event for test 5, got %d", len(result))
	}

	// Half-open time range: [2000, 4000) excludes SwipedAt=4000
	result, _ = store.Query(ctx, storage.EventFilter{AccountID: 1, Since: ptr(int64(2000)), Until: ptr(int64(4000))})
	if len(result) != 2 {
		t.Errorf("Expected 2 events in [2000,4000), got %d", len(result))
	}
}

func TestSwipeEventStore_QueryOrdering(t *testing.T) {
	store := NewSwipeEventStore()
	ctx := context.Background()

	events := []*domain.SwipeEvent{
		{EventID: "c", DatingAccountID: 1, Direction: domain.DirectionLeft, SwipedAt: 3000},
		{EventID: "a", DatingAccountID: 1, Direction: domain.DirectionLeft, SwipedAt: 1000},
		{EventID: "b", DatingAccountID: 1, Direction: domain.DirectionLeft, SwipedAt: 2000},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, _ := store.Query(ctx, storage.EventFilter{AccountID: 1})
	for i := 1; i < len(result); i++ {
		if result[i].SwipedAt < result[i-1].SwipedAt {
			t.Errorf("Results not ordered: %d < %d", result[i].SwipedAt, result[i-1].SwipedAt)
		}
	}
}

func TestSwipeEventStore_GetRecent(t *testing.T) {
	store := NewSwipeEventStore()
	ctx := context.Background()

	events := []*domain.SwipeEvent{
		{EventID: "a", DatingAccountID: 1, Direction: domain.DirectionLeft, SwipedAt: 1000},
		{EventID: "b", DatingAccountID: 1, Direction: domain.DirectionRight, SwipedAt: 2000},
		{EventID: "c", DatingAccountID: 1, Direction: domain.DirectionRight, SwipedAt: 3000},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetRecent(ctx, 1, 2)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(result))
	}
	if result[0].EventID != "c" || result[1].EventID != "b" {
		t.Errorf("Expected newest-first [c b], got [%s %s]", result[0].EventID, result[1].EventID)
	}
}

func TestSwipeEventStore_AccountIsolation(t *testing.T) {
	store := NewSwipeEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.SwipeEvent{EventID: "a", DatingAccountID: 1, Direction: domain.DirectionLeft, SwipedAt: 1000}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, &domain.SwipeEvent{EventID: "b", DatingAccountID: 2, Direction: domain.DirectionRight, SwipedAt: 2000}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	count, _ := store.Count(ctx, storage.EventFilter{AccountID: 1})
	if count != 1 {
		t.Errorf("Expected 1 event for account 1, got %d", count)
	}
}
