package memory

import (
	"context"
	"errors"
	"testing"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/storage"
)

func TestProfileStore_ActiveByAccount(t *testing.T) {
	store := NewProfileStore()
	ctx := context.Background()

	profiles := []*domain.Profile{
		{ProfileID: 2, DatingAccountID: 1, ProfileName: "beach photos", IsActive: true},
		{ProfileID: 1, DatingAccountID: 1, ProfileName: "hiking photos", IsActive: true},
		{ProfileID: 3, DatingAccountID: 1, ProfileName: "old bio", IsActive: false},
		{ProfileID: 4, DatingAccountID: 2, ProfileName: "other account", IsActive: true},
	}
	for _, p := range profiles {
		if err := store.Insert(ctx, p); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	active, err := store.GetActiveByAccount(ctx, 1)
	if err != nil {
		t.Fatalf("GetActiveByAccount failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("Expected 2 active profiles, got %d", len(active))
	}
	// Ordered by profile_id ASC
	if active[0].ProfileID != 1 || active[1].ProfileID != 2 {
		t.Errorf("Expected order [1 2], got [%d %d]", active[0].ProfileID, active[1].ProfileID)
	}

	count, _ := store.CountActiveByAccount(ctx, 1)
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}
}

func TestProfileStore_NotFound(t *testing.T) {
	store := NewProfileStore()

	_, err := store.GetByID(context.Background(), 99)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestProfileStore_ListAccountIDs(t *testing.T) {
	store := NewProfileStore()
	ctx := context.Background()

	ids, err := store.ListAccountIDs(ctx)
	if err != nil {
		t.Fatalf("ListAccountIDs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("Expected no accounts, got %v", ids)
	}

	profiles := []*domain.Profile{
		{ProfileID: 1, DatingAccountID: 2, IsActive: true},
		{ProfileID: 2, DatingAccountID: 1, IsActive: true},
		{ProfileID: 3, DatingAccountID: 1, IsActive: false},
	}
	for _, p := range profiles {
		if err := store.Insert(ctx, p); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	ids, err = store.ListAccountIDs(ctx)
	if err != nil {
		t.Fatalf("ListAccountIDs failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("Expected [1 2], got %v", ids)
	}
}
