package ingestion

import (
	"errors"
	"testing"

	"swipe-analytics-lab/internal/domain"
)

func validEvent() *domain.SwipeEvent {
	score := 0.8
	return &domain.SwipeEvent{
		DatingAccountID: 1,
		Direction:       domain.DirectionRight,
		IsMatch:         true,
		AIScore:         &score,
		SwipedAt:        1700000000000,
	}
}

func TestValidateEvent(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.SwipeEvent)
		wantErr bool
	}{
		{"valid right match", func(e *domain.SwipeEvent) {}, false},
		{"valid left", func(e *domain.SwipeEvent) {
			e.Direction = domain.DirectionLeft
			e.IsMatch = false
		}, false},
		{"valid super", func(e *domain.SwipeEvent) { e.Direction = domain.DirectionSuper }, false},
		{"unknown direction", func(e *domain.SwipeEvent) { e.Direction = "up" }, true},
		{"empty direction", func(e *domain.SwipeEvent) { e.Direction = "" }, true},
		{"left swipe with match", func(e *domain.SwipeEvent) {
			e.Direction = domain.DirectionLeft
			e.IsMatch = true
		}, true},
		{"missing account", func(e *domain.SwipeEvent) { e.DatingAccountID = 0 }, true},
		{"missing swiped_at", func(e *domain.SwipeEvent) { e.SwipedAt = 0 }, true},
		{"score above 1", func(e *domain.SwipeEvent) { s := 1.5; e.AIScore = &s }, true},
		{"negative score", func(e *domain.SwipeEvent) { s := -0.1; e.AIScore = &s }, true},
		{"no score", func(e *domain.SwipeEvent) { e.AIScore = nil }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEvent()
			tt.mutate(e)

			err := ValidateEvent(e)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEvent) {
					t.Errorf("ValidateEvent() error = %v, want ErrInvalidEvent", err)
				}
			} else if err != nil {
				t.Errorf("ValidateEvent() error = %v, want nil", err)
			}
		})
	}

	if err := ValidateEvent(nil); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("ValidateEvent(nil) error = %v, want ErrInvalidEvent", err)
	}
}
